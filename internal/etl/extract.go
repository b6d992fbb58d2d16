package etl

import (
	"context"
	"fmt"

	"github.com/luisa2795/datawarehouse-for-SLR/internal/author"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/paper"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/source"
)

// Typed views over the CSV extracts.

type paragraphRecord struct {
	ParaID        string
	ArticleID     string
	Heading       string
	Subheading    string
	ParagraphType string
}

type sentenceRecord struct {
	SentenceID   string
	ParaID       string
	Sentence     string
	SentenceType string
}

type citationRecord struct {
	SentenceID       string
	ReferenceCitekey string
}

type entityRecord struct {
	SentenceID string
	EntID      string
	Label      string
	Path       string
}

func readExtract[T any](ctx context.Context, store source.Store, name string, convert func(source.Record) T) ([]T, error) {
	records, err := source.ReadCSV(ctx, store, name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	out := make([]T, 0, len(records))
	for _, rec := range records {
		out = append(out, convert(rec))
	}
	return out, nil
}

func keywordRecord(r source.Record) paper.KeywordRecord {
	return paper.KeywordRecord{ArticleID: r.Get("article_id"), Keyword: r.Get("keyword")}
}

func authorRecord(r source.Record) author.Record {
	return author.Record{
		ArticleID:   r.Get("article_id"),
		Fullname:    r.Get("fullname"),
		Email:       r.Get("email"),
		Department:  r.Get("departments"),
		Institution: r.Get("institutions"),
		Country:     r.Get("countries"),
	}
}

func journalFields(r source.Record) paper.JournalFields {
	return paper.JournalFields{
		Title:     r.Get("journal"),
		Volume:    r.Get("volume"),
		Issue:     r.Get("issue"),
		Publisher: r.Get("publisher"),
		Place:     r.Get("place"),
	}
}

func articleRecord(r source.Record) paper.ArticleRecord {
	return paper.ArticleRecord{
		ArticleID: r.Get("article_id"),
		Citekey:   r.Get("citekey"),
		Title:     r.Get("title"),
		Abstract:  r.Get("abstract"),
		Year:      r.Get("year"),
		Pages:     r.Get("pages"),
		Journal:   journalFields(r),
	}
}

func referenceRecord(r source.Record) paper.ReferenceRecord {
	return paper.ReferenceRecord{
		Citekey: r.Get("citekey"),
		Authors: r.Get("authors"),
		Title:   r.Get("title"),
		Year:    r.Get("year"),
		Pages:   r.Get("pages"),
		Journal: journalFields(r),
	}
}

func toParagraphRecord(r source.Record) paragraphRecord {
	return paragraphRecord{
		ParaID:        r.Get("para_id"),
		ArticleID:     r.Get("article_id"),
		Heading:       r.Get("last_section_title"),
		Subheading:    r.Get("last_subsection_title"),
		ParagraphType: r.Get("paragraph_type"),
	}
}

func toSentenceRecord(r source.Record) sentenceRecord {
	return sentenceRecord{
		SentenceID:   r.Get("sentence_id"),
		ParaID:       r.Get("para_id"),
		Sentence:     r.Get("sentence"),
		SentenceType: r.Get("sentence_type"),
	}
}

func toCitationRecord(r source.Record) citationRecord {
	return citationRecord{SentenceID: r.Get("sentence_id"), ReferenceCitekey: r.Get("reference_citekey")}
}

func toEntityRecord(r source.Record) entityRecord {
	return entityRecord{
		SentenceID: r.Get("sentence_id"),
		EntID:      r.Get("ent_id"),
		Label:      r.Get("label"),
		Path:       r.Get("ent_path"),
	}
}
