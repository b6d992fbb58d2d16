package etl

import (
	"context"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/luisa2795/datawarehouse-for-SLR/internal/db"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/delta"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/normalize"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/source"
)

// Sentence types that carry no entities worth keeping.
var skippedSentenceTypes = map[string]struct{}{
	"TAG": {}, "TABLE": {}, "EMPTY": {}, "FORMULA": {}, "TABLE_HEADER": {},
	"FIGURE_HEADER": {}, "FIGURE": {}, "HYP_NUMBER": {}, "RQ_NUMBER": {},
}

// SentenceDelta holds every row the sentence stage appends.
type SentenceDelta struct {
	Sentences      []db.Sentence
	CitationGroups []db.CitationGroup
	Bridges        []db.BridgeSentenceCitation
}

// SentenceStage loads dim_sentence with one citation group per new sentence.
// Paragraph and paper must be loaded first.
type SentenceStage struct {
	logger zerolog.Logger
	delta  SentenceDelta
	loaded bool
}

func NewSentenceStage(logger zerolog.Logger) *SentenceStage {
	return &SentenceStage{logger: logger}
}

func (s *SentenceStage) Name() string { return "sentence" }

func (s *SentenceStage) Load(ctx context.Context, store source.Store, w Warehouse) error {
	records, err := readExtract(ctx, store, source.SentencesFile, toSentenceRecord)
	if err != nil {
		return err
	}
	citations, err := readExtract(ctx, store, source.CitationsFile, toCitationRecord)
	if err != nil {
		return err
	}
	var (
		papers     []db.Paper
		paragraphs []db.Paragraph
		existing   []db.Sentence
		groups     []db.CitationGroup
	)
	if err := loadTables(ctx, w, map[string]any{
		db.TablePaper:         &papers,
		db.TableParagraph:     &paragraphs,
		db.TableSentence:      &existing,
		db.TableCitationGroup: &groups,
	}); err != nil {
		return err
	}

	paperByCitekey := paperKeysBy(papers, func(p db.Paper) string { return p.Citekey })
	paragraphKeys := make(map[string]int64, len(paragraphs))
	for _, p := range paragraphs {
		paragraphKeys[p.ParaSourceID] = p.ParagraphPK
	}
	cited := make(map[string][]int64)
	for _, c := range citations {
		id := strings.TrimSpace(c.SentenceID)
		pk := paperByCitekey[strings.TrimSpace(c.ReferenceCitekey)]
		if !slices.Contains(cited[id], pk) {
			cited[id] = append(cited[id], pk)
		}
	}

	src := make([]db.Sentence, 0, len(records))
	skipped := 0
	for _, rec := range records {
		if !keepSentence(rec) {
			skipped++
			continue
		}
		src = append(src, db.Sentence{
			SentenceSourceID: normalize.OrMissing(strings.TrimSpace(rec.SentenceID)),
			SentenceString:   rec.Sentence,
			SentenceType:     normalize.OrMissing(strings.TrimSpace(rec.SentenceType)),
			ParagraphPK:      paragraphKeys[strings.TrimSpace(rec.ParaID)],
		})
	}

	s.delta = buildSentenceDelta(src, existing, groups, cited)
	s.loaded = true
	s.logger.Debug().
		Int("skipped", skipped).
		Int("new_sentences", len(s.delta.Sentences)).
		Int("bridges", len(s.delta.Bridges)).
		Msg("sentence delta computed")
	return nil
}

func keepSentence(rec sentenceRecord) bool {
	if strings.TrimSpace(rec.Sentence) == "" {
		return false
	}
	_, skip := skippedSentenceTypes[strings.TrimSpace(rec.SentenceType)]
	return !skip
}

var sentenceDimension = delta.Dimension[db.Sentence, string]{
	Name:     db.TableSentence,
	Identity: func(s db.Sentence) string { return s.SentenceSourceID },
	Key:      func(s db.Sentence) int64 { return s.SentencePK },
	WithKey: func(s db.Sentence, pk int64) db.Sentence {
		s.SentencePK = pk
		return s
	},
	Dummy: func() db.Sentence {
		return db.Sentence{
			SentenceSourceID: dummySourceID,
			SentenceString:   normalize.Missing,
			SentenceType:     normalize.Missing,
		}
	},
	Compare: func(a, b db.Sentence) int { return compareSourceIDs(a.SentenceSourceID, b.SentenceSourceID) },
}

// buildSentenceDelta keys new sentences and gives each its own citation group,
// numbered in key order above the largest existing group. A sentence without
// resolved citations bridges to paper 0.
func buildSentenceDelta(src, existing []db.Sentence, groups []db.CitationGroup, cited map[string][]int64) SentenceDelta {
	var out SentenceDelta
	hasGroupZero := false
	for _, g := range groups {
		if g.CitationgroupPK == 0 {
			hasGroupZero = true
		}
	}
	if !hasGroupZero {
		out.CitationGroups = append(out.CitationGroups, db.CitationGroup{})
		out.Bridges = append(out.Bridges, db.BridgeSentenceCitation{})
	}

	groupKeys := delta.NewKeys(max(
		delta.MaxKey(groups, func(g db.CitationGroup) int64 { return g.CitationgroupPK }),
		delta.MaxKey(existing, func(s db.Sentence) int64 { return s.CitationgroupPK }),
	))
	for _, row := range sentenceDimension.Compute(src, existing).Rows {
		if row.SentencePK == 0 {
			out.Sentences = append(out.Sentences, row)
			continue
		}
		row.CitationgroupPK = groupKeys.Next()
		out.Sentences = append(out.Sentences, row)
		out.CitationGroups = append(out.CitationGroups, db.CitationGroup{CitationgroupPK: row.CitationgroupPK})

		papers := cited[row.SentenceSourceID]
		if len(papers) == 0 {
			papers = []int64{0}
		}
		for _, pk := range papers {
			out.Bridges = append(out.Bridges, db.BridgeSentenceCitation{CitationgroupPK: row.CitationgroupPK, PaperPK: pk})
		}
	}
	return out
}

// Write appends citation groups, sentences and bridges in one transaction.
func (s *SentenceStage) Write(ctx context.Context, w Warehouse) (int64, error) {
	if !s.loaded {
		return 0, ErrNotLoaded
	}
	d := s.delta
	return writeUnit(ctx, w, s.logger, db.TableSentence,
		write(db.TableCitationGroup, d.CitationGroups, len(d.CitationGroups)),
		write(db.TableSentence, d.Sentences, len(d.Sentences)),
		write(db.TableBridgeSentenceCitation, d.Bridges, len(d.Bridges)),
	)
}

func (s *SentenceStage) Delta() SentenceDelta { return s.delta }
