// Package paper merges the papers and references extracts into dim_paper
// candidates and derives the author and keyword groups of new papers.
package paper

import (
	"strings"
	"time"

	"github.com/luisa2795/datawarehouse-for-SLR/internal/author"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/normalize"
)

const (
	MinYear  = 1677
	MaxYear  = 2262
	maxPages = 2_000_000_000
)

// YearSentinel is stored when a year is missing or out of range.
var YearSentinel = time.Date(MinYear, time.January, 1, 0, 0, 0, 0, time.UTC)

// ArticleRecord is one row of the papers extract.
type ArticleRecord struct {
	ArticleID string
	Citekey   string
	Title     string
	Abstract  string
	Year      string
	Pages     string
	Journal   JournalFields
}

// ReferenceRecord is one row of the references extract.
type ReferenceRecord struct {
	Citekey string
	Authors string
	Title   string
	Year    string
	Pages   string
	Journal JournalFields
}

// KeywordRecord is one row of the keywords extract.
type KeywordRecord struct {
	ArticleID string
	Keyword   string
}

// Lookups resolve foreign keys against dimensions already loaded.
type Lookups struct {
	Authors  author.Lookup
	Journals JournalLookup
	Keywords map[string]int64
}

// Attributes are the exact-match columns of dim_paper.
type Attributes struct {
	ArticleSourceID string
	Citekey         string
	Abstract        string
	Year            time.Time
	Title           string
	NoOfPages       int
	JournalPK       int64
}

// Candidate is one merged paper with its ordered member keys.
type Candidate struct {
	Attributes
	AuthorPKs  []int64
	KeywordPKs []int64
}

type side struct {
	attrs     Attributes
	hasYear   bool
	authors   []int64
	keywords  []int64
	hasAuthor bool
}

// Merge outer-joins articles and references on citekey. Where both sides
// carry a value the article side wins for year, title, authors, pages and
// journal. Output follows first appearance, articles before references.
func Merge(articles []ArticleRecord, keywords []KeywordRecord, authors []author.Record, refs []ReferenceRecord, lk Lookups) []Candidate {
	keywordsByArticle := make(map[string][]int64)
	for _, kw := range keywords {
		pk := lk.Keywords[NormalizeKeyword(kw.Keyword)]
		keywordsByArticle[kw.ArticleID] = appendUnique(keywordsByArticle[kw.ArticleID], pk)
	}
	authorsByArticle := make(map[string][]int64)
	for _, rec := range authors {
		pk := lk.Authors.Resolve(author.ParseName(rec.Fullname))
		authorsByArticle[rec.ArticleID] = appendUnique(authorsByArticle[rec.ArticleID], pk)
	}

	var order []string
	articleSide := make(map[string]side)
	for _, a := range articles {
		citekey := strings.TrimSpace(a.Citekey)
		key := mergeKey(citekey, a.ArticleID)
		if _, ok := articleSide[key]; ok {
			continue
		}
		order = append(order, key)
		year, hasYear := ParseYear(a.Year)
		authorPKs, hasAuthor := authorsByArticle[a.ArticleID]
		articleSide[key] = side{
			attrs: Attributes{
				ArticleSourceID: normalize.OrMissing(strings.TrimSpace(a.ArticleID)),
				Citekey:         normalize.OrMissing(citekey),
				Abstract:        normalize.OrMissing(strings.TrimSpace(a.Abstract)),
				Year:            year,
				Title:           normalize.OrMissing(strings.TrimSpace(a.Title)),
				NoOfPages:       PageCount(a.Pages),
				JournalPK:       lk.Journals.Resolve(a.Journal),
			},
			hasYear:   hasYear,
			authors:   authorPKs,
			hasAuthor: hasAuthor,
			keywords:  keywordsByArticle[a.ArticleID],
		}
	}

	refSide := make(map[string]side)
	for _, r := range refs {
		key := strings.TrimSpace(r.Citekey)
		if _, ok := refSide[key]; ok {
			continue
		}
		if _, ok := articleSide[key]; !ok {
			order = append(order, key)
		}
		var authorPKs []int64
		for _, pair := range author.ParseReferenceAuthors(r.Authors) {
			pk := lk.Authors.Resolve(author.NaturalKey{
				Surname:    normalize.OrMissing(pair[0]),
				Firstname:  normalize.OrMissing(pair[1]),
				Middlename: normalize.Missing,
			})
			authorPKs = appendUnique(authorPKs, pk)
		}
		year, hasYear := ParseYear(r.Year)
		refSide[key] = side{
			attrs: Attributes{
				ArticleSourceID: normalize.Missing,
				Citekey:         normalize.OrMissing(key),
				Abstract:        normalize.Missing,
				Year:            year,
				Title:           normalize.OrMissing(strings.TrimSpace(r.Title)),
				NoOfPages:       PageCount(r.Pages),
				JournalPK:       lk.Journals.Resolve(r.Journal),
			},
			hasYear:   hasYear,
			authors:   authorPKs,
			hasAuthor: len(authorPKs) > 0,
		}
	}

	out := make([]Candidate, 0, len(order))
	for _, key := range order {
		a, inArticles := articleSide[key]
		r, inRefs := refSide[key]
		var merged side
		switch {
		case inArticles && inRefs:
			merged = coalesce(a, r)
		case inArticles:
			merged = a
		default:
			merged = r
		}
		out = append(out, Candidate{
			Attributes: merged.attrs,
			AuthorPKs:  orDummy(merged.authors),
			KeywordPKs: orDummy(merged.keywords),
		})
	}
	return out
}

// mergeKey is the join key of a paper: its citekey, or its article id when the
// citekey is blank so that such articles stay distinct.
func mergeKey(citekey, articleID string) string {
	if normalize.IsMissing(citekey) {
		return "\x00" + strings.TrimSpace(articleID)
	}
	return citekey
}

func coalesce(a, r side) side {
	out := a
	if !a.hasYear && r.hasYear {
		out.attrs.Year = r.attrs.Year
		out.hasYear = true
	}
	if normalize.IsMissing(a.attrs.Title) {
		out.attrs.Title = r.attrs.Title
	}
	if !a.hasAuthor && r.hasAuthor {
		out.authors = r.authors
		out.hasAuthor = true
	}
	if a.attrs.NoOfPages == 0 {
		out.attrs.NoOfPages = r.attrs.NoOfPages
	}
	if a.attrs.JournalPK == 0 {
		out.attrs.JournalPK = r.attrs.JournalPK
	}
	return out
}

// NormalizeKeyword lowercases and trims a keyword.
func NormalizeKeyword(keyword string) string {
	return strings.ToLower(strings.TrimSpace(keyword))
}

// ParseYear parses a publication year into January 1 of that year. Missing or
// out-of-range years yield YearSentinel and false.
func ParseYear(value string) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	year, ok := normalize.WordToInt(trimmed)
	if !ok {
		if f, fok := normalize.WordToFloat(trimmed); fok && f == float64(int(f)) {
			year, ok = int(f), true
		}
	}
	if !ok || year < MinYear || year > MaxYear {
		return YearSentinel, false
	}
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), true
}

// PageCount converts a pages cell into a page count. Ranges "start-end" yield
// end-start; a single value, or one with no start page, is taken as the count. Results outside
// [1, 2e9) yield 0.
func PageCount(value string) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0
	}
	var n int
	if start, end, found := strings.Cut(trimmed, "-"); found && strings.TrimSpace(start) != "" {
		n = normalize.PageNumberToInt(strings.TrimSpace(end)) - normalize.PageNumberToInt(strings.TrimSpace(start))
	} else {
		n = normalize.PageNumberToInt(trimmed)
	}
	if n < 1 || n >= maxPages {
		return 0
	}
	return n
}

func appendUnique(pks []int64, pk int64) []int64 {
	for _, existing := range pks {
		if existing == pk {
			return pks
		}
	}
	return append(pks, pk)
}

func orDummy(pks []int64) []int64 {
	if len(pks) == 0 {
		return []int64{0}
	}
	return pks
}
