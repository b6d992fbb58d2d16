package paper

import (
	"cmp"
	"time"

	"github.com/luisa2795/datawarehouse-for-SLR/internal/db"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/delta"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/normalize"
)

// Existing is the warehouse state the paper delta is computed against.
type Existing struct {
	Papers        []db.Paper
	AuthorGroups  []db.AuthorGroup
	KeywordGroups []db.KeywordGroup
}

// Delta holds every row the paper stage appends.
type Delta struct {
	Papers         []db.Paper
	AuthorGroups   []db.AuthorGroup
	KeywordGroups  []db.KeywordGroup
	AuthorBridges  []db.BridgePaperAuthor
	KeywordBridges []db.BridgePaperKeyword
}

func (d Delta) Rows() int {
	return len(d.Papers) + len(d.AuthorGroups) + len(d.KeywordGroups) + len(d.AuthorBridges) + len(d.KeywordBridges)
}

var paperDimension = delta.Dimension[db.Paper, Attributes]{
	Name:     db.TablePaper,
	Identity: attributesOf,
	Key:      func(p db.Paper) int64 { return p.PaperPK },
	WithKey: func(p db.Paper, pk int64) db.Paper {
		p.PaperPK = pk
		return p
	},
	Dummy: func() db.Paper {
		return db.Paper{
			ArticleSourceID: normalize.Missing,
			Citekey:         normalize.Missing,
			Abstract:        normalize.Missing,
			Year:            YearSentinel,
			Title:           normalize.Missing,
		}
	},
	Compare: func(a, b db.Paper) int {
		return cmp.Or(
			cmp.Compare(a.Citekey, b.Citekey),
			cmp.Compare(a.ArticleSourceID, b.ArticleSourceID),
			cmp.Compare(a.Title, b.Title),
		)
	},
}

func attributesOf(p db.Paper) Attributes {
	return Attributes{
		ArticleSourceID: p.ArticleSourceID,
		Citekey:         p.Citekey,
		Abstract:        p.Abstract,
		Year:            p.Year.UTC().Truncate(24 * time.Hour),
		Title:           p.Title,
		NoOfPages:       p.NoOfPages,
		JournalPK:       p.JournalPK,
	}
}

// Build computes new dim_paper rows and numbers their author and keyword
// groups by citekey (article id for papers without one), offset by the largest existing group keys. Group 0 and
// its (0, 0) bridge are seeded when the group table has no key 0.
func Build(candidates []Candidate, existing Existing) Delta {
	members := make(map[Attributes]Candidate, len(candidates))
	rows := make([]db.Paper, 0, len(candidates))
	for _, c := range candidates {
		row := db.Paper{
			ArticleSourceID: c.ArticleSourceID,
			Citekey:         c.Citekey,
			Abstract:        c.Abstract,
			Year:            c.Year,
			Title:           c.Title,
			NoOfPages:       c.NoOfPages,
			JournalPK:       c.JournalPK,
		}
		id := attributesOf(row)
		if _, ok := members[id]; ok {
			continue
		}
		members[id] = c
		rows = append(rows, row)
	}

	res := paperDimension.Compute(rows, existing.Papers)

	maxAuthorGroup := delta.MaxKey(existing.AuthorGroups, func(g db.AuthorGroup) int64 { return g.AuthorgroupPK })
	maxKeywordGroup := delta.MaxKey(existing.KeywordGroups, func(g db.KeywordGroup) int64 { return g.KeywordgroupPK })

	var groupKeys []string
	for _, p := range res.Rows {
		if p.PaperPK != 0 {
			groupKeys = append(groupKeys, mergeKey(p.Citekey, p.ArticleSourceID))
		}
	}
	authorGroups := delta.NumberGroups(groupKeys, maxAuthorGroup)
	keywordGroups := delta.NumberGroups(groupKeys, maxKeywordGroup)

	var out Delta
	if !hasAuthorGroup(existing.AuthorGroups, 0) {
		out.AuthorGroups = append(out.AuthorGroups, db.AuthorGroup{AuthorgroupPK: 0})
		out.AuthorBridges = append(out.AuthorBridges, db.BridgePaperAuthor{})
	}
	if !hasKeywordGroup(existing.KeywordGroups, 0) {
		out.KeywordGroups = append(out.KeywordGroups, db.KeywordGroup{KeywordgroupPK: 0})
		out.KeywordBridges = append(out.KeywordBridges, db.BridgePaperKeyword{})
	}

	seenAuthorGroup := map[int64]bool{}
	seenKeywordGroup := map[int64]bool{}
	seenAuthorBridge := map[[2]int64]bool{}
	seenKeywordBridge := map[[2]int64]bool{}
	for _, p := range res.Rows {
		if p.PaperPK == 0 {
			out.Papers = append(out.Papers, p)
			continue
		}
		ag := authorGroups[mergeKey(p.Citekey, p.ArticleSourceID)]
		kg := keywordGroups[mergeKey(p.Citekey, p.ArticleSourceID)]
		p.AuthorgroupPK = ag
		p.KeywordgroupPK = kg
		out.Papers = append(out.Papers, p)

		c := members[attributesOf(p)]
		if !seenAuthorGroup[ag] {
			seenAuthorGroup[ag] = true
			out.AuthorGroups = append(out.AuthorGroups, db.AuthorGroup{AuthorgroupPK: ag})
			for i, authorPK := range c.AuthorPKs {
				if seenAuthorBridge[[2]int64{ag, authorPK}] {
					continue
				}
				seenAuthorBridge[[2]int64{ag, authorPK}] = true
				out.AuthorBridges = append(out.AuthorBridges, db.BridgePaperAuthor{
					AuthorgroupPK: ag, AuthorPK: authorPK, AuthorPosition: i + 1,
				})
			}
		}
		if !seenKeywordGroup[kg] {
			seenKeywordGroup[kg] = true
			out.KeywordGroups = append(out.KeywordGroups, db.KeywordGroup{KeywordgroupPK: kg})
			for _, keywordPK := range c.KeywordPKs {
				if seenKeywordBridge[[2]int64{kg, keywordPK}] {
					continue
				}
				seenKeywordBridge[[2]int64{kg, keywordPK}] = true
				out.KeywordBridges = append(out.KeywordBridges, db.BridgePaperKeyword{
					KeywordgroupPK: kg, KeywordPK: keywordPK,
				})
			}
		}
	}
	return out
}

func hasAuthorGroup(groups []db.AuthorGroup, pk int64) bool {
	for _, g := range groups {
		if g.AuthorgroupPK == pk {
			return true
		}
	}
	return false
}

func hasKeywordGroup(groups []db.KeywordGroup, pk int64) bool {
	for _, g := range groups {
		if g.KeywordgroupPK == pk {
			return true
		}
	}
	return false
}
