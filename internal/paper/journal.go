package paper

import (
	"cmp"
	"strings"

	"github.com/luisa2795/datawarehouse-for-SLR/internal/db"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/normalize"
)

// JournalFields are the raw journal cells of a paper or reference row.
type JournalFields struct {
	Title     string
	Volume    string
	Issue     string
	Publisher string
	Place     string
}

// Blank reports whether every journal cell is empty.
func (f JournalFields) Blank() bool {
	for _, v := range []string{f.Title, f.Volume, f.Issue, f.Publisher, f.Place} {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// JournalKey is the exact-match natural key of dim_journal.
type JournalKey struct {
	Title     string
	Volume    int
	Issue     int
	Publisher string
	Place     string
}

// NormalizeJournal converts raw cells into a journal key.
func NormalizeJournal(f JournalFields) JournalKey {
	return JournalKey{
		Title:     normalize.OrMissing(strings.TrimSpace(f.Title)),
		Volume:    normalize.VolumeToInt(f.Volume),
		Issue:     normalize.IssueToInt(f.Issue),
		Publisher: normalize.OrMissing(strings.TrimSpace(f.Publisher)),
		Place:     normalize.OrMissing(strings.TrimSpace(f.Place)),
	}
}

func JournalKeyOf(j db.Journal) JournalKey {
	return JournalKey{Title: j.Title, Volume: j.Volume, Issue: j.Issue, Publisher: j.Publisher, Place: j.Place}
}

func (k JournalKey) Row(pk int64) db.Journal {
	return db.Journal{JournalPK: pk, Title: k.Title, Volume: k.Volume, Issue: k.Issue, Publisher: k.Publisher, Place: k.Place}
}

// MissingJournal is the dummy journal stored under key 0.
var MissingJournal = JournalKey{Title: normalize.Missing, Publisher: normalize.Missing, Place: normalize.Missing}

func CompareJournalKeys(a, b JournalKey) int {
	return cmp.Or(
		cmp.Compare(a.Title, b.Title),
		cmp.Compare(a.Volume, b.Volume),
		cmp.Compare(a.Issue, b.Issue),
		cmp.Compare(a.Publisher, b.Publisher),
		cmp.Compare(a.Place, b.Place),
	)
}

// JournalLookup resolves journal keys to journal_pk; unknown journals resolve to 0.
type JournalLookup map[JournalKey]int64

func NewJournalLookup(rows []db.Journal) JournalLookup {
	lookup := make(JournalLookup, len(rows))
	for _, row := range rows {
		lookup[JournalKeyOf(row)] = row.JournalPK
	}
	return lookup
}

func (l JournalLookup) Resolve(f JournalFields) int64 {
	return l[NormalizeJournal(f)]
}
