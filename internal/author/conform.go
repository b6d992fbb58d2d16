// Package author conforms author records from the authors and references
// extracts and plans slowly-changing-dimension updates against dim_author.
package author

import (
	"strings"
	"unicode/utf8"

	"github.com/luisa2795/datawarehouse-for-SLR/internal/normalize"
)

// Record is one row of the authors extract.
type Record struct {
	ArticleID   string
	Fullname    string
	Email       string
	Department  string
	Institution string
	Country     string
}

// Author is a conformed author without SCD metadata. Absent values hold
// normalize.Missing.
type Author struct {
	Surname     string
	Firstname   string
	Middlename  string
	Email       string
	Department  string
	Institution string
	Country     string
}

// NaturalKey identifies an author across runs.
type NaturalKey struct {
	Surname    string
	Firstname  string
	Middlename string
}

func (a Author) Key() NaturalKey {
	return NaturalKey{Surname: a.Surname, Firstname: a.Firstname, Middlename: a.Middlename}
}

// MissingKey is the natural key of the dummy author.
var MissingKey = NaturalKey{Surname: normalize.Missing, Firstname: normalize.Missing, Middlename: normalize.Missing}

// ParseName cleans fullname and splits it into a natural key.
func ParseName(fullname string) NaturalKey {
	surname, first, middle := normalize.SplitFullName(normalize.CleanName(fullname))
	return NaturalKey{
		Surname:    normalize.OrMissing(surname),
		Firstname:  normalize.OrMissing(first),
		Middlename: normalize.OrMissing(middle),
	}
}

// Conform builds the canonical author set. Records sharing an original
// fullname merge into one author whose contact fields are decided by vote.
// Reference authors are appended unless an authors-sourced author already has
// the same natural key. Output order follows first appearance.
func Conform(records []Record, referenceAuthorFields []string) []Author {
	var order []string
	groups := make(map[string][]Record)
	for _, rec := range records {
		if _, ok := groups[rec.Fullname]; !ok {
			order = append(order, rec.Fullname)
		}
		groups[rec.Fullname] = append(groups[rec.Fullname], rec)
	}

	out := make([]Author, 0, len(order))
	seen := make(map[NaturalKey]struct{}, len(order))
	for _, fullname := range order {
		group := groups[fullname]
		key := ParseName(fullname)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, Author{
			Surname:     key.Surname,
			Firstname:   key.Firstname,
			Middlename:  key.Middlename,
			Email:       vote(group, func(r Record) string { return r.Email }),
			Department:  vote(group, func(r Record) string { return r.Department }),
			Institution: vote(group, func(r Record) string { return r.Institution }),
			Country:     vote(group, func(r Record) string { return r.Country }),
		})
	}

	for _, field := range referenceAuthorFields {
		for _, pair := range ParseReferenceAuthors(field) {
			key := NaturalKey{
				Surname:    normalize.OrMissing(pair[0]),
				Firstname:  normalize.OrMissing(pair[1]),
				Middlename: normalize.Missing,
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, Author{
				Surname:     key.Surname,
				Firstname:   key.Firstname,
				Middlename:  key.Middlename,
				Email:       normalize.Missing,
				Department:  normalize.Missing,
				Institution: normalize.Missing,
				Country:     normalize.Missing,
			})
		}
	}
	return out
}

// ParseReferenceAuthors splits a free-text references "authors" cell into
// (surname, firstname) pairs in order, without duplicates.
func ParseReferenceAuthors(field string) [][2]string {
	var pairs [][2]string
	seen := make(map[[2]string]struct{})
	add := func(p [2]string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		pairs = append(pairs, p)
	}

	for _, entry := range strings.Split(field, ";") {
		var tokens []string
		for _, part := range strings.Split(entry, ",") {
			if part = strings.TrimSpace(part); part != "" {
				tokens = append(tokens, part)
			}
		}

		switch {
		case len(tokens) == 2:
			add([2]string{tokens[0], tokens[1]})
		case len(tokens) > 2:
			for _, p := range normalize.SplitNamesIntoPairs(dropVan(tokens)) {
				add(p)
			}
		case len(tokens) == 1 && utf8.RuneCountInString(tokens[0]) > 2:
			for _, p := range normalize.SplitNamesIntoPairs(tokens) {
				add(p)
			}
		}
	}
	return pairs
}

// dropVan removes the first lone "Van" token, a known extraction artifact.
func dropVan(tokens []string) []string {
	for i, tok := range tokens {
		if tok == "Van" {
			out := make([]string, 0, len(tokens)-1)
			out = append(out, tokens[:i]...)
			return append(out, tokens[i+1:]...)
		}
	}
	return tokens
}

// vote returns the strictly most frequent non-missing value, or Missing on a
// tie or when every value is missing.
func vote(group []Record, field func(Record) string) string {
	counts := make(map[string]int, len(group))
	for _, rec := range group {
		value := strings.TrimSpace(field(rec))
		if normalize.IsMissing(value) {
			continue
		}
		counts[value]++
	}

	best, bestCount, tied := "", 0, false
	for value, n := range counts {
		switch {
		case n > bestCount:
			best, bestCount, tied = value, n, false
		case n == bestCount:
			tied = true
		}
	}
	if bestCount == 0 || tied {
		return normalize.Missing
	}
	return best
}
