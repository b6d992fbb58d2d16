// Package aggregate reduces the entity mentions of each paper to one voted
// value per entity category.
package aggregate

import (
	"math"
	"regexp"
	"strings"

	"github.com/luisa2795/datawarehouse-for-SLR/internal/normalize"
)

// Mention is one row of the fact/entity/sentence/paragraph join.
type Mention struct {
	PaperPK        int64
	SentencePK     int64
	EntityPK       int64
	Heading        string
	ParagraphType  string
	SentenceString string
	SentenceType   string
	EntityCount    int
	EntityLabel    string
	EntityName     string
}

// Result is the aggregate of one paper.
type Result struct {
	PaperPK int64
	values  map[string]string
	numbers map[string]float64
}

// Value returns the voted value of column, or Missing.
func (r Result) Value(column string) string {
	if v, ok := r.values[column]; ok {
		return v
	}
	return normalize.Missing
}

// Number returns the derived numeric value of column, or 0.
func (r Result) Number(column string) float64 {
	return r.numbers[column]
}

var citationSpan = regexp.MustCompile(`START_CITE .* END_CITE`)

// Aggregate votes every category for every paper with mentions. Mentions are
// consumed in the given order, which decides ties.
func (r *Rules) Aggregate(mentions []Mention) map[int64]Result {
	byLabel := make(map[string][]Mention)
	for _, m := range mentions {
		byLabel[m.EntityLabel] = append(byLabel[m.EntityLabel], m)
	}

	results := make(map[int64]Result)
	get := func(paperPK int64) Result {
		res, ok := results[paperPK]
		if !ok {
			res = Result{PaperPK: paperPK, values: map[string]string{}, numbers: map[string]float64{}}
			results[paperPK] = res
		}
		return res
	}

	for i := range r.Categories {
		c := &r.Categories[i]
		perPaper := make(map[int64]*tally[string])
		var order []int64
		for _, m := range byLabel[c.Label] {
			t, ok := perPaper[m.PaperPK]
			if !ok {
				t = newTally[string]()
				perPaper[m.PaperPK] = t
				order = append(order, m.PaperPK)
			}
			t.add(m.EntityName, c.weight(m))
		}

		for _, paperPK := range order {
			winner, ok := perPaper[paperPK].mode()
			if !ok {
				continue
			}
			res := get(paperPK)
			res.values[c.Column] = winner
		}

		if c.Derived != nil {
			r.derive(c, byLabel[c.Label], results)
		}
	}
	return results
}

// derive votes the numeric tokens of sentences whose mention matches the
// paper's winning value. Zero values carry no signal and are skipped, as are
// integers too large for an int4 column.
func (r *Rules) derive(c *Category, mentions []Mention, results map[int64]Result) {
	perPaper := make(map[int64]*tally[float64])
	for _, m := range mentions {
		res, ok := results[m.PaperPK]
		if !ok || res.values[c.Column] != m.EntityName {
			continue
		}
		weight := 1
		if c.Derived.Weighted {
			weight = c.weight(m)
		}
		t, ok := perPaper[m.PaperPK]
		if !ok {
			t = newTally[float64]()
			perPaper[m.PaperPK] = t
		}
		for _, n := range numbersIn(m.SentenceString, c.Derived.Parser) {
			t.add(n, weight)
		}
	}
	for paperPK, t := range perPaper {
		if n, ok := t.mode(); ok {
			res := results[paperPK]
			res.numbers[c.Derived.Column] = n
		}
	}
}

func numbersIn(sentence, parser string) []float64 {
	text := citationSpan.ReplaceAllString(sentence, " ")
	var out []float64
	for _, token := range strings.Fields(text) {
		var value float64
		switch parser {
		case "int":
			n, ok := normalize.WordToInt(token)
			if !ok || n > math.MaxInt32 {
				continue
			}
			value = float64(n)
		default:
			f, ok := normalize.WordToFloat(token)
			if !ok {
				continue
			}
			value = f
		}
		if value != 0 {
			out = append(out, value)
		}
	}
	return out
}

// tally counts weighted votes and remembers first-encounter order.
type tally[K comparable] struct {
	counts map[K]int
	order  []K
}

func newTally[K comparable]() *tally[K] {
	return &tally[K]{counts: make(map[K]int)}
}

func (t *tally[K]) add(value K, weight int) {
	if weight <= 0 {
		return
	}
	if _, ok := t.counts[value]; !ok {
		t.order = append(t.order, value)
	}
	t.counts[value] += weight
}

// mode returns the value with the highest count; ties go to the value seen first.
func (t *tally[K]) mode() (K, bool) {
	var best K
	bestCount := 0
	for _, v := range t.order {
		if c := t.counts[v]; c > bestCount {
			best, bestCount = v, c
		}
	}
	return best, bestCount > 0
}
