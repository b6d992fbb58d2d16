package author

import (
	"cmp"
	"slices"
	"time"

	"github.com/luisa2795/datawarehouse-for-SLR/internal/db"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/delta"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/normalize"
)

const (
	Current = "Current"
	Expired = "Expired"
)

// MaxDate marks an open row_expiration_date.
var MaxDate = time.Date(2262, time.April, 11, 0, 0, 0, 0, time.UTC)

// EmailUpdate overwrites the email of a Current row in place.
type EmailUpdate struct {
	AuthorPK int64
	Email    string
}

// Version expires a Current row and replaces it with a new Current row.
type Version struct {
	Expire  db.Author
	Replace db.Author
}

// Plan is the set of dim_author changes for one run.
type Plan struct {
	// New holds never-seen authors, led by the dummy row when the table has none.
	New          []db.Author
	Versions     []Version
	EmailUpdates []EmailUpdate
	MaxKey       int64
}

func (p Plan) Empty() bool {
	return len(p.New) == 0 && len(p.Versions) == 0 && len(p.EmailUpdates) == 0
}

// PlanChanges compares conformed source authors with dim_author. Only Current
// rows are matched; keys for new rows and new versions continue after the
// table's maximum key.
func PlanChanges(source []Author, existing []db.Author, today time.Time) Plan {
	maxKey := delta.MaxKey(existing, func(a db.Author) int64 { return a.AuthorPK })
	hasDummy := false
	current := make(map[NaturalKey]db.Author, len(existing))
	for _, row := range existing {
		if row.AuthorPK == 0 {
			hasDummy = true
		}
		if row.CurrentRowIndicator == Current {
			current[rowKey(row)] = row
		}
	}

	plan := Plan{MaxKey: maxKey}
	keys := delta.NewKeys(maxKey)
	if !hasDummy {
		plan.New = append(plan.New, newRow(0, Author{
			Surname: normalize.Missing, Firstname: normalize.Missing, Middlename: normalize.Missing,
			Email: normalize.Missing, Department: normalize.Missing, Institution: normalize.Missing, Country: normalize.Missing,
		}, today))
	}

	var fresh []Author
	var changed []Version
	seen := make(map[NaturalKey]struct{}, len(source))
	for _, src := range source {
		key := src.Key()
		if key == MissingKey {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		row, ok := current[key]
		if !ok {
			fresh = append(fresh, src)
			continue
		}
		switch {
		case needsNewVersion(src, row):
			email := src.Email
			if normalize.IsMissing(email) {
				email = row.Email
			}
			src.Email = email
			changed = append(changed, Version{Expire: row, Replace: newRow(0, src, today)})
		case needsEmailOverwrite(src, row):
			plan.EmailUpdates = append(plan.EmailUpdates, EmailUpdate{AuthorPK: row.AuthorPK, Email: src.Email})
		}
	}

	slices.SortStableFunc(fresh, func(a, b Author) int { return compareKeys(a.Key(), b.Key()) })
	for _, src := range fresh {
		plan.New = append(plan.New, newRow(keys.Next(), src, today))
	}
	for _, v := range changed {
		v.Replace.AuthorPK = keys.Next()
		plan.Versions = append(plan.Versions, v)
	}
	return plan
}

// needsNewVersion reports a Type 2 change: department, institution or country
// differs, unless all six compared values are missing.
func needsNewVersion(src Author, row db.Author) bool {
	pairs := [][2]string{
		{src.Department, row.Department},
		{src.Institution, row.Institution},
		{src.Country, row.Country},
	}
	allMissing := true
	differs := false
	for _, p := range pairs {
		if !normalize.IsMissing(p[0]) || !normalize.IsMissing(p[1]) {
			allMissing = false
		}
		if normalize.OrMissing(p[0]) != normalize.OrMissing(p[1]) {
			differs = true
		}
	}
	return differs && !allMissing
}

// needsEmailOverwrite reports a Type 1 change on email.
func needsEmailOverwrite(src Author, row db.Author) bool {
	return !normalize.IsMissing(src.Email) && src.Email != row.Email
}

func newRow(pk int64, a Author, today time.Time) db.Author {
	return db.Author{
		AuthorPK:            pk,
		Surname:             a.Surname,
		Firstname:           a.Firstname,
		Middlename:          a.Middlename,
		Email:               normalize.OrMissing(a.Email),
		Department:          normalize.OrMissing(a.Department),
		Institution:         normalize.OrMissing(a.Institution),
		Country:             normalize.OrMissing(a.Country),
		RowEffectiveDate:    today,
		RowExpirationDate:   MaxDate,
		CurrentRowIndicator: Current,
	}
}

func rowKey(row db.Author) NaturalKey {
	return NaturalKey{Surname: row.Surname, Firstname: row.Firstname, Middlename: row.Middlename}
}

func compareKeys(a, b NaturalKey) int {
	return cmp.Or(
		cmp.Compare(a.Surname, b.Surname),
		cmp.Compare(a.Firstname, b.Firstname),
		cmp.Compare(a.Middlename, b.Middlename),
	)
}

// Lookup resolves natural keys to Current author keys. Unknown authors
// resolve to the dummy key 0.
type Lookup map[NaturalKey]int64

func NewLookup(rows []db.Author) Lookup {
	lookup := make(Lookup, len(rows))
	for _, row := range rows {
		if row.CurrentRowIndicator == Current {
			lookup[rowKey(row)] = row.AuthorPK
		}
	}
	return lookup
}

func (l Lookup) Resolve(key NaturalKey) int64 {
	return l[key]
}
