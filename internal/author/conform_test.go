package author

import (
	"testing"

	"github.com/luisa2795/datawarehouse-for-SLR/internal/normalize"
)

func TestConformMergesByFullnameWithVote(t *testing.T) {
	t.Parallel()

	records := []Record{
		{Fullname: "Doe, Jane Q", Email: "jane@uni.org", Department: "Physics", Country: "DE"},
		{Fullname: "Doe, Jane Q", Email: "jane@uni.org", Department: "Chemistry", Country: "DE"},
		{Fullname: "Doe, Jane Q", Email: "", Department: "", Country: "FR"},
		{Fullname: "Roe1, Rick", Institution: "TU"},
	}
	got := Conform(records, nil)
	if len(got) != 2 {
		t.Fatalf("unexpected authors: %+v", got)
	}

	jane := got[0]
	if jane.Key() != (NaturalKey{Surname: "Doe", Firstname: "Jane", Middlename: "Q"}) {
		t.Fatalf("unexpected key: %+v", jane.Key())
	}
	if jane.Email != "jane@uni.org" {
		t.Fatalf("unexpected email: %q", jane.Email)
	}
	if jane.Department != normalize.Missing {
		t.Fatalf("expected tied department to be missing, got %q", jane.Department)
	}
	if jane.Country != "DE" {
		t.Fatalf("unexpected country: %q", jane.Country)
	}
	if jane.Institution != normalize.Missing {
		t.Fatalf("unexpected institution: %q", jane.Institution)
	}

	rick := got[1]
	if rick.Surname != "Roe" || rick.Middlename != normalize.Missing || rick.Institution != "TU" {
		t.Fatalf("unexpected author: %+v", rick)
	}
}

func TestConformPrefersAuthorsSourcedRecord(t *testing.T) {
	t.Parallel()

	records := []Record{{Fullname: "Doe, Jane", Email: "jane@uni.org"}}
	got := Conform(records, []string{"Doe, Jane; Smith, John"})
	if len(got) != 2 {
		t.Fatalf("unexpected authors: %+v", got)
	}
	if got[0].Email != "jane@uni.org" {
		t.Fatalf("expected authors-sourced email, got %q", got[0].Email)
	}
	if got[1].Key() != (NaturalKey{Surname: "Smith", Firstname: "John", Middlename: normalize.Missing}) {
		t.Fatalf("unexpected reference author: %+v", got[1])
	}
}

func TestParseReferenceAuthors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		field string
		want  [][2]string
	}{
		{"Doe, Jane; Smith, John", [][2]string{{"Doe", "Jane"}, {"Smith", "John"}}},
		{"Doe, Jane, Van, Smith, John", [][2]string{{"Doe", "Jane"}, {"Smith", "John"}}},
		{"Doe Jane Smith", [][2]string{{"Doe", "Jane"}}},
		{"Li", nil},
		{"Lü", nil},
		{"Øy", nil},
		{"Doe, Jane; Doe, Jane", [][2]string{{"Doe", "Jane"}}},
		{"", nil},
	}
	for _, tc := range cases {
		got := ParseReferenceAuthors(tc.field)
		if len(got) != len(tc.want) {
			t.Fatalf("ParseReferenceAuthors(%q) = %v, want %v", tc.field, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("ParseReferenceAuthors(%q)[%d] = %v, want %v", tc.field, i, got[i], tc.want[i])
			}
		}
	}
}
