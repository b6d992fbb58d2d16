package normalize

import "testing"

func TestVolumeToInt(t *testing.T) {
	t.Parallel()

	cases := map[string]int{
		"12":    12,
		"12.0":  12,
		"XIV":   14,
		"xiv":   14,
		"99999": 0,
		"abc":   0,
		"":      0,
		"10000": 10000,
	}
	for in, want := range cases {
		if got := VolumeToInt(in); got != want {
			t.Fatalf("VolumeToInt(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestIssueToInt(t *testing.T) {
	t.Parallel()

	cases := map[string]int{
		"3":           3,
		"3.0":         3,
		"3-4":         3,
		"S1":          0,
		"":            0,
		"-3":          0,
		"2147483647":  2147483647,
		"2147483648":  0,
		"99999999999": 0,
		"1e12":        0,
	}
	for in, want := range cases {
		if got := IssueToInt(in); got != want {
			t.Fatalf("IssueToInt(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestPageNumberToInt(t *testing.T) {
	t.Parallel()

	cases := map[string]int{
		"45":                   45,
		"ix":                   9,
		"XLII":                 42,
		"e12":                  0,
		"-5":                   0,
		"99999999999":          0,
		"99999999999999999999": 0,
	}
	for in, want := range cases {
		if got := PageNumberToInt(in); got != want {
			t.Fatalf("PageNumberToInt(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestWordToInt(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"120", 120, true},
		{"1,200", 1200, true},
		{"1.200.000", 1200000, true},
		{"1,20", 0, false},
		{"twelve", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := WordToInt(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("WordToInt(%q) = (%d, %v), want (%d, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestWordToFloatRejectsNonFinite(t *testing.T) {
	t.Parallel()

	if got, ok := WordToFloat("0.87"); !ok || got != 0.87 {
		t.Fatalf("unexpected float: %v %v", got, ok)
	}
	for _, in := range []string{"NaN", "inf", "-Inf", "abc"} {
		if _, ok := WordToFloat(in); ok {
			t.Fatalf("expected %q to be rejected", in)
		}
	}
}

func TestParseRomanRejectsMalformed(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"IIII", "VX", "IC", "ABC"} {
		if _, ok := ParseRoman(in); ok {
			t.Fatalf("expected %q to be rejected", in)
		}
	}
	if got, ok := ParseRoman("MCMXCIV"); !ok || got != 1994 {
		t.Fatalf("unexpected roman value: %d %v", got, ok)
	}
}

func TestSplitFullName(t *testing.T) {
	t.Parallel()

	surname, first, middle := SplitFullName("Doe, Jane Q.")
	if surname != "Doe" || first != "Jane" || middle != "Q." {
		t.Fatalf("unexpected split: %q %q %q", surname, first, middle)
	}

	surname, first, middle = SplitFullName("Plato")
	if surname != "Plato" || first != "" || middle != "" {
		t.Fatalf("unexpected split for single name: %q %q %q", surname, first, middle)
	}
}

func TestCleanName(t *testing.T) {
	t.Parallel()

	got := CleanName(" Doe1 (J.) &amp @ref | ")
	if got != "Doe J" {
		t.Fatalf("unexpected cleaned name: %q", got)
	}
}

func TestSplitNamesIntoPairsDropsTrailingWord(t *testing.T) {
	t.Parallel()

	pairs := SplitNamesIntoPairs([]string{"Jane", "Doe", "John"})
	if len(pairs) != 1 || pairs[0] != [2]string{"Jane", "Doe"} {
		t.Fatalf("unexpected pairs: %v", pairs)
	}

	pairs = SplitNamesIntoPairs([]string{"Doe Jane", "Smith John"})
	if len(pairs) != 2 || pairs[1] != [2]string{"Smith", "John"} {
		t.Fatalf("unexpected pairs: %v", pairs)
	}
}
