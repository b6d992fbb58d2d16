package normalize

import "strings"

var romanValues = map[rune]int{
	'I': 1,
	'V': 5,
	'X': 10,
	'L': 50,
	'C': 100,
	'D': 500,
	'M': 1000,
}

// ParseRoman converts a well-formed Roman numeral (any case) to an integer.
// Malformed numerals such as "IIII" or "VX" are rejected.
func ParseRoman(value string) (int, bool) {
	numeral := strings.ToUpper(strings.TrimSpace(value))
	if numeral == "" {
		return 0, false
	}

	total := 0
	prev := 0
	for i := len(numeral) - 1; i >= 0; i-- {
		v, ok := romanValues[rune(numeral[i])]
		if !ok {
			return 0, false
		}
		if v < prev {
			total -= v
		} else {
			total += v
			prev = v
		}
	}

	if total <= 0 || FormatRoman(total) != numeral {
		return 0, false
	}
	return total, true
}

// FormatRoman renders n (1..3999) in canonical Roman form.
func FormatRoman(n int) string {
	if n <= 0 || n >= 4000 {
		return ""
	}
	symbols := []struct {
		value  int
		symbol string
	}{
		{1000, "M"}, {900, "CM"}, {500, "D"}, {400, "CD"},
		{100, "C"}, {90, "XC"}, {50, "L"}, {40, "XL"},
		{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"},
	}
	var b strings.Builder
	for _, s := range symbols {
		for n >= s.value {
			b.WriteString(s.symbol)
			n -= s.value
		}
	}
	return b.String()
}
