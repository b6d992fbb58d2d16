// Package normalize cleans raw extract strings into canonical typed values.
//
// Conversions that cannot find a value return ok=false or a zero sentinel; a
// parse miss is never an error.
package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Missing is the sentinel stored for absent string attributes.
const Missing = "MISSING"

// MaxVolume is the largest journal volume accepted; larger values are parse garbage.
const MaxVolume = 10000

var (
	thousandsPattern = regexp.MustCompile(`^[0-9]+([,.][0-9]{3})*$`)
	ampTagPattern    = regexp.MustCompile(`&\w+`)
	atTagPattern     = regexp.MustCompile(`@\w+`)
	signsPattern     = regexp.MustCompile(`[;().|]`)
)

// WordToInt parses tokens such as "120", "1,200" or "1.200.000".
func WordToInt(token string) (int, bool) {
	if !thousandsPattern.MatchString(token) {
		return 0, false
	}
	digits := strings.NewReplacer(",", "", ".", "").Replace(token)
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// WordToFloat parses a float literal. NaN and infinities carry no signal.
func WordToFloat(token string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(token), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// VolumeToInt parses an integer or Roman numeral volume. Unparseable values and
// values above MaxVolume yield 0.
func VolumeToInt(value string) int {
	vol, ok := parseInt(value)
	if !ok {
		vol, ok = ParseRoman(value)
		if !ok {
			vol = 0
		}
	}
	if vol > MaxVolume || vol < 0 {
		return 0
	}
	return vol
}

// IssueToInt parses an issue number, falling back to the first character of
// the value ("3-4" yields 3). Numbers outside the int4 range yield 0.
func IssueToInt(value string) int {
	if iss, ok := parseInt(value); ok {
		return iss
	}
	trimmed := strings.TrimSpace(value)
	for _, r := range trimmed {
		if unicode.IsDigit(r) {
			return int(r - '0')
		}
		break
	}
	return 0
}

// PageNumberToInt parses an integer or case-insensitive Roman numeral page.
// Negative numbers and numbers outside the int4 range yield 0.
func PageNumberToInt(value string) int {
	if page, ok := parseInt(value); ok {
		return page
	}
	if page, ok := ParseRoman(value); ok {
		return page
	}
	return 0
}

// parseInt accepts plain integers and integral float renderings such as "12.0".
// Integral values outside [0, math.MaxInt32] are reported as numeric but
// yield 0, since no int4 column can hold them.
func parseInt(value string) (int, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return clampInt4(float64(n)), true
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return clampInt4(f), true
}

func clampInt4(f float64) int {
	if f < 0 || f > math.MaxInt32 {
		return 0
	}
	return int(f)
}

// SplitFullName splits "Surname, First Middle" into its parts. Absent parts
// are returned as empty strings.
func SplitFullName(fullname string) (surname, firstname, middlename string) {
	surname, rest, found := strings.Cut(fullname, ", ")
	if !found {
		return surname, "", ""
	}
	parts := strings.Split(rest, " ")
	firstname = parts[0]
	if len(parts) > 1 {
		middlename = parts[1]
	}
	return surname, firstname, middlename
}

// CleanName strips digits, &tags, @tags and stray punctuation from a fullname.
func CleanName(fullname string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return -1
		}
		return r
	}, fullname)
	cleaned = ampTagPattern.ReplaceAllString(cleaned, "")
	cleaned = atTagPattern.ReplaceAllString(cleaned, "")
	cleaned = strings.ReplaceAll(cleaned, "| ", "")
	cleaned = signsPattern.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

// SplitNamesIntoPairs splits every token on whitespace, flattens the words and
// groups them into consecutive (surname, firstname) pairs. An odd trailing word
// is dropped.
func SplitNamesIntoPairs(tokens []string) [][2]string {
	words := make([]string, 0, len(tokens)*2)
	for _, token := range tokens {
		words = append(words, strings.Fields(token)...)
	}
	pairs := make([][2]string, 0, len(words)/2)
	for i := 0; i+1 < len(words); i += 2 {
		pairs = append(pairs, [2]string{words[i], words[i+1]})
	}
	return pairs
}

// OrMissing returns Missing for blank values.
func OrMissing(value string) string {
	if strings.TrimSpace(value) == "" {
		return Missing
	}
	return value
}

// IsMissing reports whether value is blank or the Missing sentinel.
func IsMissing(value string) bool {
	trimmed := strings.TrimSpace(value)
	return trimmed == "" || trimmed == Missing
}
