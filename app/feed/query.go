package feed

import (
	"strings"
	"unicode"
)

const minTermLength = 3

// BuildMatchQuery turns free text into an FTS5 MATCH expression. Every
// positive term is a required prefix match; "-term" excludes. It returns ""
// when no positive term survives normalisation.
func BuildMatchQuery(query string) string {
	var positive, negative []string

	for _, raw := range strings.Fields(query) {
		term := normalizeTerm(raw)
		excluded := strings.HasPrefix(term, "-")
		term = strings.Trim(term, "-")

		if alphaNumCount(term) < minTermLength {
			continue
		}

		phrase := `"` + term + `"*`
		if excluded {
			negative = append(negative, phrase)
		} else {
			positive = append(positive, phrase)
		}
	}

	if len(positive) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(strings.Join(positive, " AND "))
	for _, phrase := range negative {
		b.WriteString(" NOT ")
		b.WriteString(phrase)
	}
	return b.String()
}

// normalizeTerm lowercases s and drops punctuation except '-', '€' and '$'.
func normalizeTerm(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return unicode.ToLower(r)
		case r == '-', r == '€', r == '$':
			return r
		}
		return -1
	}, strings.TrimSpace(s))
}

// alphaNumCount counts the letters and digits of s. Symbols such as '€'
// are kept in the term but do not make it long enough.
func alphaNumCount(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			n++
		}
	}
	return n
}
