package compose

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

const maxThemeKeywords = 5

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "for": {}, "to": {}, "of": {},
	"in": {}, "on": {}, "with": {}, "my": {}, "your": {}, "how": {}, "what": {},
	"is": {}, "are": {}, "about": {}, "tips": {},
}

// ThemeKeywords extracts up to five distinct keywords from a theme, in order
// of appearance.
func ThemeKeywords(theme string) []string {
	text := cases.Lower(language.Und).String(norm.NFKC.String(theme))
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
	seen := make(map[string]struct{}, len(fields))
	var out []string
	for _, f := range fields {
		f = strings.Trim(f, "-")
		if utf8.RuneCountInString(f) < 2 {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
		if len(out) == maxThemeKeywords {
			break
		}
	}
	return out
}

var titleCaser = cases.Title(language.Und)

func titleTheme(theme string) string {
	return titleCaser.String(strings.TrimSpace(theme))
}
