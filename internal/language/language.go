package language

import (
	"fmt"
	"strings"

	xlang "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

var names = map[string]string{
	"english":    "en",
	"japanese":   "ja",
	"korean":     "ko",
	"chinese":    "zh",
	"spanish":    "es",
	"french":     "fr",
	"german":     "de",
	"portuguese": "pt",
	"italian":    "it",
	"hindi":      "hi",
	"indonesian": "id",
	"thai":       "th",
	"vietnamese": "vi",
}

// Parse resolves code to a language tag.
func Parse(code string) (xlang.Tag, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return xlang.Und, fmt.Errorf("empty language code")
	}
	if mapped, ok := names[code]; ok {
		code = mapped
	}
	tag, err := xlang.Parse(code)
	if err != nil {
		return xlang.Und, fmt.Errorf("unknown language %q: %w", code, err)
	}
	return tag, nil
}

// ToISO2 converts a recognized code or name to ISO 639-1. Unrecognized input
// yields the empty string.
func ToISO2(code string) string {
	tag, err := Parse(code)
	if err != nil {
		return ""
	}
	base, confidence := tag.Base()
	if confidence == xlang.No {
		return ""
	}
	iso := base.String()
	if len(iso) != 2 {
		return ""
	}
	return iso
}

// DisplayName returns the English name for code, or the input unchanged when
// it cannot be resolved.
func DisplayName(code string) string {
	tag, err := Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return code
}

// BCP47 returns a language-region tag such as "ja-JP" for cloud recognizers
// that require a region. The region is inferred when code omits it.
func BCP47(code string) string {
	tag, err := Parse(code)
	if err != nil {
		return ""
	}
	base, confidence := tag.Base()
	if confidence == xlang.No {
		return ""
	}
	region, confidence := tag.Region()
	if confidence == xlang.No {
		return base.String()
	}
	return base.String() + "-" + region.String()
}
