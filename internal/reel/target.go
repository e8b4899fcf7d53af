package reel

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"reelscript/internal/services"
)

// MaxAge bounds open-ended ranges such as "45+".
const MaxAge = 120

// AgeRange is an inclusive age interval.
type AgeRange struct {
	Min int
	Max int
}

// ParseAgeRange accepts "18-24", "45+" and "30".
func ParseAgeRange(value string) (AgeRange, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return AgeRange{}, fmt.Errorf("empty age range")
	}
	if strings.HasSuffix(trimmed, "+") {
		lo, err := strconv.Atoi(strings.TrimSpace(strings.TrimSuffix(trimmed, "+")))
		if err != nil || lo < 0 || lo > MaxAge {
			return AgeRange{}, fmt.Errorf("invalid age range %q", value)
		}
		return AgeRange{Min: lo, Max: MaxAge}, nil
	}
	if lo, hi, found := strings.Cut(trimmed, "-"); found {
		lower, errLo := strconv.Atoi(strings.TrimSpace(lo))
		upper, errHi := strconv.Atoi(strings.TrimSpace(hi))
		if errLo != nil || errHi != nil || lower < 0 || upper > MaxAge || lower > upper {
			return AgeRange{}, fmt.Errorf("invalid age range %q", value)
		}
		return AgeRange{Min: lower, Max: upper}, nil
	}
	age, err := strconv.Atoi(trimmed)
	if err != nil || age < 0 || age > MaxAge {
		return AgeRange{}, fmt.Errorf("invalid age range %q", value)
	}
	return AgeRange{Min: age, Max: age}, nil
}

// Overlaps reports whether two ranges share at least one age.
func (r AgeRange) Overlaps(other AgeRange) bool {
	return r.Min <= other.Max && other.Min <= r.Max
}

// TargetAudience narrows which reels feed composition. Empty fields do not filter.
type TargetAudience struct {
	Age      string `json:"age,omitempty"`
	Gender   string `json:"gender,omitempty"`
	Interest string `json:"interest,omitempty"`
}

// IsZero reports whether the target filters nothing.
func (t TargetAudience) IsZero() bool {
	return strings.TrimSpace(t.Age) == "" && strings.TrimSpace(t.Gender) == "" && strings.TrimSpace(t.Interest) == ""
}

// Normalize trims and lowercases gender and interest.
func (t TargetAudience) Normalize() TargetAudience {
	return TargetAudience{
		Age:      strings.ReplaceAll(strings.TrimSpace(t.Age), " ", ""),
		Gender:   strings.ToLower(strings.TrimSpace(t.Gender)),
		Interest: strings.ToLower(strings.TrimSpace(t.Interest)),
	}
}

// Validate rejects malformed filters before any work starts.
func (t TargetAudience) Validate() error {
	n := t.Normalize()
	if n.Age != "" {
		if _, err := ParseAgeRange(n.Age); err != nil {
			return services.Wrap(services.ErrInvalidTargetFilter, "target", "age", err.Error(), nil)
		}
	}
	switch n.Gender {
	case "", GenderFemale, GenderMale, GenderMixed:
	default:
		return services.Wrap(services.ErrInvalidTargetFilter, "target", "gender", fmt.Sprintf("unsupported gender %q", t.Gender), nil)
	}
	if n.Interest != "" {
		if len(n.Interest) > 64 {
			return services.Wrap(services.ErrInvalidTargetFilter, "target", "interest", "interest too long", nil)
		}
		for _, r := range n.Interest {
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != ' ' && r != '-' && r != '_' {
				return services.Wrap(services.ErrInvalidTargetFilter, "target", "interest", fmt.Sprintf("unsupported character %q", r), nil)
			}
		}
	}
	return nil
}

// Matches reports whether label satisfies every populated target field.
// Age ranges match on overlap; a label without a given dimension never matches
// a target that filters on it.
func (t TargetAudience) Matches(label AudienceLabel) bool {
	n := t.Normalize()
	if n.Age != "" && !agesCompatible(n.Age, label.Age) {
		return false
	}
	if n.Gender != "" {
		g := strings.ToLower(strings.TrimSpace(label.Gender))
		if g == "" {
			return false
		}
		if g != n.Gender && g != GenderMixed && n.Gender != GenderMixed {
			return false
		}
	}
	if n.Interest != "" && !strings.EqualFold(n.Interest, strings.TrimSpace(label.Interest)) {
		return false
	}
	return true
}

func agesCompatible(target, label string) bool {
	label = strings.TrimSpace(label)
	if label == "" {
		return false
	}
	want, errWant := ParseAgeRange(target)
	have, errHave := ParseAgeRange(label)
	if errWant != nil || errHave != nil {
		return strings.EqualFold(target, label)
	}
	return want.Overlaps(have)
}

// AsLabel converts a target into the label used for generic content.
func (t TargetAudience) AsLabel() AudienceLabel {
	n := t.Normalize()
	return AudienceLabel{Age: n.Age, Gender: n.Gender, Interest: n.Interest}
}

// Merge fills empty fields of t from fallback.
func (t TargetAudience) Merge(fallback TargetAudience) TargetAudience {
	out := t
	if strings.TrimSpace(out.Age) == "" {
		out.Age = fallback.Age
	}
	if strings.TrimSpace(out.Gender) == "" {
		out.Gender = fallback.Gender
	}
	if strings.TrimSpace(out.Interest) == "" {
		out.Interest = fallback.Interest
	}
	return out
}
