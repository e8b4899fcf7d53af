package compose

import (
	"strings"
)

// Pattern is an engagement device found in a transcript.
type Pattern string

const (
	PatternQuestionHook  Pattern = "question_hook"
	PatternCTAQuestion   Pattern = "cta_question"
	PatternNumberedList  Pattern = "numbered_list"
	PatternEmoji         Pattern = "emoji"
	PatternPersonalStory Pattern = "personal_story"
	PatternContrast      Pattern = "contrast"
	PatternTeaser        Pattern = "teaser"
)

var allPatterns = []Pattern{
	PatternQuestionHook,
	PatternCTAQuestion,
	PatternNumberedList,
	PatternEmoji,
	PatternPersonalStory,
	PatternContrast,
	PatternTeaser,
}

// Known reports whether p is a recognised pattern.
func (p Pattern) Known() bool {
	for _, known := range allPatterns {
		if p == known {
			return true
		}
	}
	return false
}

// edgeRunes is how much of the start or end of a transcript counts as its hook
// or its call to action.
const edgeRunes = 200

var (
	numberedMarkers = []string{"1.", "2.", "①", "②", "1️⃣", "2️⃣", "first,", "step 1"}
	personalMarkers = []string{"私は", "私の", "私が", "私も", "自分の", "i was", "my ", "i used to", "i tried"}
	contrastMarkers = []string{"しかし", "だが", "けれども", "一方", "vs", "but ", "however", "instead"}
	teaserMarkers   = []string{"次回", "次は", "お楽しみに", "part 2", "next time", "stay tuned"}
)

// PatternSet records which patterns a transcript shows.
type PatternSet map[Pattern]bool

// Has reports whether p was detected.
func (s PatternSet) Has(p Pattern) bool { return s[p] }

// Names lists detected patterns in a stable order.
func (s PatternSet) Names() []string {
	var out []string
	for _, p := range allPatterns {
		if s[p] {
			out = append(out, string(p))
		}
	}
	return out
}

// DetectPatterns inspects a transcript for engagement devices.
func DetectPatterns(transcript string) PatternSet {
	set := PatternSet{}
	text := strings.TrimSpace(transcript)
	if text == "" {
		return set
	}
	lower := strings.ToLower(text)
	head, tail := edges(lower)

	set[PatternQuestionHook] = strings.ContainsAny(head, "?？")
	set[PatternCTAQuestion] = strings.ContainsAny(tail, "?？")
	set[PatternNumberedList] = containsAny(lower, numberedMarkers)
	set[PatternEmoji] = strings.ContainsFunc(text, func(r rune) bool { return r > 0x1F000 })
	set[PatternPersonalStory] = containsAny(lower, personalMarkers)
	set[PatternContrast] = containsAny(lower, contrastMarkers)
	set[PatternTeaser] = containsAny(tail, teaserMarkers)
	for p, ok := range set {
		if !ok {
			delete(set, p)
		}
	}
	return set
}

// edges returns the opening and closing stretch of text. Short transcripts
// are split in half so one question cannot count as both hook and CTA.
func edges(text string) (head, tail string) {
	runes := []rune(text)
	n := edgeRunes
	if len(runes) < 2*edgeRunes {
		n = (len(runes) + 1) / 2
	}
	return string(runes[:n]), string(runes[len(runes)-n:])
}

func containsAny(text string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}
