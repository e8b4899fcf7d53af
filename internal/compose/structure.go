package compose

import (
	"strings"
	"unicode/utf8"
)

// longParagraphRunes is the length above which a single-paragraph transcript
// is cut into thirds instead of padded.
const longParagraphRunes = 200

// Structure is a transcript split into its three narrative parts.
type Structure struct {
	Intro      string
	Main       string
	Conclusion string
}

// SplitStructure divides a transcript on blank lines. A long single paragraph
// is cut into thirds; more than three paragraphs fold the middle into Main.
func SplitStructure(transcript string) Structure {
	text := strings.TrimSpace(transcript)
	if text == "" {
		return Structure{}
	}
	paragraphs := paragraphsOf(text)
	switch len(paragraphs) {
	case 1:
		if utf8.RuneCountInString(text) > longParagraphRunes {
			runes := []rune(text)
			third := len(runes) / 3
			return Structure{
				Intro:      strings.TrimSpace(string(runes[:third])),
				Main:       strings.TrimSpace(string(runes[third : 2*third])),
				Conclusion: strings.TrimSpace(string(runes[2*third:])),
			}
		}
		return Structure{Intro: text}
	case 2:
		return Structure{Intro: paragraphs[0], Main: paragraphs[1]}
	default:
		return Structure{
			Intro:      paragraphs[0],
			Main:       strings.Join(paragraphs[1:len(paragraphs)-1], "\n\n"),
			Conclusion: paragraphs[len(paragraphs)-1],
		}
	}
}

func paragraphsOf(text string) []string {
	var out []string
	for _, p := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// StructureMatch scores how closely generated mirrors original in shape:
// 0.5 character ratio + 0.3 paragraph ratio + 0.2 sentence ratio, capped at 1.
func StructureMatch(original, generated string) float64 {
	original = strings.TrimSpace(original)
	generated = strings.TrimSpace(generated)
	if original == "" || generated == "" {
		return 0
	}
	chars := ratio(utf8.RuneCountInString(original), utf8.RuneCountInString(generated))
	paras := ratio(max(1, len(paragraphsOf(original))), max(1, len(paragraphsOf(generated))))
	sentences := ratio(max(1, sentenceCount(original)), max(1, sentenceCount(generated)))
	return min(1, 0.5*chars+0.3*paras+0.2*sentences)
}

func ratio(a, b int) float64 {
	if a == 0 || b == 0 {
		return 0
	}
	x, y := float64(a), float64(b)
	return min(x/y, y/x)
}

func sentenceCount(text string) int {
	count := 0
	for _, s := range strings.FieldsFunc(text, func(r rune) bool {
		return r == '。' || r == '.' || r == '!' || r == '！' || r == '?' || r == '？'
	}) {
		if strings.TrimSpace(s) != "" {
			count++
		}
	}
	return count
}

// excerpt shortens s to at most n runes, cutting at a sentence end when one
// falls in the second half.
func excerpt(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	cut := string([]rune(s)[:n])
	if i := strings.LastIndexAny(cut, "。.!?！？"); i >= len(cut)/2 {
		_, size := utf8.DecodeRuneInString(cut[i:])
		return cut[:i+size]
	}
	return cut + "…"
}
