package audience

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"reelscript/internal/reel"
)

var genders = []string{reel.GenderFemale, reel.GenderMale}

// Vector layout: age buckets, then genders, then interests.
var (
	genderOffset   = len(reel.AgeBuckets)
	interestOffset = genderOffset + len(genders)
	// Dimensions is the length of every signal vector.
	Dimensions = interestOffset + len(reel.Interests)
)

var ageKeywords = map[string][]string{
	"13-17": {"学生", "高校", "中学", "jk", "dk", "宿題", "授業", "部活", "high school", "homework", "my teacher"},
	"18-24": {"大学", "大学生", "就活", "バイト", "卒論", "研究室", "サークル", "college", "uni", "campus", "internship", "dorm"},
	"25-34": {"社会人", "転職", "結婚", "新卒", "仕事", "同棲", "career", "my boss", "wedding", "coworker"},
	"35-44": {"子供", "育児", "子育て", "家族", "住宅", "ローン", "my kids", "mortgage", "parenting"},
	"45+":   {"定年", "老後", "年金", "孫", "退職", "シニア", "retirement", "grandkids", "pension"},
}

var genderKeywords = map[string][]string{
	reel.GenderFemale: {"女子", "女性", "ママ", "彼氏", "メイク", "コスメ", "化粧", "girls", "my boyfriend", "as a woman", "mom"},
	reel.GenderMale:   {"男子", "男性", "パパ", "彼女", "筋トレ", "俺", "guys", "my girlfriend", "as a man", "dad", "bro"},
}

var interestKeywords = map[string][]string{
	"beauty":        {"メイク", "コスメ", "美容", "スキンケア", "化粧", "makeup", "skincare", "lipstick"},
	"business":      {"ビジネス", "起業", "副業", "マーケティング", "経営", "startup", "entrepreneur", "marketing"},
	"entertainment": {"エンタメ", "映画", "ドラマ", "音楽", "アニメ", "movie", "drama", "anime", "concert"},
	"fashion":       {"ファッション", "コーデ", "服", "ブランド", "アパレル", "outfit", "fashion", "ootd"},
	"finance":       {"投資", "節約", "貯金", "株", "資産", "invest", "saving", "budget", "stocks"},
	"fitness":       {"筋トレ", "ジム", "トレーニング", "ダイエット", "運動", "workout", "gym", "diet"},
	"food":          {"料理", "レシピ", "グルメ", "食べ物", "レストラン", "カフェ", "recipe", "cooking", "delicious"},
	"gaming":        {"ゲーム", "ゲーマー", "ps5", "switch", "eスポーツ", "gaming", "gamer", "fortnite"},
	"lifestyle":     {"ルーティン", "暮らし", "日常", "朝活", "vlog", "routine", "morning", "daily life"},
	"study":         {"勉強", "学習", "受験", "資格", "暗記", "study", "exam", "studying", "notes"},
	"tech":          {"テクノロジー", "ガジェット", "アプリ", "プログラミング", "iphone", "gadget", "coding", "app"},
	"travel":        {"旅行", "観光", "海外", "ホテル", "旅", "travel", "trip", "hotel", "flight"},
}

// Normalize folds width and case so keyword matching ignores both.
func Normalize(text string) string {
	return cases.Fold().String(norm.NFKC.String(text))
}

var (
	normalizedAge      = normalizeTable(ageKeywords)
	normalizedGender   = normalizeTable(genderKeywords)
	normalizedInterest = normalizeTable(interestKeywords)
)

func normalizeTable(table map[string][]string) map[string][]string {
	out := make(map[string][]string, len(table))
	for label, words := range table {
		normalized := make([]string, 0, len(words))
		for _, word := range words {
			normalized = append(normalized, Normalize(word))
		}
		out[label] = normalized
	}
	return out
}

// Signal builds the evidence vector for one comment. Each block sums to one
// when it carries evidence and stays zero otherwise.
func Signal(text string) []float64 {
	vec := make([]float64, Dimensions)
	normalized := Normalize(text)
	if strings.TrimSpace(normalized) == "" {
		return vec
	}
	fillBlock(vec[:genderOffset], reel.AgeBuckets, normalizedAge, normalized)
	fillBlock(vec[genderOffset:interestOffset], genders, normalizedGender, normalized)
	fillBlock(vec[interestOffset:], reel.Interests, normalizedInterest, normalized)
	return vec
}

func fillBlock(block []float64, labels []string, table map[string][]string, text string) {
	var total float64
	for i, label := range labels {
		for _, word := range table[label] {
			if containsKeyword(text, word) {
				block[i]++
			}
		}
		total += block[i]
	}
	if total == 0 {
		return
	}
	for i := range block {
		block[i] /= total
	}
}

// containsKeyword matches ASCII keywords on word boundaries and other
// scripts by substring.
func containsKeyword(text, word string) bool {
	if word == "" {
		return false
	}
	if !isASCII(word) {
		return strings.Contains(text, word)
	}
	offset := 0
	for {
		idx := strings.Index(text[offset:], word)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(word)
		if boundaryBefore(text, start) && boundaryAfter(text, end) {
			return true
		}
		offset = start + 1
	}
}

func boundaryBefore(text string, idx int) bool {
	if idx == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:idx])
	return !isWordRune(r)
}

func boundaryAfter(text string, idx int) bool {
	if idx >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[idx:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r))
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// argmax returns the index of the largest positive entry; ties go to the
// lower index. It returns -1 when every entry is zero.
func argmax(block []float64) int {
	best := -1
	for i, v := range block {
		if v <= 0 {
			continue
		}
		if best < 0 || v > block[best] {
			best = i
		}
	}
	return best
}
