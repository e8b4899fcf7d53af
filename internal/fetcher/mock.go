package fetcher

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"time"

	"reelscript/internal/reel"
)

// persona seeds the comment thread of a synthetic reel.
type persona struct {
	comments []string
}

var mockPersonas = []persona{
	{comments: []string{"大学の勉強に使えそう", "研究室で見てます", "就活中だけど勉強頑張る", "卒論の前にこれ見たい", "study with me最高", "バイト終わりに勉強"}},
	{comments: []string{"メイクの参考になる", "コスメどこのですか？", "彼氏にも見せたい", "スキンケア教えて", "女子みんな好きなやつ", "化粧ポーチ欲しい"}},
	{comments: []string{"筋トレ始めました", "ジム行く前に見る", "ダイエット中です", "男子は絶対やるべき", "トレーニングの順番知りたい", "運動不足解消"}},
	{comments: []string{"転職考えてる社会人です", "仕事の合間に副業", "起業したい", "マーケティング勉強になる", "ビジネス系もっと見たい", "結婚前に貯金"}},
	{comments: []string{"旅行行きたい", "海外のホテル素敵", "観光スポット教えて", "旅の計画立てます", "travel vlog好き", "夏休みに行く"}},
}

const (
	mockCaptionFormat = "%sについて本当に役立つコツを紹介します #%s"
	mockScanFactor    = 2
)

// fetchMock yields deterministic synthetic reels for keyword.
func (f *Fetcher) fetchMock(keyword string, maxItems int, minEngagement float64, yield func(Candidate, error) bool) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(keyword))
	seed := h.Sum64()
	rng := rand.New(rand.NewPCG(seed, seed>>1))
	now := f.now().UTC()

	yielded := 0
	for i := 0; i < maxItems*mockScanFactor && yielded < maxItems; i++ {
		rate := 2 + rng.Float64()*13
		likes := int64(1000 + rng.IntN(49000))
		comments := int64(50 + rng.IntN(450))
		views := int64(float64(likes) / (rate / 100))
		p := mockPersonas[(int(seed%uint64(len(mockPersonas)))+i)%len(mockPersonas)]

		id := fmt.Sprintf("mock_%x_%d", seed&0xffffff, i)
		thread := make([]reel.Comment, 0, len(p.comments))
		for j, text := range p.comments {
			thread = append(thread, reel.Comment{ID: fmt.Sprintf("%s_c%d", id, j), Author: fmt.Sprintf("user%d", j), Text: text})
		}
		if len(thread) > f.commentLimit {
			thread = thread[:f.commentLimit]
		}
		candidate := Candidate{
			Reel: reel.Reel{
				ID:           id,
				Permalink:    f.baseURL + f.profile.permalink(id),
				Keyword:      keyword,
				Caption:      fmt.Sprintf(mockCaptionFormat, keyword, keyword),
				LikeCount:    likes,
				CommentCount: comments,
				ViewCount:    views,
				PostedAt:     now.Add(-time.Duration(rng.IntN(30*24)) * time.Hour),
				ScrapedAt:    now,
			},
			Comments: thread,
		}
		if f.weights.Score(likes, comments, views) < minEngagement {
			continue
		}
		if !yield(candidate, nil) {
			return
		}
		yielded++
	}
}
