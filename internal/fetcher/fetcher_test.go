package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"reelscript/internal/config"
	"reelscript/internal/logging"
	"reelscript/internal/services"
	"reelscript/internal/testsupport"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeReel struct {
	likes, comments, views int64
	posted                 time.Time
	thread                 int
	status                 int
	body                   string
	hang                   bool
}

func reelHTML(r fakeReel) string {
	thread := make([]map[string]any, 0, r.thread)
	for i := 0; i < r.thread; i++ {
		thread = append(thread, map[string]any{
			"@type":      "Comment",
			"identifier": fmt.Sprintf("c%d", i),
			"text":       fmt.Sprintf("comment %d", i),
			"author":     map[string]any{"alternateName": fmt.Sprintf("user%d", i)},
		})
	}
	obj := map[string]any{
		"@context":   "https://schema.org",
		"@type":      "VideoObject",
		"caption":    "morning routine",
		"contentUrl": "https://cdn.example/video.mp4",
		"uploadDate": r.posted.Format(time.RFC3339),
		"interactionStatistic": []map[string]any{
			{"@type": "InteractionCounter", "interactionType": "http://schema.org/LikeAction", "userInteractionCount": r.likes},
			{"@type": "InteractionCounter", "interactionType": "http://schema.org/CommentAction", "userInteractionCount": r.comments},
			{"@type": "InteractionCounter", "interactionType": map[string]any{"@type": "WatchAction"}, "userInteractionCount": r.views},
		},
		"comment": thread,
	}
	data, _ := json.Marshal(obj)
	return `<html><head><script type="application/ld+json">` + string(data) + `</script></head><body></body></html>`
}

func newPlatform(t *testing.T, order []string, reels map[string]fakeReel, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/explore/tags/{tag}/", func(w http.ResponseWriter, r *http.Request) {
		var b strings.Builder
		b.WriteString(`<html><body><a href="/explore/">explore</a>`)
		for _, id := range order {
			fmt.Fprintf(&b, `<a href="/reel/%s/?utm=1">reel</a><a href="/reel/%s/">dup</a>`, id, id)
		}
		b.WriteString(`</body></html>`)
		_, _ = w.Write([]byte(b.String()))
	})
	mux.HandleFunc("/reel/{id}/", func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		fr, ok := reels[r.PathValue("id")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if fr.hang {
			<-r.Context().Done()
			return
		}
		if fr.status != 0 {
			w.WriteHeader(fr.status)
		}
		body := fr.body
		if body == "" {
			body = reelHTML(fr)
		}
		_, _ = w.Write([]byte(body))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestFetcher(t *testing.T, baseURL string, mutate func(*config.Config)) *Fetcher {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithFetchBaseURL(baseURL))
	cfg.Fetch.RequestTimeoutSeconds = 1
	if mutate != nil {
		mutate(cfg)
	}
	return New(cfg, logging.NewNop(), WithDoer(HTTPDoer{}), WithClock(func() time.Time { return fixedNow }))
}

func collect(t *testing.T, f *Fetcher, keyword string, maxItems int, minEngagement float64) ([]Candidate, error) {
	t.Helper()
	var out []Candidate
	for c, err := range f.Fetch(context.Background(), keyword, maxItems, minEngagement) {
		if err != nil {
			return out, err
		}
		out = append(out, c)
	}
	return out, nil
}

func TestFetchParsesReelsAndCapsComments(t *testing.T) {
	posted := fixedNow.Add(-24 * time.Hour)
	srv := newPlatform(t, []string{"AAA", "BBB"}, map[string]fakeReel{
		"AAA": {likes: 500, comments: 40, views: 10000, posted: posted, thread: 5},
		"BBB": {likes: 100, comments: 10, views: 2000, posted: posted, thread: 1},
	}, nil)
	f := newTestFetcher(t, srv.URL, func(c *config.Config) { c.Fetch.CommentLimit = 3 })

	got, err := collect(t, f, "#productivity", 5, 0)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	first := got[0]
	if first.Reel.ID != "AAA" || first.Reel.LikeCount != 500 || first.Reel.CommentCount != 40 || first.Reel.ViewCount != 10000 {
		t.Fatalf("unexpected reel %+v", first.Reel)
	}
	if first.Reel.Keyword != "productivity" || first.Reel.VideoURL != "https://cdn.example/video.mp4" {
		t.Fatalf("unexpected metadata %+v", first.Reel)
	}
	if first.Reel.Permalink != srv.URL+"/reel/AAA/" {
		t.Fatalf("unexpected permalink %q", first.Reel.Permalink)
	}
	if len(first.Comments) != 3 || first.Comments[0].Author != "user0" {
		t.Fatalf("expected 3 capped comments, got %+v", first.Comments)
	}
	if !first.Reel.ScrapedAt.Equal(fixedNow) {
		t.Fatalf("unexpected scraped_at %v", first.Reel.ScrapedAt)
	}
}

func TestFetchFiltersByEngagementAndRecency(t *testing.T) {
	srv := newPlatform(t, []string{"LOW", "OLD", "HIGH"}, map[string]fakeReel{
		"LOW":  {likes: 1, comments: 0, views: 10000, posted: fixedNow.Add(-time.Hour)},
		"OLD":  {likes: 900, comments: 90, views: 1000, posted: fixedNow.Add(-200 * 24 * time.Hour)},
		"HIGH": {likes: 900, comments: 90, views: 1000, posted: fixedNow.Add(-time.Hour)},
	}, nil)
	f := newTestFetcher(t, srv.URL, nil)
	got, err := collect(t, f, "fitness", 5, 1.0)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(got) != 1 || got[0].Reel.ID != "HIGH" {
		t.Fatalf("expected only HIGH, got %+v", got)
	}
}

func TestFetchStopsOnBlockAndKeepsEarlierItems(t *testing.T) {
	posted := fixedNow.Add(-time.Hour)
	srv := newPlatform(t, []string{"ONE", "TWO", "THREE"}, map[string]fakeReel{
		"ONE":   {likes: 100, comments: 10, views: 1000, posted: posted},
		"TWO":   {status: http.StatusTooManyRequests, body: "slow down"},
		"THREE": {likes: 100, comments: 10, views: 1000, posted: posted},
	}, nil)
	f := newTestFetcher(t, srv.URL, nil)
	got, err := collect(t, f, "study", 5, 0)
	if !errors.Is(err, services.ErrScrapeBlocked) {
		t.Fatalf("expected scrape blocked, got %v", err)
	}
	if len(got) != 1 || got[0].Reel.ID != "ONE" {
		t.Fatalf("expected the item before the block, got %+v", got)
	}
}

func TestFetchDetectsLoginWallOnTagPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><form id="loginForm"></form></body></html>`))
	}))
	defer srv.Close()
	f := newTestFetcher(t, srv.URL, nil)
	_, err := collect(t, f, "study", 3, 0)
	if !errors.Is(err, services.ErrScrapeBlocked) {
		t.Fatalf("expected scrape blocked, got %v", err)
	}
}

func TestFetchSkipsTimedOutItem(t *testing.T) {
	posted := fixedNow.Add(-time.Hour)
	srv := newPlatform(t, []string{"SLOW", "FAST"}, map[string]fakeReel{
		"SLOW": {hang: true},
		"FAST": {likes: 100, comments: 10, views: 1000, posted: posted},
	}, nil)
	f := newTestFetcher(t, srv.URL, nil)
	got, err := collect(t, f, "study", 5, 0)
	if err != nil {
		t.Fatalf("timeout should not end the sequence: %v", err)
	}
	if len(got) != 1 || got[0].Reel.ID != "FAST" {
		t.Fatalf("expected FAST only, got %+v", got)
	}
}

func TestFetchIsLazy(t *testing.T) {
	posted := fixedNow.Add(-time.Hour)
	reels := map[string]fakeReel{}
	order := []string{"R1", "R2", "R3", "R4"}
	for _, id := range order {
		reels[id] = fakeReel{likes: 100, comments: 10, views: 1000, posted: posted}
	}
	var hits atomic.Int32
	srv := newPlatform(t, order, reels, &hits)
	f := newTestFetcher(t, srv.URL, nil)
	for _, err := range f.Fetch(context.Background(), "study", 4, 0) {
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		break
	}
	if n := hits.Load(); n != 1 {
		t.Fatalf("expected one reel page request, got %d", n)
	}
}

func TestFetchValidatesArguments(t *testing.T) {
	f := newTestFetcher(t, "http://127.0.0.1:1", nil)
	cases := []struct {
		keyword string
		max     int
		min     float64
	}{
		{"", 1, 0},
		{"study", 0, 0},
		{"study", 1, -1},
	}
	for _, tc := range cases {
		_, err := collect(t, f, tc.keyword, tc.max, tc.min)
		if !errors.Is(err, services.ErrValidation) {
			t.Fatalf("expected validation error for %+v, got %v", tc, err)
		}
	}
}

func TestMockFetchIsDeterministic(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	f := New(cfg, logging.NewNop(), WithClock(func() time.Time { return fixedNow }))
	first, err := collect(t, f, "productivity", 3, 1.0)
	if err != nil {
		t.Fatalf("mock fetch failed: %v", err)
	}
	second, _ := collect(t, f, "productivity", 3, 1.0)
	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("expected 3 mock reels, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Reel.ID != second[i].Reel.ID || first[i].Reel.LikeCount != second[i].Reel.LikeCount {
			t.Fatalf("mock output differs at %d", i)
		}
		if len(first[i].Comments) < cfg.Audience.MinComments {
			t.Fatalf("mock reel %d has too few comments", i)
		}
	}
}

func TestParseReelPageOpenGraphFallback(t *testing.T) {
	body := `<html><head>
<meta property="og:description" content="1.2K likes, 34 comments - someone on March 1, 2026: &quot;Desk setup tour&quot;">
<meta property="og:video" content="https://cdn.example/v.mp4">
</head><body><time datetime="2026-02-28T10:00:00Z"></time></body></html>`
	page := parseReelPage([]byte(body))
	if page.Likes != 1200 || page.Comments != 34 {
		t.Fatalf("unexpected counts %+v", page)
	}
	if page.VideoURL != "https://cdn.example/v.mp4" || page.Caption != "Desk setup tour" {
		t.Fatalf("unexpected metadata %+v", page)
	}
	if page.PostedAt.IsZero() {
		t.Fatal("expected posted time from <time>")
	}
}

func TestFetchFollowsPlatformProfile(t *testing.T) {
	posted := fixedNow.Add(-time.Hour)
	page := reelHTML(fakeReel{likes: 300, comments: 30, views: 3000, posted: posted, thread: 2})
	cases := []struct {
		platform  string
		search    string
		links     string
		videoPath string
		id        string
	}{
		{
			platform:  config.PlatformTikTok,
			search:    "/tag/study",
			links:     `<a href="/@someone/video/7312345678901234567?lang=ja">v</a><a href="/@someone">profile</a>`,
			videoPath: "/@/video/7312345678901234567",
			id:        "7312345678901234567",
		},
		{
			platform:  config.PlatformYouTube,
			search:    "/results",
			links:     `<a href="/shorts/abcDEF12345">s</a><a href="/watch?v=long">long</a>`,
			videoPath: "/shorts/abcDEF12345",
			id:        "abcDEF12345",
		},
	}
	for _, tc := range cases {
		t.Run(tc.platform, func(t *testing.T) {
			var query string
			mux := http.NewServeMux()
			mux.HandleFunc(tc.search, func(w http.ResponseWriter, r *http.Request) {
				query = r.URL.RawQuery
				_, _ = w.Write([]byte("<html><body>" + tc.links + "</body></html>"))
			})
			mux.HandleFunc(tc.videoPath, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(page))
			})
			srv := httptest.NewServer(mux)
			defer srv.Close()

			f := newTestFetcher(t, srv.URL, func(c *config.Config) { c.Fetch.Platform = tc.platform })
			got, err := collect(t, f, "study", 5, 0)
			if err != nil {
				t.Fatalf("Fetch failed: %v", err)
			}
			if len(got) != 1 || got[0].Reel.ID != tc.id {
				t.Fatalf("expected video %s, got %+v", tc.id, got)
			}
			if got[0].Reel.Permalink != srv.URL+tc.videoPath {
				t.Fatalf("unexpected permalink %q", got[0].Reel.Permalink)
			}
			if tc.platform == config.PlatformYouTube && !strings.Contains(query, "search_query=study") {
				t.Fatalf("expected search query, got %q", query)
			}
		})
	}
}
