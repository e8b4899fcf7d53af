package pipeline

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync/atomic"
	"testing"
	"time"

	"reelscript/internal/audience"
	"reelscript/internal/config"
	"reelscript/internal/fetcher"
	"reelscript/internal/logging"
	"reelscript/internal/reel"
	"reelscript/internal/reelstore"
	"reelscript/internal/services"
	"reelscript/internal/testsupport"
	"reelscript/internal/transcribe"
)

type fakeSource struct {
	candidates []fetcher.Candidate
	tail       error
}

func (f fakeSource) Fetch(ctx context.Context, _ string, maxItems int, _ float64) iter.Seq2[fetcher.Candidate, error] {
	return func(yield func(fetcher.Candidate, error) bool) {
		for i, c := range f.candidates {
			if i >= maxItems {
				return
			}
			if !yield(c, nil) {
				return
			}
		}
		if f.tail != nil {
			yield(fetcher.Candidate{}, f.tail)
		}
	}
}

type fakeTranscriber struct {
	calls   atomic.Int32
	hang    map[string]bool
	fail    map[string]error
	active  atomic.Int32
	maxSeen atomic.Int32
	delay   time.Duration
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, r reel.Reel, _ bool) (transcribe.Result, error) {
	f.calls.Add(1)
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if n <= seen || f.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	if f.hang[r.ID] {
		<-ctx.Done()
		return transcribe.Result{}, ctx.Err()
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if err := f.fail[r.ID]; err != nil {
		return transcribe.Result{}, err
	}
	return transcribe.Result{Transcript: "transcript of " + r.ID}, nil
}

type fakeAnalyzer struct {
	fail map[string]error
}

func (f fakeAnalyzer) Analyze(_ context.Context, reelID string, _ []reel.Comment) (audience.Analysis, error) {
	if err := f.fail[reelID]; err != nil {
		return audience.Analysis{}, err
	}
	return audience.Analysis{Label: reel.AudienceLabel{Age: "18-24", Interest: "study"}}, nil
}

func candidates(n int) []fetcher.Candidate {
	out := make([]fetcher.Candidate, n)
	for i := range out {
		out[i] = fetcher.Candidate{Reel: reel.Reel{
			ID:           fmt.Sprintf("r%d", i+1),
			Permalink:    fmt.Sprintf("https://example.test/reel/r%d/", i+1),
			LikeCount:    int64(100 * (i + 1)),
			CommentCount: 10,
			ViewCount:    1000,
		}}
	}
	return out
}

func newRunner(t *testing.T, cfg *config.Config, src fetcher.Source, tr Transcriber, an Analyzer) (*Runner, *reelstore.Store) {
	t.Helper()
	store := testsupport.MustOpenStore(t, cfg)
	return New(cfg, src, tr, an, store, logging.NewNop()), store
}

func TestRunProductivityScenarioYieldsUsableReels(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	runner, closeFn, err := FromConfig(context.Background(), cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("FromConfig failed: %v", err)
	}
	defer closeFn()

	summary, err := runner.Run(context.Background(), Request{Keyword: "productivity", Top: 3, MinEngagement: 1.0})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Fetched != 3 || summary.Usable < 3 {
		t.Fatalf("expected 3 usable reels, got %+v", summary)
	}
	reels, err := store.QueryByAudience(context.Background(), reel.TargetAudience{})
	if err != nil {
		t.Fatalf("QueryByAudience failed: %v", err)
	}
	if len(reels) < 3 {
		t.Fatalf("expected at least 3 usable reels in store, got %d", len(reels))
	}
	for _, r := range reels {
		if !r.Usable() {
			t.Fatalf("query returned unusable reel %+v", r)
		}
	}
}

func TestRunSkipsTimedOutItem(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Pipeline.ItemTimeoutSeconds = 1
	tr := &fakeTranscriber{hang: map[string]bool{"r3": true}}
	runner, store := newRunner(t, cfg, fakeSource{candidates: candidates(5)}, tr, fakeAnalyzer{})

	summary, err := runner.Run(context.Background(), Request{Keyword: "study", Top: 5})
	if err != nil {
		t.Fatalf("a timed out item must not fail the batch: %v", err)
	}
	if summary.Usable != 4 || summary.Failed != 1 {
		t.Fatalf("expected 4 usable and 1 failed, got %+v", summary)
	}
	slow, err := store.Get(context.Background(), "r3")
	if err != nil || slow == nil {
		t.Fatalf("Get r3: %v", err)
	}
	if slow.Usable() || slow.TranscriptError != "timeout" {
		t.Fatalf("expected timeout recorded on r3, got %+v", slow)
	}
	usable, _ := store.QueryByAudience(context.Background(), reel.TargetAudience{})
	if len(usable) != 4 {
		t.Fatalf("expected 4 usable reels, got %d", len(usable))
	}
}

func TestRunKeepsPartialResultsWhenBlocked(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	blocked := services.Wrap(services.ErrScrapeBlocked, "fetch", "reel page", "login wall", nil)
	runner, store := newRunner(t, cfg, fakeSource{candidates: candidates(2), tail: blocked}, &fakeTranscriber{}, fakeAnalyzer{})

	summary, err := runner.Run(context.Background(), Request{Keyword: "study", Top: 5})
	if !errors.Is(err, services.ErrScrapeBlocked) {
		t.Fatalf("expected scrape blocked, got %v", err)
	}
	if !summary.Blocked || summary.Usable != 2 {
		t.Fatalf("expected blocked summary with 2 usable, got %+v", summary)
	}
	usable, _ := store.QueryByAudience(context.Background(), reel.TargetAudience{})
	if len(usable) != 2 {
		t.Fatalf("expected items before the block to be stored, got %d", len(usable))
	}
}

func TestRunRecordsItemFailures(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	tr := &fakeTranscriber{fail: map[string]error{
		"r1": services.Wrap(services.ErrAudioUnavailable, "transcribe", "probe", "no audio stream", nil),
	}}
	an := fakeAnalyzer{fail: map[string]error{
		"r2": services.Wrap(services.ErrInsufficientComments, "audience", "analyze", "2 comments", nil),
	}}
	runner, store := newRunner(t, cfg, fakeSource{candidates: candidates(3)}, tr, an)

	summary, err := runner.Run(context.Background(), Request{Keyword: "study", Top: 3})
	if err != nil {
		t.Fatalf("item failures must not fail the batch: %v", err)
	}
	if summary.Usable != 1 || summary.Failed != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	r1, _ := store.Get(context.Background(), "r1")
	if r1.TranscriptError != "audio_unavailable" || r1.Audience.IsZero() {
		t.Fatalf("r1 should keep its audience and record the audio failure, got %+v", r1)
	}
	r2, _ := store.Get(context.Background(), "r2")
	if r2.AudienceError != "insufficient_comments" || r2.Transcript == "" {
		t.Fatalf("r2 should keep its transcript and record the audience failure, got %+v", r2)
	}
}

func TestRunBoundsConcurrencyAndOrdersByScore(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Pipeline.Concurrency = 2
	tr := &fakeTranscriber{delay: 20 * time.Millisecond}
	runner, _ := newRunner(t, cfg, fakeSource{candidates: candidates(6)}, tr, fakeAnalyzer{})

	summary, err := runner.Run(context.Background(), Request{Keyword: "study", Top: 6})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := tr.maxSeen.Load(); got > 2 {
		t.Fatalf("expected at most 2 concurrent items, saw %d", got)
	}
	for i := 1; i < len(summary.Items); i++ {
		if summary.Items[i-1].Score < summary.Items[i].Score {
			t.Fatalf("items not sorted by score: %+v", summary.Items)
		}
	}
	if summary.Items[0].ReelID != "r6" {
		t.Fatalf("expected highest scoring reel first, got %s", summary.Items[0].ReelID)
	}
}

func TestRunValidatesRequest(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	runner, _ := newRunner(t, cfg, fakeSource{}, &fakeTranscriber{}, fakeAnalyzer{})
	for _, req := range []Request{
		{Keyword: "", Top: 1},
		{Keyword: "study", Top: 0},
		{Keyword: "study", Top: 1, MinEngagement: -0.5},
	} {
		if _, err := runner.Run(context.Background(), req); !errors.Is(err, services.ErrValidation) {
			t.Fatalf("expected validation error for %+v, got %v", req, err)
		}
	}
}

type failingStore struct {
	*reelstore.Store
}

func (failingStore) SetTranscript(context.Context, string, string, string) error {
	return errors.New("disk full")
}

func TestRunPropagatesStoreFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := failingStore{Store: testsupport.MustOpenStore(t, cfg)}
	runner := New(cfg, fakeSource{candidates: candidates(3)}, &fakeTranscriber{}, fakeAnalyzer{}, store, logging.NewNop())
	if _, err := runner.Run(context.Background(), Request{Keyword: "study", Top: 3}); err == nil {
		t.Fatal("expected store failure to end the batch")
	}
}

type countingAnalyzer struct {
	fakeAnalyzer
	calls *atomic.Int32
}

func (c countingAnalyzer) Analyze(ctx context.Context, reelID string, comments []reel.Comment) (audience.Analysis, error) {
	c.calls.Add(1)
	return c.fakeAnalyzer.Analyze(ctx, reelID, comments)
}

func TestRescrapeSkipsStoredWork(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	src := fakeSource{candidates: candidates(3)}

	first := &fakeTranscriber{}
	var firstAnalyses atomic.Int32
	analyzer := countingAnalyzer{
		fakeAnalyzer: fakeAnalyzer{fail: map[string]error{
			"r2": services.Wrap(services.ErrInsufficientComments, "test", "analyze", "too few", nil),
		}},
		calls: &firstAnalyses,
	}
	runner := New(cfg, src, first, analyzer, store, logging.NewNop())
	summary, err := runner.Run(context.Background(), Request{Keyword: "study", Top: 3})
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if summary.Usable != 2 || first.calls.Load() != 3 {
		t.Fatalf("expected 2 usable after 3 transcriptions, got %+v calls=%d", summary, first.calls.Load())
	}

	second := &fakeTranscriber{}
	var secondAnalyses atomic.Int32
	runner = New(cfg, src, second, countingAnalyzer{calls: &secondAnalyses}, store, logging.NewNop())
	summary, err = runner.Run(context.Background(), Request{Keyword: "study", Top: 3})
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if n := second.calls.Load(); n != 0 {
		t.Fatalf("expected no transcription on re-scrape, got %d calls", n)
	}
	if n := secondAnalyses.Load(); n != 1 {
		t.Fatalf("expected only r2 to be analyzed again, got %d calls", n)
	}
	if summary.Usable != 3 || summary.Failed != 0 {
		t.Fatalf("expected all reels usable after the second run, got %+v", summary)
	}
	r2, _ := store.Get(context.Background(), "r2")
	if r2 == nil || !r2.Usable() || r2.Transcript != "transcript of r2" {
		t.Fatalf("r2 should keep its first transcript and gain a label, got %+v", r2)
	}
}
