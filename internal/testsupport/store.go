package testsupport

import (
	"context"
	"testing"
	"time"

	"reelscript/internal/config"
	"reelscript/internal/reel"
	"reelscript/internal/reelstore"
)

// MustOpenStore opens a reelstore.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *reelstore.Store {
	t.Helper()

	store, err := reelstore.Open(cfg)
	if err != nil {
		t.Fatalf("reelstore.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// UsableReel builds a reel with a transcript and audience label set.
func UsableReel(id string, likes, comments, views int64, label reel.AudienceLabel) reel.Reel {
	return reel.Reel{
		ID:           id,
		Permalink:    "https://www.instagram.com/reel/" + id + "/",
		Keyword:      "test",
		LikeCount:    likes,
		CommentCount: comments,
		ViewCount:    views,
		AudioURL:     "https://cdn.example.com/" + id + ".m4a",
		Transcript:   "transcript for " + id + ". first point. second point. follow for more",
		Audience:     label,
		ScrapedAt:    time.Now().UTC(),
	}
}

// SeedReels upserts reels into store.
func SeedReels(t testing.TB, store *reelstore.Store, reels ...reel.Reel) {
	t.Helper()

	for _, r := range reels {
		if err := store.Upsert(context.Background(), r); err != nil {
			t.Fatalf("store.Upsert(%s): %v", r.ID, err)
		}
	}
}
