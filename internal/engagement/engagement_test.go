package engagement_test

import (
	"slices"
	"testing"

	"reelscript/internal/engagement"
	"reelscript/internal/reel"
)

func sampleReels() []reel.Reel {
	return []reel.Reel{
		{ID: "low", LikeCount: 10, CommentCount: 0, ViewCount: 10_000},
		{ID: "mid", LikeCount: 200, CommentCount: 50, ViewCount: 10_000},
		{ID: "high", LikeCount: 500, CommentCount: 100, ViewCount: 10_000},
		{ID: "noviews", LikeCount: 500, CommentCount: 100},
		{ID: "mid-twin", LikeCount: 200, CommentCount: 50, ViewCount: 10_000},
	}
}

func TestScoreWeighsCommentsOverLikes(t *testing.T) {
	w := engagement.DefaultWeights
	commentHeavy := w.Score(0, 100, 10_000)
	likeHeavy := w.Score(100, 0, 10_000)
	if commentHeavy <= likeHeavy {
		t.Fatalf("expected comments to outweigh likes: %v <= %v", commentHeavy, likeHeavy)
	}
	if got := w.Score(100, 50, 10_000); got != 2 {
		t.Fatalf("expected score 2, got %v", got)
	}
	if got := w.Score(100, 50, 0); got != 0 {
		t.Fatalf("expected zero score without views, got %v", got)
	}
}

func TestFilterDropsBelowThresholdAndSortsDescending(t *testing.T) {
	got := engagement.DefaultWeights.Filter(sampleReels(), 1.0)
	ids := make([]string, 0, len(got))
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	want := []string{"high", "mid", "mid-twin"}
	if !slices.Equal(ids, want) {
		t.Fatalf("unexpected order: got %v want %v", ids, want)
	}
}

func TestFilterIsIdempotent(t *testing.T) {
	w := engagement.DefaultWeights
	once := w.Filter(sampleReels(), 1.0)
	twice := w.Filter(once, 1.0)
	if len(once) != len(twice) {
		t.Fatalf("length changed: %d vs %d", len(once), len(twice))
	}
	for i := range once {
		if once[i].ID != twice[i].ID {
			t.Fatalf("order changed at %d: %s vs %s", i, once[i].ID, twice[i].ID)
		}
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	input := sampleReels()
	_ = engagement.DefaultWeights.Filter(input, 0)
	if input[0].ID != "low" {
		t.Fatalf("input reordered: %v", input[0].ID)
	}
}

func TestStatsSnapshot(t *testing.T) {
	stats := engagement.DefaultWeights.Stats(reel.Reel{LikeCount: 100, CommentCount: 50, ViewCount: 10_000})
	if stats.Likes != 100 || stats.Comments != 50 || stats.Views != 10_000 || stats.Score != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
