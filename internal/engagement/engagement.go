package engagement

import (
	"cmp"
	"slices"

	"reelscript/internal/reel"
)

// Weights scale each count in the engagement score. Comments weigh at least as
// much as likes and likes at least as much as views; the view weight
// normalizes the result into a per-view percentage.
type Weights struct {
	Comment float64
	Like    float64
	View    float64
}

// DefaultWeights favours comments because they feed audience analysis.
var DefaultWeights = Weights{Comment: 2, Like: 1, View: 1}

// Score returns 100 * (Comment*comments + Like*likes) / (View*views).
// Reels without views score zero.
func (w Weights) Score(likes, comments, views int64) float64 {
	if views <= 0 || w.View <= 0 {
		return 0
	}
	return 100 * (w.Comment*float64(comments) + w.Like*float64(likes)) / (w.View * float64(views))
}

// Stats builds the read-only engagement view of r.
func (w Weights) Stats(r reel.Reel) reel.EngagementStats {
	return reel.EngagementStats{
		Likes:    r.LikeCount,
		Comments: r.CommentCount,
		Views:    r.ViewCount,
		Score:    w.Score(r.LikeCount, r.CommentCount, r.ViewCount),
	}
}

// Filter drops reels scoring below minEngagement and orders the rest by score
// descending, ties broken by id. The input slice is not modified.
func (w Weights) Filter(items []reel.Reel, minEngagement float64) []reel.Reel {
	kept := make([]reel.Reel, 0, len(items))
	for _, item := range items {
		if w.Score(item.LikeCount, item.CommentCount, item.ViewCount) >= minEngagement {
			kept = append(kept, item)
		}
	}
	w.Sort(kept)
	return kept
}

// Sort orders reels in place by score descending, ties broken by id.
func (w Weights) Sort(items []reel.Reel) {
	slices.SortStableFunc(items, func(a, b reel.Reel) int {
		sa := w.Score(a.LikeCount, a.CommentCount, a.ViewCount)
		sb := w.Score(b.LikeCount, b.CommentCount, b.ViewCount)
		if c := cmp.Compare(sb, sa); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
