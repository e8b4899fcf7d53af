package audience

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"reelscript/internal/config"
	"reelscript/internal/logging"
	"reelscript/internal/reel"
	"reelscript/internal/services"
)

// AudienceSegment is one comment cluster of a single analysis.
type AudienceSegment struct {
	ClusterID        int                `json:"cluster_id"`
	Centroid         []float64          `json:"centroid"`
	Label            reel.AudienceLabel `json:"label"`
	MemberCommentIDs []string           `json:"member_comment_ids"`
}

// Analysis is the outcome for one reel. Only Label is persisted.
type Analysis struct {
	Label    reel.AudienceLabel `json:"label"`
	Segments []AudienceSegment  `json:"segments"`
}

// Analyzer turns reel comments into an audience label.
type Analyzer struct {
	strategy    SegmentationStrategy
	labeler     ZeroShotLabeler
	fallback    ZeroShotLabeler
	clusters    int
	minComments int
	logger      *slog.Logger
}

// Option customizes an Analyzer.
type Option func(*Analyzer)

// WithStrategy replaces the segmentation strategy.
func WithStrategy(s SegmentationStrategy) Option {
	return func(a *Analyzer) { a.strategy = s }
}

// WithLabeler replaces the cluster labeler.
func WithLabeler(l ZeroShotLabeler) Option {
	return func(a *Analyzer) { a.labeler = l }
}

// New builds an Analyzer with seeded k-means and the lexical labeler.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Analyzer {
	a := &Analyzer{
		strategy:    KMeans{Seed: cfg.Audience.Seed, MaxIterations: cfg.Audience.MaxIterations},
		labeler:     LexicalLabeler{},
		fallback:    LexicalLabeler{},
		clusters:    cfg.Audience.Clusters,
		minComments: cfg.Audience.MinComments,
		logger:      logging.NewComponentLogger(logger, "audience"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze labels the audience of reelID from its comments. Blank comments do
// not count toward the minimum.
func (a *Analyzer) Analyze(ctx context.Context, reelID string, comments []reel.Comment) (Analysis, error) {
	ctx = services.WithStage(services.WithReelID(ctx, reelID), "audience")
	logger := logging.WithContext(ctx, a.logger)

	usable := make([]reel.Comment, 0, len(comments))
	for _, c := range comments {
		if strings.TrimSpace(c.Text) != "" {
			usable = append(usable, c)
		}
	}
	if len(usable) < a.minComments {
		return Analysis{}, services.Wrap(services.ErrInsufficientComments, "audience", "analyze",
			fmt.Sprintf("%d comments, need %d", len(usable), a.minComments), nil)
	}

	vectors := make([][]float64, len(usable))
	for i, c := range usable {
		vectors[i] = Signal(c.Text)
	}
	assign, err := a.strategy.Segment(vectors, a.clusters)
	if err != nil {
		return Analysis{}, services.Wrap(services.ErrValidation, "audience", "segment", "segmentation failed", err)
	}
	if len(assign) != len(vectors) {
		return Analysis{}, services.Wrap(services.ErrValidation, "audience", "segment",
			fmt.Sprintf("strategy returned %d assignments for %d comments", len(assign), len(vectors)), nil)
	}
	for i, c := range assign {
		if c < 0 || c >= len(vectors) {
			return Analysis{}, services.Wrap(services.ErrValidation, "audience", "segment",
				fmt.Sprintf("strategy assigned comment %d to cluster %d", i, c), nil)
		}
	}

	segments := buildSegments(usable, vectors, assign)
	for i := range segments {
		if err := ctx.Err(); err != nil {
			return Analysis{}, services.Wrap(services.ErrTimeout, "audience", "label", "analysis interrupted", err)
		}
		segments[i].Label = a.labelSegment(ctx, logger, segments[i], usable, assign)
	}

	winner := pickWinner(segments)
	logger.Debug("audience labeled",
		logging.String("label", winner.String()),
		logging.Int("clusters", len(segments)),
		logging.Int("comments", len(usable)),
	)
	return Analysis{Label: winner, Segments: segments}, nil
}

func (a *Analyzer) labelSegment(ctx context.Context, logger *slog.Logger, seg AudienceSegment, comments []reel.Comment, assign []int) reel.AudienceLabel {
	texts := make([]string, 0, len(seg.MemberCommentIDs))
	for i, c := range comments {
		if assign[i] == seg.ClusterID {
			texts = append(texts, c.Text)
		}
	}
	in := ClusterInput{Centroid: seg.Centroid, Comments: texts}
	label, err := a.labeler.Label(ctx, in)
	if err == nil {
		label = Constrain(label)
	}
	if err != nil || label.IsZero() {
		if err != nil {
			logging.WarnWithContext(logger, "cluster labeler failed; using lexical label", "audience_label_fallback",
				logging.Int("cluster", seg.ClusterID),
				logging.Error(err),
				logging.String(logging.FieldImpact, "cluster labeled from keyword evidence only"),
			)
		}
		label, _ = a.fallback.Label(ctx, in)
	}
	return Constrain(label)
}

func buildSegments(comments []reel.Comment, vectors [][]float64, assign []int) []AudienceSegment {
	count := 0
	for _, c := range assign {
		count = max(count, c+1)
	}
	members := make([][][]float64, count)
	segments := make([]AudienceSegment, count)
	for i := range segments {
		segments[i].ClusterID = i
	}
	for i, c := range assign {
		members[c] = append(members[c], vectors[i])
		id := comments[i].ID
		if id == "" {
			id = fmt.Sprintf("c%d", i)
		}
		segments[c].MemberCommentIDs = append(segments[c].MemberCommentIDs, id)
	}
	out := segments[:0]
	for i := range segments {
		if len(members[i]) == 0 {
			continue
		}
		segments[i].Centroid = Centroid(members[i])
		out = append(out, segments[i])
	}
	return out
}

// pickWinner returns the label of the largest segment. Equal sizes resolve to
// the lexicographically first label.
func pickWinner(segments []AudienceSegment) reel.AudienceLabel {
	ranked := append([]AudienceSegment(nil), segments...)
	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := len(ranked[i].MemberCommentIDs), len(ranked[j].MemberCommentIDs)
		if si != sj {
			return si > sj
		}
		return ranked[i].Label.String() < ranked[j].Label.String()
	})
	if len(ranked) == 0 {
		return reel.AudienceLabel{}
	}
	return ranked[0].Label
}
