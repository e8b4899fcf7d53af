package audience

import (
	"context"
	"errors"
	"strings"
	"testing"

	"reelscript/internal/logging"
	"reelscript/internal/reel"
	"reelscript/internal/services"
	"reelscript/internal/testsupport"
)

type fixedStrategy struct {
	assign []int
	err    error
}

func (f fixedStrategy) Segment(vectors [][]float64, k int) ([]int, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.assign[:len(vectors)], nil
}

type labelByFirstComment map[string]reel.AudienceLabel

func (l labelByFirstComment) Label(_ context.Context, in ClusterInput) (reel.AudienceLabel, error) {
	if label, ok := l[in.Comments[0]]; ok {
		return label, nil
	}
	return reel.AudienceLabel{}, errors.New("no label")
}

func comments(texts ...string) []reel.Comment {
	out := make([]reel.Comment, len(texts))
	for i, text := range texts {
		out[i] = reel.Comment{ID: string(rune('a' + i)), Text: text}
	}
	return out
}

func newTestAnalyzer(t *testing.T, opts ...Option) *Analyzer {
	t.Helper()
	return New(testsupport.NewConfig(t), logging.NewNop(), opts...)
}

func TestAnalyzeInsufficientComments(t *testing.T) {
	a := newTestAnalyzer(t)
	_, err := a.Analyze(context.Background(), "r1", comments("one", "two", "three", "four", "   "))
	if !errors.Is(err, services.ErrInsufficientComments) {
		t.Fatalf("expected insufficient comments, got %v", err)
	}
}

func TestAnalyzeLargestClusterWins(t *testing.T) {
	a := newTestAnalyzer(t, WithStrategy(fixedStrategy{assign: []int{0, 0, 0, 1, 1}}))
	analysis, err := a.Analyze(context.Background(), "r1", comments(
		"大学の勉強つらい",
		"研究室で勉強中",
		"卒論の勉強がんばる",
		"ジムで筋トレ",
		"ダイエット中",
	))
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	want := reel.AudienceLabel{Age: "18-24", Interest: "study"}
	if analysis.Label != want {
		t.Fatalf("label = %+v, want %+v", analysis.Label, want)
	}
	if len(analysis.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(analysis.Segments))
	}
	if got := strings.Join(analysis.Segments[0].MemberCommentIDs, ","); got != "a,b,c" {
		t.Fatalf("unexpected members %q", got)
	}
	fitness := analysis.Segments[1].Label
	if fitness.Interest != "fitness" || fitness.Gender != reel.GenderMale || fitness.Age != "" {
		t.Fatalf("unexpected second label %+v", fitness)
	}
	if len(analysis.Segments[0].Centroid) != Dimensions {
		t.Fatalf("centroid has %d dims", len(analysis.Segments[0].Centroid))
	}
}

func TestAnalyzeTieGoesToFirstLabel(t *testing.T) {
	labeler := labelByFirstComment{
		"food one": {Age: "25-34", Interest: "food"},
		"tech one": {Age: "18-24", Interest: "tech"},
	}
	a := newTestAnalyzer(t,
		WithStrategy(fixedStrategy{assign: []int{0, 0, 1, 1, 2}}),
		WithLabeler(labeler),
	)
	analysis, err := a.Analyze(context.Background(), "r1", comments("food one", "food two", "tech one", "tech two", "other"))
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if analysis.Label.Interest != "tech" {
		t.Fatalf("expected tie broken toward 18-24/tech, got %+v", analysis.Label)
	}
	// Cluster 2 has no stub label and falls back to the lexical labeler.
	if analysis.Segments[2].Label.IsZero() {
		t.Fatal("expected lexical fallback label for unlabeled cluster")
	}
}

func TestAnalyzeStrategyFailure(t *testing.T) {
	a := newTestAnalyzer(t, WithStrategy(fixedStrategy{err: errors.New("boom")}))
	_, err := a.Analyze(context.Background(), "r1", comments("a", "b", "c", "d", "e"))
	if err == nil || errors.Is(err, services.ErrInsufficientComments) {
		t.Fatalf("expected segmentation error, got %v", err)
	}
}

func TestAnalyzeWithSeededKMeansIsDeterministic(t *testing.T) {
	texts := comments(
		"メイクが可愛い", "コスメ最高", "スキンケア教えて",
		"旅行したい", "海外のホテル", "観光スポット",
	)
	first, err := newTestAnalyzer(t).Analyze(context.Background(), "r1", texts)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	second, err := newTestAnalyzer(t).Analyze(context.Background(), "r1", texts)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if first.Label != second.Label || len(first.Segments) != len(second.Segments) {
		t.Fatalf("expected identical results, got %+v and %+v", first.Label, second.Label)
	}
	if first.Label.IsZero() {
		t.Fatal("expected non-empty label")
	}
}

type failingLabeler struct{}

func (failingLabeler) Label(context.Context, ClusterInput) (reel.AudienceLabel, error) {
	return reel.AudienceLabel{}, errors.New("upstream 503")
}

func inTaxonomy(label reel.AudienceLabel) bool {
	return Constrain(label) == label
}

func TestLabelerFailureStaysInTaxonomy(t *testing.T) {
	texts := comments("メイクが可愛い", "コスメ最高", "スキンケア教えて", "化粧ポーチ欲しい", "メイクの参考になる")
	failing, err := newTestAnalyzer(t, WithLabeler(failingLabeler{})).Analyze(context.Background(), "r1", texts)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	lexical, err := newTestAnalyzer(t).Analyze(context.Background(), "r1", texts)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if !inTaxonomy(failing.Label) {
		t.Fatalf("label %+v has values outside the taxonomy", failing.Label)
	}
	for _, seg := range failing.Segments {
		if !inTaxonomy(seg.Label) {
			t.Fatalf("segment %d label %+v outside the taxonomy", seg.ClusterID, seg.Label)
		}
	}
	if failing.Label != lexical.Label {
		t.Fatalf("fallback label %+v differs from lexical label %+v", failing.Label, lexical.Label)
	}
	if failing.Label.Interest != "beauty" {
		t.Fatalf("expected beauty interest, got %+v", failing.Label)
	}
}

func TestAnalyzeRejectsOutOfRangeAssignments(t *testing.T) {
	for _, assign := range [][]int{
		{0, 0, -1, 1, 1},
		{0, 0, 1, 1, 99},
	} {
		a := newTestAnalyzer(t, WithStrategy(fixedStrategy{assign: assign}))
		_, err := a.Analyze(context.Background(), "r1", comments("a", "b", "c", "d", "e"))
		if !errors.Is(err, services.ErrValidation) {
			t.Fatalf("assign %v: expected validation error, got %v", assign, err)
		}
	}
}
