package audience

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"reelscript/internal/config"
	"reelscript/internal/logging"
	"reelscript/internal/reel"
	"reelscript/internal/services/gemini"
	"reelscript/internal/services/llm"
)

// ClusterInput is what a labeler sees for one cluster.
type ClusterInput struct {
	Centroid []float64
	Comments []string
}

// ZeroShotLabeler names a cluster using only labels from the reel taxonomy.
type ZeroShotLabeler interface {
	Label(ctx context.Context, in ClusterInput) (reel.AudienceLabel, error)
}

// mixedRatio is how close female and male evidence must be to label a
// cluster mixed.
const mixedRatio = 0.75

// LexicalLabeler reads the label straight off the cluster centroid.
type LexicalLabeler struct{}

// Label implements ZeroShotLabeler.
func (LexicalLabeler) Label(_ context.Context, in ClusterInput) (reel.AudienceLabel, error) {
	return labelFromCentroid(in.Centroid), nil
}

func labelFromCentroid(centroid []float64) reel.AudienceLabel {
	label := reel.AudienceLabel{Interest: reel.DefaultInterest}
	if len(centroid) != Dimensions {
		return label
	}
	if idx := argmax(centroid[:genderOffset]); idx >= 0 {
		label.Age = reel.AgeBuckets[idx]
	}
	female, male := centroid[genderOffset], centroid[genderOffset+1]
	switch {
	case female > 0 && male > 0 && min(female, male)/max(female, male) >= mixedRatio:
		label.Gender = reel.GenderMixed
	case female > male:
		label.Gender = reel.GenderFemale
	case male > female:
		label.Gender = reel.GenderMale
	}
	if idx := argmax(centroid[interestOffset:]); idx >= 0 {
		label.Interest = reel.Interests[idx]
	}
	return label
}

// JSONCompleter is a hosted model that answers with a JSON object.
type JSONCompleter interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// maxPromptComments bounds how many comments are sent per cluster.
const maxPromptComments = 20

// CompleterLabeler asks a hosted model for the label. Answers outside the
// taxonomy are dropped and the gaps filled from the centroid.
type CompleterLabeler struct {
	completer JSONCompleter
}

// NewCompleterLabeler wraps a JSON completer.
func NewCompleterLabeler(completer JSONCompleter) *CompleterLabeler {
	return &CompleterLabeler{completer: completer}
}

const labelerSystemPrompt = `You classify the audience of a short-form video from a sample of its comments.
Reply with one JSON object: {"age": "...", "gender": "...", "interest": "..."}.
Use only the allowed values. Use an empty string when the comments carry no evidence.`

// Label implements ZeroShotLabeler.
func (l *CompleterLabeler) Label(ctx context.Context, in ClusterInput) (reel.AudienceLabel, error) {
	reply, err := l.completer.CompleteJSON(ctx, labelerSystemPrompt, buildLabelPrompt(in.Comments))
	if err != nil {
		return reel.AudienceLabel{}, fmt.Errorf("label cluster: %w", err)
	}
	var raw struct {
		Age      string `json:"age"`
		Gender   string `json:"gender"`
		Interest string `json:"interest"`
	}
	if err := llm.DecodeJSON(reply, &raw); err != nil {
		return reel.AudienceLabel{}, fmt.Errorf("label cluster: %w", err)
	}
	constrained := Constrain(reel.AudienceLabel{Age: raw.Age, Gender: raw.Gender, Interest: raw.Interest})
	if constrained.IsZero() {
		return reel.AudienceLabel{}, fmt.Errorf("label cluster: reply outside taxonomy: %q", reply)
	}
	lexical := labelFromCentroid(in.Centroid)
	if constrained.Age == "" {
		constrained.Age = lexical.Age
	}
	if constrained.Gender == "" {
		constrained.Gender = lexical.Gender
	}
	if constrained.Interest == "" {
		constrained.Interest = lexical.Interest
	}
	return constrained, nil
}

func buildLabelPrompt(comments []string) string {
	sample := make([]string, 0, maxPromptComments)
	for _, c := range comments {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if runes := []rune(c); len(runes) > 200 {
			c = string(runes[:200])
		}
		sample = append(sample, c)
		if len(sample) == maxPromptComments {
			break
		}
	}
	payload := map[string]any{
		"allowed": map[string]any{
			"age":      reel.AgeBuckets,
			"gender":   []string{reel.GenderFemale, reel.GenderMale, reel.GenderMixed},
			"interest": reel.Interests,
		},
		"comments": sample,
	}
	data, _ := json.Marshal(payload)
	return string(data)
}

// Constrain drops label parts that fall outside the taxonomy.
func Constrain(label reel.AudienceLabel) reel.AudienceLabel {
	out := reel.AudienceLabel{}
	age := strings.ReplaceAll(strings.TrimSpace(label.Age), " ", "")
	if slices.Contains(reel.AgeBuckets, age) {
		out.Age = age
	}
	switch g := strings.ToLower(strings.TrimSpace(label.Gender)); g {
	case reel.GenderFemale, reel.GenderMale, reel.GenderMixed:
		out.Gender = g
	}
	if interest := strings.ToLower(strings.TrimSpace(label.Interest)); reel.IsKnownInterest(interest) {
		out.Interest = interest
	}
	return out
}

// NewLabeler builds the labeler selected by audience.labeler.
func NewLabeler(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ZeroShotLabeler, error) {
	switch cfg.Audience.Labeler {
	case config.LabelerLLM:
		llmCfg := cfg.GetLLM()
		return NewCompleterLabeler(llm.NewClient(llm.Config{
			APIKey:         llmCfg.APIKey,
			BaseURL:        llmCfg.BaseURL,
			Model:          llmCfg.Model,
			Referer:        llmCfg.Referer,
			Title:          llmCfg.Title,
			TimeoutSeconds: llmCfg.TimeoutSeconds,
		})), nil
	case config.LabelerGemini:
		client, err := gemini.NewClient(ctx, gemini.Config{APIKey: cfg.Gemini.APIKey, Model: cfg.Gemini.Model})
		if err != nil {
			return nil, err
		}
		return NewCompleterLabeler(client), nil
	case config.LabelerLexical, "":
		return LexicalLabeler{}, nil
	default:
		if logger != nil {
			logger.Warn("unknown audience labeler; using lexical", logging.String("labeler", cfg.Audience.Labeler))
		}
		return LexicalLabeler{}, nil
	}
}
