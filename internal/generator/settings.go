package generator

import (
	"context"
	"strings"

	"reelscript/internal/reel"
	"reelscript/internal/reelstore"
	"reelscript/internal/services"
)

// DefaultLengthLimit applies when a client has no saved settings.
const DefaultLengthLimit = 500

// Settings is a client's resolved configuration for one request.
type Settings struct {
	ClientID    string              `json:"client_id"`
	Target      reel.TargetAudience `json:"default_target"`
	ToneRules   []string            `json:"tone_rules,omitempty"`
	LengthLimit int                 `json:"length_limit"`
	// Saved is false when the built-in defaults were used.
	Saved bool `json:"saved"`
}

// DefaultSettings returns the settings used for clients that never saved any.
func DefaultSettings(clientID string) Settings {
	return Settings{
		ClientID:    clientID,
		Target:      reel.TargetAudience{Age: reel.DefaultTargetAge},
		LengthLimit: DefaultLengthLimit,
	}
}

func settingsFrom(stored *reelstore.ClientSettings) Settings {
	return Settings{
		ClientID:    stored.ClientID,
		Target:      stored.DefaultTarget,
		ToneRules:   append([]string(nil), stored.ToneRules...),
		LengthLimit: stored.LengthLimit,
		Saved:       true,
	}
}

// Settings returns the saved settings for clientID, or the defaults.
func (g *Generator) Settings(ctx context.Context, clientID string) (Settings, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return Settings{}, services.Wrap(services.ErrValidation, "generator", "settings", "client id required", nil)
	}
	stored, err := g.store.GetSettings(ctx, clientID)
	if err != nil {
		return Settings{}, err
	}
	if stored == nil {
		return DefaultSettings(clientID), nil
	}
	return settingsFrom(stored), nil
}

// SaveSettings replaces the saved settings of a client.
func (g *Generator) SaveSettings(ctx context.Context, s Settings) (Settings, error) {
	stored, err := g.store.PutSettings(ctx, reelstore.ClientSettings{
		ClientID:      s.ClientID,
		DefaultTarget: s.Target,
		ToneRules:     s.ToneRules,
		LengthLimit:   s.LengthLimit,
	})
	if err != nil {
		return Settings{}, err
	}
	return settingsFrom(stored), nil
}
