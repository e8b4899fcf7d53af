package reelstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"reelscript/internal/reel"
	"reelscript/internal/services"
)

// ClientSettings are the saved defaults a client can apply to script requests.
type ClientSettings struct {
	ClientID      string              `json:"client_id"`
	DefaultTarget reel.TargetAudience `json:"default_target"`
	ToneRules     []string            `json:"tone_rules,omitempty"`
	// LengthLimit caps the total characters of each generated script; zero disables it.
	LengthLimit int       `json:"length_limit,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GetSettings returns the saved settings for clientID, or nil when none exist.
func (s *Store) GetSettings(ctx context.Context, clientID string) (*ClientSettings, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, services.Wrap(services.ErrValidation, "reelstore", "get settings", "client id is required", nil)
	}
	var (
		targetRaw  sql.NullString
		toneRaw    sql.NullString
		limit      int
		updatedRaw string
	)
	err := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT default_target_json, tone_rules_json, length_limit, updated_at FROM client_settings WHERE client_id = ?`,
		clientID,
	).Scan(&targetRaw, &toneRaw, &limit, &updatedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}

	settings := &ClientSettings{ClientID: clientID, LengthLimit: limit}
	if targetRaw.Valid && targetRaw.String != "" {
		if err := json.Unmarshal([]byte(targetRaw.String), &settings.DefaultTarget); err != nil {
			return nil, fmt.Errorf("decode default target: %w", err)
		}
	}
	if toneRaw.Valid && toneRaw.String != "" {
		if err := json.Unmarshal([]byte(toneRaw.String), &settings.ToneRules); err != nil {
			return nil, fmt.Errorf("decode tone rules: %w", err)
		}
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		settings.UpdatedAt = updated
	}
	return settings, nil
}

// PutSettings creates or replaces the saved settings for a client.
func (s *Store) PutSettings(ctx context.Context, settings ClientSettings) (*ClientSettings, error) {
	settings.ClientID = strings.TrimSpace(settings.ClientID)
	if settings.ClientID == "" {
		return nil, services.Wrap(services.ErrValidation, "reelstore", "put settings", "client id is required", nil)
	}
	if settings.LengthLimit < 0 {
		return nil, services.Wrap(services.ErrValidation, "reelstore", "put settings", "length limit must be >= 0", nil)
	}
	if err := settings.DefaultTarget.Validate(); err != nil {
		return nil, err
	}
	settings.DefaultTarget = settings.DefaultTarget.Normalize()

	targetJSON, err := json.Marshal(settings.DefaultTarget)
	if err != nil {
		return nil, fmt.Errorf("encode default target: %w", err)
	}
	var toneJSON any
	if len(settings.ToneRules) > 0 {
		encoded, err := json.Marshal(settings.ToneRules)
		if err != nil {
			return nil, fmt.Errorf("encode tone rules: %w", err)
		}
		toneJSON = string(encoded)
	}
	settings.UpdatedAt = time.Now().UTC()

	_, err = s.execWithRetry(
		ctx,
		`INSERT INTO client_settings (client_id, default_target_json, tone_rules_json, length_limit, updated_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(client_id) DO UPDATE SET
             default_target_json = excluded.default_target_json,
             tone_rules_json = excluded.tone_rules_json,
             length_limit = excluded.length_limit,
             updated_at = excluded.updated_at`,
		settings.ClientID,
		string(targetJSON),
		toneJSON,
		settings.LengthLimit,
		settings.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("put settings: %w", err)
	}
	return &settings, nil
}
