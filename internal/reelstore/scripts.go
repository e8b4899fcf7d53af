package reelstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"reelscript/internal/reel"
	"reelscript/internal/services"
)

// SavedScript is a client's edited selection of a generated script.
type SavedScript struct {
	ID        int64                `json:"id"`
	ClientID  string               `json:"client_id"`
	ScriptID  string               `json:"script_id"`
	Option    int                  `json:"option"`
	Sections  []reel.ScriptSection `json:"sections"`
	CreatedAt time.Time            `json:"created_at"`
}

// SaveScript validates and records a saved script, returning its row id.
func (s *Store) SaveScript(ctx context.Context, saved SavedScript) (int64, error) {
	saved.ClientID = strings.TrimSpace(saved.ClientID)
	saved.ScriptID = strings.TrimSpace(saved.ScriptID)
	switch {
	case saved.ClientID == "":
		return 0, services.Wrap(services.ErrValidation, "reelstore", "save script", "client id is required", nil)
	case saved.ScriptID == "":
		return 0, services.Wrap(services.ErrValidation, "reelstore", "save script", "script id is required", nil)
	case saved.Option < 0:
		return 0, services.Wrap(services.ErrValidation, "reelstore", "save script", "option must be >= 0", nil)
	case len(saved.Sections) == 0:
		return 0, services.Wrap(services.ErrValidation, "reelstore", "save script", "at least one section is required", nil)
	}
	for i, section := range saved.Sections {
		if !reel.ValidSectionType(section.Type) {
			return 0, services.Wrap(services.ErrValidation, "reelstore", "save script",
				fmt.Sprintf("section %d has unknown type %q", i, section.Type), nil)
		}
	}

	sectionsJSON, err := json.Marshal(saved.Sections)
	if err != nil {
		return 0, fmt.Errorf("encode sections: %w", err)
	}
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO saved_scripts (client_id, script_id, option_index, sections_json, created_at)
         VALUES (?, ?, ?, ?, ?)`,
		saved.ClientID,
		saved.ScriptID,
		saved.Option,
		string(sectionsJSON),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("save script: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// ListSavedScripts returns a client's saved scripts, newest first.
func (s *Store) ListSavedScripts(ctx context.Context, clientID string) ([]SavedScript, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT id, client_id, script_id, option_index, sections_json, created_at
         FROM saved_scripts WHERE client_id = ? ORDER BY created_at DESC, id DESC`,
		strings.TrimSpace(clientID),
	)
	if err != nil {
		return nil, fmt.Errorf("list saved scripts: %w", err)
	}
	defer rows.Close()

	var scripts []SavedScript
	for rows.Next() {
		var (
			saved        SavedScript
			sectionsJSON string
			createdRaw   string
		)
		if err := rows.Scan(&saved.ID, &saved.ClientID, &saved.ScriptID, &saved.Option, &sectionsJSON, &createdRaw); err != nil {
			return nil, fmt.Errorf("scan saved script: %w", err)
		}
		if err := json.Unmarshal([]byte(sectionsJSON), &saved.Sections); err != nil {
			return nil, fmt.Errorf("decode sections for %d: %w", saved.ID, err)
		}
		if created, err := parseTimeString(createdRaw); err == nil {
			saved.CreatedAt = created
		}
		scripts = append(scripts, saved)
	}
	return scripts, rows.Err()
}
