package reelstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"reelscript/internal/reel"
	"reelscript/internal/services"
)

// Failure stages recorded against unusable reels.
const (
	StageTranscript = "transcript"
	StageAudience   = "audience"
)

const reelColumns = "id, permalink, keyword, caption, like_count, comment_count, view_count, audio_url, video_url, local_video_path, transcript, audience_age, audience_gender, audience_interest, transcript_error, audience_error, posted_at, scraped_at"

// usableWhere is true when a row has both a transcript and an audience label.
func usableWhere(table string) string {
	col := func(name string) string {
		if table == "" {
			return name
		}
		return table + "." + name
	}
	return "(COALESCE(" + col("transcript") + ", '') <> '' AND (" +
		"COALESCE(" + col("audience_age") + ", '') <> '' OR " +
		"COALESCE(" + col("audience_gender") + ", '') <> '' OR " +
		"COALESCE(" + col("audience_interest") + ", '') <> ''))"
}

var usableClause = usableWhere("")

// Upsert inserts r or merges its populated fields into the stored row.
// Empty strings and zero counts never overwrite stored values, and usable
// reels are left unchanged.
func (s *Store) Upsert(ctx context.Context, r reel.Reel) error {
	id := strings.TrimSpace(r.ID)
	if id == "" {
		return services.Wrap(services.ErrValidation, "reelstore", "upsert", "reel id is required", nil)
	}
	now := time.Now().UTC()
	scrapedAt := r.ScrapedAt
	if scrapedAt.IsZero() {
		scrapedAt = now
	}

	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO reels (
            id, permalink, keyword, caption, like_count, comment_count, view_count,
            audio_url, video_url, local_video_path, transcript,
            audience_age, audience_gender, audience_interest,
            posted_at, scraped_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            permalink = CASE WHEN excluded.permalink <> '' THEN excluded.permalink ELSE reels.permalink END,
            keyword = COALESCE(excluded.keyword, reels.keyword),
            caption = COALESCE(excluded.caption, reels.caption),
            like_count = CASE WHEN excluded.like_count > 0 THEN excluded.like_count ELSE reels.like_count END,
            comment_count = CASE WHEN excluded.comment_count > 0 THEN excluded.comment_count ELSE reels.comment_count END,
            view_count = CASE WHEN excluded.view_count > 0 THEN excluded.view_count ELSE reels.view_count END,
            audio_url = COALESCE(excluded.audio_url, reels.audio_url),
            video_url = COALESCE(excluded.video_url, reels.video_url),
            local_video_path = COALESCE(excluded.local_video_path, reels.local_video_path),
            transcript = COALESCE(excluded.transcript, reels.transcript),
            audience_age = COALESCE(excluded.audience_age, reels.audience_age),
            audience_gender = COALESCE(excluded.audience_gender, reels.audience_gender),
            audience_interest = COALESCE(excluded.audience_interest, reels.audience_interest),
            posted_at = COALESCE(excluded.posted_at, reels.posted_at),
            scraped_at = excluded.scraped_at,
            updated_at = excluded.updated_at
        WHERE NOT `+usableWhere("reels"),
		id,
		strings.TrimSpace(r.Permalink),
		nullableString(r.Keyword),
		nullableString(r.Caption),
		r.LikeCount,
		r.CommentCount,
		r.ViewCount,
		nullableString(r.AudioURL),
		nullableString(r.VideoURL),
		nullableString(r.LocalVideoPath),
		nullableString(r.Transcript),
		nullableString(r.Audience.Age),
		nullableString(r.Audience.Gender),
		nullableString(r.Audience.Interest),
		nullableTime(r.PostedAt),
		scrapedAt.UTC().Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert reel %s: %w", id, err)
	}
	return nil
}

// SetTranscript attaches a transcript and clears any recorded transcription
// failure. localVideoPath is optional.
func (s *Store) SetTranscript(ctx context.Context, id, transcript, localVideoPath string) error {
	if strings.TrimSpace(transcript) == "" {
		return services.Wrap(services.ErrValidation, "reelstore", "set transcript", "transcript is empty", nil)
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE reels
         SET transcript = ?, local_video_path = COALESCE(?, local_video_path),
             transcript_error = NULL, updated_at = ?
         WHERE id = ? AND NOT `+usableClause,
		strings.TrimSpace(transcript),
		nullableString(localVideoPath),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("set transcript %s: %w", id, err)
	}
	return s.requireRow(ctx, res, id, "set transcript")
}

// SetAudience attaches the inferred audience label and clears any recorded
// audience failure.
func (s *Store) SetAudience(ctx context.Context, id string, label reel.AudienceLabel) error {
	if label.IsZero() {
		return services.Wrap(services.ErrValidation, "reelstore", "set audience", "audience label is empty", nil)
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE reels
         SET audience_age = ?, audience_gender = ?, audience_interest = ?,
             audience_error = NULL, updated_at = ?
         WHERE id = ? AND NOT `+usableClause,
		nullableString(label.Age),
		nullableString(label.Gender),
		nullableString(label.Interest),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("set audience %s: %w", id, err)
	}
	return s.requireRow(ctx, res, id, "set audience")
}

// RecordFailure stores why a stage left the reel unusable.
func (s *Store) RecordFailure(ctx context.Context, id, stage, reason string) error {
	var column string
	switch stage {
	case StageTranscript:
		column = "transcript_error"
	case StageAudience:
		column = "audience_error"
	default:
		return services.Wrap(services.ErrValidation, "reelstore", "record failure", fmt.Sprintf("unknown stage %q", stage), nil)
	}
	if strings.TrimSpace(reason) == "" {
		reason = "error"
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE reels SET `+column+` = ?, updated_at = ? WHERE id = ? AND NOT `+usableClause,
		reason,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("record %s failure %s: %w", stage, id, err)
	}
	return s.requireRow(ctx, res, id, "record failure")
}

// requireRow treats a zero-row update as success when the reel exists (it was
// already usable) and as not-found otherwise.
func (s *Store) requireRow(ctx context.Context, res sql.Result, id, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return services.Wrap(services.ErrNotFound, "reelstore", op, fmt.Sprintf("reel %s", id), nil)
	}
	return nil
}

// Get fetches a reel by id. A missing reel yields nil without error.
func (s *Store) Get(ctx context.Context, id string) (*reel.Reel, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+reelColumns+` FROM reels WHERE id = ?`, id)
	r, err := scanReel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reel: %w", err)
	}
	return r, nil
}

// ListOptions narrows List results.
type ListOptions struct {
	Keyword    string
	UsableOnly bool
	Limit      int
}

// List returns stored reels, newest scrape first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]reel.Reel, error) {
	var (
		clauses []string
		args    []any
	)
	if kw := strings.TrimSpace(opts.Keyword); kw != "" {
		clauses = append(clauses, "keyword = ?")
		args = append(args, kw)
	}
	if opts.UsableOnly {
		clauses = append(clauses, usableClause)
	}
	query := `SELECT ` + reelColumns + ` FROM reels`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY scraped_at DESC, id`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}
	return s.queryReels(ctx, query, args...)
}

// QueryByAudience returns usable reels whose audience label satisfies target,
// ordered by engagement score descending. An empty target matches every usable reel.
func (s *Store) QueryByAudience(ctx context.Context, target reel.TargetAudience) ([]reel.Reel, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	candidates, err := s.queryReels(ctx, `SELECT `+reelColumns+` FROM reels WHERE `+usableClause)
	if err != nil {
		return nil, err
	}
	matched := make([]reel.Reel, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.Usable() && target.Matches(candidate.Audience) {
			matched = append(matched, candidate)
		}
	}
	s.weights.Sort(matched)
	return matched, nil
}

func (s *Store) queryReels(ctx context.Context, query string, args ...any) ([]reel.Reel, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reels: %w", err)
	}
	defer rows.Close()

	var reels []reel.Reel
	for rows.Next() {
		r, err := scanReel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reel: %w", err)
		}
		reels = append(reels, *r)
	}
	return reels, rows.Err()
}

func scanReel(scanner interface{ Scan(dest ...any) error }) (*reel.Reel, error) {
	var (
		id              string
		permalink       string
		keyword         sql.NullString
		caption         sql.NullString
		likes           int64
		comments        int64
		views           int64
		audioURL        sql.NullString
		videoURL        sql.NullString
		localVideo      sql.NullString
		transcript      sql.NullString
		age             sql.NullString
		gender          sql.NullString
		interest        sql.NullString
		transcriptError sql.NullString
		audienceError   sql.NullString
		postedRaw       sql.NullString
		scrapedRaw      sql.NullString
	)
	if err := scanner.Scan(
		&id,
		&permalink,
		&keyword,
		&caption,
		&likes,
		&comments,
		&views,
		&audioURL,
		&videoURL,
		&localVideo,
		&transcript,
		&age,
		&gender,
		&interest,
		&transcriptError,
		&audienceError,
		&postedRaw,
		&scrapedRaw,
	); err != nil {
		return nil, err
	}

	r := &reel.Reel{
		ID:             id,
		Permalink:      permalink,
		Keyword:        keyword.String,
		Caption:        caption.String,
		LikeCount:      likes,
		CommentCount:   comments,
		ViewCount:      views,
		AudioURL:       audioURL.String,
		VideoURL:       videoURL.String,
		LocalVideoPath: localVideo.String,
		Transcript:     transcript.String,
		Audience: reel.AudienceLabel{
			Age:      age.String,
			Gender:   gender.String,
			Interest: interest.String,
		},
		TranscriptError: transcriptError.String,
		AudienceError:   audienceError.String,
	}
	if posted, err := parseTimeString(postedRaw.String); err == nil {
		r.PostedAt = posted
	}
	if scraped, err := parseTimeString(scrapedRaw.String); err == nil {
		r.ScrapedAt = scraped
	}
	return r, nil
}
