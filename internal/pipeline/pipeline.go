package pipeline

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"reelscript/internal/audience"
	"reelscript/internal/config"
	"reelscript/internal/engagement"
	"reelscript/internal/fetcher"
	"reelscript/internal/logging"
	"reelscript/internal/reel"
	"reelscript/internal/reelstore"
	"reelscript/internal/services"
	"reelscript/internal/telemetry"
	"reelscript/internal/transcribe"
)

// Transcriber produces the transcript of a reel.
type Transcriber interface {
	Transcribe(ctx context.Context, r reel.Reel, needVideo bool) (transcribe.Result, error)
}

// Analyzer infers the audience of a reel from its comments.
type Analyzer interface {
	Analyze(ctx context.Context, reelID string, comments []reel.Comment) (audience.Analysis, error)
}

// Store is the subset of the reel store the pipeline reads and writes.
type Store interface {
	Upsert(ctx context.Context, r reel.Reel) error
	Get(ctx context.Context, id string) (*reel.Reel, error)
	SetTranscript(ctx context.Context, id, transcript, localVideoPath string) error
	SetAudience(ctx context.Context, id string, label reel.AudienceLabel) error
	RecordFailure(ctx context.Context, id, stage, reason string) error
}

// Request describes one batch.
type Request struct {
	Keyword       string
	Top           int
	MinEngagement float64
	NeedVideo     bool
}

// ItemResult is the outcome for one reel.
type ItemResult struct {
	ReelID          string             `json:"reel_id"`
	Score           float64            `json:"score"`
	Usable          bool               `json:"usable"`
	Audience        reel.AudienceLabel `json:"audience_label"`
	TranscriptError string             `json:"transcript_error,omitempty"`
	AudienceError   string             `json:"audience_error,omitempty"`
}

// Summary reports what a batch did. Items are ordered by score descending.
type Summary struct {
	BatchID  string        `json:"batch_id"`
	Keyword  string        `json:"keyword"`
	Fetched  int           `json:"fetched"`
	Usable   int           `json:"usable"`
	Failed   int           `json:"failed"`
	Blocked  bool          `json:"blocked"`
	Duration time.Duration `json:"duration"`
	Items    []ItemResult  `json:"items"`
}

// Runner executes scrape batches.
type Runner struct {
	source      fetcher.Source
	transcriber Transcriber
	analyzer    Analyzer
	store       Store
	concurrency int
	itemTimeout time.Duration
	weights     engagement.Weights
	logger      *slog.Logger
}

// New builds a Runner around already constructed components.
func New(cfg *config.Config, source fetcher.Source, transcriber Transcriber, analyzer Analyzer, store Store, logger *slog.Logger) *Runner {
	concurrency := cfg.Pipeline.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Runner{
		source:      source,
		transcriber: transcriber,
		analyzer:    analyzer,
		store:       store,
		concurrency: concurrency,
		itemTimeout: cfg.ItemTimeout(),
		weights: engagement.Weights{
			Comment: cfg.Engagement.CommentWeight,
			Like:    cfg.Engagement.LikeWeight,
			View:    cfg.Engagement.ViewWeight,
		},
		logger: logging.NewComponentLogger(logger, "pipeline"),
	}
}

// Run scrapes req.Keyword and processes every yielded reel. On a blocked
// scrape the reels already yielded are still processed and the returned error
// wraps services.ErrScrapeBlocked alongside a populated Summary.
func (r *Runner) Run(ctx context.Context, req Request) (Summary, error) {
	req.Keyword = strings.TrimPrefix(strings.TrimSpace(req.Keyword), "#")
	switch {
	case req.Keyword == "":
		return Summary{}, services.Wrap(services.ErrValidation, "pipeline", "request", "keyword required", nil)
	case req.Top <= 0:
		return Summary{}, services.Wrap(services.ErrValidation, "pipeline", "request", "top must be positive", nil)
	case req.MinEngagement < 0:
		return Summary{}, services.Wrap(services.ErrValidation, "pipeline", "request", "min engagement must be >= 0", nil)
	}

	started := time.Now()
	summary := Summary{BatchID: uuid.NewString(), Keyword: req.Keyword}
	ctx = services.WithStage(services.WithBatchID(ctx, summary.BatchID), "pipeline")
	ctx, span := telemetry.Start(ctx, "pipeline.run",
		attribute.String("keyword", req.Keyword),
		attribute.Int("top", req.Top),
		attribute.Float64("min_engagement", req.MinEngagement),
	)
	logger := logging.WithContext(ctx, r.logger).With(logging.Keyword(req.Keyword))
	logger.Info("batch started",
		logging.Int("top", req.Top),
		logging.Float64("min_engagement", req.MinEngagement),
		logging.Int("concurrency", r.concurrency),
	)

	var (
		mu       sync.Mutex
		items    []ItemResult
		done     int
		progress = logging.NewProgressSampler(25)
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	var fetchErr error
	for candidate, err := range r.source.Fetch(gctx, req.Keyword, req.Top, req.MinEngagement) {
		if err != nil {
			fetchErr = err
			break
		}
		if gctx.Err() != nil {
			break
		}
		if err := r.store.Upsert(gctx, candidate.Reel); err != nil {
			fetchErr = services.Wrap(services.ErrTransient, "pipeline", "upsert", candidate.Reel.ID, err)
			break
		}
		stored, err := r.store.Get(gctx, candidate.Reel.ID)
		if err != nil {
			fetchErr = services.Wrap(services.ErrTransient, "pipeline", "get", candidate.Reel.ID, err)
			break
		}
		summary.Fetched++
		g.Go(func() error {
			result, err := r.processItem(gctx, logger, candidate, stored, req.NeedVideo)
			if err != nil {
				return err
			}
			mu.Lock()
			items = append(items, result)
			done++
			if progress.ShouldLog(done, req.Top) {
				logger.Info("batch progress", logging.Int("done", done), logging.Int("fetched", summary.Fetched))
			}
			mu.Unlock()
			return nil
		})
	}
	waitErr := g.Wait()

	slices.SortStableFunc(items, func(a, b ItemResult) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.ReelID, b.ReelID)
	})
	summary.Items = items
	for _, item := range items {
		if item.Usable {
			summary.Usable++
		} else {
			summary.Failed++
		}
	}
	summary.Duration = time.Since(started)

	err := waitErr
	if err == nil {
		err = fetchErr
	}
	if errors.Is(err, services.ErrScrapeBlocked) {
		summary.Blocked = true
		logging.WarnWithContext(logger, "scrape blocked; keeping partial batch", "scrape_blocked",
			logging.Error(err),
			logging.Int("usable", summary.Usable),
			logging.String(logging.FieldImpact, "batch ended early"),
			logging.String(logging.FieldErrorHint, "wait before retrying or lower fetch.requests_per_second"),
		)
	}
	span.SetAttributes(
		attribute.Int("fetched", summary.Fetched),
		attribute.Int("usable", summary.Usable),
		attribute.Bool("blocked", summary.Blocked),
	)
	telemetry.End(span, err)
	if err != nil {
		return summary, err
	}
	logger.Info("batch finished",
		logging.Int("fetched", summary.Fetched),
		logging.Int("usable", summary.Usable),
		logging.Int("failed", summary.Failed),
		logging.Duration("duration", summary.Duration),
	)
	return summary, nil
}

// processItem runs transcription and audience analysis side by side under the
// item timeout and stores whatever each produced. A stage whose field is
// already stored is skipped, and a usable reel is not processed at all. Only
// store failures are returned.
func (r *Runner) processItem(ctx context.Context, logger *slog.Logger, c fetcher.Candidate, stored *reel.Reel, needVideo bool) (ItemResult, error) {
	id := c.Reel.ID
	result := ItemResult{ReelID: id, Score: r.weights.Score(c.Reel.LikeCount, c.Reel.CommentCount, c.Reel.ViewCount)}
	logger = logger.With(logging.String(logging.FieldReelID, id))
	if stored == nil {
		stored = &reel.Reel{}
	}
	if stored.Usable() {
		result.Usable = true
		result.Audience = stored.Audience
		logger.Debug("reel already usable; skipping", logging.String("audience", stored.Audience.String()))
		return result, nil
	}
	haveTranscript := strings.TrimSpace(stored.Transcript) != ""
	haveAudience := !stored.Audience.IsZero()

	ctx = services.WithReelID(ctx, id)
	ctx, span := telemetry.Start(ctx, "pipeline.item", attribute.String("reel_id", id))

	itemCtx := ctx
	if r.itemTimeout > 0 {
		var cancel context.CancelFunc
		itemCtx, cancel = context.WithTimeout(ctx, r.itemTimeout)
		defer cancel()
	}

	var (
		wg          sync.WaitGroup
		transcript  transcribe.Result
		analysis    audience.Analysis
		transErr    error
		audienceErr error
	)
	if haveTranscript {
		logger.Debug("transcript already stored; skipping transcription")
		transcript = transcribe.Result{Transcript: stored.Transcript}
	} else {
		wg.Go(func() {
			transcript, transErr = r.transcriber.Transcribe(itemCtx, c.Reel, needVideo)
		})
	}
	if haveAudience {
		analysis = audience.Analysis{Label: stored.Audience}
	} else {
		wg.Go(func() {
			analysis, audienceErr = r.analyzer.Analyze(itemCtx, id, c.Comments)
		})
	}
	wg.Wait()
	transErr = itemError(itemCtx, transErr)
	audienceErr = itemError(itemCtx, audienceErr)

	if transErr == nil && strings.TrimSpace(transcript.Transcript) == "" {
		transErr = services.Wrap(services.ErrTranscriptionFailed, "pipeline", "transcribe", "empty transcript", nil)
	}
	if audienceErr == nil && analysis.Label.IsZero() {
		audienceErr = services.Wrap(services.ErrInsufficientComments, "pipeline", "audience", "no label", nil)
	}

	switch {
	case transErr != nil:
		result.TranscriptError = services.FailureReason(transErr)
		r.logItemFailure(logger, "transcription", transErr)
		if err := r.store.RecordFailure(ctx, id, reelstore.StageTranscript, result.TranscriptError); err != nil {
			return result, endItem(span, storeError(id, "record transcript failure", err))
		}
	case !haveTranscript:
		if err := r.store.SetTranscript(ctx, id, transcript.Transcript, transcript.LocalVideoPath); err != nil {
			return result, endItem(span, storeError(id, "set transcript", err))
		}
	}

	switch {
	case audienceErr != nil:
		result.AudienceError = services.FailureReason(audienceErr)
		r.logItemFailure(logger, "audience analysis", audienceErr)
		if err := r.store.RecordFailure(ctx, id, reelstore.StageAudience, result.AudienceError); err != nil {
			return result, endItem(span, storeError(id, "record audience failure", err))
		}
	case !haveAudience:
		result.Audience = analysis.Label
		if err := r.store.SetAudience(ctx, id, analysis.Label); err != nil {
			return result, endItem(span, storeError(id, "set audience", err))
		}
	default:
		result.Audience = analysis.Label
	}

	result.Usable = transErr == nil && audienceErr == nil
	span.SetAttributes(attribute.Bool("usable", result.Usable))
	telemetry.End(span, nil)
	if result.Usable {
		logger.Debug("reel usable", logging.String("audience", result.Audience.String()))
	}
	return result, nil
}

// itemError marks failures caused by the item deadline as timeouts.
func itemError(itemCtx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(itemCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, services.ErrTimeout) {
		return services.Wrap(services.ErrTimeout, "pipeline", "item", "item timeout exceeded", err)
	}
	return err
}

func (r *Runner) logItemFailure(logger *slog.Logger, stage string, err error) {
	logging.WarnWithContext(logger, stage+" failed", "item_failed",
		logging.String("reason", services.FailureReason(err)),
		logging.Error(err),
		logging.String(logging.FieldImpact, "reel stays unusable"),
	)
}

func storeError(id, op string, err error) error {
	return services.Wrap(services.ErrTransient, "pipeline", op, fmt.Sprintf("reel %s", id), err)
}

func endItem(span trace.Span, err error) error {
	telemetry.End(span, err)
	return err
}
