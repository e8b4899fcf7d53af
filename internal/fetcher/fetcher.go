package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"reelscript/internal/config"
	"reelscript/internal/engagement"
	"reelscript/internal/logging"
	"reelscript/internal/reel"
	"reelscript/internal/services"
)

// scanFactor bounds how many reel pages are inspected per requested item.
const scanFactor = 5

// Candidate is a partially populated reel plus its scraped comments.
type Candidate struct {
	Reel     reel.Reel
	Comments []reel.Comment
}

// Source produces candidates for a keyword. *Fetcher implements it.
type Source interface {
	Fetch(ctx context.Context, keyword string, maxItems int, minEngagement float64) iter.Seq2[Candidate, error]
}

// Fetcher scrapes short videos from the configured platform's tag or search
// pages.
type Fetcher struct {
	profile      profile
	doer         Doer
	limiter      *rate.Limiter
	baseURL      string
	commentLimit int
	recency      time.Duration
	itemTimeout  time.Duration
	weights      engagement.Weights
	mock         bool
	now          func() time.Time
	logger       *slog.Logger
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithDoer replaces the HTTP transport.
func WithDoer(d Doer) Option {
	return func(f *Fetcher) { f.doer = d }
}

// WithClock overrides the time source used for recency checks.
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) { f.now = now }
}

// New builds a Fetcher. When the stealth client cannot be created the fetcher
// falls back to net/http and logs a warning.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Fetcher {
	f := &Fetcher{
		profile:      profileFor(reel.Platform(cfg.Fetch.Platform)),
		limiter:      rate.NewLimiter(rate.Limit(cfg.Fetch.RequestsPerSecond), cfg.Fetch.Burst),
		baseURL:      strings.TrimRight(cfg.Fetch.BaseURL, "/"),
		commentLimit: cfg.Fetch.CommentLimit,
		recency:      cfg.RecencyWindow(),
		itemTimeout:  cfg.FetchTimeout(),
		weights: engagement.Weights{
			Comment: cfg.Engagement.CommentWeight,
			Like:    cfg.Engagement.LikeWeight,
			View:    cfg.Engagement.ViewWeight,
		},
		mock:   cfg.Fetch.Mock,
		now:    time.Now,
		logger: logging.NewComponentLogger(logger, "fetcher"),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.doer == nil && !f.mock {
		doer, err := NewStealthDoer(cfg.Fetch.RequestTimeoutSeconds)
		if err != nil {
			logging.WarnWithContext(f.logger, "stealth client unavailable; using plain http", "stealth_unavailable",
				logging.Error(err),
				logging.String(logging.FieldImpact, "requests are more likely to be blocked"),
			)
			doer = HTTPDoer{Client: &http.Client{Timeout: cfg.FetchTimeout()}}
		}
		f.doer = doer
	}
	return f
}

// Fetch yields up to maxItems reels for keyword whose engagement score is at
// least minEngagement. The sequence is lazy and cannot be restarted. A
// blocked response yields one ErrScrapeBlocked error and ends the sequence;
// a reel page that times out is skipped.
func (f *Fetcher) Fetch(ctx context.Context, keyword string, maxItems int, minEngagement float64) iter.Seq2[Candidate, error] {
	return func(yield func(Candidate, error) bool) {
		keyword = strings.TrimPrefix(strings.TrimSpace(keyword), "#")
		switch {
		case keyword == "":
			yield(Candidate{}, services.Wrap(services.ErrValidation, "fetch", "args", "keyword required", nil))
			return
		case maxItems <= 0:
			yield(Candidate{}, services.Wrap(services.ErrValidation, "fetch", "args", "max items must be positive", nil))
			return
		case minEngagement < 0:
			yield(Candidate{}, services.Wrap(services.ErrValidation, "fetch", "args", "min engagement must be >= 0", nil))
			return
		}
		if f.mock {
			f.fetchMock(keyword, maxItems, minEngagement, yield)
			return
		}
		f.fetchLive(ctx, keyword, maxItems, minEngagement, yield)
	}
}

func (f *Fetcher) fetchLive(ctx context.Context, keyword string, maxItems int, minEngagement float64, yield func(Candidate, error) bool) {
	ctx = services.WithStage(ctx, "fetch")
	logger := logging.WithContext(ctx, f.logger).With(
		logging.Keyword(keyword),
		logging.String("platform", string(f.profile.platform)),
	)

	tagURL := f.baseURL + f.profile.search(keyword)
	page, err := f.get(ctx, tagURL, f.baseURL+"/")
	if err != nil {
		if ctx.Err() != nil {
			yield(Candidate{}, services.Wrap(services.ErrTimeout, "fetch", "tag page", "interrupted", ctx.Err()))
			return
		}
		yield(Candidate{}, services.Wrap(services.ErrTransient, "fetch", "tag page", "request failed", err))
		return
	}
	if reason, ok := blockReason(page); ok {
		yield(Candidate{}, services.Wrap(services.ErrScrapeBlocked, "fetch", "tag page", reason, nil))
		return
	}
	if page.Status != http.StatusOK {
		yield(Candidate{}, services.Wrap(services.ErrTransient, "fetch", "tag page", fmt.Sprintf("status %d", page.Status), nil))
		return
	}

	links := parseTagPage(page.Body, f.profile)
	logger.Info("tag page scraped", logging.Int("links", len(links)))
	if limit := maxItems * scanFactor; len(links) > limit {
		links = links[:limit]
	}

	yielded := 0
	for _, link := range links {
		if ctx.Err() != nil {
			return
		}
		candidate, err := f.fetchReel(ctx, keyword, link)
		if err != nil {
			if errors.Is(err, services.ErrScrapeBlocked) {
				yield(Candidate{}, err)
				return
			}
			if ctx.Err() != nil {
				return
			}
			logging.WarnWithContext(logger, "reel skipped", "reel_skipped",
				logging.String(logging.FieldReelID, link.ID),
				logging.Error(err),
				logging.String(logging.FieldImpact, "reel excluded from this batch"),
			)
			continue
		}
		if !f.keep(logger, candidate.Reel, minEngagement) {
			continue
		}
		if !yield(candidate, nil) {
			return
		}
		yielded++
		if yielded >= maxItems {
			return
		}
	}
}

func (f *Fetcher) fetchReel(ctx context.Context, keyword string, link reelLink) (Candidate, error) {
	itemCtx := ctx
	if f.itemTimeout > 0 {
		var cancel context.CancelFunc
		itemCtx, cancel = context.WithTimeout(ctx, f.itemTimeout)
		defer cancel()
	}
	permalink := f.baseURL + link.Path
	page, err := f.get(itemCtx, permalink, f.baseURL+f.profile.search(keyword))
	if err != nil {
		if errors.Is(itemCtx.Err(), context.DeadlineExceeded) {
			return Candidate{}, services.Wrap(services.ErrTimeout, "fetch", "reel page", "request timed out", err)
		}
		return Candidate{}, services.Wrap(services.ErrTransient, "fetch", "reel page", "request failed", err)
	}
	if reason, ok := blockReason(page); ok {
		return Candidate{}, services.Wrap(services.ErrScrapeBlocked, "fetch", "reel page", reason, nil)
	}
	if page.Status != http.StatusOK {
		return Candidate{}, services.Wrap(services.ErrTransient, "fetch", "reel page", fmt.Sprintf("status %d", page.Status), nil)
	}

	parsed := parseReelPage(page.Body)
	thread := parsed.Thread
	if len(thread) > f.commentLimit {
		thread = thread[:f.commentLimit]
	}
	return Candidate{
		Reel: reel.Reel{
			ID:           link.ID,
			Permalink:    permalink,
			Keyword:      keyword,
			Caption:      parsed.Caption,
			LikeCount:    parsed.Likes,
			CommentCount: parsed.Comments,
			ViewCount:    parsed.Views,
			AudioURL:     parsed.AudioURL,
			VideoURL:     parsed.VideoURL,
			PostedAt:     parsed.PostedAt,
			ScrapedAt:    f.now().UTC(),
		},
		Comments: thread,
	}, nil
}

// keep applies the recency window and engagement threshold.
func (f *Fetcher) keep(logger *slog.Logger, r reel.Reel, minEngagement float64) bool {
	if f.recency > 0 && !r.PostedAt.IsZero() && r.PostedAt.Before(f.now().Add(-f.recency)) {
		logger.Debug("reel older than recency window", logging.String(logging.FieldReelID, r.ID))
		return false
	}
	if score := f.weights.Score(r.LikeCount, r.CommentCount, r.ViewCount); score < minEngagement {
		logger.Debug("reel below engagement threshold",
			logging.String(logging.FieldReelID, r.ID),
			logging.Float64("score", score),
		)
		return false
	}
	return true
}

func (f *Fetcher) get(ctx context.Context, target, referer string) (Page, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return Page{}, err
	}
	return f.doer.Get(ctx, target, browserHeaders(referer))
}

var blockMarkers = []struct {
	marker string
	reason string
}{
	{`id="loginform"`, "login wall"},
	{`<title>login • instagram</title>`, "login wall"},
	{"challenge_required", "challenge page"},
	{"checkpoint_required", "checkpoint page"},
	{"g-recaptcha", "captcha"},
	{"h-captcha", "captcha"},
	{"please wait a few minutes before you try again", "rate limited"},
	{"verify to continue", "captcha"},
	{"our systems have detected unusual traffic", "rate limited"},
}

// blockReason reports whether a response is a block rather than content.
func blockReason(page Page) (string, bool) {
	switch page.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Sprintf("status %d", page.Status), true
	case http.StatusTooManyRequests:
		return "rate limited", true
	}
	lower := bytes.ToLower(page.Body)
	for _, m := range blockMarkers {
		if bytes.Contains(lower, []byte(m.marker)) {
			return m.reason, true
		}
	}
	return "", false
}
