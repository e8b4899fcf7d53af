package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"reelscript/internal/compose"
	"reelscript/internal/config"
	"reelscript/internal/cooldown"
	"reelscript/internal/logging"
	"reelscript/internal/pipeline"
	"reelscript/internal/reel"
	"reelscript/internal/reelstore"
	"reelscript/internal/services"
	"reelscript/internal/telemetry"
)

// MaxVariants bounds variant_count on a request. The composer returns at most
// one script per style, so fewer may come back.
const MaxVariants = 10

// Store is the persistence the generator needs.
type Store interface {
	QueryByAudience(ctx context.Context, target reel.TargetAudience) ([]reel.Reel, error)
	GetSettings(ctx context.Context, clientID string) (*reelstore.ClientSettings, error)
	PutSettings(ctx context.Context, settings reelstore.ClientSettings) (*reelstore.ClientSettings, error)
	SaveScript(ctx context.Context, saved reelstore.SavedScript) (int64, error)
	ListSavedScripts(ctx context.Context, clientID string) ([]reelstore.SavedScript, error)
}

// Scraper runs a scrape batch. *pipeline.Runner implements it.
type Scraper interface {
	Run(ctx context.Context, req pipeline.Request) (pipeline.Summary, error)
}

// AutoRequest asks for script variants on a theme.
type AutoRequest struct {
	ClientID         string              `json:"client_id"`
	Theme            string              `json:"theme"`
	Target           reel.TargetAudience `json:"target"`
	NeedVideo        bool                `json:"need_video"`
	UseSavedSettings bool                `json:"use_saved_settings"`
	VariantCount     int                 `json:"variant_count"`
}

// AutoResponse carries the generated variants.
type AutoResponse struct {
	Scripts            []reel.Script       `json:"scripts"`
	MatchingReelsCount int                 `json:"matching_reels_count"`
	Fallback           bool                `json:"fallback"`
	Target             reel.TargetAudience `json:"target"`
	Keywords           []string            `json:"keywords,omitempty"`
	ToneRules          []string            `json:"tone_rules,omitempty"`
}

// SaveRequest stores a client's edited script.
type SaveRequest struct {
	ClientID string               `json:"client_id"`
	ScriptID string               `json:"script_id"`
	Option   int                  `json:"option"`
	Sections []reel.ScriptSection `json:"sections"`
}

// SaveResponse reports the outcome of a save.
type SaveResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      int64  `json:"id,omitempty"`
}

// Generator turns requests into scripts.
type Generator struct {
	store    Store
	composer *compose.Composer
	scraper  Scraper
	gate     cooldown.Gate
	policy   config.Compose
	window   time.Duration
	logger   *slog.Logger
}

// Option customizes a Generator.
type Option func(*Generator)

// WithScraper enables scrape-on-miss using s, throttled by gate.
func WithScraper(s Scraper, gate cooldown.Gate) Option {
	return func(g *Generator) {
		g.scraper = s
		g.gate = gate
	}
}

// New builds a Generator.
func New(cfg *config.Config, store Store, composer *compose.Composer, logger *slog.Logger, opts ...Option) *Generator {
	g := &Generator{
		store:    store,
		composer: composer,
		policy:   cfg.Compose,
		window:   cfg.CooldownWindow(),
		logger:   logging.NewComponentLogger(logger, "generator"),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.gate == nil {
		g.gate = cooldown.NewMemory()
	}
	return g
}

// Auto generates script variants for req. An invalid target is rejected
// before the store is touched.
func (g *Generator) Auto(ctx context.Context, req AutoRequest) (AutoResponse, error) {
	req.ClientID = strings.TrimSpace(req.ClientID)
	req.Theme = strings.TrimSpace(req.Theme)
	switch {
	case req.ClientID == "":
		return AutoResponse{}, services.Wrap(services.ErrValidation, "generator", "auto", "client_id required", nil)
	case req.Theme == "":
		return AutoResponse{}, services.Wrap(services.ErrValidation, "generator", "auto", "theme required", nil)
	case req.VariantCount < 0 || req.VariantCount > MaxVariants:
		return AutoResponse{}, services.Wrap(services.ErrValidation, "generator", "auto",
			fmt.Sprintf("variant_count must be between 0 and %d", MaxVariants), nil)
	}
	if err := req.Target.Validate(); err != nil {
		return AutoResponse{}, err
	}

	ctx = services.WithStage(services.WithClientID(ctx, req.ClientID), "generate")
	ctx, span := telemetry.Start(ctx, "generator.auto", attribute.String("theme", req.Theme))
	logger := logging.WithContext(ctx, g.logger)

	settings := Settings{ClientID: req.ClientID}
	if req.UseSavedSettings {
		resolved, err := g.Settings(ctx, req.ClientID)
		if err != nil {
			telemetry.End(span, err)
			return AutoResponse{}, err
		}
		settings = resolved
	}
	resp, err := g.auto(ctx, logger, req, settings)
	telemetry.End(span, err)
	return resp, err
}

func (g *Generator) auto(ctx context.Context, logger *slog.Logger, req AutoRequest, settings Settings) (AutoResponse, error) {
	target := req.Target.Merge(settings.Target).Normalize()
	if err := target.Validate(); err != nil {
		return AutoResponse{}, err
	}
	resp := AutoResponse{
		Target:    target,
		Keywords:  compose.ThemeKeywords(req.Theme),
		ToneRules: settings.ToneRules,
	}

	pool, err := g.store.QueryByAudience(ctx, target)
	if err != nil {
		return AutoResponse{}, err
	}
	if len(pool) == 0 {
		pool, err = g.scrapeOnMiss(ctx, logger, req, target)
		if err != nil {
			return AutoResponse{}, err
		}
	}
	resp.MatchingReelsCount = len(pool)

	scripts, err := g.composer.Compose(req.Theme, target, pool, req.VariantCount)
	if errors.Is(err, services.ErrEmptyPool) && g.policy.FallbackOnEmptyPool {
		logger.Info("no matching reels; using generic scripts",
			logging.String("target", target.AsLabel().String()),
			logging.String(logging.FieldEventType, "fallback_scripts"),
		)
		scripts = g.composer.Generic(req.Theme, req.VariantCount)
		resp.Fallback = true
		err = nil
	}
	if err != nil {
		return AutoResponse{}, err
	}
	for i := range scripts {
		scripts[i] = compose.Truncate(scripts[i], settings.LengthLimit)
	}
	resp.Scripts = scripts
	logger.Info("scripts generated",
		logging.Int("variants", len(scripts)),
		logging.Int("matching_reels", resp.MatchingReelsCount),
		logging.Bool("fallback", resp.Fallback),
	)
	return resp, nil
}

// scrapeOnMiss runs one batch for the theme when enabled and the keyword is
// not cooling down, then queries again. Scrape errors are logged, not
// returned, so the fallback policy still applies.
func (g *Generator) scrapeOnMiss(ctx context.Context, logger *slog.Logger, req AutoRequest, target reel.TargetAudience) ([]reel.Reel, error) {
	if !g.policy.ScrapeOnMiss || g.scraper == nil {
		return nil, nil
	}
	keyword := req.Theme
	if kw := compose.ThemeKeywords(req.Theme); len(kw) > 0 {
		keyword = kw[0]
	}
	ok, err := g.gate.Acquire(ctx, keyword, g.window)
	if err != nil {
		logging.WarnWithContext(logger, "cooldown check failed; skipping scrape", "cooldown_error",
			logging.Error(err),
			logging.String(logging.FieldImpact, "request served from the existing store"),
		)
		return nil, nil
	}
	if !ok {
		logger.Info("keyword cooling down; skipping scrape", logging.Keyword(keyword))
		return nil, nil
	}
	summary, err := g.scraper.Run(ctx, pipeline.Request{
		Keyword:       keyword,
		Top:           g.policy.ScrapeTop,
		MinEngagement: g.policy.ScrapeMinEngagement,
		NeedVideo:     req.NeedVideo,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logging.WarnWithContext(logger, "scrape on miss failed", "scrape_on_miss_failed",
			logging.Keyword(keyword),
			logging.Int("usable", summary.Usable),
			logging.Error(err),
			logging.String(logging.FieldImpact, "generating from whatever was stored"),
		)
	}
	return g.store.QueryByAudience(ctx, target)
}

// Save records an edited script for a client.
func (g *Generator) Save(ctx context.Context, req SaveRequest) (SaveResponse, error) {
	id, err := g.store.SaveScript(ctx, reelstore.SavedScript{
		ClientID: req.ClientID,
		ScriptID: req.ScriptID,
		Option:   req.Option,
		Sections: req.Sections,
	})
	if err != nil {
		return SaveResponse{Success: false, Message: err.Error()}, err
	}
	g.logger.Info("script saved",
		logging.String(logging.FieldClientID, strings.TrimSpace(req.ClientID)),
		logging.String("script_id", strings.TrimSpace(req.ScriptID)),
	)
	return SaveResponse{Success: true, Message: "script saved", ID: id}, nil
}

// Saved lists a client's saved scripts, newest first.
func (g *Generator) Saved(ctx context.Context, clientID string) ([]reelstore.SavedScript, error) {
	if strings.TrimSpace(clientID) == "" {
		return nil, services.Wrap(services.ErrValidation, "generator", "saved", "client_id required", nil)
	}
	return g.store.ListSavedScripts(ctx, clientID)
}

// Reels lists usable reels for target, best engagement first.
func (g *Generator) Reels(ctx context.Context, target reel.TargetAudience) ([]reel.Reel, error) {
	return g.store.QueryByAudience(ctx, target)
}
