package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"reelscript/internal/compose"
	"reelscript/internal/config"
	"reelscript/internal/cooldown"
	"reelscript/internal/generator"
	"reelscript/internal/pipeline"
	"reelscript/internal/reelstore"
)

// Components holds the wired services shared by the daemon and the CLI.
type Components struct {
	Store     *reelstore.Store
	Runner    *pipeline.Runner
	Generator *generator.Generator
	Gate      cooldown.Gate

	closers []func() error
}

// Build opens the store and wires the scrape pipeline and script generator.
// Callers must Close the result.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Components, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	store, err := reelstore.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open reel store: %w", err)
	}
	c := &Components{Store: store}
	c.closers = append(c.closers, store.Close)

	runner, closeRunner, err := pipeline.FromConfig(ctx, cfg, store, logger)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.Runner = runner
	c.closers = append(c.closers, closeRunner)

	composer, err := compose.New(cfg)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	c.Gate = cooldown.New(ctx, cfg, logger)
	c.closers = append(c.closers, c.Gate.Close)

	var opts []generator.Option
	if cfg.Compose.ScrapeOnMiss {
		opts = append(opts, generator.WithScraper(runner, c.Gate))
	}
	c.Generator = generator.New(cfg, store, composer, logger, opts...)
	return c, nil
}

// Close releases everything Build opened, newest first.
func (c *Components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
