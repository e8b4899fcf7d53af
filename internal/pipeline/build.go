package pipeline

import (
	"context"
	"log/slog"

	"reelscript/internal/audience"
	"reelscript/internal/config"
	"reelscript/internal/fetcher"
	"reelscript/internal/services"
	"reelscript/internal/services/gcpspeech"
	"reelscript/internal/transcribe"
)

// FromConfig wires the live components selected by cfg. The returned close
// function releases provider clients and must be called when done.
func FromConfig(ctx context.Context, cfg *config.Config, store Store, logger *slog.Logger) (*Runner, func() error, error) {
	transcriber, closeFn, err := NewTranscriber(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	labeler, err := audience.NewLabeler(ctx, cfg, logger)
	if err != nil {
		_ = closeFn()
		return nil, nil, services.Wrap(services.ErrConfiguration, "pipeline", "labeler", cfg.Audience.Labeler, err)
	}
	analyzer := audience.New(cfg, logger, audience.WithLabeler(labeler))
	runner := New(cfg, fetcher.New(cfg, logger), transcriber, analyzer, store, logger)
	return runner, closeFn, nil
}

// NewTranscriber picks the transcription backend: the caption mock in offline
// mode, Cloud Speech-to-Text for the gcp provider, WhisperX otherwise.
func NewTranscriber(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Transcriber, func() error, error) {
	noop := func() error { return nil }
	if cfg.Fetch.Mock {
		return transcribe.Mock{}, noop, nil
	}
	if cfg.Transcription.Provider == config.ProviderGCP {
		speech, err := gcpspeech.New(ctx, cfg.Transcription.GCPModel)
		if err != nil {
			return nil, nil, services.Wrap(services.ErrConfiguration, "pipeline", "gcp speech", "create client", err)
		}
		return transcribe.New(cfg, logger, transcribe.WithRecognizer(speech, config.ProviderGCP)), speech.Close, nil
	}
	return transcribe.New(cfg, logger), noop, nil
}
