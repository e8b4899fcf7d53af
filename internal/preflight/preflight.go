package preflight

import (
	"context"

	"reelscript/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Media directory", cfg.Paths.MediaDir),
	}
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}

	results = append(results, CheckPlatform(ctx, cfg.Fetch.BaseURL, cfg.Fetch.Mock))

	switch cfg.Audience.Labeler {
	case config.LabelerLLM:
		results = append(results, CheckLLM(ctx, "Audience LLM", cfg.GetLLM()))
	case config.LabelerGemini:
		results = append(results, CheckGemini(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model))
	}
	if cfg.Transcription.Provider == config.ProviderGCP && !cfg.Fetch.Mock {
		results = append(results, CheckGCPCredentials())
	}
	if cfg.Cooldown.Backend == config.CooldownRedis {
		results = append(results, CheckRedis(ctx, cfg.Cooldown.RedisAddr))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
