package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateFetch(); err != nil {
		return err
	}
	if err := c.validateEngagement(); err != nil {
		return err
	}
	if err := c.validateAudience(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateCooldown(); err != nil {
		return err
	}
	if err := c.validateTelemetry(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateCompose(); err != nil {
		return err
	}
	if err := c.validateSchedule(); err != nil {
		return err
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be >= 0")
	}
	return nil
}

func (c *Config) validateFetch() error {
	if _, ok := platformBaseURLs[c.Fetch.Platform]; !ok {
		return fmt.Errorf("fetch.platform must be %q, %q or %q, got %q",
			PlatformInstagram, PlatformTikTok, PlatformYouTube, c.Fetch.Platform)
	}
	if !strings.HasPrefix(c.Fetch.BaseURL, "http://") && !strings.HasPrefix(c.Fetch.BaseURL, "https://") {
		return fmt.Errorf("fetch.base_url must be an http(s) URL, got %q", c.Fetch.BaseURL)
	}
	if c.Fetch.RequestsPerSecond <= 0 {
		return errors.New("fetch.requests_per_second must be positive")
	}
	return ensurePositiveMap(map[string]int{
		"fetch.burst":                   c.Fetch.Burst,
		"fetch.request_timeout_seconds": c.Fetch.RequestTimeoutSeconds,
		"fetch.comment_limit":           c.Fetch.CommentLimit,
	})
}

func (c *Config) validateEngagement() error {
	w := c.Engagement
	if w.ViewWeight <= 0 {
		return errors.New("engagement.view_weight must be positive")
	}
	if w.CommentWeight < w.LikeWeight {
		return errors.New("engagement.comment_weight must be >= engagement.like_weight")
	}
	if w.LikeWeight < w.ViewWeight {
		return errors.New("engagement.like_weight must be >= engagement.view_weight")
	}
	return nil
}

func (c *Config) validateAudience() error {
	if err := ensurePositiveMap(map[string]int{
		"audience.clusters":     c.Audience.Clusters,
		"audience.min_comments": c.Audience.MinComments,
	}); err != nil {
		return err
	}
	if c.Audience.MinComments < c.Audience.Clusters {
		return errors.New("audience.min_comments must be >= audience.clusters")
	}
	switch c.Audience.Labeler {
	case LabelerLexical:
	case LabelerLLM:
		if c.LLM.APIKey == "" {
			return errors.New("llm.api_key must be set when audience.labeler is \"llm\" (or set OPENROUTER_API_KEY)")
		}
	case LabelerGemini:
		if c.Gemini.APIKey == "" {
			return errors.New("gemini.api_key must be set when audience.labeler is \"gemini\" (or set GEMINI_API_KEY)")
		}
	default:
		return fmt.Errorf("audience.labeler must be one of %q, %q, %q, got %q", LabelerLexical, LabelerLLM, LabelerGemini, c.Audience.Labeler)
	}
	return nil
}

func (c *Config) validateTranscription() error {
	switch c.Transcription.Provider {
	case ProviderWhisperX, ProviderGCP:
	default:
		return fmt.Errorf("transcription.provider must be %q or %q, got %q", ProviderWhisperX, ProviderGCP, c.Transcription.Provider)
	}
	if c.Transcription.MediaRetentionDays < 0 {
		return errors.New("transcription.media_retention_days must be >= 0")
	}
	return nil
}

func (c *Config) validateCooldown() error {
	switch c.Cooldown.Backend {
	case CooldownMemory:
	case CooldownRedis:
		if c.Cooldown.RedisAddr == "" {
			return errors.New("cooldown.redis_addr must be set when cooldown.backend is \"redis\" (or set REDIS_ADDR)")
		}
	default:
		return fmt.Errorf("cooldown.backend must be %q or %q, got %q", CooldownMemory, CooldownRedis, c.Cooldown.Backend)
	}
	return nil
}

func (c *Config) validateTelemetry() error {
	switch c.Telemetry.Exporter {
	case ExporterNone, ExporterStdout:
	case ExporterOTLP:
		if c.Telemetry.Endpoint == "" {
			return errors.New("telemetry.endpoint must be set when telemetry.exporter is \"otlp\"")
		}
	default:
		return fmt.Errorf("telemetry.exporter must be one of %q, %q, %q, got %q", ExporterNone, ExporterStdout, ExporterOTLP, c.Telemetry.Exporter)
	}
	return nil
}

func (c *Config) validatePipeline() error {
	return ensurePositiveMap(map[string]int{
		"pipeline.concurrency":          c.Pipeline.Concurrency,
		"pipeline.item_timeout_seconds": c.Pipeline.ItemTimeoutSeconds,
	})
}

func (c *Config) validateCompose() error {
	if c.Compose.VariantCount <= 0 {
		return errors.New("compose.variant_count must be positive")
	}
	if c.Compose.ScrapeOnMiss {
		if c.Compose.ScrapeTop <= 0 {
			return errors.New("compose.scrape_top must be positive when compose.scrape_on_miss is true")
		}
		if c.Compose.ScrapeMinEngagement < 0 {
			return errors.New("compose.scrape_min_engagement must be >= 0")
		}
	}
	return nil
}

func (c *Config) validateSchedule() error {
	if !c.Schedule.Enabled {
		return nil
	}
	if len(c.Schedule.Keywords) == 0 {
		return errors.New("schedule.keywords must include at least one keyword when schedule.enabled is true")
	}
	if c.Schedule.Top <= 0 {
		return errors.New("schedule.top must be positive")
	}
	if c.Schedule.MinEngagement < 0 {
		return errors.New("schedule.min_engagement must be >= 0")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
