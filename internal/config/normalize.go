package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeFetch()
	c.normalizeAudience()
	c.normalizeTranscription()
	c.normalizeLLM()
	c.normalizeGemini()
	c.normalizeCooldown()
	c.normalizeTelemetry()
	if err := c.normalizeCompose(); err != nil {
		return err
	}
	c.normalizeAPI()
	c.normalizeSchedule()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.MediaDir) == "" {
		c.Paths.MediaDir = filepath.Join(c.Paths.DataDir, "media")
	}
	if c.Paths.MediaDir, err = expandPath(c.Paths.MediaDir); err != nil {
		return fmt.Errorf("paths.media_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.DataDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DatabasePath) == "" {
		c.Paths.DatabasePath = filepath.Join(c.Paths.DataDir, "reels.db")
	}
	if c.Paths.DatabasePath, err = expandPath(c.Paths.DatabasePath); err != nil {
		return fmt.Errorf("paths.database_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeFetch() {
	c.Fetch.Platform = strings.ToLower(strings.TrimSpace(c.Fetch.Platform))
	if c.Fetch.Platform == "" {
		c.Fetch.Platform = PlatformInstagram
	}
	c.Fetch.BaseURL = strings.TrimRight(strings.TrimSpace(c.Fetch.BaseURL), "/")
	// A base URL left at the Instagram default follows the platform.
	if c.Fetch.BaseURL == "" || c.Fetch.BaseURL == defaultFetchBaseURL {
		if base, ok := platformBaseURLs[c.Fetch.Platform]; ok {
			c.Fetch.BaseURL = base
		} else {
			c.Fetch.BaseURL = defaultFetchBaseURL
		}
	}
	if c.Fetch.Burst <= 0 {
		c.Fetch.Burst = defaultBurst
	}
	if c.Fetch.CommentLimit <= 0 {
		c.Fetch.CommentLimit = defaultCommentLimit
	}
	if c.Fetch.RecencyDays < 0 {
		c.Fetch.RecencyDays = 0
	}
	if value, ok := os.LookupEnv("REELSCRIPT_MOCK_FETCH"); ok {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "1", "true", "yes":
			c.Fetch.Mock = true
		}
	}
}

func (c *Config) normalizeAudience() {
	c.Audience.Labeler = strings.ToLower(strings.TrimSpace(c.Audience.Labeler))
	if c.Audience.Labeler == "" {
		c.Audience.Labeler = defaultLabeler
	}
	if c.Audience.MaxIterations <= 0 {
		c.Audience.MaxIterations = defaultMaxIterations
	}
}

func (c *Config) normalizeTranscription() {
	c.Transcription.Provider = strings.ToLower(strings.TrimSpace(c.Transcription.Provider))
	if c.Transcription.Provider == "" {
		c.Transcription.Provider = defaultSpeechProvider
	}
	c.Transcription.GCPModel = strings.TrimSpace(c.Transcription.GCPModel)
	if c.Transcription.GCPModel == "" {
		c.Transcription.GCPModel = defaultGCPModel
	}
	c.Transcription.Language = strings.ToLower(strings.TrimSpace(c.Transcription.Language))
	if c.Transcription.Language == "" {
		c.Transcription.Language = defaultLanguage
	}
	c.Transcription.Model = strings.TrimSpace(c.Transcription.Model)
	if c.Transcription.Model == "" {
		c.Transcription.Model = defaultWhisperModel
	}
	c.Transcription.VADMethod = strings.ToLower(strings.TrimSpace(c.Transcription.VADMethod))
	if c.Transcription.VADMethod == "" {
		c.Transcription.VADMethod = defaultVADMethod
	}
	c.Transcription.HuggingFace = strings.TrimSpace(c.Transcription.HuggingFace)
	if c.Transcription.HuggingFace == "" {
		if value, ok := os.LookupEnv("HUGGING_FACE_HUB_TOKEN"); ok {
			c.Transcription.HuggingFace = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("HF_TOKEN"); ok {
			c.Transcription.HuggingFace = strings.TrimSpace(value)
		}
	}
	binaries := []struct {
		value    *string
		fallback string
	}{
		{&c.Transcription.FFmpegBinary, defaultFFmpegBinary},
		{&c.Transcription.FFprobeBinary, defaultFFprobeBinary},
		{&c.Transcription.YTDLPBinary, defaultYTDLPBinary},
		{&c.Transcription.UVXBinary, defaultUVXBinary},
	}
	for _, bin := range binaries {
		*bin.value = strings.TrimSpace(*bin.value)
		if *bin.value == "" {
			*bin.value = bin.fallback
		}
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	if c.LLM.Referer == "" {
		c.LLM.Referer = defaultLLMReferer
	}
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.Title == "" {
		c.LLM.Title = defaultLLMTitle
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("REELSCRIPT_LLM_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeGemini() {
	c.Gemini.Model = strings.TrimSpace(c.Gemini.Model)
	if c.Gemini.Model == "" {
		c.Gemini.Model = defaultGeminiModel
	}
	c.Gemini.APIKey = strings.TrimSpace(c.Gemini.APIKey)
	if c.Gemini.APIKey == "" {
		if value, ok := os.LookupEnv("GEMINI_API_KEY"); ok {
			c.Gemini.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("GOOGLE_API_KEY"); ok {
			c.Gemini.APIKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeCooldown() {
	c.Cooldown.Backend = strings.ToLower(strings.TrimSpace(c.Cooldown.Backend))
	if c.Cooldown.Backend == "" {
		c.Cooldown.Backend = defaultCooldownBackend
	}
	c.Cooldown.RedisAddr = strings.TrimSpace(c.Cooldown.RedisAddr)
	if c.Cooldown.RedisAddr == "" {
		if value, ok := os.LookupEnv("REDIS_ADDR"); ok {
			c.Cooldown.RedisAddr = strings.TrimSpace(value)
		}
	}
	if c.Cooldown.Seconds < 0 {
		c.Cooldown.Seconds = 0
	}
}

func (c *Config) normalizeTelemetry() {
	c.Telemetry.Exporter = strings.ToLower(strings.TrimSpace(c.Telemetry.Exporter))
	if c.Telemetry.Exporter == "" {
		c.Telemetry.Exporter = defaultTelemetryExporter
	}
	c.Telemetry.Endpoint = strings.TrimSpace(c.Telemetry.Endpoint)
	if c.Telemetry.Endpoint == "" {
		if value, ok := os.LookupEnv("OTEL_EXPORTER_OTLP_ENDPOINT"); ok {
			c.Telemetry.Endpoint = strings.TrimSpace(value)
		}
	}
	c.Telemetry.ServiceName = strings.TrimSpace(c.Telemetry.ServiceName)
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = defaultTelemetryService
	}
	if c.Telemetry.SampleRatio <= 0 || c.Telemetry.SampleRatio > 1 {
		c.Telemetry.SampleRatio = defaultTelemetrySampleRatio
	}
}

func (c *Config) normalizeCompose() error {
	c.Compose.TemplatesFile = strings.TrimSpace(c.Compose.TemplatesFile)
	if c.Compose.TemplatesFile != "" {
		var err error
		if c.Compose.TemplatesFile, err = expandPath(c.Compose.TemplatesFile); err != nil {
			return fmt.Errorf("compose.templates_file: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeAPI() {
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	if c.API.Bind == "" {
		c.API.Bind = defaultAPIBind
	}
	c.API.Token = strings.TrimSpace(c.API.Token)
	if c.API.Token == "" {
		if value, ok := os.LookupEnv("REELSCRIPT_API_TOKEN"); ok {
			c.API.Token = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeSchedule() {
	c.Schedule.Cron = strings.TrimSpace(c.Schedule.Cron)
	if c.Schedule.Cron == "" {
		c.Schedule.Cron = defaultScheduleCron
	}
	keywords := make([]string, 0, len(c.Schedule.Keywords))
	seen := make(map[string]struct{}, len(c.Schedule.Keywords))
	for _, keyword := range c.Schedule.Keywords {
		normalized := strings.TrimSpace(keyword)
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		keywords = append(keywords, normalized)
	}
	c.Schedule.Keywords = keywords
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
