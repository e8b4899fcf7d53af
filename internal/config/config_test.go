package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"reelscript/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("REELSCRIPT_API_TOKEN", "")
	t.Setenv("REELSCRIPT_MOCK_FETCH", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "reelscript")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.DatabasePath != filepath.Join(wantData, "reels.db") {
		t.Fatalf("unexpected database path: %q", cfg.Paths.DatabasePath)
	}
	if cfg.API.Bind != "127.0.0.1:7488" {
		t.Fatalf("unexpected api bind: %q", cfg.API.Bind)
	}
	if cfg.Fetch.Mock {
		t.Fatal("expected mock fetch disabled by default")
	}
	if cfg.Fetch.CommentLimit != 50 {
		t.Fatalf("expected comment limit 50, got %d", cfg.Fetch.CommentLimit)
	}
	if cfg.RecencyWindow() != 90*24*time.Hour {
		t.Fatalf("unexpected recency window: %s", cfg.RecencyWindow())
	}
	if cfg.Audience.Clusters != 3 || cfg.Audience.MinComments != 5 {
		t.Fatalf("unexpected audience defaults: %+v", cfg.Audience)
	}
	if cfg.Audience.Labeler != config.LabelerLexical {
		t.Fatalf("expected lexical labeler, got %q", cfg.Audience.Labeler)
	}
	if cfg.ItemTimeout() != 3*time.Minute {
		t.Fatalf("unexpected item timeout: %s", cfg.ItemTimeout())
	}
	if cfg.Compose.VariantCount != 2 {
		t.Fatalf("expected variant count 2, got %d", cfg.Compose.VariantCount)
	}
	if !cfg.Compose.FallbackOnEmptyPool {
		t.Fatal("expected empty-pool fallback enabled by default")
	}
	if cfg.Transcription.Provider != config.ProviderWhisperX {
		t.Fatalf("expected whisperx provider, got %q", cfg.Transcription.Provider)
	}
	if cfg.Cooldown.Backend != config.CooldownMemory || cfg.CooldownWindow() != 15*time.Minute {
		t.Fatalf("unexpected cooldown defaults: %+v", cfg.Cooldown)
	}
	if cfg.Telemetry.Exporter != config.ExporterNone {
		t.Fatalf("expected telemetry disabled, got %q", cfg.Telemetry.Exporter)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "reelscript.toml")

	type payload struct {
		Fetch struct {
			BaseURL     string `toml:"base_url"`
			RecencyDays int    `toml:"recency_days"`
		} `toml:"fetch"`
		Pipeline struct {
			Concurrency int `toml:"concurrency"`
		} `toml:"pipeline"`
		Schedule struct {
			Enabled  bool     `toml:"enabled"`
			Keywords []string `toml:"keywords"`
		} `toml:"schedule"`
	}
	custom := payload{}
	custom.Fetch.BaseURL = "http://127.0.0.1:9999/"
	custom.Fetch.RecencyDays = 0
	custom.Pipeline.Concurrency = 8
	custom.Schedule.Enabled = true
	custom.Schedule.Keywords = []string{"productivity", " productivity ", "", "study"}
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Fetch.BaseURL != "http://127.0.0.1:9999" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Fetch.BaseURL)
	}
	if cfg.RecencyWindow() != 0 {
		t.Fatalf("expected unlimited recency window, got %s", cfg.RecencyWindow())
	}
	if cfg.Pipeline.Concurrency != 8 {
		t.Fatalf("expected concurrency 8, got %d", cfg.Pipeline.Concurrency)
	}
	if got := strings.Join(cfg.Schedule.Keywords, ","); got != "productivity,study" {
		t.Fatalf("unexpected schedule keywords: %q", got)
	}
}

func TestDotEnvSuppliesSecrets(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "reelscript.toml")
	if err := os.WriteFile(configPath, []byte("[audience]\nlabeler = \"llm\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tempDir, ".env"), []byte("REELSCRIPT_LLM_API_KEY=from-dotenv\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	os.Unsetenv("REELSCRIPT_LLM_API_KEY")
	t.Cleanup(func() { os.Unsetenv("REELSCRIPT_LLM_API_KEY") })

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LLM.APIKey != "from-dotenv" {
		t.Fatalf("expected api key from .env, got %q", cfg.LLM.APIKey)
	}
}

func TestPlatformSelectsBaseURL(t *testing.T) {
	cases := []struct {
		toml string
		want string
	}{
		{"[fetch]\nplatform = \"TikTok\"\n", "https://www.tiktok.com"},
		{"[fetch]\nplatform = \"youtube\"\nbase_url = \"https://www.instagram.com/\"\n", "https://www.youtube.com"},
		{"[fetch]\nplatform = \"youtube\"\nbase_url = \"http://127.0.0.1:8080\"\n", "http://127.0.0.1:8080"},
		{"[fetch]\n", "https://www.instagram.com"},
	}
	for _, tc := range cases {
		configPath := filepath.Join(t.TempDir(), "reelscript.toml")
		if err := os.WriteFile(configPath, []byte(tc.toml), 0o644); err != nil {
			t.Fatalf("write config: %v", err)
		}
		cfg, _, _, err := config.Load(configPath)
		if err != nil {
			t.Fatalf("Load(%q) returned error: %v", tc.toml, err)
		}
		if cfg.Fetch.BaseURL != tc.want {
			t.Fatalf("Load(%q): base url %q, want %q", tc.toml, cfg.Fetch.BaseURL, tc.want)
		}
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.DataDir, "reelscript") {
		t.Fatalf("expected data dir to contain reelscript, got %q", cfg.Paths.DataDir)
	}
	if cfg.Engagement.CommentWeight != 2 {
		t.Fatalf("expected sample comment weight 2, got %v", cfg.Engagement.CommentWeight)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"zero concurrency", func(c *config.Config) { c.Pipeline.Concurrency = 0 }},
		{"zero item timeout", func(c *config.Config) { c.Pipeline.ItemTimeoutSeconds = 0 }},
		{"likes outweigh comments", func(c *config.Config) { c.Engagement.LikeWeight = 5 }},
		{"views outweigh likes", func(c *config.Config) { c.Engagement.ViewWeight = 1.5 }},
		{"zero view weight", func(c *config.Config) { c.Engagement.ViewWeight = 0 }},
		{"clusters exceed sample", func(c *config.Config) { c.Audience.Clusters = 10 }},
		{"unknown labeler", func(c *config.Config) { c.Audience.Labeler = "oracle" }},
		{"llm labeler without key", func(c *config.Config) { c.Audience.Labeler = config.LabelerLLM }},
		{"non-http base url", func(c *config.Config) { c.Fetch.BaseURL = "ftp://example" }},
		{"unknown platform", func(c *config.Config) { c.Fetch.Platform = "myspace" }},
		{"zero rate", func(c *config.Config) { c.Fetch.RequestsPerSecond = 0 }},
		{"zero variants", func(c *config.Config) { c.Compose.VariantCount = 0 }},
		{"schedule without keywords", func(c *config.Config) { c.Schedule.Enabled = true }},
		{"gemini labeler without key", func(c *config.Config) { c.Audience.Labeler = config.LabelerGemini }},
		{"unknown speech provider", func(c *config.Config) { c.Transcription.Provider = "dictaphone" }},
		{"redis cooldown without addr", func(c *config.Config) { c.Cooldown.Backend = config.CooldownRedis }},
		{"otlp without endpoint", func(c *config.Config) { c.Telemetry.Exporter = config.ExporterOTLP }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}
