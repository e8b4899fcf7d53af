package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and database locations.
type Paths struct {
	DataDir      string `toml:"data_dir"`
	MediaDir     string `toml:"media_dir"`
	LogDir       string `toml:"log_dir"`
	DatabasePath string `toml:"database_path"`
}

// Fetch contains configuration for the reel scraper.
type Fetch struct {
	// Platform selects the site to scrape: instagram, tiktok or youtube.
	Platform              string  `toml:"platform"`
	BaseURL               string  `toml:"base_url"`
	RequestsPerSecond     float64 `toml:"requests_per_second"`
	Burst                 int     `toml:"burst"`
	RequestTimeoutSeconds int     `toml:"request_timeout_seconds"`
	CommentLimit          int     `toml:"comment_limit"`
	RecencyDays           int     `toml:"recency_days"`
	// Mock generates synthetic reels instead of contacting the platform.
	Mock bool `toml:"mock"`
}

// Engagement contains the weights used to score reels.
//
// Score = 100 * (comment_weight*comments + like_weight*likes) / (view_weight*views).
// Comments must weigh at least as much as likes, and likes at least as much as views.
type Engagement struct {
	CommentWeight float64 `toml:"comment_weight"`
	LikeWeight    float64 `toml:"like_weight"`
	ViewWeight    float64 `toml:"view_weight"`
}

// Audience contains configuration for comment clustering and labeling.
type Audience struct {
	Clusters      int    `toml:"clusters"`
	MinComments   int    `toml:"min_comments"`
	Seed          int64  `toml:"seed"`
	MaxIterations int    `toml:"max_iterations"`
	Labeler       string `toml:"labeler"`
}

// Transcription contains configuration for media download and speech-to-text.
type Transcription struct {
	// Provider selects the speech-to-text backend: "whisperx" or "gcp".
	Provider      string `toml:"provider"`
	Language      string `toml:"language"`
	Model         string `toml:"model"`
	CUDAEnabled   bool   `toml:"cuda_enabled"`
	VADMethod     string `toml:"vad_method"`
	HuggingFace   string `toml:"hf_token"`
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
	YTDLPBinary   string `toml:"ytdlp_binary"`
	UVXBinary     string `toml:"uvx_binary"`
	// GCPModel is the Cloud Speech-to-Text model used by the gcp provider.
	GCPModel string `toml:"gcp_model"`
	// MediaRetentionDays prunes downloaded media older than this; 0 keeps everything.
	MediaRetentionDays int `toml:"media_retention_days"`
}

// LLM contains hosted model settings used by the llm audience labeler.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Gemini contains settings for the gemini audience labeler.
type Gemini struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// Cooldown throttles repeated scrapes of the same keyword.
type Cooldown struct {
	Backend   string `toml:"backend"`
	RedisAddr string `toml:"redis_addr"`
	Seconds   int    `toml:"seconds"`
}

// Telemetry controls OpenTelemetry trace export.
type Telemetry struct {
	Exporter    string  `toml:"exporter"`
	Endpoint    string  `toml:"endpoint"`
	ServiceName string  `toml:"service_name"`
	SampleRatio float64 `toml:"sample_ratio"`
}

// Pipeline contains worker pool sizing and per-item limits.
type Pipeline struct {
	Concurrency        int `toml:"concurrency"`
	ItemTimeoutSeconds int `toml:"item_timeout_seconds"`
}

// Compose contains script generation policy.
type Compose struct {
	VariantCount        int     `toml:"variant_count"`
	FallbackOnEmptyPool bool    `toml:"fallback_on_empty_pool"`
	ScrapeOnMiss        bool    `toml:"scrape_on_miss"`
	ScrapeTop           int     `toml:"scrape_top"`
	ScrapeMinEngagement float64 `toml:"scrape_min_engagement"`
	TemplatesFile       string  `toml:"templates_file"`
}

// API contains HTTP server settings.
type API struct {
	Bind  string `toml:"bind"`
	Token string `toml:"token"`
}

// Schedule contains periodic scrape settings for the daemon.
type Schedule struct {
	Enabled       bool     `toml:"enabled"`
	Cron          string   `toml:"cron"`
	Keywords      []string `toml:"keywords"`
	Top           int      `toml:"top"`
	MinEngagement float64  `toml:"min_engagement"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for reelscript.
//
// Configuration sections by subsystem:
//   - Paths: data, media, log directories and the sqlite database
//   - Fetch: scraper endpoint, throttling, comment cap, recency and mock mode
//   - Engagement: score weights
//   - Audience: clustering cardinality, sample size and labeler choice
//   - Transcription: external media tools and WhisperX settings
//   - LLM: hosted zero-shot labeler connection
//   - Gemini: Google Gen AI labeler connection
//   - Cooldown: per-keyword scrape throttle backend
//   - Telemetry: trace exporter
//   - Pipeline: worker pool size and per-item timeout
//   - Compose: variant count and empty-pool policy
//   - API: daemon bind address and bearer token
//   - Schedule: periodic keyword scrapes run by the daemon
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Fetch         Fetch         `toml:"fetch"`
	Engagement    Engagement    `toml:"engagement"`
	Audience      Audience      `toml:"audience"`
	Transcription Transcription `toml:"transcription"`
	LLM           LLM           `toml:"llm"`
	Gemini        Gemini        `toml:"gemini"`
	Cooldown      Cooldown      `toml:"cooldown"`
	Telemetry     Telemetry     `toml:"telemetry"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Compose       Compose       `toml:"compose"`
	API           API           `toml:"api"`
	Schedule      Schedule      `toml:"schedule"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. A .env file next to the config (or in the working
// directory) is loaded first so secrets can stay out of the TOML file.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	loadDotEnv(resolvedPath)

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// loadDotEnv never overrides variables that are already set.
func loadDotEnv(configPath string) {
	candidates := []string{".env"}
	if configPath != "" {
		candidates = append([]string{filepath.Join(filepath.Dir(configPath), ".env")}, candidates...)
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			_ = godotenv.Load(candidate)
		}
	}
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("reelscript.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data, media and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.MediaDir, c.Paths.LogDir, filepath.Dir(c.Paths.DatabasePath)} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ItemTimeout returns the per-item bulkhead timeout.
func (c *Config) ItemTimeout() time.Duration {
	return time.Duration(c.Pipeline.ItemTimeoutSeconds) * time.Second
}

// FetchTimeout returns the per-request scrape timeout.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.RequestTimeoutSeconds) * time.Second
}

// RecencyWindow returns how far back scraped reels may date, or zero when unlimited.
func (c *Config) RecencyWindow() time.Duration {
	if c.Fetch.RecencyDays <= 0 {
		return 0
	}
	return time.Duration(c.Fetch.RecencyDays) * 24 * time.Hour
}

// CooldownWindow returns how long a keyword is skipped after a scrape.
func (c *Config) CooldownWindow() time.Duration {
	return time.Duration(c.Cooldown.Seconds) * time.Second
}

// LockPath returns the daemon single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "reelscriptd.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig contains the resolved hosted model settings.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// GetLLM returns the LLM connection settings.
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		APIKey:         strings.TrimSpace(c.LLM.APIKey),
		BaseURL:        strings.TrimSpace(c.LLM.BaseURL),
		Model:          strings.TrimSpace(c.LLM.Model),
		Referer:        strings.TrimSpace(c.LLM.Referer),
		Title:          strings.TrimSpace(c.LLM.Title),
		TimeoutSeconds: c.LLM.TimeoutSeconds,
	}
}
