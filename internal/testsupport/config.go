package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"reelscript/internal/config"
)

// ConfigOption adjusts the config built by NewConfig.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig returns defaults rooted in a fresh temp directory. Fetching runs
// in mock mode so no test reaches the network by accident, and the API binds
// an ephemeral port.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths = config.Paths{
		DataDir:      filepath.Join(base, "data"),
		MediaDir:     filepath.Join(base, "media"),
		LogDir:       filepath.Join(base, "logs"),
		DatabasePath: filepath.Join(base, "data", "reels.db"),
	}
	cfg.Fetch.Mock = true
	cfg.Fetch.RequestsPerSecond = 1000
	cfg.Fetch.Burst = 100
	cfg.API.Bind = "127.0.0.1:0"

	b := &configBuilder{t: t, baseDir: base, cfg: &cfg}
	for _, opt := range opts {
		opt(b)
	}
	return b.cfg
}

// WithLabeler selects the audience labeler and the key its backend needs.
func WithLabeler(labeler, apiKey string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Audience.Labeler = labeler
		switch labeler {
		case config.LabelerLLM:
			b.cfg.LLM.APIKey = apiKey
		case config.LabelerGemini:
			b.cfg.Gemini.APIKey = apiKey
		}
	}
}

// WithFetchBaseURL points the scraper at a test server and disables mock mode.
func WithFetchBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Fetch.BaseURL = url
		b.cfg.Fetch.Mock = false
	}
}

// WithStubbedBinaries puts executables that print "<name> stub" on PATH for
// the duration of the test. Without names, the media tools are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"yt-dlp", "ffmpeg", "ffprobe", "uvx"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		for _, name := range names {
			script := []byte("#!/bin/sh\necho \"" + name + " stub\"\n")
			if err := os.WriteFile(filepath.Join(binDir, name), script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// BaseDir returns the temp directory backing cfg.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
