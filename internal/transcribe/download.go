package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"reelscript/internal/reel"
)

// maxMediaBytes bounds a single media download.
const maxMediaBytes = 512 << 20

// Kind selects which media a download targets.
type Kind string

const (
	KindAudio Kind = "audio"
	KindVideo Kind = "video"
)

// User agents sent with media requests. Instagram and TikTok serve their
// mobile renditions to the mobile agent.
const (
	mobileUserAgent  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Mobile/15E148 Safari/604.1"
	desktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"
)

func userAgentFor(p reel.Platform) string {
	switch p {
	case reel.PlatformInstagram, reel.PlatformTikTok:
		return mobileUserAgent
	default:
		return desktopUserAgent
	}
}

// Downloader retrieves reel media into dir and returns the local path.
type Downloader interface {
	Download(ctx context.Context, r reel.Reel, dir string, kind Kind) (string, error)
}

// Runner executes an external tool.
type Runner func(ctx context.Context, name string, args ...string) error

// MediaDownloader fetches direct media URLs over HTTP and falls back to
// yt-dlp against the permalink. Requests carry the user agent of the
// platform the permalink belongs to.
type MediaDownloader struct {
	client *http.Client
	ytdlp  string
	run    Runner
}

// NewMediaDownloader builds a downloader. A nil client uses http.DefaultClient.
func NewMediaDownloader(client *http.Client, ytdlpBinary string, run Runner) *MediaDownloader {
	if client == nil {
		client = http.DefaultClient
	}
	if strings.TrimSpace(ytdlpBinary) == "" {
		ytdlpBinary = "yt-dlp"
	}
	return &MediaDownloader{client: client, ytdlp: ytdlpBinary, run: run}
}

// errNoMedia marks downloads that found nothing to fetch.
var errNoMedia = errors.New("no media source")

// Download implements Downloader.
func (d *MediaDownloader) Download(ctx context.Context, r reel.Reel, dir string, kind Kind) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure media dir: %w", err)
	}
	agent := userAgentFor(reel.DetectPlatform(r.Permalink))
	source := r.VideoURL
	if kind == KindAudio && strings.TrimSpace(r.AudioURL) != "" {
		source = r.AudioURL
	}
	if source = strings.TrimSpace(source); source != "" {
		return d.fetchURL(ctx, source, filepath.Join(dir, string(kind)+extensionFor(source, kind)), agent)
	}
	if strings.TrimSpace(r.Permalink) == "" || d.run == nil {
		return "", errNoMedia
	}
	return d.fetchPermalink(ctx, r.Permalink, dir, kind, agent)
}

func (d *MediaDownloader) fetchURL(ctx context.Context, url, dest, agent string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build media request: %w", err)
	}
	req.Header.Set("User-Agent", agent)
	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download media: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return "", fmt.Errorf("%w: media returned %d", errNoMedia, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return "", fmt.Errorf("download media: unexpected status %d", resp.StatusCode)
	}

	file, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}
	written, copyErr := io.Copy(file, io.LimitReader(resp.Body, maxMediaBytes))
	closeErr := file.Close()
	if copyErr != nil {
		return "", fmt.Errorf("write media: %w", copyErr)
	}
	if closeErr != nil {
		return "", fmt.Errorf("close media: %w", closeErr)
	}
	if written == 0 {
		return "", fmt.Errorf("%w: empty media body", errNoMedia)
	}
	return dest, nil
}

func (d *MediaDownloader) fetchPermalink(ctx context.Context, permalink, dir string, kind Kind, agent string) (string, error) {
	format := "bestaudio/best"
	if kind == KindVideo {
		format = "best"
	}
	template := filepath.Join(dir, string(kind)+".%(ext)s")
	if err := d.run(ctx, d.ytdlp, "--quiet", "--no-playlist", "--no-progress", "--user-agent", agent, "-f", format, "-o", template, permalink); err != nil {
		return "", fmt.Errorf("yt-dlp: %w", err)
	}
	matches, err := filepath.Glob(filepath.Join(dir, string(kind)+".*"))
	if err != nil {
		return "", fmt.Errorf("locate yt-dlp output: %w", err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: yt-dlp produced no file", errNoMedia)
	}
	return matches[0], nil
}

func extensionFor(url string, kind Kind) string {
	path := url
	if idx := strings.IndexAny(path, "?#"); idx >= 0 {
		path = path[:idx]
	}
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".mp4", ".m4a", ".mp3", ".aac", ".webm", ".mov", ".ogg", ".wav":
		return ext
	}
	if kind == KindAudio {
		return ".m4a"
	}
	return ".mp4"
}
