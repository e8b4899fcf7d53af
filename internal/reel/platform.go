package reel

import (
	"net/url"
	"regexp"
	"strings"
)

// Platform names a short-form video site.
type Platform string

// Supported platforms.
const (
	PlatformInstagram Platform = "instagram"
	PlatformTikTok    Platform = "tiktok"
	PlatformYouTube   Platform = "youtube"
)

var videoIDPatterns = map[Platform]*regexp.Regexp{
	PlatformInstagram: regexp.MustCompile(`/(?:reel|reels|p)/([A-Za-z0-9_-]+)`),
	PlatformTikTok:    regexp.MustCompile(`/video/(\d+)`),
	PlatformYouTube:   regexp.MustCompile(`(?:[?&]v=|/shorts/|youtu\.be/)([A-Za-z0-9_-]+)`),
}

// DetectPlatform reports which platform serves rawURL, or "" for other hosts.
func DetectPlatform(rawURL string) Platform {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	switch {
	case onDomain(host, "instagram.com"):
		return PlatformInstagram
	case onDomain(host, "tiktok.com"):
		return PlatformTikTok
	case onDomain(host, "youtube.com"), onDomain(host, "youtu.be"):
		return PlatformYouTube
	}
	return ""
}

// VideoID extracts the platform's video identifier from rawURL.
func VideoID(rawURL string) (Platform, string, bool) {
	p := DetectPlatform(rawURL)
	pattern, ok := videoIDPatterns[p]
	if !ok {
		return p, "", false
	}
	m := pattern.FindStringSubmatch(rawURL)
	if m == nil {
		return p, "", false
	}
	return p, m[1], true
}

func onDomain(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}
