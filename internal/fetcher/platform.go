package fetcher

import (
	"net/url"
	"regexp"

	"reelscript/internal/reel"
)

// profile describes where a platform lists videos for a keyword and how its
// video links look. The first submatch of link is the video id.
type profile struct {
	platform  reel.Platform
	search    func(keyword string) string
	link      *regexp.Regexp
	permalink func(id string) string
}

var profiles = map[reel.Platform]profile{
	reel.PlatformInstagram: {
		platform:  reel.PlatformInstagram,
		search:    func(kw string) string { return "/explore/tags/" + url.PathEscape(kw) + "/" },
		link:      regexp.MustCompile(`^/(?:[A-Za-z0-9_.]+/)?(?:reel|reels|p)/([A-Za-z0-9_-]+)/?`),
		permalink: func(id string) string { return "/reel/" + id + "/" },
	},
	reel.PlatformTikTok: {
		platform: reel.PlatformTikTok,
		search:   func(kw string) string { return "/tag/" + url.PathEscape(kw) },
		link:     regexp.MustCompile(`^/@[A-Za-z0-9_.]*/video/(\d+)`),
		// TikTok resolves a video without its author handle.
		permalink: func(id string) string { return "/@/video/" + id },
	},
	reel.PlatformYouTube: {
		platform:  reel.PlatformYouTube,
		search:    func(kw string) string { return "/results?search_query=" + url.QueryEscape(kw) + "&sp=EgIYAQ%3D%3D" },
		link:      regexp.MustCompile(`^/shorts/([A-Za-z0-9_-]+)`),
		permalink: func(id string) string { return "/shorts/" + id },
	},
}

// profileFor returns the profile of p, defaulting to Instagram.
func profileFor(p reel.Platform) profile {
	if pr, ok := profiles[p]; ok {
		return pr
	}
	return profiles[reel.PlatformInstagram]
}
