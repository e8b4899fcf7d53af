// Package fetcher scrapes keyword tag or search pages for short videos and
// their comments. fetch.platform selects Instagram, TikTok or YouTube Shorts;
// each differs only in its search path and link pattern.
//
// Fetch returns a lazy, single-use sequence: each reel page is requested only
// when the consumer asks for the next item. Requests go through a browser-like
// TLS client, are throttled by a token bucket, and each reel page has its own
// timeout. A login wall, CAPTCHA or rate-limit response ends the sequence with
// services.ErrScrapeBlocked; reels yielded before that stay valid.
package fetcher
