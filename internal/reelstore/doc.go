// Package reelstore persists scraped reels, client settings and saved scripts
// in a SQLite database.
//
// Reels are keyed by their platform id and written with field-level merge
// upserts: the fetcher, transcriber and audience analyzer each touch disjoint
// columns, so concurrent writers never need a shared lock. Once a reel holds
// both a transcript and an audience label it is usable and further writes
// leave it untouched. QueryByAudience only ever returns usable reels, ordered
// by engagement score computed at read time.
package reelstore
