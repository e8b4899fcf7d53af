// Package generator serves script requests.
//
// It resolves a client's saved settings into a value for the lifetime of one
// request, queries the reel store for the target audience, optionally runs a
// throttled scrape when nothing matches, and asks the composer for variants.
// When the pool stays empty it applies the configured fallback policy. It
// also owns the save path for edited scripts.
package generator
