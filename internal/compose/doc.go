// Package compose renders script variants from ranked reels.
//
// A Composer pairs style templates from a YAML catalog with the best unused
// reels of a pool. Each variant slots the theme and excerpts of its source
// transcript into the template sections, adapts hooks and calls to action to
// the engagement patterns found in that transcript, and snapshots the source
// reel's engagement. Composition never returns an empty list: an empty pool is
// reported as services.ErrEmptyPool and the caller decides the fallback.
package compose
