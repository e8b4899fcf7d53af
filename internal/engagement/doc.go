// Package engagement scores reels from their like, comment and view counts
// and filters batches down to the reels worth transcribing.
//
// Scores are always recomputed from counts; nothing here is persisted.
package engagement
