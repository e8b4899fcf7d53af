// Package pipeline runs one scrape batch end to end.
//
// The Runner pulls candidates lazily from a fetcher, records each partial reel
// in the store, and hands it to a bounded errgroup. Every worker transcribes
// and analyzes its reel concurrently under a per-item timeout, then writes the
// owned fields back. Item failures are recorded on the reel and logged; only a
// blocked scrape or a store failure ends the batch with an error.
package pipeline
