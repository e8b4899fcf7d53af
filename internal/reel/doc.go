// Package reel holds the shared data model: scraped reels, audience labels,
// target audience filters, and the script artifacts composed from them.
//
// A Reel is usable only once both its transcript and audience label are set;
// Usable is the single definition every other package relies on. Target
// filters match labels dimension by dimension, treating age labels as
// intervals so "18-24" matches a reel labeled "18-34".
package reel
