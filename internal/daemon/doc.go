// Package daemon coordinates the long-running reelscript process.
//
// It wires the HTTP API, the scheduled keyword scrapes and media retention into
// a single lifecycle with flock-based locking to prevent multiple instances.
// Scheduled scrapes never overlap: a tick that fires while the previous one is
// still running is skipped.
//
// Keep orchestration logic here: scraping and generation live in their own
// packages while the daemon focuses on startup, shutdown, and scheduling.
package daemon
