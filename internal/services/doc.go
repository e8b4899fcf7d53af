// Package services defines shared utilities consumed by the pipeline stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp reel IDs, batch IDs, stage names, client IDs
//     and correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper. The pipeline markers
//     (ErrScrapeBlocked, ErrAudioUnavailable, ErrTranscriptionFailed,
//     ErrInsufficientComments, ErrEmptyPool, ErrInvalidTargetFilter) decide
//     whether a failure stops a batch, disqualifies one reel, or is surfaced to
//     the caller as a policy signal.
//   - Mappings from errors to persisted failure reasons, HTTP statuses and CLI
//     exit codes.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
