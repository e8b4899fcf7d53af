// Package preflight provides readiness checks for external services
// and filesystem paths that reelscript depends on.
//
// The "reelscript doctor" command runs RunAll and the daemon logs the same
// results at startup. Each remote check is gated by the configuration that
// needs it: the llm key is only checked when the llm labeler is selected, Redis
// only when it backs the cooldown, and so on.
package preflight
