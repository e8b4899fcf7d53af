// Package llm provides an OpenRouter chat client that returns JSON payloads.
//
// The audience analyzer's llm labeler sends cluster summaries through
// CompleteJSON and decodes the reply with DecodeJSON, which tolerates code
// fences and prose around the object. HealthCheck backs `reelscript doctor`.
//
// Requests are retried on 408, 429, 5xx and network timeouts with exponential
// backoff (1s base, 10s cap, 5 attempts by default). Retry-After is honoured.
// Context cancellation stops retries immediately.
package llm
