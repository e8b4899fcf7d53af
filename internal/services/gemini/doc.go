// Package gemini adapts the Google Gen AI SDK to the JSON completion
// contract used by the audience labeler.
package gemini
