package transcribe

import (
	"context"
	"fmt"
	"strings"

	"reelscript/internal/reel"
	"reelscript/internal/services"
)

// Mock synthesizes transcripts from reel captions without external tools.
// It backs offline mode.
type Mock struct{}

// Transcribe implements the transcriber contract.
func (Mock) Transcribe(ctx context.Context, r reel.Reel, _ bool) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, services.Wrap(services.ErrTimeout, "transcribe", "mock", "canceled", err)
	}
	caption := strings.TrimSpace(r.Caption)
	if caption == "" {
		caption = fmt.Sprintf("%s tips", strings.TrimSpace(r.Keyword))
	}
	text := fmt.Sprintf(
		"Have you ever struggled with %[1]s? Today I'll show you three things that changed everything.\n\n"+
			"First, start small and stay consistent. Second, track what works. Third, share it with a friend.\n\n"+
			"Try it this week and comment your results! Follow for more about %[1]s.",
		caption,
	)
	return Result{Transcript: text}, nil
}
