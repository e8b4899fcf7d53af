package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Ambient markers shared by every component.
var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Pipeline markers. ErrScrapeBlocked is fatal for a batch; the per-item markers
// only ever leave a reel in the unusable state.
var (
	ErrScrapeBlocked        = errors.New("scrape blocked")
	ErrAudioUnavailable     = errors.New("audio unavailable")
	ErrTranscriptionFailed  = errors.New("transcription failed")
	ErrInsufficientComments = errors.New("insufficient comments")
	ErrEmptyPool            = errors.New("empty pool")
	ErrInvalidTargetFilter  = errors.New("invalid target filter")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later status classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsItemFailure reports whether err only disqualifies a single reel.
func IsItemFailure(err error) bool {
	return errors.Is(err, ErrAudioUnavailable) ||
		errors.Is(err, ErrTranscriptionFailed) ||
		errors.Is(err, ErrInsufficientComments) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, context.DeadlineExceeded)
}

// FailureReason returns a stable short code persisted next to unusable reels.
func FailureReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAudioUnavailable):
		return "audio_unavailable"
	case errors.Is(err, ErrTranscriptionFailed):
		return "transcription_failed"
	case errors.Is(err, ErrInsufficientComments):
		return "insufficient_comments"
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrExternalTool):
		return "external_tool"
	default:
		return "error"
	}
}

// HTTPStatus maps an error to the response code the API reports.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidTargetFilter), errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrEmptyPool):
		return http.StatusNotFound
	case errors.Is(err, ErrScrapeBlocked):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Exit codes reported by the CLI.
const (
	ExitOK            = 0
	ExitFailure       = 1
	ExitScrapeBlocked = 2
)

// ExitCode maps a command error to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrScrapeBlocked):
		return ExitScrapeBlocked
	default:
		return ExitFailure
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
