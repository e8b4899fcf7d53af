package services_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"reelscript/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "transcribe", "ffmpeg", "extract failed", base)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"transcribe", "ffmpeg", "extract failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected default detail, got %q", err)
	}
}

func TestItemFailureClassification(t *testing.T) {
	cases := []struct {
		err    error
		item   bool
		reason string
	}{
		{services.Wrap(services.ErrAudioUnavailable, "transcribe", "probe", "no audio stream", nil), true, "audio_unavailable"},
		{services.Wrap(services.ErrTranscriptionFailed, "transcribe", "whisperx", "", errors.New("exit 1")), true, "transcription_failed"},
		{services.Wrap(services.ErrInsufficientComments, "audience", "analyze", "2 comments", nil), true, "insufficient_comments"},
		{fmt.Errorf("download: %w", context.DeadlineExceeded), true, "timeout"},
		{services.Wrap(services.ErrScrapeBlocked, "fetch", "tag page", "login wall", nil), false, "error"},
	}
	for _, tc := range cases {
		if got := services.IsItemFailure(tc.err); got != tc.item {
			t.Fatalf("IsItemFailure(%v) = %v, want %v", tc.err, got, tc.item)
		}
		if got := services.FailureReason(tc.err); got != tc.reason {
			t.Fatalf("FailureReason(%v) = %q, want %q", tc.err, got, tc.reason)
		}
	}
	if services.FailureReason(nil) != "" {
		t.Fatal("expected empty reason for nil error")
	}
}

func TestHTTPStatusAndExitCode(t *testing.T) {
	blocked := services.Wrap(services.ErrScrapeBlocked, "fetch", "reel page", "captcha", nil)
	if got := services.HTTPStatus(blocked); got != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for blocked scrape, got %d", got)
	}
	if got := services.ExitCode(blocked); got != services.ExitScrapeBlocked {
		t.Fatalf("expected blocked exit code, got %d", got)
	}
	invalid := services.Wrap(services.ErrInvalidTargetFilter, "generator", "target", "bad age", nil)
	if got := services.HTTPStatus(invalid); got != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid target, got %d", got)
	}
	if got := services.ExitCode(invalid); got != services.ExitFailure {
		t.Fatalf("expected generic failure exit code, got %d", got)
	}
	if services.ExitCode(nil) != services.ExitOK {
		t.Fatal("expected zero exit code for nil error")
	}
}
