package ffprobe

import (
	"context"
	"errors"
	"testing"
)

func fixed(body string, err error) Runner {
	return func(context.Context, string, ...string) ([]byte, error) {
		return []byte(body), err
	}
}

func TestInspectDetectsStreams(t *testing.T) {
	body := `{"streams":[{"index":0,"codec_type":"video","width":720,"height":1280},{"index":1,"codec_type":"audio","codec_name":"aac","channels":2}],"format":{"duration":"29.5"}}`
	result, err := New("").WithRunner(fixed(body, nil)).Inspect(context.Background(), "/tmp/reel.mp4")
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if !result.HasAudio() || !result.HasVideo() {
		t.Fatalf("expected audio and video, got %#v", result)
	}
	if got := result.AudioStreams(); len(got) != 1 || got[0].CodecName != "aac" {
		t.Fatalf("unexpected audio streams %#v", got)
	}
	if result.DurationSeconds() != 29.5 {
		t.Fatalf("unexpected duration %v", result.DurationSeconds())
	}
}

func TestInspectVideoOnly(t *testing.T) {
	body := `{"streams":[{"index":0,"codec_type":"video"}],"format":{"duration":"bad"}}`
	result, err := New("ffprobe").WithRunner(fixed(body, nil)).Inspect(context.Background(), "x.mp4")
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if result.HasAudio() {
		t.Fatal("expected no audio")
	}
	if result.DurationSeconds() != 0 {
		t.Fatalf("expected zero duration, got %v", result.DurationSeconds())
	}
}

func TestInspectErrors(t *testing.T) {
	p := New("").WithRunner(fixed("", errors.New("boom")))
	if _, err := p.Inspect(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty path")
	}
	if _, err := p.Inspect(context.Background(), "x"); err == nil {
		t.Fatal("expected runner error to surface")
	}
	if _, err := New("").WithRunner(fixed("not json", nil)).Inspect(context.Background(), "x"); err == nil {
		t.Fatal("expected parse error")
	}
}
