package whisperx

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestTranscribeReadsJSONOutput(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "reel.wav")

	svc := NewService(Config{Model: "small"})
	var calls [][]string
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		calls = append(calls, append([]string{name}, args...))
		out := filepath.Join(dir, "out", "reel.json")
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return err
		}
		body := `{"segments":[{"text":" 朝のルーティン "},{"text":""},{"text":"勉強を始めます"}]}`
		return os.WriteFile(out, []byte(body), 0o644)
	})

	result, err := svc.Transcribe(context.Background(), source, filepath.Join(dir, "out"), "japanese")
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if result.Text != "朝のルーティン 勉強を始めます" {
		t.Fatalf("unexpected text %q", result.Text)
	}
	if len(calls) != 1 || calls[0][0] != "uvx" {
		t.Fatalf("expected one uvx call, got %v", calls)
	}
	args := calls[0]
	if idx := slices.Index(args, "--language"); idx < 0 || args[idx+1] != "ja" {
		t.Fatalf("expected --language ja in %v", args)
	}
	if idx := slices.Index(args, "--model"); idx < 0 || args[idx+1] != "small" {
		t.Fatalf("expected --model small in %v", args)
	}
	if !slices.Contains(args, CPUDevice) {
		t.Fatalf("expected cpu device in %v", args)
	}
}

func TestTranscribeMissingOutputFails(t *testing.T) {
	svc := NewService(Config{})
	svc.WithCommandRunner(func(context.Context, string, ...string) error { return nil })
	if _, err := svc.Transcribe(context.Background(), filepath.Join(t.TempDir(), "a.wav"), "", "en"); err == nil {
		t.Fatal("expected error when whisperx writes no json")
	}
}

func TestExtractAudioArgs(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(Config{FFmpegBinary: "/opt/ffmpeg"})
	var got []string
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		got = append([]string{name}, args...)
		return nil
	})
	if err := svc.ExtractAudio(context.Background(), "in.mp4", filepath.Join(dir, "x", "out.wav")); err != nil {
		t.Fatalf("ExtractAudio failed: %v", err)
	}
	joined := strings.Join(got, " ")
	for _, want := range []string{"/opt/ffmpeg", "-map 0:a:0", "-ac 1", "-ar 16000", "pcm_s16le"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q in %q", want, joined)
		}
	}
}

func TestPyannoteAddsToken(t *testing.T) {
	svc := NewService(Config{VADMethod: VADMethodPyannote, HFToken: "hf_x", CUDAEnabled: true})
	args := svc.buildArgs("a.wav", "out", "")
	if idx := slices.Index(args, "--hf_token"); idx < 0 || args[idx+1] != "hf_x" {
		t.Fatalf("expected hf token in %v", args)
	}
	if slices.Contains(args, "--language") {
		t.Fatalf("empty language should not emit --language: %v", args)
	}
	if idx := slices.Index(args, "--device"); idx < 0 || args[idx+1] != CUDADevice {
		t.Fatalf("expected cuda device in %v", args)
	}
}

func TestRecognizeWritesNextToSource(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "audio.wav")
	svc := NewService(Config{})
	svc.WithCommandRunner(func(context.Context, string, ...string) error {
		return os.WriteFile(filepath.Join(dir, "audio.json"), []byte(`{"segments":[{"text":"hi"},{"text":"there"}]}`), 0o644)
	})
	text, err := svc.Recognize(context.Background(), source, "en")
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if text != "hi there" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestDefaultsApplied(t *testing.T) {
	svc := NewService(Config{})
	if svc.Model() != DefaultModel {
		t.Fatalf("expected default model, got %q", svc.Model())
	}
	args := svc.buildArgs("a.wav", "out", "en")
	if idx := slices.Index(args, "--vad_method"); idx < 0 || args[idx+1] != VADMethodSilero {
		t.Fatalf("expected silero vad in %v", args)
	}
	if slices.Contains(args, "--hf_token") {
		t.Fatalf("silero must not pass a token: %v", args)
	}
}
