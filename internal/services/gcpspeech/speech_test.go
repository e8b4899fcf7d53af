package gcpspeech

import (
	"context"
	"errors"
	"testing"

	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestBuildRequest(t *testing.T) {
	req := BuildRequest([]byte{1, 2}, "ja", "latest_short")
	cfg := req.GetConfig()
	if cfg.GetLanguageCode() != "ja-JP" {
		t.Fatalf("unexpected language %q", cfg.GetLanguageCode())
	}
	if cfg.GetEncoding() != speechpb.RecognitionConfig_LINEAR16 || cfg.GetSampleRateHertz() != 16000 {
		t.Fatalf("unexpected audio config %#v", cfg)
	}
	if string(req.GetAudio().GetContent()) != string([]byte{1, 2}) {
		t.Fatal("audio content not inlined")
	}
	if BuildRequest(nil, "", "").GetConfig().GetLanguageCode() != "en-US" {
		t.Fatal("expected en-US fallback")
	}
}

func TestJoinResults(t *testing.T) {
	resp := &speechpb.LongRunningRecognizeResponse{
		Results: []*speechpb.SpeechRecognitionResult{
			{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: " first "}, {Transcript: "ignored"}}},
			{},
			{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: "second"}}},
		},
	}
	if got := JoinResults(resp); got != "first second" {
		t.Fatalf("JoinResults = %q", got)
	}
	if JoinResults(nil) != "" {
		t.Fatal("expected empty for nil response")
	}
}

func TestRetryable(t *testing.T) {
	if !Retryable(status.Error(codes.Unavailable, "down")) {
		t.Fatal("unavailable should retry")
	}
	if Retryable(status.Error(codes.InvalidArgument, "bad")) {
		t.Fatal("invalid argument should not retry")
	}
	if Retryable(context.Canceled) || Retryable(nil) || Retryable(errors.New("plain")) {
		t.Fatal("unexpected retry classification")
	}
}
