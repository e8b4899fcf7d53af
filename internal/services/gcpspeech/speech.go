package gcpspeech

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"reelscript/internal/language"
)

// Sample format produced by the ffmpeg extraction step.
const (
	sampleRateHertz = 16000
	channelCount    = 1
	maxAttempts     = 4
)

// Service wraps a Speech-to-Text client.
type Service struct {
	client *speech.Client
	model  string
}

// New dials the Speech-to-Text API.
func New(ctx context.Context, model string) (*Service, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}
	return &Service{client: client, model: strings.TrimSpace(model)}, nil
}

// Close releases the underlying connection.
func (s *Service) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

// Recognize transcribes a mono 16kHz LINEAR16 WAV file.
func (s *Service) Recognize(ctx context.Context, wavPath, lang string) (string, error) {
	audio, err := os.ReadFile(wavPath)
	if err != nil {
		return "", fmt.Errorf("read audio: %w", err)
	}
	if len(audio) == 0 {
		return "", errors.New("read audio: empty file")
	}
	req := BuildRequest(audio, lang, s.model)

	var resp *speechpb.LongRunningRecognizeResponse
	delay := 500 * time.Millisecond
	for attempt := 1; ; attempt++ {
		resp, err = s.recognizeOnce(ctx, req)
		if err == nil {
			break
		}
		if attempt >= maxAttempts || !Retryable(err) {
			return "", fmt.Errorf("speech recognize: %w", err)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return JoinResults(resp), nil
}

func (s *Service) recognizeOnce(ctx context.Context, req *speechpb.LongRunningRecognizeRequest) (*speechpb.LongRunningRecognizeResponse, error) {
	op, err := s.client.LongRunningRecognize(ctx, req)
	if err != nil {
		return nil, err
	}
	return op.Wait(ctx)
}

// BuildRequest assembles an inline-audio recognition request.
func BuildRequest(audio []byte, lang, model string) *speechpb.LongRunningRecognizeRequest {
	code := language.BCP47(lang)
	if code == "" {
		code = "en-US"
	}
	return &speechpb.LongRunningRecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:            sampleRateHertz,
			AudioChannelCount:          channelCount,
			LanguageCode:               code,
			Model:                      model,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	}
}

// JoinResults concatenates the top alternative of each result.
func JoinResults(resp *speechpb.LongRunningRecognizeResponse) string {
	if resp == nil {
		return ""
	}
	parts := make([]string, 0, len(resp.GetResults()))
	for _, result := range resp.GetResults() {
		alts := result.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		if text := strings.TrimSpace(alts[0].GetTranscript()); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// Retryable reports whether a gRPC failure is worth another attempt.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.ResourceExhausted, codes.Aborted, codes.Internal, codes.DeadlineExceeded:
		return true
	default:
		return false
	}
}
