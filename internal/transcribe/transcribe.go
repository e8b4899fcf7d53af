package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"reelscript/internal/config"
	"reelscript/internal/logging"
	"reelscript/internal/media/ffprobe"
	"reelscript/internal/reel"
	"reelscript/internal/services"
	"reelscript/internal/services/whisperx"
)

// Result carries the fields the transcriber owns on a reel.
type Result struct {
	Transcript     string
	LocalVideoPath string
}

// Prober inspects local media.
type Prober interface {
	Inspect(ctx context.Context, path string) (ffprobe.Result, error)
}

// AudioExtractor normalizes media into mono 16kHz PCM WAV.
type AudioExtractor interface {
	ExtractAudio(ctx context.Context, source, dest string) error
}

// Recognizer converts a normalized WAV file to text.
type Recognizer interface {
	Recognize(ctx context.Context, wavPath, lang string) (string, error)
}

// DefaultVideoGrace is how long a finished transcript waits for a concurrent
// video download before the video is abandoned.
const DefaultVideoGrace = 5 * time.Second

// Transcriber downloads, probes and transcribes reel audio.
type Transcriber struct {
	videoGrace time.Duration
	downloader Downloader
	prober     Prober
	extractor  AudioExtractor
	recognizer Recognizer
	provider   string
	mediaDir   string
	language   string
	logger     *slog.Logger
}

// Option customizes a Transcriber.
type Option func(*Transcriber)

// WithDownloader replaces the media downloader.
func WithDownloader(d Downloader) Option {
	return func(t *Transcriber) { t.downloader = d }
}

// WithVideoGrace bounds how long Transcribe waits for the video once the
// transcript is ready.
func WithVideoGrace(d time.Duration) Option {
	return func(t *Transcriber) { t.videoGrace = d }
}

// WithProber replaces the ffprobe inspector.
func WithProber(p Prober) Option {
	return func(t *Transcriber) { t.prober = p }
}

// WithExtractor replaces the ffmpeg audio extractor.
func WithExtractor(e AudioExtractor) Option {
	return func(t *Transcriber) { t.extractor = e }
}

// WithRecognizer replaces the speech-to-text backend.
func WithRecognizer(r Recognizer, provider string) Option {
	return func(t *Transcriber) {
		t.recognizer = r
		t.provider = provider
	}
}

// New builds a Transcriber from configuration. WhisperX always performs audio
// extraction; recognition uses WhisperX unless a different Recognizer is given.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Transcriber {
	tc := cfg.Transcription
	whisper := whisperx.NewService(whisperx.Config{
		Model:        tc.Model,
		CUDAEnabled:  tc.CUDAEnabled,
		VADMethod:    tc.VADMethod,
		HFToken:      tc.HuggingFace,
		UVXBinary:    tc.UVXBinary,
		FFmpegBinary: tc.FFmpegBinary,
	})
	t := &Transcriber{
		videoGrace: DefaultVideoGrace,
		downloader: NewMediaDownloader(nil, tc.YTDLPBinary, execRunner),
		prober:     ffprobe.New(tc.FFprobeBinary),
		extractor:  whisper,
		recognizer: whisper,
		provider:   config.ProviderWhisperX,
		mediaDir:   cfg.Paths.MediaDir,
		language:   tc.Language,
		logger:     logging.NewComponentLogger(logger, "transcribe"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transcribe produces the transcript for r. When needVideo is set the full
// video is fetched concurrently. The video never holds back the result: a
// failed download is logged, and one still running after the transcript plus
// the video grace period is cancelled and its path left empty.
func (t *Transcriber) Transcribe(ctx context.Context, r reel.Reel, needVideo bool) (Result, error) {
	ctx = services.WithStage(services.WithReelID(ctx, r.ID), "transcribe")
	logger := logging.WithContext(ctx, t.logger)

	dir := filepath.Join(t.mediaDir, safeName(r.ID))
	workDir := filepath.Join(dir, "work")
	defer os.RemoveAll(workDir)

	var videoDone chan string
	videoCtx, cancelVideo := context.WithCancel(ctx)
	defer cancelVideo()
	if needVideo {
		videoDone = make(chan string, 1)
		go func() {
			path, err := t.downloader.Download(videoCtx, r, dir, KindVideo)
			if err != nil {
				if videoCtx.Err() == nil {
					logging.WarnWithContext(logger, "video download failed", "video_unavailable",
						logging.Error(err),
						logging.String(logging.FieldImpact, "transcript unaffected; local video path left empty"),
					)
				}
				path = ""
			}
			videoDone <- path
		}()
	}

	transcript, err := t.transcribeAudio(ctx, r, workDir)
	if err != nil {
		return Result{}, err
	}
	videoPath := t.awaitVideo(ctx, logger, videoDone)
	logger.Info("transcript ready",
		logging.Int("chars", len([]rune(transcript))),
		logging.Bool("video", videoPath != ""),
	)
	return Result{Transcript: transcript, LocalVideoPath: videoPath}, nil
}

// awaitVideo returns the downloaded video path, or "" when no download was
// started or it did not finish within the grace period.
func (t *Transcriber) awaitVideo(ctx context.Context, logger *slog.Logger, videoDone <-chan string) string {
	if videoDone == nil {
		return ""
	}
	timer := time.NewTimer(t.videoGrace)
	defer timer.Stop()
	select {
	case path := <-videoDone:
		return path
	case <-timer.C:
	case <-ctx.Done():
	}
	logging.WarnWithContext(logger, "video download still running; abandoning it", "video_abandoned",
		logging.Duration("grace", t.videoGrace),
		logging.String(logging.FieldImpact, "transcript stored without a local video path"),
	)
	return ""
}

func (t *Transcriber) transcribeAudio(ctx context.Context, r reel.Reel, workDir string) (string, error) {
	source, err := t.downloader.Download(ctx, r, workDir, KindAudio)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", services.Wrap(services.ErrTimeout, "transcribe", "download", "media download interrupted", ctxErr)
		}
		if errors.Is(err, errNoMedia) {
			return "", services.Wrap(services.ErrAudioUnavailable, "transcribe", "download", "no media for reel", err)
		}
		return "", services.Wrap(services.ErrAudioUnavailable, "transcribe", "download", "media download failed", err)
	}

	probe, err := t.prober.Inspect(ctx, source)
	if err != nil {
		return "", services.Wrap(services.ErrAudioUnavailable, "transcribe", "probe", "unreadable media", err)
	}
	if !probe.HasAudio() {
		return "", services.Wrap(services.ErrAudioUnavailable, "transcribe", "probe", "media has no audio stream", nil)
	}

	wav := filepath.Join(workDir, "audio.wav")
	if err := t.extractor.ExtractAudio(ctx, source, wav); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", services.Wrap(services.ErrTimeout, "transcribe", "extract", "audio extraction interrupted", ctxErr)
		}
		return "", services.Wrap(services.ErrAudioUnavailable, "transcribe", "extract", "audio extraction failed", err)
	}

	raw, err := t.recognizer.Recognize(ctx, wav, t.language)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", services.Wrap(services.ErrTimeout, "transcribe", t.provider, "transcription interrupted", ctxErr)
		}
		return "", services.Wrap(services.ErrTranscriptionFailed, "transcribe", t.provider, "speech-to-text failed", err)
	}
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", services.Wrap(services.ErrTranscriptionFailed, "transcribe", t.provider, "empty transcript", nil)
	}
	return text, nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

func safeName(id string) string {
	cleaned := strings.Trim(unsafeChars.ReplaceAllString(id, "_"), "_")
	if cleaned == "" {
		return "reel"
	}
	return cleaned
}

func execRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
