package transcribe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"reelscript/internal/logging"
	"reelscript/internal/media/ffprobe"
	"reelscript/internal/reel"
	"reelscript/internal/services"
	"reelscript/internal/testsupport"
)

type fakeDownloader struct {
	videoErr   error
	audioErr   error
	block      bool
	blockVideo bool
}

func (f fakeDownloader) Download(ctx context.Context, r reel.Reel, dir string, kind Kind) (string, error) {
	if f.block || (f.blockVideo && kind == KindVideo) {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if kind == KindVideo && f.videoErr != nil {
		return "", f.videoErr
	}
	if kind == KindAudio && f.audioErr != nil {
		return "", f.audioErr
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, string(kind)+".mp4")
	return path, os.WriteFile(path, []byte("media"), 0o644)
}

type fakeProber struct {
	result ffprobe.Result
	err    error
}

func (f fakeProber) Inspect(context.Context, string) (ffprobe.Result, error) {
	return f.result, f.err
}

func withFakeSpeech(f fakeSpeech) Option {
	return func(t *Transcriber) {
		WithExtractor(f)(t)
		WithRecognizer(f, "fake")(t)
	}
}

type fakeSpeech struct {
	text string
	err  error
}

func (f fakeSpeech) ExtractAudio(context.Context, string, string) error { return nil }

func (f fakeSpeech) Recognize(context.Context, string, string) (string, error) {
	return f.text, f.err
}

var withAudio = ffprobe.Result{Streams: []ffprobe.Stream{{CodecType: "video"}, {CodecType: "audio"}}}

func newTestTranscriber(t *testing.T, opts ...Option) *Transcriber {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	return New(cfg, logging.NewNop(), opts...)
}

func TestTranscribeSuccess(t *testing.T) {
	tr := newTestTranscriber(t,
		WithDownloader(fakeDownloader{}),
		WithProber(fakeProber{result: withAudio}),
		withFakeSpeech(fakeSpeech{text: "  hello world  "}),
	)
	res, err := tr.Transcribe(context.Background(), reel.Reel{ID: "abc"}, false)
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if res.Transcript != "hello world" {
		t.Fatalf("unexpected transcript %q", res.Transcript)
	}
	if res.LocalVideoPath != "" {
		t.Fatalf("expected no video path, got %q", res.LocalVideoPath)
	}
}

func TestTranscribeNoAudioStream(t *testing.T) {
	tr := newTestTranscriber(t,
		WithDownloader(fakeDownloader{}),
		WithProber(fakeProber{result: ffprobe.Result{Streams: []ffprobe.Stream{{CodecType: "video"}}}}),
		withFakeSpeech(fakeSpeech{text: "unused"}),
	)
	_, err := tr.Transcribe(context.Background(), reel.Reel{ID: "silent"}, false)
	if !errors.Is(err, services.ErrAudioUnavailable) {
		t.Fatalf("expected audio unavailable, got %v", err)
	}
}

func TestTranscribeSpeechFailure(t *testing.T) {
	tr := newTestTranscriber(t,
		WithDownloader(fakeDownloader{}),
		WithProber(fakeProber{result: withAudio}),
		withFakeSpeech(fakeSpeech{err: errors.New("cuda oom")}),
	)
	_, err := tr.Transcribe(context.Background(), reel.Reel{ID: "x"}, false)
	if !errors.Is(err, services.ErrTranscriptionFailed) {
		t.Fatalf("expected transcription failed, got %v", err)
	}

	tr = newTestTranscriber(t,
		WithDownloader(fakeDownloader{}),
		WithProber(fakeProber{result: withAudio}),
		withFakeSpeech(fakeSpeech{text: "   "}),
	)
	if _, err := tr.Transcribe(context.Background(), reel.Reel{ID: "x"}, false); !errors.Is(err, services.ErrTranscriptionFailed) {
		t.Fatalf("expected empty transcript to fail, got %v", err)
	}
}

func TestVideoFailureDoesNotBlockTranscript(t *testing.T) {
	tr := newTestTranscriber(t,
		WithDownloader(fakeDownloader{videoErr: errors.New("cdn 500")}),
		WithProber(fakeProber{result: withAudio}),
		withFakeSpeech(fakeSpeech{text: "still here"}),
	)
	res, err := tr.Transcribe(context.Background(), reel.Reel{ID: "v"}, true)
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if res.Transcript != "still here" || res.LocalVideoPath != "" {
		t.Fatalf("unexpected result %#v", res)
	}
}

func TestHangingVideoDoesNotHoldTranscript(t *testing.T) {
	tr := newTestTranscriber(t,
		WithDownloader(fakeDownloader{blockVideo: true}),
		WithProber(fakeProber{result: withAudio}),
		withFakeSpeech(fakeSpeech{text: "ready"}),
		WithVideoGrace(50*time.Millisecond),
	)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	started := time.Now()
	res, err := tr.Transcribe(ctx, reel.Reel{ID: "cdn-stall"}, true)
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if elapsed := time.Since(started); elapsed > 2*time.Second {
		t.Fatalf("transcript waited %v on the video download", elapsed)
	}
	if res.Transcript != "ready" || res.LocalVideoPath != "" {
		t.Fatalf("unexpected result %#v", res)
	}
}

func TestNeedVideoReturnsLocalPath(t *testing.T) {
	tr := newTestTranscriber(t,
		WithDownloader(fakeDownloader{}),
		WithProber(fakeProber{result: withAudio}),
		withFakeSpeech(fakeSpeech{text: "ok"}),
	)
	res, err := tr.Transcribe(context.Background(), reel.Reel{ID: "v2"}, true)
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if !strings.HasSuffix(res.LocalVideoPath, filepath.Join("v2", "video.mp4")) {
		t.Fatalf("unexpected video path %q", res.LocalVideoPath)
	}
	if _, err := os.Stat(res.LocalVideoPath); err != nil {
		t.Fatalf("video file missing: %v", err)
	}
}

func TestTranscribeTimeout(t *testing.T) {
	tr := newTestTranscriber(t,
		WithDownloader(fakeDownloader{block: true}),
		WithProber(fakeProber{result: withAudio}),
		withFakeSpeech(fakeSpeech{text: "never"}),
	)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := tr.Transcribe(ctx, reel.Reel{ID: "slow"}, false)
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if services.FailureReason(err) != "timeout" {
		t.Fatalf("unexpected failure reason %q", services.FailureReason(err))
	}
}

func TestMediaDownloaderHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.m4a" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("fake-audio-bytes"))
	}))
	defer srv.Close()

	dl := NewMediaDownloader(srv.Client(), "", nil)
	dir := t.TempDir()
	path, err := dl.Download(context.Background(), reel.Reel{AudioURL: srv.URL + "/a.m4a?sig=1"}, dir, KindAudio)
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if filepath.Base(path) != "audio.m4a" {
		t.Fatalf("unexpected path %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "fake-audio-bytes" {
		t.Fatalf("unexpected content %q err=%v", data, err)
	}

	if _, err := dl.Download(context.Background(), reel.Reel{AudioURL: srv.URL + "/missing.m4a"}, dir, KindAudio); !errors.Is(err, errNoMedia) {
		t.Fatalf("expected errNoMedia for 404, got %v", err)
	}
	if _, err := dl.Download(context.Background(), reel.Reel{}, dir, KindAudio); !errors.Is(err, errNoMedia) {
		t.Fatalf("expected errNoMedia without sources, got %v", err)
	}
}

func TestMediaDownloaderYTDLPFallback(t *testing.T) {
	var gotArgs []string
	run := func(ctx context.Context, name string, args ...string) error {
		gotArgs = append([]string{name}, args...)
		for i, arg := range args {
			if arg == "-o" {
				out := strings.ReplaceAll(args[i+1], "%(ext)s", "webm")
				return os.WriteFile(out, []byte("x"), 0o644)
			}
		}
		return errors.New("no -o flag")
	}
	dl := NewMediaDownloader(nil, "/usr/bin/yt-dlp", run)
	path, err := dl.Download(context.Background(), reel.Reel{Permalink: "https://www.instagram.com/reel/xyz/"}, t.TempDir(), KindAudio)
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if filepath.Base(path) != "audio.webm" {
		t.Fatalf("unexpected path %q", path)
	}
	if gotArgs[0] != "/usr/bin/yt-dlp" || gotArgs[len(gotArgs)-1] != "https://www.instagram.com/reel/xyz/" {
		t.Fatalf("unexpected yt-dlp args %v", gotArgs)
	}
	if !slices.Contains(gotArgs, mobileUserAgent) {
		t.Fatalf("expected the Instagram user agent in %v", gotArgs)
	}
}

func TestMediaDownloaderUsesPlatformUserAgent(t *testing.T) {
	var agent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("bytes"))
	}))
	defer srv.Close()

	dl := NewMediaDownloader(srv.Client(), "", nil)
	cases := []struct {
		permalink string
		want      string
	}{
		{"https://www.tiktok.com/@a/video/123", mobileUserAgent},
		{"https://www.instagram.com/reel/abc/", mobileUserAgent},
		{"https://www.youtube.com/shorts/xyz", desktopUserAgent},
	}
	for _, tc := range cases {
		r := reel.Reel{Permalink: tc.permalink, AudioURL: srv.URL + "/a.m4a"}
		if _, err := dl.Download(context.Background(), r, t.TempDir(), KindAudio); err != nil {
			t.Fatalf("Download(%s) failed: %v", tc.permalink, err)
		}
		if agent != tc.want {
			t.Fatalf("%s: user agent %q, want %q", tc.permalink, agent, tc.want)
		}
	}
}

func TestMockTranscriber(t *testing.T) {
	res, err := Mock{}.Transcribe(context.Background(), reel.Reel{ID: "m", Caption: "morning study"}, false)
	if err != nil {
		t.Fatalf("Mock.Transcribe failed: %v", err)
	}
	if !strings.Contains(res.Transcript, "morning study") {
		t.Fatalf("expected caption in transcript, got %q", res.Transcript)
	}
}

func TestSafeName(t *testing.T) {
	if got := safeName("../a b/c"); got != "a_b_c" {
		t.Fatalf("safeName = %q", got)
	}
	if got := safeName("///"); got != "reel" {
		t.Fatalf("safeName fallback = %q", got)
	}
}
