// Package transcribe turns a reel's audio into transcript text.
//
// Media comes from the reel's direct audio or video URL, or from yt-dlp
// against the permalink when the scrape found no media URL. The file is
// probed with ffprobe, reduced to mono 16kHz PCM with ffmpeg and transcribed
// by WhisperX. Missing or unreadable audio fails with ErrAudioUnavailable;
// speech-to-text failures fail with ErrTranscriptionFailed. Both only make
// the single reel unusable.
//
// When the caller asks for video, the full video is downloaded alongside
// the audio work. A video failure is logged and never blocks the transcript.
package transcribe
