// Package ffprobe inspects downloaded reel media with ffprobe.
//
// The transcriber uses it to tell a missing audio track apart from a
// transcription failure before any speech-to-text work starts.
package ffprobe
