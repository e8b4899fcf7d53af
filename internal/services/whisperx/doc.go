// Package whisperx runs speech-to-text for reel audio.
//
// Audio is first normalized with ffmpeg into mono 16kHz PCM, then handed to
// WhisperX through uvx. The JSON output is read back and flattened into a
// single transcript string. WithCommandRunner replaces process execution in
// tests.
package whisperx
