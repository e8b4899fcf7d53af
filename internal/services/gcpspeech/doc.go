// Package gcpspeech transcribes normalized reel audio with Google Cloud
// Speech-to-Text. It is the alternative to local WhisperX when
// transcription.provider is "gcp"; credentials come from Application
// Default Credentials.
package gcpspeech
