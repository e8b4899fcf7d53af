// Package language normalizes spoken-language settings for transcription.
//
// Codes are parsed with golang.org/x/text/language, so BCP 47 tags ("ja-JP"),
// ISO 639-2 codes ("jpn") and a handful of English names ("japanese") all
// collapse to the ISO 639-1 code WhisperX expects.
package language
