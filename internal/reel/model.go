package reel

import (
	"strings"
	"time"
)

// Comment is a single scraped comment on a reel.
type Comment struct {
	ID     string `json:"id"`
	Author string `json:"author,omitempty"`
	Text   string `json:"text"`
}

// AudienceLabel is the inferred audience of a reel.
type AudienceLabel struct {
	Age      string `json:"age,omitempty"`
	Gender   string `json:"gender,omitempty"`
	Interest string `json:"interest,omitempty"`
}

// IsZero reports whether no dimension of the label is populated.
func (l AudienceLabel) IsZero() bool {
	return strings.TrimSpace(l.Age) == "" &&
		strings.TrimSpace(l.Gender) == "" &&
		strings.TrimSpace(l.Interest) == ""
}

// String renders the label as age/gender/interest with "-" for unknown parts.
func (l AudienceLabel) String() string {
	part := func(v string) string {
		if strings.TrimSpace(v) == "" {
			return "-"
		}
		return v
	}
	return part(l.Age) + "/" + part(l.Gender) + "/" + part(l.Interest)
}

// Reel is a scraped short-form video item.
//
// The fetcher populates identity and counts. The transcriber owns Transcript
// and LocalVideoPath; the audience analyzer owns Audience. A reel becomes
// usable once both Transcript and Audience are set.
type Reel struct {
	ID             string        `json:"id"`
	Permalink      string        `json:"permalink"`
	Keyword        string        `json:"keyword,omitempty"`
	Caption        string        `json:"caption,omitempty"`
	LikeCount      int64         `json:"like_count"`
	CommentCount   int64         `json:"comment_count"`
	ViewCount      int64         `json:"view_count"`
	AudioURL       string        `json:"audio_url,omitempty"`
	VideoURL       string        `json:"video_url,omitempty"`
	LocalVideoPath string        `json:"local_video_path,omitempty"`
	Transcript     string        `json:"transcript,omitempty"`
	Audience       AudienceLabel `json:"audience_label"`
	PostedAt       time.Time     `json:"posted_at,omitempty"`
	ScrapedAt      time.Time     `json:"scraped_at"`

	// Failure reasons recorded when a stage leaves the reel unusable.
	TranscriptError string `json:"transcript_error,omitempty"`
	AudienceError   string `json:"audience_error,omitempty"`
}

// Usable reports whether the reel can feed script composition.
func (r Reel) Usable() bool {
	return strings.TrimSpace(r.Transcript) != "" && !r.Audience.IsZero()
}

// EngagementStats is a read-only view over a reel's counts.
type EngagementStats struct {
	Likes    int64   `json:"likes"`
	Comments int64   `json:"comments"`
	Views    int64   `json:"views"`
	Score    float64 `json:"score"`
}

// SectionType names the role of a script section.
type SectionType string

const (
	SectionHook       SectionType = "hook"
	SectionIntro      SectionType = "intro"
	SectionMain       SectionType = "main"
	SectionCTA        SectionType = "cta"
	SectionConclusion SectionType = "conclusion"
)

// ValidSectionType reports whether t is a known section role.
func ValidSectionType(t SectionType) bool {
	switch t {
	case SectionHook, SectionIntro, SectionMain, SectionCTA, SectionConclusion:
		return true
	default:
		return false
	}
}

// ScriptSection is one ordered part of a script.
type ScriptSection struct {
	Type            SectionType `json:"type"`
	Content         string      `json:"content"`
	DurationSeconds int         `json:"duration_seconds,omitempty"`
	SourceReelID    string      `json:"source_reel_id,omitempty"`
}

// Script is a generated script variant.
type Script struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Style        string          `json:"style"`
	Sections     []ScriptSection `json:"sections"`
	Engagement   EngagementStats `json:"engagement_stats"`
	SourceReelID string          `json:"source_reel_id,omitempty"`
	// StructureMatch compares the script's shape with its source transcript (0..1).
	StructureMatch float64 `json:"structure_match,omitempty"`
	// Patterns lists the engagement patterns detected in the source transcript.
	Patterns []string `json:"patterns,omitempty"`
	// Fallback marks generic content produced without a source reel.
	Fallback bool `json:"fallback,omitempty"`
}

// TotalDuration sums the recommended section durations.
func (s Script) TotalDuration() int {
	total := 0
	for _, section := range s.Sections {
		total += section.DurationSeconds
	}
	return total
}
