package reel_test

import (
	"errors"
	"testing"

	"reelscript/internal/reel"
	"reelscript/internal/services"
)

func TestUsableRequiresTranscriptAndAudience(t *testing.T) {
	r := reel.Reel{ID: "a"}
	if r.Usable() {
		t.Fatal("bare reel should not be usable")
	}
	r.Transcript = "hello"
	if r.Usable() {
		t.Fatal("reel without audience should not be usable")
	}
	r.Audience = reel.AudienceLabel{Interest: "study"}
	if !r.Usable() {
		t.Fatal("reel with transcript and audience should be usable")
	}
	r.Transcript = "   "
	if r.Usable() {
		t.Fatal("whitespace transcript should not count")
	}
}

func TestParseAgeRange(t *testing.T) {
	cases := []struct {
		in      string
		want    reel.AgeRange
		wantErr bool
	}{
		{"18-24", reel.AgeRange{Min: 18, Max: 24}, false},
		{" 25 - 34 ", reel.AgeRange{Min: 25, Max: 34}, false},
		{"45+", reel.AgeRange{Min: 45, Max: reel.MaxAge}, false},
		{"30", reel.AgeRange{Min: 30, Max: 30}, false},
		{"24-18", reel.AgeRange{}, true},
		{"teen", reel.AgeRange{}, true},
		{"", reel.AgeRange{}, true},
	}
	for _, tc := range cases {
		got, err := reel.ParseAgeRange(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseAgeRange(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseAgeRange(%q) error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseAgeRange(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestTargetMatchesOnOverlapAndEquality(t *testing.T) {
	target := reel.TargetAudience{Age: "18-24", Interest: "Study"}
	cases := []struct {
		label reel.AudienceLabel
		want  bool
	}{
		{reel.AudienceLabel{Age: "18-24", Interest: "study"}, true},
		{reel.AudienceLabel{Age: "18-34", Gender: "female", Interest: "study"}, true},
		{reel.AudienceLabel{Age: "35-44", Interest: "finance"}, false},
		{reel.AudienceLabel{Age: "25-34", Interest: "study"}, false},
		{reel.AudienceLabel{Interest: "study"}, false},
	}
	for _, tc := range cases {
		if got := target.Matches(tc.label); got != tc.want {
			t.Fatalf("Matches(%s) = %v, want %v", tc.label, got, tc.want)
		}
	}
	if !(reel.TargetAudience{}).Matches(reel.AudienceLabel{Age: "45+"}) {
		t.Fatal("empty target should match any label")
	}
	if !(reel.TargetAudience{Gender: "female"}).Matches(reel.AudienceLabel{Gender: "mixed"}) {
		t.Fatal("mixed label should satisfy a gender filter")
	}
}

func TestTargetValidateRejectsMalformedFields(t *testing.T) {
	for _, target := range []reel.TargetAudience{
		{Age: "old"},
		{Gender: "robot"},
		{Interest: "study; DROP TABLE"},
	} {
		err := target.Validate()
		if !errors.Is(err, services.ErrInvalidTargetFilter) {
			t.Fatalf("Validate(%+v) = %v, want invalid target filter", target, err)
		}
	}
	if err := (reel.TargetAudience{Age: "18-24", Gender: "Female", Interest: "study"}).Validate(); err != nil {
		t.Fatalf("expected valid target, got %v", err)
	}
}

func TestTargetMergeKeepsExplicitFields(t *testing.T) {
	merged := reel.TargetAudience{Interest: "tech"}.Merge(reel.TargetAudience{Age: "18-34", Interest: "food"})
	if merged.Age != "18-34" || merged.Interest != "tech" {
		t.Fatalf("unexpected merge result: %+v", merged)
	}
}

func TestParseCount(t *testing.T) {
	cases := map[string]int64{
		"1,234":       1234,
		"1.5K":        1500,
		"2m":          2_000_000,
		"3B views":    3_000_000_000,
		"12 likes":    12,
		"":            0,
		"no digits":   0,
		"1.2 K plays": 1200,
		"12 books":    12,
	}
	for in, want := range cases {
		if got := reel.ParseCount(in); got != want {
			t.Fatalf("ParseCount(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestScriptTotalDuration(t *testing.T) {
	s := reel.Script{Sections: []reel.ScriptSection{{DurationSeconds: 5}, {DurationSeconds: 20}, {}}}
	if s.TotalDuration() != 25 {
		t.Fatalf("expected 25 seconds, got %d", s.TotalDuration())
	}
}

func TestVideoIDPerPlatform(t *testing.T) {
	cases := []struct {
		url      string
		platform reel.Platform
		id       string
		ok       bool
	}{
		{"https://www.instagram.com/reel/C1a_b-2/?igsh=x", reel.PlatformInstagram, "C1a_b-2", true},
		{"https://instagram.com/p/XYZ/", reel.PlatformInstagram, "XYZ", true},
		{"https://www.tiktok.com/@someone/video/7312345678901234567", reel.PlatformTikTok, "7312345678901234567", true},
		{"https://www.youtube.com/shorts/abcDEF12345", reel.PlatformYouTube, "abcDEF12345", true},
		{"https://www.youtube.com/watch?v=abcDEF12345&t=3", reel.PlatformYouTube, "abcDEF12345", true},
		{"https://youtu.be/abcDEF12345", reel.PlatformYouTube, "abcDEF12345", true},
		{"https://www.tiktok.com/@someone", reel.PlatformTikTok, "", false},
		{"https://notinstagram.com/reel/abc/", "", "", false},
		{"://bad", "", "", false},
	}
	for _, tc := range cases {
		p, id, ok := reel.VideoID(tc.url)
		if p != tc.platform || id != tc.id || ok != tc.ok {
			t.Fatalf("VideoID(%q) = %q, %q, %v; want %q, %q, %v", tc.url, p, id, ok, tc.platform, tc.id, tc.ok)
		}
	}
}
