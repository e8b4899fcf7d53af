package gemini

import (
	"context"
	"strings"
	"testing"
)

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(context.Background(), Config{}); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestBuildPrompt(t *testing.T) {
	got := BuildPrompt(" classify ", " comments ")
	if !strings.HasPrefix(got, "classify") || !strings.HasSuffix(got, "comments") || !strings.Contains(got, "JSON") {
		t.Fatalf("unexpected prompt %q", got)
	}
	if BuildPrompt("", "only user") != "only user" {
		t.Fatal("expected user prompt passthrough")
	}
	if BuildPrompt("", "") != "" {
		t.Fatal("expected empty prompt")
	}
}
