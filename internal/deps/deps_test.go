package deps

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelscript/internal/config"
	"reelscript/internal/testsupport"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\necho \"present 1.2.3\"\necho extra\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present, VersionArgs: []string{"--version"}},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  ", Optional: true},
	}

	results := CheckBinaries(context.Background(), reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Version != "present 1.2.3" {
		t.Fatalf("expected first requirement available with version, got %#v", results[0])
	}
	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected blank detail %q", results[2].Detail)
	}

	missing := MissingRequired(results)
	if len(missing) != 1 || missing[0].Name != "Missing" {
		t.Fatalf("expected only Missing to be reported, got %#v", missing)
	}
}

func TestRequirementsFollowProvider(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Fetch.Mock = false
	cfg.Transcription.Provider = config.ProviderWhisperX
	if reqs := Requirements(cfg); len(reqs) != 4 || reqs[3].Name != "uvx" {
		t.Fatalf("expected uvx for whisperx, got %#v", reqs)
	}

	cfg.Transcription.Provider = config.ProviderGCP
	for _, req := range Requirements(cfg) {
		if req.Name == "uvx" {
			t.Fatal("gcp provider should not require uvx")
		}
		if req.Optional {
			t.Fatalf("%s should be required outside mock mode", req.Name)
		}
	}
}

func TestRequirementsOptionalInMockMode(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	for _, req := range Requirements(cfg) {
		if !req.Optional {
			t.Fatalf("%s should be optional in mock mode", req.Name)
		}
	}
}

func TestRequirementsResolveFromPath(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	cfg.Fetch.Mock = false

	statuses := CheckBinaries(context.Background(), Requirements(cfg))
	if missing := MissingRequired(statuses); len(missing) != 0 {
		t.Fatalf("expected stubbed tools to resolve, missing %#v", missing)
	}
	for _, s := range statuses {
		if !strings.HasSuffix(s.Version, "stub") || !strings.HasPrefix(s.Path, testsupport.BaseDir(cfg)) {
			t.Fatalf("expected %s to resolve to its stub, got %#v", s.Name, s)
		}
	}
}
