package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RetentionTarget specifies a directory and filename pattern to prune.
type RetentionTarget struct {
	Dir     string
	Pattern string
	Exclude []string
	// Recursive also prunes files in subdirectories (media is stored per reel).
	Recursive bool
}

// PruneOlderThan removes files matching targets whose modification time is
// older than maxAge and returns how many were removed. A non-positive maxAge
// disables pruning. Missing directories are skipped.
func PruneOlderThan(logger *slog.Logger, maxAge time.Duration, now time.Time, targets ...RetentionTarget) int {
	if maxAge <= 0 {
		return 0
	}
	cutoff := now.Add(-maxAge)

	exclusions := make(map[string]struct{})
	for _, target := range targets {
		for _, path := range target.Exclude {
			if trimmed := strings.TrimSpace(path); trimmed != "" {
				if abs, err := filepath.Abs(trimmed); err == nil {
					exclusions[abs] = struct{}{}
				}
			}
		}
	}

	removed := 0
	for _, target := range targets {
		dir := strings.TrimSpace(target.Dir)
		if dir == "" {
			continue
		}
		pattern := strings.TrimSpace(target.Pattern)
		_ = filepath.WalkDir(dir, func(path string, entry os.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if entry.IsDir() {
				if path != dir && !target.Recursive {
					return filepath.SkipDir
				}
				return nil
			}
			if pattern != "" {
				if matched, err := filepath.Match(pattern, entry.Name()); err != nil || !matched {
					return nil
				}
			}
			if abs, err := filepath.Abs(path); err == nil {
				path = abs
			}
			if _, skip := exclusions[path]; skip {
				return nil
			}
			info, err := entry.Info()
			if err != nil || !info.ModTime().Before(cutoff) {
				return nil
			}
			if err := os.Remove(path); err != nil {
				WarnWithContext(logger, "retention remove failed; file remains", "retention_failed",
					String("path", path),
					Error(err),
					String(FieldErrorHint, "check file permissions and directory ownership"),
					String(FieldImpact, "old file remains on disk"),
				)
				return nil
			}
			removed++
			if logger != nil {
				logger.Debug("file pruned",
					String("path", path),
					String(FieldEventType, "file_pruned"),
				)
			}
			return nil
		})
	}
	return removed
}

// Days converts a day count from configuration into a duration.
func Days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}
