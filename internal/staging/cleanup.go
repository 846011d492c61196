// Package staging maintains the scratch directories generation jobs render
// into. Stages create one directory per job under paths.staging_dir; cleanup
// reclaims what crashed or abandoned runs left behind.
package staging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"eduassist/internal/logging"
)

// CleanStaleResult contains the outcome of a stale directory cleanup operation.
type CleanStaleResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a directory path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// CleanStale removes staging directories older than maxAge.
// It returns the list of removed directories and any errors encountered.
func CleanStale(ctx context.Context, stagingDir string, maxAge time.Duration, logger *slog.Logger) CleanStaleResult {
	result := CleanStaleResult{}

	stagingDir = strings.TrimSpace(stagingDir)
	if stagingDir == "" {
		return result
	}

	entries, err := os.ReadDir(stagingDir)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: stagingDir, Error: err})
		}
		return result
	}

	cutoff := time.Now().Add(-maxAge)

	for _, entry := range entries {
		if ctx.Err() != nil {
			return result
		}
		if !entry.IsDir() {
			continue
		}

		dirPath := filepath.Join(stagingDir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		if err := os.RemoveAll(dirPath); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
			if logger != nil {
				logging.WarnWithContext(logger, "failed to remove stale staging directory", "staging_cleanup_failed",
					logging.String("path", dirPath),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check staging_dir permissions"),
					logging.String(logging.FieldImpact, "disk space not reclaimed"),
				)
			}
			continue
		}
		result.Removed = append(result.Removed, dirPath)
		if logger != nil {
			logger.Info("removed stale staging directory",
				logging.String("path", dirPath),
				logging.Duration("age", time.Since(info.ModTime())),
				logging.String(logging.FieldEventType, "staging_cleanup"),
			)
		}
	}

	return result
}

// CleanOrphaned removes job staging directories whose job no longer exists in
// the queue. Directories that don't follow the job-{ID} naming are left for
// the age-based cleanup.
func CleanOrphaned(ctx context.Context, stagingDir string, activeJobIDs map[int64]struct{}, logger *slog.Logger) CleanStaleResult {
	result := CleanStaleResult{}

	stagingDir = strings.TrimSpace(stagingDir)
	if stagingDir == "" {
		return result
	}

	entries, err := os.ReadDir(stagingDir)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: stagingDir, Error: err})
		}
		return result
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return result
		}
		if !entry.IsDir() {
			continue
		}

		jobID, ok := parseJobDirName(entry.Name())
		if !ok {
			continue
		}
		if _, active := activeJobIDs[jobID]; active {
			continue
		}

		dirPath := filepath.Join(stagingDir, entry.Name())
		if err := os.RemoveAll(dirPath); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
			if logger != nil {
				logging.WarnWithContext(logger, "failed to remove orphaned staging directory", "staging_cleanup_failed",
					logging.String("path", dirPath),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check staging_dir permissions"),
					logging.String(logging.FieldImpact, "disk space not reclaimed"),
				)
			}
			continue
		}
		result.Removed = append(result.Removed, dirPath)
		if logger != nil {
			logger.Info("removed orphaned staging directory",
				logging.String("path", dirPath),
				logging.Int64(logging.FieldJobID, jobID),
				logging.String(logging.FieldEventType, "staging_cleanup"),
			)
		}
	}

	return result
}

// parseJobDirName extracts the job id from names like job-42 or job-42-dbms.
func parseJobDirName(name string) (int64, bool) {
	rest, ok := strings.CutPrefix(strings.ToLower(name), "job-")
	if !ok {
		return 0, false
	}
	idPart, _, _ := strings.Cut(rest, "-")
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
