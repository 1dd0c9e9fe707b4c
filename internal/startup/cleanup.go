// Package startup provides utilities for application startup tasks.
package startup

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// TempDirPrefix is the prefix used for tapedeck scratch directories and files.
const TempDirPrefix = "tapedeck-"

// DefaultCleanupAge is the default maximum age for orphaned temp entries.
const DefaultCleanupAge = 1 * time.Hour

// CleanupOrphanedTempDirs removes orphaned scratch entries older than maxAge.
// It looks for entries matching "tapedeck-*" in the given base directory;
// synthesis frame files and partial downloads land there and stay behind
// after a crash.
//
// Returns the number of entries removed and any error encountered.
func CleanupOrphanedTempDirs(logger *slog.Logger, baseDir string, maxAge time.Duration) (int, error) {
	if _, err := os.Stat(baseDir); os.IsNotExist(err) {
		logger.Debug("base directory does not exist, skipping cleanup",
			"path", baseDir,
		)
		return 0, nil
	}

	entries, err := os.ReadDir(baseDir)
	if err != nil {
		logger.Error("failed to read directory for cleanup",
			"path", baseDir,
			"error", err,
		)
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	var removed int

	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), TempDirPrefix) {
			continue
		}

		path := filepath.Join(baseDir, entry.Name())

		info, err := entry.Info()
		if err != nil {
			logger.Warn("failed to stat temp entry",
				"path", path,
				"error", err,
			)
			continue
		}

		if info.ModTime().After(cutoff) {
			logger.Debug("preserving recent temp entry",
				"path", path,
				"age", time.Since(info.ModTime()).Round(time.Second),
			)
			continue
		}

		if err := os.RemoveAll(path); err != nil {
			logger.Warn("failed to remove orphaned temp entry",
				"path", path,
				"error", err,
			)
			continue
		}

		logger.Info("removed orphaned temp entry",
			"path", path,
			"age", time.Since(info.ModTime()).Round(time.Second),
		)
		removed++
	}

	return removed, nil
}

// CleanupSystemTempDirs cleans up orphaned tapedeck scratch entries from the
// system temp directory using the default cleanup age.
func CleanupSystemTempDirs(logger *slog.Logger) (int, error) {
	return CleanupOrphanedTempDirs(logger, os.TempDir(), DefaultCleanupAge)
}

// CacheStats summarizes a cache cleanup pass.
type CacheStats struct {
	Removed    int
	FreedBytes int64
}

// CleanupCacheDir prunes a cache directory two ways: entries not touched
// within retention are removed, then if the directory still exceeds maxBytes
// the oldest entries go until it fits. A zero retention or maxBytes disables
// that pass.
//
// Both the remote-asset cache and the synthesized-clip cache are content
// addressed, so removing an entry is always safe: the next request
// regenerates it.
func CleanupCacheDir(logger *slog.Logger, dir string, retention time.Duration, maxBytes int64) (CacheStats, error) {
	var stats CacheStats

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return stats, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return stats, err
	}

	type cacheEntry struct {
		path    string
		size    int64
		modTime time.Time
	}

	var live []cacheEntry
	cutoff := time.Now().Add(-retention)

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			continue
		}

		if retention > 0 && info.ModTime().Before(cutoff) {
			if err := os.RemoveAll(path); err != nil {
				logger.Warn("failed to remove expired cache entry", "path", path, "error", err)
				continue
			}
			stats.Removed++
			stats.FreedBytes += info.Size()
			continue
		}

		live = append(live, cacheEntry{path: path, size: info.Size(), modTime: info.ModTime()})
	}

	if maxBytes > 0 {
		var total int64
		for _, e := range live {
			total += e.size
		}

		if total > maxBytes {
			// Oldest first until the directory fits.
			sort.Slice(live, func(i, j int) bool { return live[i].modTime.Before(live[j].modTime) })
			for _, e := range live {
				if total <= maxBytes {
					break
				}
				if err := os.RemoveAll(e.path); err != nil {
					logger.Warn("failed to evict cache entry", "path", e.path, "error", err)
					continue
				}
				total -= e.size
				stats.Removed++
				stats.FreedBytes += e.size
			}
		}
	}

	if stats.Removed > 0 {
		logger.Info("cache cleanup complete",
			"dir", dir,
			"removed", stats.Removed,
			"freed_bytes", stats.FreedBytes,
		)
	}

	return stats, nil
}
