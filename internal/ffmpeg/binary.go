// Package ffmpeg wraps the ffmpeg and ffprobe binaries for media probing,
// photo-clip synthesis, and the final merge render.
package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// Binary lookup errors.
var (
	// ErrFFmpegNotFound indicates no usable ffmpeg binary was located.
	ErrFFmpegNotFound = errors.New("ffmpeg binary not found")
	// ErrFFprobeNotFound indicates no usable ffprobe binary was located.
	ErrFFprobeNotFound = errors.New("ffprobe binary not found")
)

// BinaryInfo describes the detected ffmpeg installation.
type BinaryInfo struct {
	FFmpegPath  string `json:"ffmpeg_path"`
	FFprobePath string `json:"ffprobe_path"`
	Version     string `json:"version"`
}

// Detector locates and verifies ffmpeg/ffprobe binaries. Detection results
// are cached; the binaries are not expected to change underneath a running
// process.
type Detector struct {
	// FFmpegPath and FFprobePath override auto-detection when non-empty.
	FFmpegPath  string
	FFprobePath string

	mu     sync.Mutex
	cached *BinaryInfo
}

// NewDetector creates a detector with optional explicit binary paths.
func NewDetector(ffmpegPath, ffprobePath string) *Detector {
	return &Detector{FFmpegPath: ffmpegPath, FFprobePath: ffprobePath}
}

// Detect locates the binaries and returns their info, caching the result.
func (d *Detector) Detect(ctx context.Context) (*BinaryInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cached != nil {
		return d.cached, nil
	}

	ffmpegPath, err := resolveBinary(d.FFmpegPath, "ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFFmpegNotFound, err)
	}
	ffprobePath, err := resolveBinary(d.FFprobePath, "ffprobe")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFFprobeNotFound, err)
	}

	version, err := probeVersion(ctx, ffmpegPath)
	if err != nil {
		return nil, fmt.Errorf("verifying ffmpeg at %s: %w", ffmpegPath, err)
	}

	d.cached = &BinaryInfo{
		FFmpegPath:  ffmpegPath,
		FFprobePath: ffprobePath,
		Version:     version,
	}
	return d.cached, nil
}

// resolveBinary returns the explicit path if given, otherwise searches PATH.
func resolveBinary(explicit, name string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("looking up %s: %w", name, err)
	}
	return path, nil
}

// probeVersion runs `ffmpeg -version` and extracts the version token.
func probeVersion(ctx context.Context, path string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, path, "-version").Output()
	if err != nil {
		return "", fmt.Errorf("running -version: %w", err)
	}
	return ParseVersionOutput(string(out)), nil
}

// ParseVersionOutput extracts the version token from `ffmpeg -version`
// output. Returns "unknown" when the banner is unrecognisable.
func ParseVersionOutput(out string) string {
	// First line looks like: "ffmpeg version 6.1.1 Copyright (c) ..."
	line, _, _ := strings.Cut(out, "\n")
	fields := strings.Fields(line)
	for i, f := range fields {
		if f == "version" && i+1 < len(fields) {
			return fields[i+1]
		}
	}
	return "unknown"
}
