package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/tapedeck/internal/export"
	"github.com/jmylchreest/tapedeck/internal/ffmpeg"
	"github.com/jmylchreest/tapedeck/internal/models"
	"github.com/jmylchreest/tapedeck/internal/resolve"
	"github.com/jmylchreest/tapedeck/internal/synth"
	"github.com/jmylchreest/tapedeck/internal/timeline"
)

// fakeFFmpegBinary writes an executable that just sleeps, standing in for
// ffmpeg and ffprobe so jobs stay running until cancelled or the test ends.
func fakeFFmpegBinary(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffmpeg")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nsleep 30\n"), 0o755))
	return path
}

func newExportService(t *testing.T, tapes *TapeService) *ExportService {
	t.Helper()
	base := t.TempDir()
	fake := fakeFFmpegBinary(t)
	bin := &ffmpeg.BinaryInfo{FFmpegPath: fake, FFprobePath: fake}
	exporter := export.NewExporter(bin,
		resolve.FileLocator{},
		synth.NewMaterializer(fake, filepath.Join(base, "synthesis"), nil),
		timeline.DefaultConfig(), nil)
	return NewExportService(tapes, exporter, filepath.Join(base, "exports"))
}

func TestExportService_StartExport_TapeNotFound(t *testing.T) {
	tapes := newTapeService(t, nil)
	svc := newExportService(t, tapes)

	_, err := svc.StartExport(context.Background(), models.NewULID(), export.Options{})
	assert.ErrorIs(t, err, ErrTapeNotFound)
}

func TestExportService_StartExport_EmptyTape(t *testing.T) {
	tapes := newTapeService(t, nil)
	svc := newExportService(t, tapes)

	tape := &models.Tape{Name: "empty", Orientation: models.OrientationLandscape, TransitionStyle: models.TransitionNone}
	require.NoError(t, tapes.CreateTape(context.Background(), tape))

	_, err := svc.StartExport(context.Background(), tape.ID, export.Options{})
	assert.ErrorIs(t, err, models.ErrTapeEmpty)
}

func TestExportService_StartExport_InvalidOptions(t *testing.T) {
	tapes := newTapeService(t, nil)
	svc := newExportService(t, tapes)
	tape := localVideoTape(t, tapes, 10*time.Second)

	_, err := svc.StartExport(context.Background(), tape.ID, export.Options{Tier: "480p"})
	assert.ErrorIs(t, err, export.ErrInvalidTier)
}

func TestExportService_StartExport_DefaultsAndSnapshot(t *testing.T) {
	tapes := newTapeService(t, nil)
	svc := newExportService(t, tapes)
	tape := localVideoTape(t, tapes, 10*time.Second, 20*time.Second)

	job, err := svc.StartExport(context.Background(), tape.ID, export.Options{})
	require.NoError(t, err)

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, tape.ID, job.TapeID)
	assert.Equal(t, export.Tier1080p, job.Options.Tier)
	assert.Equal(t, export.ContainerMP4, job.Options.Container)
	assert.True(t, strings.HasSuffix(job.OutputPath, ".mp4"))
	assert.Contains(t, job.OutputPath, "session-tape")
	// Hard cuts only: merged equals total.
	assert.Equal(t, 30*time.Second, job.Merged)

	got, err := svc.GetJob(job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
}

func TestExportService_GetJob_NotFound(t *testing.T) {
	tapes := newTapeService(t, nil)
	svc := newExportService(t, tapes)

	_, err := svc.GetJob("nope")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestExportService_JobFailsOnUnresolvableMedia(t *testing.T) {
	tapes := newTapeService(t, nil)
	svc := newExportService(t, tapes)

	// Clips reference nonexistent media, so input resolution fails and the
	// job lands in the failed state without ever invoking an encoder.
	ctx := context.Background()
	tape := &models.Tape{Name: "broken", Orientation: models.OrientationLandscape, TransitionStyle: models.TransitionNone}
	require.NoError(t, tapes.CreateTape(ctx, tape))
	require.NoError(t, tapes.AddClip(ctx, tape.ID, videoClip("/nonexistent/a.mp4", 10*time.Second), -1))

	job, err := svc.StartExport(ctx, tape.ID, export.Options{})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		got, err := svc.GetJob(job.ID)
		return err == nil && got.State == JobFailed
	}, 5*time.Second, 20*time.Millisecond)

	got, err := svc.GetJob(job.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, got.Error)
	assert.False(t, got.FinishedAt.IsZero())
}

func TestExportService_CancelJob(t *testing.T) {
	tapes := newTapeService(t, nil)
	svc := newExportService(t, tapes)
	tape := localVideoTape(t, tapes, 10*time.Second)

	job, err := svc.StartExport(context.Background(), tape.ID, export.Options{})
	require.NoError(t, err)

	cancelled, err := svc.CancelJob(job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobCancelled, cancelled.State)

	// Cancelled state sticks even after the run goroutine unwinds.
	require.Eventually(t, func() bool {
		got, err := svc.GetJob(job.ID)
		return err == nil && got.State == JobCancelled
	}, 5*time.Second, 20*time.Millisecond)

	_, err = svc.CancelJob("nope")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestExportService_ListJobs_NewestFirst(t *testing.T) {
	tapes := newTapeService(t, nil)
	svc := newExportService(t, tapes)
	tape := localVideoTape(t, tapes, 10*time.Second)

	first, err := svc.StartExport(context.Background(), tape.ID, export.Options{})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := svc.StartExport(context.Background(), tape.ID, export.Options{})
	require.NoError(t, err)

	jobs := svc.ListJobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, second.ID, jobs[0].ID)
	assert.Equal(t, first.ID, jobs[1].ID)
}
