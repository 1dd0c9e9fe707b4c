package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jmylchreest/tapedeck/internal/models"
	"github.com/jmylchreest/tapedeck/internal/repository"
	"github.com/jmylchreest/tapedeck/internal/service"
	"github.com/jmylchreest/tapedeck/internal/timeline"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Tape{}, &models.Clip{}))
	return db
}

func newTestTapeService(t *testing.T) *service.TapeService {
	t.Helper()
	db := newTestDB(t)
	return service.NewTapeService(
		repository.NewTapeRepository(db),
		repository.NewClipRepository(db),
		nil,
		timeline.DefaultConfig(),
	)
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var se huma.StatusError
	require.ErrorAs(t, err, &se)
	return se.GetStatus()
}

func createTestTape(t *testing.T, h *TapeHandler, name string) TapeResponse {
	t.Helper()
	out, err := h.CreateTape(context.Background(), &CreateTapeInput{
		Body: CreateTapeRequest{Name: name},
	})
	require.NoError(t, err)
	return out.Body
}

func addTestClip(t *testing.T, h *TapeHandler, tapeID models.ULID, path string, dur float64) ClipResponse {
	t.Helper()
	out, err := h.AddClip(context.Background(), &AddClipInput{
		ID: tapeID.String(),
		Body: AddClipRequest{
			Kind:       models.MediaKindVideo,
			SourcePath: path,
			Duration:   dur,
			Position:   -1,
		},
	})
	require.NoError(t, err)
	return out.Body
}

func TestTapeHandler_CreateTape_Defaults(t *testing.T) {
	h := NewTapeHandler(newTestTapeService(t))

	out, err := h.CreateTape(context.Background(), &CreateTapeInput{
		Body: CreateTapeRequest{Name: "holiday"},
	})
	require.NoError(t, err)

	assert.False(t, out.Body.ID.IsZero())
	assert.Equal(t, "holiday", out.Body.Name)
	assert.Equal(t, models.OrientationLandscape, out.Body.Orientation)
	assert.Equal(t, models.ScaleModeFit, out.Body.ScaleMode)
	assert.Equal(t, models.TransitionNone, out.Body.TransitionStyle)
}

func TestTapeHandler_CreateTape_InvalidStyle(t *testing.T) {
	h := NewTapeHandler(newTestTapeService(t))

	_, err := h.CreateTape(context.Background(), &CreateTapeInput{
		Body: CreateTapeRequest{Name: "x", TransitionStyle: "wipe"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(t, err))
}

func TestTapeHandler_GetTape(t *testing.T) {
	h := NewTapeHandler(newTestTapeService(t))
	created := createTestTape(t, h, "mix")
	addTestClip(t, h, created.ID, "/media/a.mp4", 10)

	out, err := h.GetTape(context.Background(), &GetTapeInput{ID: created.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, created.ID, out.Body.ID)
	assert.Equal(t, 1, out.Body.ClipCount)
	require.Len(t, out.Body.Clips, 1)
	assert.Equal(t, "/media/a.mp4", out.Body.Clips[0].SourcePath)
}

func TestTapeHandler_GetTape_Errors(t *testing.T) {
	h := NewTapeHandler(newTestTapeService(t))

	_, err := h.GetTape(context.Background(), &GetTapeInput{ID: "not-a-ulid"})
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	_, err = h.GetTape(context.Background(), &GetTapeInput{ID: models.NewULID().String()})
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestTapeHandler_UpdateTape(t *testing.T) {
	h := NewTapeHandler(newTestTapeService(t))
	created := createTestTape(t, h, "before")

	out, err := h.UpdateTape(context.Background(), &UpdateTapeInput{
		ID: created.ID.String(),
		Body: UpdateTapeRequest{
			Name:               "after",
			TransitionStyle:    models.TransitionCrossfade,
			TransitionDuration: 1.5,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "after", out.Body.Name)
	assert.Equal(t, models.TransitionCrossfade, out.Body.TransitionStyle)
	assert.Equal(t, 1.5, out.Body.TransitionDuration)
	// Untouched fields keep their values.
	assert.Equal(t, models.OrientationLandscape, out.Body.Orientation)
}

func TestTapeHandler_DeleteTape(t *testing.T) {
	h := NewTapeHandler(newTestTapeService(t))
	created := createTestTape(t, h, "gone")

	out, err := h.DeleteTape(context.Background(), &DeleteTapeInput{ID: created.ID.String()})
	require.NoError(t, err)
	assert.True(t, out.Body.Deleted)

	_, err = h.GetTape(context.Background(), &GetTapeInput{ID: created.ID.String()})
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestTapeHandler_AddClip_Positions(t *testing.T) {
	h := NewTapeHandler(newTestTapeService(t))
	created := createTestTape(t, h, "ordered")

	first := addTestClip(t, h, created.ID, "/media/a.mp4", 10)
	second := addTestClip(t, h, created.ID, "/media/b.mp4", 10)
	assert.Equal(t, 0, first.Position)
	assert.Equal(t, 1, second.Position)

	// Inserting at the front shifts the others.
	out, err := h.AddClip(context.Background(), &AddClipInput{
		ID: created.ID.String(),
		Body: AddClipRequest{
			Kind:       models.MediaKindVideo,
			SourcePath: "/media/c.mp4",
			Duration:   10,
			Position:   0,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, out.Body.Position)

	got, err := h.GetTape(context.Background(), &GetTapeInput{ID: created.ID.String()})
	require.NoError(t, err)
	require.Len(t, got.Body.Clips, 3)
	assert.Equal(t, "/media/c.mp4", got.Body.Clips[0].SourcePath)
	assert.Equal(t, "/media/a.mp4", got.Body.Clips[1].SourcePath)
}

func TestTapeHandler_AddClip_Validation(t *testing.T) {
	h := NewTapeHandler(newTestTapeService(t))
	created := createTestTape(t, h, "strict")

	// No source at all.
	_, err := h.AddClip(context.Background(), &AddClipInput{
		ID:   created.ID.String(),
		Body: AddClipRequest{Kind: models.MediaKindVideo, Position: -1},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(t, err))

	// Both path and URL.
	_, err = h.AddClip(context.Background(), &AddClipInput{
		ID: created.ID.String(),
		Body: AddClipRequest{
			Kind:       models.MediaKindVideo,
			SourcePath: "/media/a.mp4",
			AssetURL:   "https://example.com/a.mp4",
			Position:   -1,
		},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(t, err))

	// Unknown tape.
	_, err = h.AddClip(context.Background(), &AddClipInput{
		ID:   models.NewULID().String(),
		Body: AddClipRequest{Kind: models.MediaKindVideo, SourcePath: "/media/a.mp4", Position: -1},
	})
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestTapeHandler_UpdateClip(t *testing.T) {
	h := NewTapeHandler(newTestTapeService(t))
	created := createTestTape(t, h, "trims")
	clip := addTestClip(t, h, created.ID, "/media/a.mp4", 10)

	out, err := h.UpdateClip(context.Background(), &UpdateClipInput{
		ID: clip.ID.String(),
		Body: UpdateClipRequest{
			TrimStart: 1,
			TrimEnd:   8,
			Rotation:  1,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, out.Body.TrimStart)
	assert.Equal(t, 8.0, out.Body.TrimEnd)
	assert.Equal(t, 1, out.Body.Rotation)
	assert.Equal(t, clip.Position, out.Body.Position)
}

func TestTapeHandler_RemoveClip(t *testing.T) {
	h := NewTapeHandler(newTestTapeService(t))
	created := createTestTape(t, h, "shrinking")
	a := addTestClip(t, h, created.ID, "/media/a.mp4", 10)
	addTestClip(t, h, created.ID, "/media/b.mp4", 10)

	out, err := h.RemoveClip(context.Background(), &RemoveClipInput{ID: a.ID.String()})
	require.NoError(t, err)
	assert.True(t, out.Body.Deleted)

	got, err := h.GetTape(context.Background(), &GetTapeInput{ID: created.ID.String()})
	require.NoError(t, err)
	require.Len(t, got.Body.Clips, 1)
	// Remaining clip compacts to position zero.
	assert.Equal(t, 0, got.Body.Clips[0].Position)

	_, err = h.RemoveClip(context.Background(), &RemoveClipInput{ID: a.ID.String()})
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestTapeHandler_ReorderClips(t *testing.T) {
	h := NewTapeHandler(newTestTapeService(t))
	created := createTestTape(t, h, "shuffle")
	a := addTestClip(t, h, created.ID, "/media/a.mp4", 10)
	b := addTestClip(t, h, created.ID, "/media/b.mp4", 10)

	out, err := h.ReorderClips(context.Background(), &ReorderClipsInput{
		ID:   created.ID.String(),
		Body: ReorderClipsRequest{ClipIDs: []string{b.ID.String(), a.ID.String()}},
	})
	require.NoError(t, err)
	require.Len(t, out.Body.Clips, 2)
	assert.Equal(t, b.ID, out.Body.Clips[0].ID)
	assert.Equal(t, a.ID, out.Body.Clips[1].ID)
}

func TestTapeHandler_GetTimeline(t *testing.T) {
	h := NewTapeHandler(newTestTapeService(t))

	out, err := h.CreateTape(context.Background(), &CreateTapeInput{
		Body: CreateTapeRequest{
			Name:               "fades",
			TransitionStyle:    models.TransitionCrossfade,
			TransitionDuration: 1,
		},
	})
	require.NoError(t, err)
	tape := out.Body
	addTestClip(t, h, tape.ID, "/media/a.mp4", 10)
	addTestClip(t, h, tape.ID, "/media/b.mp4", 20)

	tl, err := h.GetTimeline(context.Background(), &GetTimelineInput{ID: tape.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, tape.ID, tl.Body.TapeID)
	assert.Equal(t, 30.0, tl.Body.Total)
	// One 1s crossfade overlaps the boundary.
	assert.Equal(t, 29.0, tl.Body.Merged)
	require.Len(t, tl.Body.Segments, 2)
	require.NotNil(t, tl.Body.Segments[0].Out)
	assert.Equal(t, models.TransitionCrossfade, tl.Body.Segments[0].Out.Style)
	assert.Equal(t, 1.0, tl.Body.Segments[0].Out.Duration)
	assert.Nil(t, tl.Body.Segments[1].Out)
}

func TestTapeHandler_GetTimeline_EmptyTape(t *testing.T) {
	h := NewTapeHandler(newTestTapeService(t))
	created := createTestTape(t, h, "empty")

	_, err := h.GetTimeline(context.Background(), &GetTimelineInput{ID: created.ID.String()})
	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(t, err))
}

func TestTapeHandler_ListTapes(t *testing.T) {
	h := NewTapeHandler(newTestTapeService(t))
	createTestTape(t, h, "one")
	time.Sleep(time.Millisecond)
	createTestTape(t, h, "two")

	out, err := h.ListTapes(context.Background(), &ListTapesInput{})
	require.NoError(t, err)
	assert.Len(t, out.Body.Tapes, 2)
}
