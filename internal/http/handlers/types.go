// Package handlers provides HTTP API handlers for tapedeck.
package handlers

import (
	"time"

	"github.com/jmylchreest/tapedeck/internal/export"
	"github.com/jmylchreest/tapedeck/internal/ffmpeg"
	"github.com/jmylchreest/tapedeck/internal/models"
	"github.com/jmylchreest/tapedeck/internal/service"
	"github.com/jmylchreest/tapedeck/internal/timeline"
)

// Common response types

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Tape types

// ClipResponse represents a clip in API responses.
type ClipResponse struct {
	ID            models.ULID      `json:"id"`
	TapeID        models.ULID      `json:"tape_id"`
	Position      int              `json:"position"`
	Kind          models.MediaKind `json:"kind"`
	SourcePath    string           `json:"source_path,omitempty"`
	AssetURL      string           `json:"asset_url,omitempty"`
	MediaDuration float64          `json:"media_duration_seconds"`
	TrimStart     float64          `json:"trim_start_seconds,omitempty"`
	TrimEnd       float64          `json:"trim_end_seconds,omitempty"`
	Rotation      int              `json:"rotation"`
	ScaleOverride models.ScaleMode `json:"scale_override,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// ClipFromModel converts a clip model to a response.
func ClipFromModel(c *models.Clip) ClipResponse {
	return ClipResponse{
		ID:            c.ID,
		TapeID:        c.TapeID,
		Position:      c.Position,
		Kind:          c.Kind,
		SourcePath:    c.SourcePath,
		AssetURL:      c.AssetURL,
		MediaDuration: c.MediaDuration.Seconds(),
		TrimStart:     c.TrimStart.Seconds(),
		TrimEnd:       c.TrimEnd.Seconds(),
		Rotation:      c.Rotation,
		ScaleOverride: c.ScaleOverride,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// TapeResponse represents a tape in API responses.
type TapeResponse struct {
	ID                 models.ULID            `json:"id"`
	Name               string                 `json:"name"`
	Orientation        models.Orientation     `json:"orientation"`
	ScaleMode          models.ScaleMode       `json:"scale_mode"`
	TransitionStyle    models.TransitionStyle `json:"transition_style"`
	TransitionDuration float64                `json:"transition_duration_seconds"`
	ClipCount          int                    `json:"clip_count"`
	Clips              []ClipResponse         `json:"clips,omitempty"`
	CreatedAt          time.Time              `json:"created_at"`
	UpdatedAt          time.Time              `json:"updated_at"`
}

// TapeFromModel converts a tape model to a response, including clips when
// they are loaded.
func TapeFromModel(t *models.Tape) TapeResponse {
	resp := TapeResponse{
		ID:                 t.ID,
		Name:               t.Name,
		Orientation:        t.Orientation,
		ScaleMode:          t.ScaleMode,
		TransitionStyle:    t.TransitionStyle,
		TransitionDuration: t.TransitionDuration.Seconds(),
		ClipCount:          len(t.Clips),
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
	}
	if len(t.Clips) > 0 {
		resp.Clips = make([]ClipResponse, len(t.Clips))
		for i := range t.Clips {
			resp.Clips[i] = ClipFromModel(&t.Clips[i])
		}
	}
	return resp
}

// CreateTapeRequest creates a new tape.
type CreateTapeRequest struct {
	Name               string                 `json:"name" minLength:"1" maxLength:"255" doc:"Display name"`
	Orientation        models.Orientation     `json:"orientation,omitempty" enum:"portrait,landscape" doc:"Output frame orientation"`
	ScaleMode          models.ScaleMode       `json:"scale_mode,omitempty" enum:"fit,fill" doc:"Global clip scale treatment"`
	TransitionStyle    models.TransitionStyle `json:"transition_style,omitempty" enum:"none,crossfade,slide_left,slide_right,random" doc:"Boundary transition style"`
	TransitionDuration float64                `json:"transition_duration_seconds,omitempty" minimum:"0" doc:"Configured transition overlap in seconds"`
}

// UpdateTapeRequest updates a tape's settings.
type UpdateTapeRequest = CreateTapeRequest

// AddClipRequest adds a clip to a tape.
type AddClipRequest struct {
	Kind          models.MediaKind `json:"kind" enum:"video,photo" doc:"Media kind"`
	SourcePath    string           `json:"source_path,omitempty" doc:"Local media file path (exclusive with asset_url)"`
	AssetURL      string           `json:"asset_url,omitempty" doc:"Remote asset URL (exclusive with source_path)"`
	Position      int              `json:"position,omitempty" doc:"Insertion position; -1 or omitted appends" default:"-1"`
	Duration      float64          `json:"duration_seconds,omitempty" minimum:"0" doc:"Display duration for photo clips"`
	TrimStart     float64          `json:"trim_start_seconds,omitempty" minimum:"0" doc:"Video trim-in point"`
	TrimEnd       float64          `json:"trim_end_seconds,omitempty" minimum:"0" doc:"Video trim-out point"`
	Rotation      int              `json:"rotation,omitempty" doc:"Clockwise quarter turns (0-3)"`
	ScaleOverride models.ScaleMode `json:"scale_override,omitempty" enum:"fit,fill," doc:"Per-clip scale override"`
}

// UpdateClipRequest updates a clip's editable fields.
type UpdateClipRequest struct {
	Duration      float64          `json:"duration_seconds,omitempty" minimum:"0" doc:"Display duration for photo clips"`
	TrimStart     float64          `json:"trim_start_seconds,omitempty" minimum:"0" doc:"Video trim-in point"`
	TrimEnd       float64          `json:"trim_end_seconds,omitempty" minimum:"0" doc:"Video trim-out point"`
	Rotation      int              `json:"rotation,omitempty" doc:"Clockwise quarter turns (0-3)"`
	ScaleOverride models.ScaleMode `json:"scale_override,omitempty" enum:"fit,fill," doc:"Per-clip scale override"`
}

// ReorderClipsRequest applies a complete new clip order.
type ReorderClipsRequest struct {
	ClipIDs []string `json:"clip_ids" minItems:"1" doc:"Every clip ID of the tape in the new order"`
}

// Timeline types

// TransitionResponse describes a boundary transition.
type TransitionResponse struct {
	Style    models.TransitionStyle `json:"style"`
	Duration float64                `json:"duration_seconds"`
}

// SegmentResponse describes one timeline segment.
type SegmentResponse struct {
	Index       int                 `json:"index"`
	ClipID      models.ULID         `json:"clip_id"`
	Kind        models.MediaKind    `json:"kind"`
	Start       float64             `json:"start_seconds"`
	Duration    float64             `json:"duration_seconds"`
	Synthesized bool                `json:"synthesized,omitempty"`
	Out         *TransitionResponse `json:"out,omitempty"`
}

// TimelineResponse is the built timeline for a tape.
type TimelineResponse struct {
	TapeID   models.ULID       `json:"tape_id"`
	Total    float64           `json:"total_seconds"`
	Merged   float64           `json:"merged_seconds"`
	Segments []SegmentResponse `json:"segments"`
}

// TimelineFromPreview converts a preview result to a response.
func TimelineFromPreview(p *service.PreviewResult) TimelineResponse {
	resp := TimelineResponse{
		TapeID:   p.Timeline.TapeID,
		Total:    p.Total.Seconds(),
		Merged:   p.Merged.Seconds(),
		Segments: make([]SegmentResponse, len(p.Timeline.Segments)),
	}
	for i, seg := range p.Timeline.Segments {
		resp.Segments[i] = segmentResponse(i, seg)
	}
	return resp
}

func segmentResponse(index int, seg *timeline.Segment) SegmentResponse {
	s := SegmentResponse{
		Index:       index,
		ClipID:      seg.Clip.ID,
		Kind:        seg.Clip.Kind,
		Start:       seg.Start.Seconds(),
		Duration:    seg.Duration.Seconds(),
		Synthesized: seg.Synthesis != nil,
	}
	if seg.Out != nil {
		s.Out = &TransitionResponse{
			Style:    seg.Out.Style,
			Duration: seg.Out.Duration.Seconds(),
		}
	}
	return s
}

// Playback types

// CreateSessionRequest starts a playback session.
type CreateSessionRequest struct {
	TapeID   string `json:"tape_id" doc:"Tape to play (ULID)"`
	Autoplay bool   `json:"autoplay,omitempty" doc:"Start playing immediately" default:"true"`
}

// SessionResponse is the observable state of a playback session.
type SessionResponse struct {
	ID           string      `json:"id"`
	TapeID       models.ULID `json:"tape_id"`
	CreatedAt    time.Time   `json:"created_at"`
	State        string      `json:"state"`
	Index        int         `json:"index"`
	GlobalTime   float64     `json:"global_time_seconds"`
	Total        float64     `json:"total_seconds"`
	Playing      bool        `json:"playing"`
	Loading      bool        `json:"loading"`
	Finished     bool        `json:"finished"`
	SkippedClips int         `json:"skipped_clips"`
	Notice       string      `json:"notice,omitempty"`
}

// SessionFromStatus converts a session status to a response.
func SessionFromStatus(st service.SessionStatus) SessionResponse {
	return SessionResponse{
		ID:           st.ID,
		TapeID:       st.TapeID,
		CreatedAt:    st.CreatedAt,
		State:        string(st.Playback.State),
		Index:        st.Playback.Index,
		GlobalTime:   st.Playback.GlobalTime.Seconds(),
		Total:        st.Playback.Total.Seconds(),
		Playing:      st.Playback.Playing,
		Loading:      st.Playback.Loading,
		Finished:     st.Playback.Finished,
		SkippedClips: st.Playback.SkippedClips,
		Notice:       st.Playback.Notice,
	}
}

// SeekRequest seeks a session to a global timeline time.
type SeekRequest struct {
	Position float64 `json:"position_seconds" minimum:"0" doc:"Global timeline time in seconds"`
}

// Export types

// StartExportRequest starts an export job.
type StartExportRequest struct {
	Tier       export.ResolutionTier `json:"tier,omitempty" enum:"720p,1080p,2160p" doc:"Output resolution tier"`
	Container  export.Container      `json:"container,omitempty" enum:"mp4,mov" doc:"Output container"`
	FrameRate  int                   `json:"frame_rate,omitempty" minimum:"0" maximum:"120" doc:"Output frame rate"`
	OutputPath string                `json:"output_path,omitempty" doc:"Output file path; defaults into the export directory"`
}

// ExportProgressResponse is the encode progress of a running job.
type ExportProgressResponse struct {
	Frame   int64   `json:"frame"`
	FPS     float64 `json:"fps"`
	OutTime float64 `json:"out_time_seconds"`
	Speed   float64 `json:"speed"`
	Percent float64 `json:"percent"`
}

// ExportJobResponse is an export job snapshot.
type ExportJobResponse struct {
	ID         string                 `json:"id"`
	TapeID     models.ULID            `json:"tape_id"`
	State      service.JobState       `json:"state"`
	Tier       export.ResolutionTier  `json:"tier"`
	Container  export.Container       `json:"container"`
	OutputPath string                 `json:"output_path"`
	Merged     float64                `json:"merged_seconds,omitempty"`
	Progress   ExportProgressResponse `json:"progress"`
	Error      string                 `json:"error,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
	StartedAt  *time.Time             `json:"started_at,omitempty"`
	FinishedAt *time.Time             `json:"finished_at,omitempty"`
}

// ExportJobFromSnapshot converts a job snapshot to a response.
func ExportJobFromSnapshot(j service.ExportJob) ExportJobResponse {
	resp := ExportJobResponse{
		ID:         j.ID,
		TapeID:     j.TapeID,
		State:      j.State,
		Tier:       j.Options.Tier,
		Container:  j.Options.Container,
		OutputPath: j.OutputPath,
		Merged:     j.Merged.Seconds(),
		Progress:   exportProgress(j.Progress, j.Merged),
		Error:      j.Error,
		CreatedAt:  j.CreatedAt,
	}
	if !j.StartedAt.IsZero() {
		t := j.StartedAt
		resp.StartedAt = &t
	}
	if !j.FinishedAt.IsZero() {
		t := j.FinishedAt
		resp.FinishedAt = &t
	}
	return resp
}

// exportProgress maps raw encode progress to the API shape, deriving percent
// from the merged duration when known.
func exportProgress(p ffmpeg.Progress, merged time.Duration) ExportProgressResponse {
	resp := ExportProgressResponse{
		Frame:   p.Frame,
		FPS:     p.FPS,
		OutTime: p.OutTime.Seconds(),
		Speed:   p.Speed,
	}
	if p.Finished {
		resp.Percent = 100
	} else if merged > 0 {
		resp.Percent = p.OutTime.Seconds() / merged.Seconds() * 100
		if resp.Percent > 100 {
			resp.Percent = 100
		}
	}
	return resp
}
