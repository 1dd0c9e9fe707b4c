package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/tapedeck/internal/models"
	"github.com/jmylchreest/tapedeck/internal/service"
)

// PlaybackHandler handles playback session endpoints. Sessions are the
// daemon-side half of live preview: the engine runs here and clients poll
// the observable state.
type PlaybackHandler struct {
	playback *service.PlaybackService
}

// NewPlaybackHandler creates a new playback handler.
func NewPlaybackHandler(playback *service.PlaybackService) *PlaybackHandler {
	return &PlaybackHandler{playback: playback}
}

// Register registers the playback routes with the API.
func (h *PlaybackHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "listSessions",
		Method:      http.MethodGet,
		Path:        "/api/v1/sessions",
		Summary:     "List playback sessions",
		Tags:        []string{"Playback"},
	}, h.ListSessions)

	huma.Register(api, huma.Operation{
		OperationID: "createSession",
		Method:      http.MethodPost,
		Path:        "/api/v1/sessions",
		Summary:     "Start a playback session",
		Tags:        []string{"Playback"},
	}, h.CreateSession)

	huma.Register(api, huma.Operation{
		OperationID: "getSession",
		Method:      http.MethodGet,
		Path:        "/api/v1/sessions/{id}",
		Summary:     "Get a session's observable state",
		Tags:        []string{"Playback"},
	}, h.GetSession)

	huma.Register(api, huma.Operation{
		OperationID: "closeSession",
		Method:      http.MethodDelete,
		Path:        "/api/v1/sessions/{id}",
		Summary:     "Close a playback session",
		Tags:        []string{"Playback"},
	}, h.CloseSession)

	huma.Register(api, huma.Operation{
		OperationID: "playSession",
		Method:      http.MethodPost,
		Path:        "/api/v1/sessions/{id}/play",
		Summary:     "Resume playback",
		Tags:        []string{"Playback"},
	}, h.Play)

	huma.Register(api, huma.Operation{
		OperationID: "pauseSession",
		Method:      http.MethodPost,
		Path:        "/api/v1/sessions/{id}/pause",
		Summary:     "Pause playback",
		Tags:        []string{"Playback"},
	}, h.Pause)

	huma.Register(api, huma.Operation{
		OperationID: "nextSegment",
		Method:      http.MethodPost,
		Path:        "/api/v1/sessions/{id}/next",
		Summary:     "Jump to the next segment",
		Tags:        []string{"Playback"},
	}, h.Next)

	huma.Register(api, huma.Operation{
		OperationID: "previousSegment",
		Method:      http.MethodPost,
		Path:        "/api/v1/sessions/{id}/previous",
		Summary:     "Jump to the previous segment",
		Tags:        []string{"Playback"},
	}, h.Previous)

	huma.Register(api, huma.Operation{
		OperationID: "seekSession",
		Method:      http.MethodPost,
		Path:        "/api/v1/sessions/{id}/seek",
		Summary:     "Seek to a global timeline time",
		Tags:        []string{"Playback"},
	}, h.Seek)
}

// ListSessionsInput is the input for listing sessions.
type ListSessionsInput struct{}

// ListSessionsOutput is the output for listing sessions.
type ListSessionsOutput struct {
	Body struct {
		Sessions []SessionResponse `json:"sessions"`
	}
}

// ListSessions returns all live playback sessions.
func (h *PlaybackHandler) ListSessions(_ context.Context, _ *ListSessionsInput) (*ListSessionsOutput, error) {
	sessions := h.playback.ListSessions()
	out := &ListSessionsOutput{}
	out.Body.Sessions = make([]SessionResponse, len(sessions))
	for i, s := range sessions {
		out.Body.Sessions[i] = SessionFromStatus(s.Status())
	}
	return out, nil
}

// CreateSessionInput is the input for starting a session.
type CreateSessionInput struct {
	Body CreateSessionRequest
}

// SessionOutput wraps a single session response.
type SessionOutput struct {
	Body SessionResponse
}

// CreateSession starts a playback session on a tape.
func (h *PlaybackHandler) CreateSession(ctx context.Context, input *CreateSessionInput) (*SessionOutput, error) {
	tapeID, err := models.ParseULID(input.Body.TapeID)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid tape ID", err)
	}

	session, err := h.playback.CreateSession(ctx, tapeID, input.Body.Autoplay)
	if err != nil {
		return nil, mapPlaybackError(err)
	}
	return &SessionOutput{Body: SessionFromStatus(session.Status())}, nil
}

// SessionIDInput addresses a session by ID.
type SessionIDInput struct {
	ID string `path:"id" doc:"Session ID"`
}

// GetSession returns a session's observable state.
func (h *PlaybackHandler) GetSession(_ context.Context, input *SessionIDInput) (*SessionOutput, error) {
	session, err := h.playback.GetSession(input.ID)
	if err != nil {
		return nil, mapPlaybackError(err)
	}
	return &SessionOutput{Body: SessionFromStatus(session.Status())}, nil
}

// CloseSessionOutput is the output for closing a session.
type CloseSessionOutput struct {
	Body struct {
		Closed bool `json:"closed"`
	}
}

// CloseSession tears down a session.
func (h *PlaybackHandler) CloseSession(_ context.Context, input *SessionIDInput) (*CloseSessionOutput, error) {
	if err := h.playback.CloseSession(input.ID); err != nil {
		return nil, mapPlaybackError(err)
	}
	out := &CloseSessionOutput{}
	out.Body.Closed = true
	return out, nil
}

// Play resumes playback on a session.
func (h *PlaybackHandler) Play(_ context.Context, input *SessionIDInput) (*SessionOutput, error) {
	return h.command(input.ID, h.playback.Play)
}

// Pause holds playback on a session.
func (h *PlaybackHandler) Pause(_ context.Context, input *SessionIDInput) (*SessionOutput, error) {
	return h.command(input.ID, h.playback.Pause)
}

// Next jumps a session to the next segment.
func (h *PlaybackHandler) Next(_ context.Context, input *SessionIDInput) (*SessionOutput, error) {
	return h.command(input.ID, h.playback.Next)
}

// Previous jumps a session to the prior segment.
func (h *PlaybackHandler) Previous(_ context.Context, input *SessionIDInput) (*SessionOutput, error) {
	return h.command(input.ID, h.playback.Previous)
}

// SeekInput is the input for seeking a session.
type SeekInput struct {
	ID   string `path:"id" doc:"Session ID"`
	Body SeekRequest
}

// Seek jumps a session to a global timeline time.
func (h *PlaybackHandler) Seek(_ context.Context, input *SeekInput) (*SessionOutput, error) {
	global := time.Duration(input.Body.Position * float64(time.Second))
	if err := h.playback.Seek(input.ID, global); err != nil {
		return nil, mapPlaybackError(err)
	}
	return h.status(input.ID)
}

// command runs a session command and returns the session's updated state.
func (h *PlaybackHandler) command(id string, fn func(string) error) (*SessionOutput, error) {
	if err := fn(id); err != nil {
		return nil, mapPlaybackError(err)
	}
	return h.status(id)
}

func (h *PlaybackHandler) status(id string) (*SessionOutput, error) {
	session, err := h.playback.GetSession(id)
	if err != nil {
		return nil, mapPlaybackError(err)
	}
	return &SessionOutput{Body: SessionFromStatus(session.Status())}, nil
}

// mapPlaybackError converts service errors to API status errors.
func mapPlaybackError(err error) error {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, service.ErrTapeNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, models.ErrTapeEmpty):
		return huma.Error422UnprocessableEntity(err.Error())
	default:
		return huma.Error500InternalServerError("playback operation failed", err)
	}
}
