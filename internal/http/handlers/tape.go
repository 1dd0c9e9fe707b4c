package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/tapedeck/internal/models"
	"github.com/jmylchreest/tapedeck/internal/service"
)

// TapeHandler handles tape and clip management endpoints.
type TapeHandler struct {
	tapes *service.TapeService
}

// NewTapeHandler creates a new tape handler.
func NewTapeHandler(tapes *service.TapeService) *TapeHandler {
	return &TapeHandler{tapes: tapes}
}

// Register registers the tape routes with the API.
func (h *TapeHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "listTapes",
		Method:      http.MethodGet,
		Path:        "/api/v1/tapes",
		Summary:     "List tapes",
		Tags:        []string{"Tapes"},
	}, h.ListTapes)

	huma.Register(api, huma.Operation{
		OperationID: "createTape",
		Method:      http.MethodPost,
		Path:        "/api/v1/tapes",
		Summary:     "Create a tape",
		Tags:        []string{"Tapes"},
	}, h.CreateTape)

	huma.Register(api, huma.Operation{
		OperationID: "getTape",
		Method:      http.MethodGet,
		Path:        "/api/v1/tapes/{id}",
		Summary:     "Get a tape with its clips",
		Tags:        []string{"Tapes"},
	}, h.GetTape)

	huma.Register(api, huma.Operation{
		OperationID: "updateTape",
		Method:      http.MethodPut,
		Path:        "/api/v1/tapes/{id}",
		Summary:     "Update a tape's settings",
		Tags:        []string{"Tapes"},
	}, h.UpdateTape)

	huma.Register(api, huma.Operation{
		OperationID: "deleteTape",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tapes/{id}",
		Summary:     "Delete a tape and its clips",
		Tags:        []string{"Tapes"},
	}, h.DeleteTape)

	huma.Register(api, huma.Operation{
		OperationID: "getTimeline",
		Method:      http.MethodGet,
		Path:        "/api/v1/tapes/{id}/timeline",
		Summary:     "Get the built timeline",
		Description: "Builds the tape's timeline: segment starts and durations, per-boundary transitions, and the merged duration an export would produce.",
		Tags:        []string{"Tapes"},
	}, h.GetTimeline)

	huma.Register(api, huma.Operation{
		OperationID: "addClip",
		Method:      http.MethodPost,
		Path:        "/api/v1/tapes/{id}/clips",
		Summary:     "Add a clip to a tape",
		Tags:        []string{"Clips"},
	}, h.AddClip)

	huma.Register(api, huma.Operation{
		OperationID: "updateClip",
		Method:      http.MethodPut,
		Path:        "/api/v1/clips/{id}",
		Summary:     "Update a clip's trim, rotation, scale, or duration",
		Tags:        []string{"Clips"},
	}, h.UpdateClip)

	huma.Register(api, huma.Operation{
		OperationID: "removeClip",
		Method:      http.MethodDelete,
		Path:        "/api/v1/clips/{id}",
		Summary:     "Remove a clip from its tape",
		Tags:        []string{"Clips"},
	}, h.RemoveClip)

	huma.Register(api, huma.Operation{
		OperationID: "reorderClips",
		Method:      http.MethodPut,
		Path:        "/api/v1/tapes/{id}/clips/order",
		Summary:     "Reorder a tape's clips",
		Tags:        []string{"Clips"},
	}, h.ReorderClips)
}

// ListTapesInput is the input for listing tapes.
type ListTapesInput struct{}

// ListTapesOutput is the output for listing tapes.
type ListTapesOutput struct {
	Body struct {
		Tapes []TapeResponse `json:"tapes"`
	}
}

// ListTapes returns all tapes.
func (h *TapeHandler) ListTapes(ctx context.Context, _ *ListTapesInput) (*ListTapesOutput, error) {
	tapes, err := h.tapes.ListTapes(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing tapes", err)
	}

	out := &ListTapesOutput{}
	out.Body.Tapes = make([]TapeResponse, len(tapes))
	for i, t := range tapes {
		out.Body.Tapes[i] = TapeFromModel(t)
	}
	return out, nil
}

// CreateTapeInput is the input for creating a tape.
type CreateTapeInput struct {
	Body CreateTapeRequest
}

// TapeOutput wraps a single tape response.
type TapeOutput struct {
	Body TapeResponse
}

// CreateTape creates a new tape.
func (h *TapeHandler) CreateTape(ctx context.Context, input *CreateTapeInput) (*TapeOutput, error) {
	tape := tapeFromRequest(input.Body)
	if err := h.tapes.CreateTape(ctx, tape); err != nil {
		return nil, mapTapeError(err)
	}
	return &TapeOutput{Body: TapeFromModel(tape)}, nil
}

// GetTapeInput is the input for getting a tape.
type GetTapeInput struct {
	ID string `path:"id" doc:"Tape ID (ULID)"`
}

// GetTape returns a tape with its clips.
func (h *TapeHandler) GetTape(ctx context.Context, input *GetTapeInput) (*TapeOutput, error) {
	id, err := models.ParseULID(input.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid tape ID", err)
	}
	tape, err := h.tapes.GetTape(ctx, id)
	if err != nil {
		return nil, mapTapeError(err)
	}
	return &TapeOutput{Body: TapeFromModel(tape)}, nil
}

// UpdateTapeInput is the input for updating a tape.
type UpdateTapeInput struct {
	ID   string `path:"id" doc:"Tape ID (ULID)"`
	Body UpdateTapeRequest
}

// UpdateTape updates a tape's settings.
func (h *TapeHandler) UpdateTape(ctx context.Context, input *UpdateTapeInput) (*TapeOutput, error) {
	id, err := models.ParseULID(input.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid tape ID", err)
	}
	existing, err := h.tapes.GetTape(ctx, id)
	if err != nil {
		return nil, mapTapeError(err)
	}

	applyTapeRequest(existing, input.Body)
	if err := h.tapes.UpdateTape(ctx, existing); err != nil {
		return nil, mapTapeError(err)
	}
	return &TapeOutput{Body: TapeFromModel(existing)}, nil
}

// DeleteTapeInput is the input for deleting a tape.
type DeleteTapeInput struct {
	ID string `path:"id" doc:"Tape ID (ULID)"`
}

// DeleteTapeOutput is the output for deleting a tape.
type DeleteTapeOutput struct {
	Body struct {
		Deleted bool `json:"deleted"`
	}
}

// DeleteTape deletes a tape and its clips.
func (h *TapeHandler) DeleteTape(ctx context.Context, input *DeleteTapeInput) (*DeleteTapeOutput, error) {
	id, err := models.ParseULID(input.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid tape ID", err)
	}
	if err := h.tapes.DeleteTape(ctx, id); err != nil {
		return nil, mapTapeError(err)
	}
	out := &DeleteTapeOutput{}
	out.Body.Deleted = true
	return out, nil
}

// GetTimelineInput is the input for the timeline preview.
type GetTimelineInput struct {
	ID string `path:"id" doc:"Tape ID (ULID)"`
}

// GetTimelineOutput is the output for the timeline preview.
type GetTimelineOutput struct {
	Body TimelineResponse
}

// GetTimeline builds and returns the tape's timeline.
func (h *TapeHandler) GetTimeline(ctx context.Context, input *GetTimelineInput) (*GetTimelineOutput, error) {
	id, err := models.ParseULID(input.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid tape ID", err)
	}
	preview, err := h.tapes.Preview(ctx, id)
	if err != nil {
		return nil, mapTapeError(err)
	}
	return &GetTimelineOutput{Body: TimelineFromPreview(preview)}, nil
}

// AddClipInput is the input for adding a clip.
type AddClipInput struct {
	ID   string `path:"id" doc:"Tape ID (ULID)"`
	Body AddClipRequest
}

// ClipOutput wraps a single clip response.
type ClipOutput struct {
	Body ClipResponse
}

// AddClip adds a clip to a tape.
func (h *TapeHandler) AddClip(ctx context.Context, input *AddClipInput) (*ClipOutput, error) {
	id, err := models.ParseULID(input.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid tape ID", err)
	}

	clip := &models.Clip{
		Kind:          input.Body.Kind,
		SourcePath:    input.Body.SourcePath,
		AssetURL:      input.Body.AssetURL,
		MediaDuration: models.Seconds(input.Body.Duration),
		TrimStart:     models.Seconds(input.Body.TrimStart),
		TrimEnd:       models.Seconds(input.Body.TrimEnd),
		Rotation:      input.Body.Rotation,
		ScaleOverride: input.Body.ScaleOverride,
	}
	if err := h.tapes.AddClip(ctx, id, clip, input.Body.Position); err != nil {
		return nil, mapTapeError(err)
	}
	return &ClipOutput{Body: ClipFromModel(clip)}, nil
}

// UpdateClipInput is the input for updating a clip.
type UpdateClipInput struct {
	ID   string `path:"id" doc:"Clip ID (ULID)"`
	Body UpdateClipRequest
}

// UpdateClip updates a clip's editable fields.
func (h *TapeHandler) UpdateClip(ctx context.Context, input *UpdateClipInput) (*ClipOutput, error) {
	id, err := models.ParseULID(input.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid clip ID", err)
	}
	clip, err := h.tapes.GetClip(ctx, id)
	if err != nil {
		return nil, mapTapeError(err)
	}

	if input.Body.Duration > 0 {
		clip.MediaDuration = models.Seconds(input.Body.Duration)
	}
	clip.TrimStart = models.Seconds(input.Body.TrimStart)
	clip.TrimEnd = models.Seconds(input.Body.TrimEnd)
	clip.Rotation = input.Body.Rotation
	clip.ScaleOverride = input.Body.ScaleOverride

	if err := h.tapes.UpdateClip(ctx, clip); err != nil {
		return nil, mapTapeError(err)
	}
	return &ClipOutput{Body: ClipFromModel(clip)}, nil
}

// RemoveClipInput is the input for removing a clip.
type RemoveClipInput struct {
	ID string `path:"id" doc:"Clip ID (ULID)"`
}

// RemoveClipOutput is the output for removing a clip.
type RemoveClipOutput struct {
	Body struct {
		Deleted bool `json:"deleted"`
	}
}

// RemoveClip removes a clip from its tape.
func (h *TapeHandler) RemoveClip(ctx context.Context, input *RemoveClipInput) (*RemoveClipOutput, error) {
	id, err := models.ParseULID(input.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid clip ID", err)
	}
	if err := h.tapes.RemoveClip(ctx, id); err != nil {
		return nil, mapTapeError(err)
	}
	out := &RemoveClipOutput{}
	out.Body.Deleted = true
	return out, nil
}

// ReorderClipsInput is the input for reordering clips.
type ReorderClipsInput struct {
	ID   string `path:"id" doc:"Tape ID (ULID)"`
	Body ReorderClipsRequest
}

// ReorderClips applies a complete new clip order to a tape.
func (h *TapeHandler) ReorderClips(ctx context.Context, input *ReorderClipsInput) (*TapeOutput, error) {
	id, err := models.ParseULID(input.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid tape ID", err)
	}

	ids := make([]models.ULID, len(input.Body.ClipIDs))
	for i, raw := range input.Body.ClipIDs {
		ids[i], err = models.ParseULID(raw)
		if err != nil {
			return nil, huma.Error400BadRequest("invalid clip ID", err)
		}
	}

	if err := h.tapes.ReorderClips(ctx, id, ids); err != nil {
		return nil, mapTapeError(err)
	}

	tape, err := h.tapes.GetTape(ctx, id)
	if err != nil {
		return nil, mapTapeError(err)
	}
	return &TapeOutput{Body: TapeFromModel(tape)}, nil
}

// tapeFromRequest builds a tape model from a create request, applying the
// model defaults for omitted fields.
func tapeFromRequest(req CreateTapeRequest) *models.Tape {
	tape := &models.Tape{
		Name:               req.Name,
		Orientation:        req.Orientation,
		ScaleMode:          req.ScaleMode,
		TransitionStyle:    req.TransitionStyle,
		TransitionDuration: models.Seconds(req.TransitionDuration),
	}
	if tape.Orientation == "" {
		tape.Orientation = models.OrientationLandscape
	}
	if tape.ScaleMode == "" {
		tape.ScaleMode = models.ScaleModeFit
	}
	if tape.TransitionStyle == "" {
		tape.TransitionStyle = models.TransitionNone
	}
	return tape
}

// applyTapeRequest copies an update request onto an existing tape.
func applyTapeRequest(tape *models.Tape, req UpdateTapeRequest) {
	if req.Name != "" {
		tape.Name = req.Name
	}
	if req.Orientation != "" {
		tape.Orientation = req.Orientation
	}
	if req.ScaleMode != "" {
		tape.ScaleMode = req.ScaleMode
	}
	if req.TransitionStyle != "" {
		tape.TransitionStyle = req.TransitionStyle
	}
	if req.TransitionDuration > 0 {
		tape.TransitionDuration = models.Seconds(req.TransitionDuration)
	}
}

// mapTapeError converts service errors to API status errors.
func mapTapeError(err error) error {
	switch {
	case errors.Is(err, service.ErrTapeNotFound), errors.Is(err, service.ErrClipNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, models.ErrNameRequired),
		errors.Is(err, models.ErrInvalidOrientation),
		errors.Is(err, models.ErrInvalidScaleMode),
		errors.Is(err, models.ErrInvalidTransitionStyle),
		errors.Is(err, models.ErrInvalidMediaKind),
		errors.Is(err, models.ErrClipSourceRequired),
		errors.Is(err, models.ErrClipSourceAmbiguous),
		errors.Is(err, models.ErrTapeEmpty):
		return huma.Error422UnprocessableEntity(err.Error())
	default:
		return huma.Error500InternalServerError("tape operation failed", err)
	}
}
