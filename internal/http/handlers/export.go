package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/tapedeck/internal/export"
	"github.com/jmylchreest/tapedeck/internal/models"
	"github.com/jmylchreest/tapedeck/internal/service"
)

// ExportHandler handles export job endpoints.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler creates a new export handler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Register registers the export routes with the API.
func (h *ExportHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "startExport",
		Method:      http.MethodPost,
		Path:        "/api/v1/tapes/{id}/export",
		Summary:     "Start an export job",
		Description: "Renders the tape's timeline into a single merged file using the same build that drives playback.",
		Tags:        []string{"Export"},
	}, h.StartExport)

	huma.Register(api, huma.Operation{
		OperationID: "listExportJobs",
		Method:      http.MethodGet,
		Path:        "/api/v1/exports",
		Summary:     "List export jobs",
		Tags:        []string{"Export"},
	}, h.ListJobs)

	huma.Register(api, huma.Operation{
		OperationID: "getExportJob",
		Method:      http.MethodGet,
		Path:        "/api/v1/exports/{id}",
		Summary:     "Get an export job's state and progress",
		Tags:        []string{"Export"},
	}, h.GetJob)

	huma.Register(api, huma.Operation{
		OperationID: "cancelExportJob",
		Method:      http.MethodPost,
		Path:        "/api/v1/exports/{id}/cancel",
		Summary:     "Cancel an export job",
		Tags:        []string{"Export"},
	}, h.CancelJob)
}

// StartExportInput is the input for starting an export.
type StartExportInput struct {
	ID   string `path:"id" doc:"Tape ID (ULID)"`
	Body StartExportRequest
}

// ExportJobOutput wraps a single export job response.
type ExportJobOutput struct {
	Body ExportJobResponse
}

// StartExport starts an export job for a tape.
func (h *ExportHandler) StartExport(ctx context.Context, input *StartExportInput) (*ExportJobOutput, error) {
	tapeID, err := models.ParseULID(input.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid tape ID", err)
	}

	opts := export.Options{
		Tier:       input.Body.Tier,
		Container:  input.Body.Container,
		FrameRate:  input.Body.FrameRate,
		OutputPath: input.Body.OutputPath,
	}
	job, err := h.exports.StartExport(ctx, tapeID, opts)
	if err != nil {
		return nil, mapExportError(err)
	}
	return &ExportJobOutput{Body: ExportJobFromSnapshot(job)}, nil
}

// ListJobsInput is the input for listing export jobs.
type ListJobsInput struct{}

// ListJobsOutput is the output for listing export jobs.
type ListJobsOutput struct {
	Body struct {
		Jobs []ExportJobResponse `json:"jobs"`
	}
}

// ListJobs returns all export jobs, newest first.
func (h *ExportHandler) ListJobs(_ context.Context, _ *ListJobsInput) (*ListJobsOutput, error) {
	jobs := h.exports.ListJobs()
	out := &ListJobsOutput{}
	out.Body.Jobs = make([]ExportJobResponse, len(jobs))
	for i, j := range jobs {
		out.Body.Jobs[i] = ExportJobFromSnapshot(j)
	}
	return out, nil
}

// JobIDInput addresses an export job by ID.
type JobIDInput struct {
	ID string `path:"id" doc:"Export job ID"`
}

// GetJob returns an export job's state and progress.
func (h *ExportHandler) GetJob(_ context.Context, input *JobIDInput) (*ExportJobOutput, error) {
	job, err := h.exports.GetJob(input.ID)
	if err != nil {
		return nil, mapExportError(err)
	}
	return &ExportJobOutput{Body: ExportJobFromSnapshot(job)}, nil
}

// CancelJob aborts a queued or running export job.
func (h *ExportHandler) CancelJob(_ context.Context, input *JobIDInput) (*ExportJobOutput, error) {
	job, err := h.exports.CancelJob(input.ID)
	if err != nil {
		return nil, mapExportError(err)
	}
	return &ExportJobOutput{Body: ExportJobFromSnapshot(job)}, nil
}

// mapExportError converts service errors to API status errors.
func mapExportError(err error) error {
	switch {
	case errors.Is(err, service.ErrJobNotFound), errors.Is(err, service.ErrTapeNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, models.ErrTapeEmpty),
		errors.Is(err, export.ErrInvalidTier),
		errors.Is(err, export.ErrInvalidContainer),
		errors.Is(err, export.ErrOutputPathRequired):
		return huma.Error422UnprocessableEntity(err.Error())
	default:
		return huma.Error500InternalServerError("export operation failed", err)
	}
}
