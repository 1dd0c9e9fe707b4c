package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jmylchreest/tapedeck/internal/export"
	"github.com/jmylchreest/tapedeck/internal/ffmpeg"
	"github.com/jmylchreest/tapedeck/internal/models"
	"github.com/jmylchreest/tapedeck/internal/timeline"
)

// ErrJobNotFound indicates an unknown export job ID.
var ErrJobNotFound = errors.New("export job not found")

// JobState is the lifecycle state of an export job.
type JobState string

const (
	JobQueued    JobState = "queued"
	JobRunning   JobState = "running"
	JobComplete  JobState = "complete"
	JobFailed    JobState = "failed"
	JobCancelled JobState = "cancelled"
)

// ExportJob is an observable snapshot of one export run.
type ExportJob struct {
	ID         string          `json:"id"`
	TapeID     models.ULID     `json:"tape_id"`
	State      JobState        `json:"state"`
	Options    export.Options  `json:"options"`
	Progress   ffmpeg.Progress `json:"progress"`
	OutputPath string          `json:"output_path"`
	Merged     time.Duration   `json:"merged_duration"`
	Error      string          `json:"error,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
}

// job is the mutable record behind an ExportJob snapshot.
type job struct {
	mu     sync.Mutex
	snap   ExportJob
	cancel context.CancelFunc
}

func (j *job) snapshot() ExportJob {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.snap
}

// ExportService runs tape exports as background jobs and tracks their state
// in memory. Jobs don't survive a daemon restart; the rendered files do.
type ExportService struct {
	tapes     *TapeService
	exporter  *export.Exporter
	exportDir string
	logger    *slog.Logger

	mu   sync.RWMutex
	jobs map[string]*job
}

// NewExportService creates an export job service writing into exportDir by
// default; per-job options may override the output path.
func NewExportService(tapes *TapeService, exporter *export.Exporter, exportDir string) *ExportService {
	return &ExportService{
		tapes:     tapes,
		exporter:  exporter,
		exportDir: exportDir,
		logger:    slog.Default(),
		jobs:      make(map[string]*job),
	}
}

// WithLogger sets the logger for the service.
func (s *ExportService) WithLogger(logger *slog.Logger) *ExportService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// StartExport validates the request, registers a job, and starts the render
// in the background. The returned snapshot is the job's initial state.
func (s *ExportService) StartExport(ctx context.Context, tapeID models.ULID, opts export.Options) (ExportJob, error) {
	tape, err := s.tapes.LoadForBuild(ctx, tapeID)
	if err != nil {
		return ExportJob{}, err
	}
	if len(tape.Clips) == 0 {
		return ExportJob{}, models.ErrTapeEmpty
	}

	if opts.Tier == "" {
		opts.Tier = export.Tier1080p
	}
	if opts.Container == "" {
		opts.Container = export.ContainerMP4
	}
	if opts.OutputPath == "" {
		opts.OutputPath = s.defaultOutputPath(tape, opts.Container)
	}
	if err := opts.Validate(); err != nil {
		return ExportJob{}, err
	}

	// Build the timeline up front so the job can report progress as a
	// percentage of the expected merged duration.
	tl, err := timeline.Build(tape, s.tapes.BuildConfig())
	if err != nil {
		return ExportJob{}, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	j := &job{
		snap: ExportJob{
			ID:         uuid.New().String(),
			TapeID:     tapeID,
			State:      JobQueued,
			Options:    opts,
			OutputPath: opts.OutputPath,
			Merged:     export.MergedDuration(tl),
			CreatedAt:  time.Now(),
		},
		cancel: cancel,
	}

	s.mu.Lock()
	s.jobs[j.snap.ID] = j
	s.mu.Unlock()

	go s.run(runCtx, j, tape)

	s.logger.Info("export job started",
		"job_id", j.snap.ID,
		"tape_id", tapeID,
		"tier", opts.Tier,
		"output", opts.OutputPath)
	return j.snapshot(), nil
}

// GetJob returns a job snapshot by ID.
func (s *ExportService) GetJob(id string) (ExportJob, error) {
	s.mu.RLock()
	j, ok := s.jobs[id]
	s.mu.RUnlock()
	if !ok {
		return ExportJob{}, ErrJobNotFound
	}
	return j.snapshot(), nil
}

// ListJobs returns snapshots of all known jobs, newest first.
func (s *ExportService) ListJobs() []ExportJob {
	s.mu.RLock()
	jobs := make([]ExportJob, 0, len(s.jobs))
	for _, j := range s.jobs {
		jobs = append(jobs, j.snapshot())
	}
	s.mu.RUnlock()

	sort.Slice(jobs, func(i, k int) bool { return jobs[i].CreatedAt.After(jobs[k].CreatedAt) })
	return jobs
}

// CancelJob aborts a queued or running job. Finished jobs are left as-is.
func (s *ExportService) CancelJob(id string) (ExportJob, error) {
	s.mu.RLock()
	j, ok := s.jobs[id]
	s.mu.RUnlock()
	if !ok {
		return ExportJob{}, ErrJobNotFound
	}

	j.mu.Lock()
	if j.snap.State == JobQueued || j.snap.State == JobRunning {
		j.snap.State = JobCancelled
		j.snap.FinishedAt = time.Now()
		j.cancel()
	}
	snap := j.snap
	j.mu.Unlock()
	return snap, nil
}

// run executes the export and records its outcome on the job.
func (s *ExportService) run(ctx context.Context, j *job, tape *models.Tape) {
	j.mu.Lock()
	if j.snap.State != JobQueued {
		j.mu.Unlock()
		return
	}
	j.snap.State = JobRunning
	j.snap.StartedAt = time.Now()
	opts := j.snap.Options
	j.mu.Unlock()

	comp, err := s.exporter.Export(ctx, tape, opts, func(p ffmpeg.Progress) {
		j.mu.Lock()
		j.snap.Progress = p
		j.mu.Unlock()
	})

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.snap.State == JobCancelled {
		return
	}
	j.snap.FinishedAt = time.Now()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			j.snap.State = JobCancelled
			return
		}
		j.snap.State = JobFailed
		j.snap.Error = err.Error()
		s.logger.Error("export job failed", "job_id", j.snap.ID, "error", err)
		return
	}
	j.snap.State = JobComplete
	j.snap.Merged = comp.Merged
	j.snap.OutputPath = comp.LocalPath
	s.logger.Info("export job complete",
		"job_id", j.snap.ID,
		"output", comp.LocalPath,
		"merged", comp.Merged)
}

// defaultOutputPath derives a filesystem-safe output name from the tape.
func (s *ExportService) defaultOutputPath(tape *models.Tape, container export.Container) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '-'
		default:
			return -1
		}
	}, tape.Name)
	if name == "" {
		name = tape.ID.String()
	}
	filename := fmt.Sprintf("%s-%s.%s", name, time.Now().Format("20060102-150405"), container)
	return filepath.Join(s.exportDir, filename)
}
