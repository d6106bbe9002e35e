package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/eslsheets/internal/cache"
	"github.com/yoockh/eslsheets/internal/extraction"
	"github.com/yoockh/eslsheets/internal/models"
	"github.com/yoockh/eslsheets/internal/pipeline"
	"github.com/yoockh/eslsheets/internal/profile"
	mongorepo "github.com/yoockh/eslsheets/internal/repositories/mongo"
	pgrepo "github.com/yoockh/eslsheets/internal/repositories/postgres"
	"github.com/yoockh/eslsheets/internal/utils"
)

type ExtractRequest struct {
	StudentID    string
	TranscriptID string
	Strategy     string
	RequestedBy  string
}

// ExtractOutcome is what a synchronous run returns. Student is the stored
// row after the write and is nil when the run failed.
type ExtractOutcome struct {
	Run     *models.ExtractionRun  `json:"run"`
	Result  pipeline.Result        `json:"result"`
	Student *models.StudentProfile `json:"student,omitempty"`
}

type ExtractionService interface {
	// Preview runs the pipeline without touching storage. existing may be nil.
	Preview(ctx context.Context, transcript string, existing map[string]any, strategy string) (pipeline.Result, error)
	Extract(ctx context.Context, req ExtractRequest) (*ExtractOutcome, error)
	// Enqueue records a pending run and queues it for the worker pool.
	Enqueue(ctx context.Context, req ExtractRequest) (*models.ExtractionRun, error)
	// Execute runs a queued run. Runs that already left pending are skipped.
	Execute(ctx context.Context, runID string) error
	GetRun(ctx context.Context, runID string) (*models.ExtractionRun, error)
	ListRuns(ctx context.Context, studentID string, limit int64) ([]models.ExtractionRun, error)
}

type ExtractionDeps struct {
	Strategies      map[string]extraction.Strategy
	DefaultStrategy string

	Pipeline    *pipeline.Pipeline
	Students    pgrepo.StudentRepository
	Transcripts pgrepo.TranscriptRepository
	Runs        mongorepo.RunRepository

	Queue    RunQueue
	Notifier RunNotifier
	Cache    cache.Cache
	RunTTL   time.Duration
	Logger   *logrus.Logger
}

type extractionService struct {
	ExtractionDeps
}

func NewExtractionService(d ExtractionDeps) ExtractionService {
	if d.Logger == nil {
		d.Logger = logrus.New()
	}
	if d.Pipeline == nil {
		d.Pipeline = pipeline.New(profile.Merger{}, d.Logger)
	}
	if d.DefaultStrategy == "" {
		d.DefaultStrategy = extraction.NameChain
	}
	if d.RunTTL <= 0 {
		d.RunTTL = 30 * 24 * time.Hour
	}
	return &extractionService{ExtractionDeps: d}
}

func (s *extractionService) strategy(op, name string) (extraction.Strategy, error) {
	if name == "" {
		name = s.DefaultStrategy
	}
	st, ok := s.Strategies[strings.ToLower(name)]
	if !ok || st == nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, fmt.Sprintf("unknown or unavailable strategy %q", name), nil)
	}
	return st, nil
}

func (s *extractionService) Preview(ctx context.Context, transcript string, existing map[string]any, strategy string) (pipeline.Result, error) {
	const op = "ExtractionService.Preview"

	st, err := s.strategy(op, strategy)
	if err != nil {
		return pipeline.Result{}, err
	}

	var base *profile.StudentProfile
	if len(existing) > 0 {
		v, defects := profile.Validate(profile.DraftFromMap(existing, profile.SourceManual))
		if len(defects) > 0 {
			return pipeline.Result{}, utils.WithDetails(utils.CodeUnprocessable, op, "invalid existing profile", nil, defects)
		}
		p := v.Profile()
		base = &p
	}

	res := s.Pipeline.Run(ctx, transcript, base, st)
	if !res.OK {
		return res, failureError(op, res.Failure)
	}
	return res, nil
}

func (s *extractionService) Extract(ctx context.Context, req ExtractRequest) (*ExtractOutcome, error) {
	const op = "ExtractionService.Extract"

	run, err := s.newRun(ctx, op, req)
	if err != nil {
		return nil, err
	}
	if err := s.Runs.Create(ctx, run); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to record extraction run", err)
	}

	return s.execute(ctx, op, run)
}

func (s *extractionService) Enqueue(ctx context.Context, req ExtractRequest) (*models.ExtractionRun, error) {
	const op = "ExtractionService.Enqueue"

	if s.Queue == nil {
		return nil, utils.E(utils.CodeUnavailable, op, "async extraction is not configured", nil)
	}
	run, err := s.newRun(ctx, op, req)
	if err != nil {
		return nil, err
	}
	if err := s.Runs.Create(ctx, run); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to record extraction run", err)
	}
	if err := s.Queue.Enqueue(ctx, run.RunID); err != nil {
		s.finish(ctx, run, time.Now(), mongorepo.RunResult{
			Status:  models.RunFailed,
			Failure: &models.RunFailure{Kind: string(pipeline.KindInternal), Message: "failed to enqueue run"},
		})
		return nil, utils.E(utils.CodeUnavailable, op, "failed to enqueue extraction run", err)
	}
	s.publish(ctx, run.RunID, models.RunPending, nil)
	return run, nil
}

func (s *extractionService) Execute(ctx context.Context, runID string) error {
	const op = "ExtractionService.Execute"

	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	if run.Status != models.RunPending {
		s.Logger.WithFields(logrus.Fields{"run_id": runID, "status": run.Status}).Info("skipping run that is no longer pending")
		return nil
	}
	_, err = s.execute(ctx, op, run)
	return err
}

func (s *extractionService) GetRun(ctx context.Context, runID string) (*models.ExtractionRun, error) {
	const op = "ExtractionService.GetRun"

	if runID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "run_id is required", nil)
	}
	run, err := s.Runs.GetByRunID(ctx, runID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "extraction run not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get extraction run", err)
	}
	return run, nil
}

func (s *extractionService) ListRuns(ctx context.Context, studentID string, limit int64) ([]models.ExtractionRun, error) {
	const op = "ExtractionService.ListRuns"

	if studentID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "student_id is required", nil)
	}
	runs, err := s.Runs.ListByStudent(ctx, studentID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list extraction runs", err)
	}
	return runs, nil
}

func (s *extractionService) newRun(ctx context.Context, op string, req ExtractRequest) (*models.ExtractionRun, error) {
	if req.StudentID == "" || req.TranscriptID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "student_id and transcript_id are required", nil)
	}
	st, err := s.strategy(op, req.Strategy)
	if err != nil {
		return nil, err
	}
	if _, err := s.transcript(ctx, op, req.StudentID, req.TranscriptID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &models.ExtractionRun{
		RunID:        uuid.NewString(),
		StudentID:    req.StudentID,
		TranscriptID: req.TranscriptID,
		Strategy:     st.Name(),
		Status:       models.RunPending,
		RequestedBy:  req.RequestedBy,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.RunTTL),
	}, nil
}

func (s *extractionService) transcript(ctx context.Context, op, studentID, transcriptID string) (*models.Transcript, error) {
	t, err := s.Transcripts.GetByID(ctx, transcriptID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "transcript not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get transcript", err)
	}
	if t.StudentID != studentID {
		return nil, utils.E(utils.CodeNotFound, op, "transcript not found for student", nil)
	}
	return t, nil
}

// execute runs the pipeline against the stored profile and, on success,
// re-merges the validated output with the row under lock. A failed run
// never writes to the profile.
func (s *extractionService) execute(ctx context.Context, op string, run *models.ExtractionRun) (*ExtractOutcome, error) {
	started := time.Now()
	log := s.Logger.WithFields(logrus.Fields{
		"run_id":        run.RunID,
		"student_id":    run.StudentID,
		"transcript_id": run.TranscriptID,
		"strategy":      run.Strategy,
	})

	if err := s.Runs.MarkRunning(ctx, run.RunID, started); err != nil {
		log.WithError(err).Warn("failed to mark run running")
	}
	run.Status = models.RunRunning
	s.publish(ctx, run.RunID, models.RunRunning, nil)

	out := &ExtractOutcome{Run: run}
	fail := func(f *models.RunFailure, err error) (*ExtractOutcome, error) {
		s.finish(ctx, run, started, mongorepo.RunResult{Status: models.RunFailed, Failure: f})
		return out, err
	}

	st, err := s.strategy(op, run.Strategy)
	if err != nil {
		return fail(&models.RunFailure{Kind: string(pipeline.KindInternal), Message: "strategy no longer available"}, err)
	}
	t, err := s.transcript(ctx, op, run.StudentID, run.TranscriptID)
	if err != nil {
		return fail(&models.RunFailure{Kind: string(pipeline.KindInternal), Message: "transcript unavailable"}, err)
	}
	row, err := s.Students.GetByID(ctx, run.StudentID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return fail(&models.RunFailure{Kind: string(pipeline.KindInternal), Message: "student not found"},
				utils.E(utils.CodeNotFound, op, "student not found", err))
		}
		return fail(&models.RunFailure{Kind: string(pipeline.KindInternal), Message: "student unavailable"},
			utils.E(utils.CodeInternal, op, "failed to get student", err))
	}

	existing, err := row.Domain()
	if err != nil {
		return fail(&models.RunFailure{Kind: string(pipeline.KindInternal), Message: "stored profile unreadable"},
			utils.E(utils.CodeInternal, op, "stored student profile is corrupt", err))
	}
	res := s.Pipeline.Run(ctx, t.Transcription, &existing, st)
	out.Result = res
	if !res.OK {
		return fail(runFailure(res.Failure), failureError(op, res.Failure))
	}

	saved, err := s.Students.UpdateLocked(ctx, run.StudentID, func(locked *models.StudentProfile) error {
		current, err := locked.Domain()
		if err != nil {
			return err
		}
		merged, err := s.Pipeline.Merger.Merge(&current, res.Validated)
		if err != nil {
			return err
		}
		locked.Apply(merged)
		return nil
	})
	if err != nil {
		var conflict *profile.ConflictError
		if errors.As(err, &conflict) {
			f := &pipeline.Failure{Kind: pipeline.KindMergeConflict, Message: conflict.Error(), Err: conflict}
			out.Result = pipeline.Result{Failure: f}
			return fail(runFailure(f), failureError(op, f))
		}
		return fail(&models.RunFailure{Kind: string(pipeline.KindInternal), Message: "failed to save profile"},
			utils.E(utils.CodeInternal, op, "failed to save student profile", err))
	}
	if s.Cache != nil {
		if err := s.Cache.Del(ctx, cache.StudentKey(run.StudentID)); err != nil {
			log.WithError(err).Warn("profile cache delete failed")
		}
	}

	merged, err := saved.Domain()
	if err != nil {
		log.WithError(err).Warn("saved profile provenance unreadable")
	}
	out.Result.Profile = &merged
	out.Student = saved
	s.finish(ctx, run, started, mongorepo.RunResult{
		Status:          models.RunSucceeded,
		FieldsExtracted: res.Validated.Names(),
		ProfileVersion:  saved.Version,
	})
	log.WithField("fields", res.Validated.Len()).Info("extraction run succeeded")
	return out, nil
}

// finish writes the terminal state even if ctx was cancelled mid-run.
func (s *extractionService) finish(ctx context.Context, run *models.ExtractionRun, started time.Time, r mongorepo.RunResult) {
	ctx = context.WithoutCancel(ctx)
	now := time.Now().UTC()
	r.FinishedAt = now
	r.ProcessingMS = time.Since(started).Milliseconds()

	if err := s.Runs.Finish(ctx, run.RunID, r); err != nil {
		s.Logger.WithError(err).WithField("run_id", run.RunID).Error("failed to record run result")
	}
	run.Status = r.Status
	run.FinishedAt = &now
	run.ProcessingTimeMS = r.ProcessingMS
	run.FieldsExtracted = r.FieldsExtracted
	run.Failure = r.Failure
	run.ProfileVersion = r.ProfileVersion
	s.publish(ctx, run.RunID, r.Status, r.Failure)
}

func (s *extractionService) publish(ctx context.Context, runID, status string, f *models.RunFailure) {
	if s.Notifier == nil {
		return
	}
	ev := models.RunStatusEvent{RunID: runID, Status: status, Failure: f, At: time.Now().UTC()}
	if err := s.Notifier.Publish(context.WithoutCancel(ctx), ev); err != nil {
		s.Logger.WithError(err).WithField("run_id", runID).Warn("failed to publish run status")
	}
}

func runFailure(f *pipeline.Failure) *models.RunFailure {
	rf := &models.RunFailure{
		Kind:           string(f.Kind),
		ExtractionKind: string(f.ExtractionKind),
		Message:        f.Message,
	}
	for _, d := range f.Defects {
		rf.Defects = append(rf.Defects, models.FieldDefect{Field: d.Field, Reason: d.Reason})
	}
	return rf
}

// failureError maps a pipeline failure onto the HTTP-facing error codes.
func failureError(op string, f *pipeline.Failure) error {
	code := utils.CodeInternal
	switch f.Kind {
	case pipeline.KindValidation:
		code = utils.CodeUnprocessable
	case pipeline.KindMergeConflict:
		code = utils.CodeConflict
	case pipeline.KindExtraction:
		switch f.ExtractionKind {
		case extraction.KindTimeout:
			code = utils.CodeTimeout
		case extraction.KindMalformedResponse:
			code = utils.CodeBadGateway
		case extraction.KindEmptyTranscript:
			code = utils.CodeInvalidArgument
		default:
			code = utils.CodeUnavailable
		}
	}
	return utils.WithDetails(code, op, f.Message, f, f)
}
