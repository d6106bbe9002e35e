package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/eslsheets/internal/cache"
	"github.com/yoockh/eslsheets/internal/models"
	"github.com/yoockh/eslsheets/internal/profile"
	pgrepo "github.com/yoockh/eslsheets/internal/repositories/postgres"
	"github.com/yoockh/eslsheets/internal/utils"
)

type StudentService interface {
	Create(ctx context.Context, fields map[string]any) (*models.StudentProfile, error)
	Get(ctx context.Context, id string) (*models.StudentProfile, error)
	List(ctx context.Context, limit, offset int) ([]models.StudentProfile, error)
	// Patch validates fields and merges them into the stored profile as
	// manual edits: lists are unioned and omitted fields are kept.
	Patch(ctx context.Context, id string, fields map[string]any) (*models.StudentProfile, error)
	Delete(ctx context.Context, id string) error
}

type studentService struct {
	students pgrepo.StudentRepository
	cache    cache.Cache
	cacheTTL time.Duration
	log      *logrus.Logger
}

func NewStudentService(students pgrepo.StudentRepository, c cache.Cache, cacheTTL time.Duration, log *logrus.Logger) StudentService {
	if log == nil {
		log = logrus.New()
	}
	return &studentService{students: students, cache: c, cacheTTL: cacheTTL, log: log}
}

func (s *studentService) Create(ctx context.Context, fields map[string]any) (*models.StudentProfile, error) {
	const op = "StudentService.Create"

	validated, defects := profile.Validate(profile.DraftFromMap(fields, profile.SourceManual))
	if len(defects) > 0 {
		return nil, utils.WithDetails(utils.CodeUnprocessable, op, "invalid student profile", nil, defects)
	}
	p := validated.Profile()
	if missing := p.Missing(); len(missing) > 0 {
		return nil, utils.WithDetails(utils.CodeUnprocessable, op, "missing required fields", nil, missing)
	}

	row := &models.StudentProfile{ID: uuid.NewString()}
	row.Apply(p)
	if err := s.students.Create(ctx, row); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create student", err)
	}
	return row, nil
}

func (s *studentService) Get(ctx context.Context, id string) (*models.StudentProfile, error) {
	const op = "StudentService.Get"

	if id == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "student_id is required", nil)
	}

	var cached models.StudentProfile
	if s.cache != nil {
		if hit, err := s.cache.GetJSON(ctx, cache.StudentKey(id), &cached); err == nil && hit {
			return &cached, nil
		} else if err != nil {
			s.log.WithError(err).WithField("student_id", id).Warn("profile cache read failed")
		}
	}

	row, err := s.students.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "student not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get student", err)
	}
	s.remember(ctx, row)
	return row, nil
}

func (s *studentService) List(ctx context.Context, limit, offset int) ([]models.StudentProfile, error) {
	const op = "StudentService.List"

	if offset < 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "offset must be non-negative", nil)
	}
	rows, err := s.students.List(ctx, limit, offset)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list students", err)
	}
	return rows, nil
}

func (s *studentService) Patch(ctx context.Context, id string, fields map[string]any) (*models.StudentProfile, error) {
	const op = "StudentService.Patch"

	if id == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "student_id is required", nil)
	}
	if len(fields) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "no fields to update", nil)
	}
	validated, defects := profile.Validate(profile.DraftFromMap(fields, profile.SourceManual))
	if len(defects) > 0 {
		return nil, utils.WithDetails(utils.CodeUnprocessable, op, "invalid student profile", nil, defects)
	}

	row, err := s.students.UpdateLocked(ctx, id, func(row *models.StudentProfile) error {
		current, err := row.Domain()
		if err != nil {
			return err
		}
		row.Apply(profile.Merge(&current, validated))
		return nil
	})
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "student not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to update student", err)
	}
	s.remember(ctx, row)
	return row, nil
}

func (s *studentService) Delete(ctx context.Context, id string) error {
	const op = "StudentService.Delete"

	if id == "" {
		return utils.E(utils.CodeInvalidArgument, op, "student_id is required", nil)
	}
	if err := s.students.Delete(ctx, id); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "student not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to delete student", err)
	}
	s.forget(ctx, id)
	return nil
}

func (s *studentService) remember(ctx context.Context, row *models.StudentProfile) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	if err := s.cache.SetJSON(ctx, cache.StudentKey(row.ID), row, s.cacheTTL); err != nil {
		s.log.WithError(err).WithField("student_id", row.ID).Warn("profile cache write failed")
	}
}

func (s *studentService) forget(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cache.StudentKey(id)); err != nil {
		s.log.WithError(err).WithField("student_id", id).Warn("profile cache delete failed")
	}
}
