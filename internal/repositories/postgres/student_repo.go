package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/yoockh/eslsheets/internal/models"
	"github.com/yoockh/eslsheets/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StudentRepository interface {
	Create(ctx context.Context, s *models.StudentProfile) error
	GetByID(ctx context.Context, id string) (*models.StudentProfile, error)
	List(ctx context.Context, limit, offset int) ([]models.StudentProfile, error)
	Delete(ctx context.Context, id string) error
	// UpdateLocked runs fn on the row under SELECT ... FOR UPDATE and saves
	// the result in the same transaction. If fn fails nothing is written.
	UpdateLocked(ctx context.Context, id string, fn func(row *models.StudentProfile) error) (*models.StudentProfile, error)
}

type studentRepo struct {
	db *gorm.DB
}

func NewStudentRepo(db *gorm.DB) StudentRepository {
	return &studentRepo{db: db}
}

func (r *studentRepo) Create(ctx context.Context, s *models.StudentProfile) error {
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	if s.Version == 0 {
		s.Version = 1
	}
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *studentRepo) GetByID(ctx context.Context, id string) (*models.StudentProfile, error) {
	var s models.StudentProfile
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &s, err
}

func (r *studentRepo) List(ctx context.Context, limit, offset int) ([]models.StudentProfile, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var rows []models.StudentProfile
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	return rows, err
}

func (r *studentRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.StudentProfile{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *studentRepo) UpdateLocked(ctx context.Context, id string, fn func(row *models.StudentProfile) error) (*models.StudentProfile, error) {
	var row models.StudentProfile
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			Take(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrNotFound
		}
		if err != nil {
			return err
		}

		if err := fn(&row); err != nil {
			return err
		}
		row.Version++
		row.UpdatedAt = time.Now().UTC()
		return tx.Save(&row).Error
	})
	if err != nil {
		return nil, err
	}
	return &row, nil
}
