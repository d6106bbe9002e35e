package postgres

import (
	"context"
	"errors"

	"github.com/yoockh/eslsheets/internal/models"
	"github.com/yoockh/eslsheets/internal/utils"
	"gorm.io/gorm"
)

type TemplateRepository interface {
	Create(ctx context.Context, t *models.Template) error
	GetByID(ctx context.Context, id string) (*models.Template, error)
	List(ctx context.Context, kind models.TemplateKind) ([]models.Template, error)
}

type templateRepo struct {
	db *gorm.DB
}

func NewTemplateRepo(db *gorm.DB) TemplateRepository {
	return &templateRepo{db: db}
}

func (r *templateRepo) Create(ctx context.Context, t *models.Template) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *templateRepo) GetByID(ctx context.Context, id string) (*models.Template, error) {
	var t models.Template
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &t, err
}

func (r *templateRepo) List(ctx context.Context, kind models.TemplateKind) ([]models.Template, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	var rows []models.Template
	err := q.Find(&rows).Error
	return rows, err
}

type WorksheetRepository interface {
	Insert(ctx context.Context, w *models.Worksheet) error
	ListByStudent(ctx context.Context, studentID string) ([]models.Worksheet, error)
}

type worksheetRepo struct {
	db *gorm.DB
}

func NewWorksheetRepo(db *gorm.DB) WorksheetRepository {
	return &worksheetRepo{db: db}
}

func (r *worksheetRepo) Insert(ctx context.Context, w *models.Worksheet) error {
	return r.db.WithContext(ctx).Create(w).Error
}

func (r *worksheetRepo) ListByStudent(ctx context.Context, studentID string) ([]models.Worksheet, error) {
	var rows []models.Worksheet
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}
