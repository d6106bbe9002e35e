package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/yoockh/eslsheets/internal/models"
	"github.com/yoockh/eslsheets/internal/profile"
	"github.com/yoockh/eslsheets/internal/providers/llm"
	pgrepo "github.com/yoockh/eslsheets/internal/repositories/postgres"
	"github.com/yoockh/eslsheets/internal/utils"
)

const personalizePrompt = `You are an expert ESL teacher creating personalized class and homework material.
You receive a JSON object with a "student" profile and a "template" activity.
Rewrite the template's content so examples, names, places and topics draw on the student's
job, hobbies, interests and learning goals, at the student's English level.
Respond with one JSON object that keeps the template's structure.`

type TemplateService interface {
	Create(ctx context.Context, name string, kind models.TemplateKind, description string, body json.RawMessage) (*models.Template, error)
	Get(ctx context.Context, id string) (*models.Template, error)
	List(ctx context.Context, kind models.TemplateKind) ([]models.Template, error)
	// Personalize asks the text-generation service to adapt a template to a
	// stored student and saves the result as a worksheet.
	Personalize(ctx context.Context, templateID, studentID string) (*models.Worksheet, error)
}

type templateService struct {
	templates  pgrepo.TemplateRepository
	worksheets pgrepo.WorksheetRepository
	students   pgrepo.StudentRepository
	llm        llm.Provider // nil when no text-generation service is configured
	log        *logrus.Logger
}

func NewTemplateService(templates pgrepo.TemplateRepository, worksheets pgrepo.WorksheetRepository, students pgrepo.StudentRepository, gen llm.Provider, log *logrus.Logger) TemplateService {
	if log == nil {
		log = logrus.New()
	}
	return &templateService{templates: templates, worksheets: worksheets, students: students, llm: gen, log: log}
}

func (s *templateService) Create(ctx context.Context, name string, kind models.TemplateKind, description string, body json.RawMessage) (*models.Template, error) {
	const op = "TemplateService.Create"

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "name is required", nil)
	}
	if kind != models.TemplateClass && kind != models.TemplateHomework {
		return nil, utils.E(utils.CodeInvalidArgument, op, "kind must be class or homework", nil)
	}
	if len(body) == 0 || !json.Valid(body) {
		return nil, utils.E(utils.CodeInvalidArgument, op, "body must be valid JSON", nil)
	}

	t := &models.Template{
		ID:          uuid.NewString(),
		Name:        name,
		Kind:        kind,
		Description: description,
		Body:        datatypes.JSON(body),
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.templates.Create(ctx, t); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create template", err)
	}
	return t, nil
}

func (s *templateService) Get(ctx context.Context, id string) (*models.Template, error) {
	const op = "TemplateService.Get"

	t, err := s.templates.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "template not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get template", err)
	}
	return t, nil
}

func (s *templateService) List(ctx context.Context, kind models.TemplateKind) ([]models.Template, error) {
	const op = "TemplateService.List"

	rows, err := s.templates.List(ctx, kind)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list templates", err)
	}
	return rows, nil
}

func (s *templateService) Personalize(ctx context.Context, templateID, studentID string) (*models.Worksheet, error) {
	const op = "TemplateService.Personalize"

	if s.llm == nil {
		return nil, utils.E(utils.CodeUnavailable, op, "text generation is not configured", nil)
	}
	t, err := s.Get(ctx, templateID)
	if err != nil {
		return nil, err
	}
	row, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "student not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get student", err)
	}

	p, err := row.Domain()
	if err != nil {
		// provenance is not part of the generation input
		s.log.WithError(err).WithField("student_id", studentID).Warn("student provenance unreadable")
	}
	input, err := json.Marshal(map[string]any{
		"student":  studentContext(p),
		"template": map[string]any{"name": t.Name, "kind": t.Kind, "description": t.Description, "body": json.RawMessage(t.Body)},
	})
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to build generation input", err)
	}

	content, err := s.llm.GenerateStructured(ctx, personalizePrompt, string(input))
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"template_id": templateID, "student_id": studentID}).Warn("personalization failed")
		switch {
		case llm.IsMalformed(err):
			return nil, utils.E(utils.CodeBadGateway, op, "text generation returned malformed content", err)
		case errors.Is(err, context.DeadlineExceeded):
			return nil, utils.E(utils.CodeTimeout, op, "text generation timed out", err)
		default:
			return nil, utils.E(utils.CodeUnavailable, op, "text generation unavailable", err)
		}
	}
	b, err := json.Marshal(content)
	if err != nil {
		return nil, utils.E(utils.CodeBadGateway, op, "text generation returned malformed content", err)
	}

	w := &models.Worksheet{
		ID:         uuid.NewString(),
		TemplateID: t.ID,
		StudentID:  row.ID,
		Content:    datatypes.JSON(b),
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.worksheets.Insert(ctx, w); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to store worksheet", err)
	}
	return w, nil
}

// studentContext is the subset of the profile useful for personalization.
// Provenance is left out.
func studentContext(p profile.StudentProfile) map[string]any {
	out := map[string]any{}
	for _, f := range profile.Fields() {
		if v, ok := p.Value(f.Name); ok {
			out[f.Name] = v
		}
	}
	return out
}
