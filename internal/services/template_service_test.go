package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/eslsheets/internal/models"
	"github.com/yoockh/eslsheets/internal/providers/llm"
	"github.com/yoockh/eslsheets/internal/utils"
)

type memTemplates struct{ rows map[string]models.Template }

func (m *memTemplates) Create(_ context.Context, t *models.Template) error {
	m.rows[t.ID] = *t
	return nil
}

func (m *memTemplates) GetByID(_ context.Context, id string) (*models.Template, error) {
	t, ok := m.rows[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return &t, nil
}

func (m *memTemplates) List(_ context.Context, kind models.TemplateKind) ([]models.Template, error) {
	var out []models.Template
	for _, t := range m.rows {
		if kind == "" || t.Kind == kind {
			out = append(out, t)
		}
	}
	return out, nil
}

type memWorksheets struct{ rows []models.Worksheet }

func (m *memWorksheets) Insert(_ context.Context, w *models.Worksheet) error {
	m.rows = append(m.rows, *w)
	return nil
}

func (m *memWorksheets) ListByStudent(_ context.Context, studentID string) ([]models.Worksheet, error) {
	var out []models.Worksheet
	for _, w := range m.rows {
		if w.StudentID == studentID {
			out = append(out, w)
		}
	}
	return out, nil
}

type recordingLLM struct {
	text string
	out  map[string]any
	err  error
}

func (r *recordingLLM) GenerateStructured(_ context.Context, _, text string) (map[string]any, error) {
	r.text = text
	return r.out, r.err
}

func (r *recordingLLM) Close() error { return nil }

func newTemplateFixture(gen llm.Provider) (TemplateService, *memWorksheets) {
	ws := &memWorksheets{}
	students := newFakeStudents(models.StudentProfile{ID: "s1", Name: "Ana", EnglishLevel: "beginner", JobTitle: "chef"})
	svc := NewTemplateService(&memTemplates{rows: map[string]models.Template{}}, ws, students, gen, quietLogger())
	return svc, ws
}

func TestTemplateService_CreateValidates(t *testing.T) {
	svc, _ := newTemplateFixture(nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, "Vocabulary", "lecture", "", json.RawMessage(`{}`))
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	_, err = svc.Create(ctx, "Vocabulary", models.TemplateClass, "", json.RawMessage(`{not json`))
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	tpl, err := svc.Create(ctx, " Vocabulary ", models.TemplateHomework, "", json.RawMessage(`{"items":[]}`))
	require.NoError(t, err)
	assert.Equal(t, "Vocabulary", tpl.Name)

	list, err := svc.List(ctx, models.TemplateHomework)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestTemplateService_PersonalizeStoresWorksheet(t *testing.T) {
	gen := &recordingLLM{out: map[string]any{"title": "Kitchen English"}}
	svc, ws := newTemplateFixture(gen)
	ctx := context.Background()

	tpl, err := svc.Create(ctx, "Workplace talk", models.TemplateClass, "", json.RawMessage(`{"title":"Workplace"}`))
	require.NoError(t, err)

	w, err := svc.Personalize(ctx, tpl.ID, "s1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Kitchen English"}`, string(w.Content))
	assert.Len(t, ws.rows, 1)
	assert.Contains(t, gen.text, `"job_title":"chef"`)
	assert.NotContains(t, gen.text, "provenance")
}

func TestTemplateService_PersonalizeErrors(t *testing.T) {
	gen := &recordingLLM{err: &llm.ServiceError{Provider: "openai", Malformed: true, Err: errors.New("not json")}}
	svc, ws := newTemplateFixture(gen)
	ctx := context.Background()

	tpl, err := svc.Create(ctx, "Workplace talk", models.TemplateClass, "", json.RawMessage(`{}`))
	require.NoError(t, err)

	_, err = svc.Personalize(ctx, tpl.ID, "s1")
	assert.True(t, utils.IsCode(err, utils.CodeBadGateway))

	gen.err = &llm.ServiceError{Provider: "openai", StatusCode: 503, Transient: true, Err: errors.New("busy")}
	_, err = svc.Personalize(ctx, tpl.ID, "s1")
	assert.True(t, utils.IsCode(err, utils.CodeUnavailable))

	_, err = svc.Personalize(ctx, tpl.ID, "nobody")
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
	assert.Empty(t, ws.rows)

	disabled, _ := newTemplateFixture(nil)
	_, err = disabled.Personalize(ctx, tpl.ID, "s1")
	assert.True(t, utils.IsCode(err, utils.CodeUnavailable))
}
