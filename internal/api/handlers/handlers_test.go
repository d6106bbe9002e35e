package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/eslsheets/internal/models"
	"github.com/yoockh/eslsheets/internal/pipeline"
	"github.com/yoockh/eslsheets/internal/profile"
	"github.com/yoockh/eslsheets/internal/services"
	"github.com/yoockh/eslsheets/internal/utils"
)

type stubStudents struct {
	services.StudentService
	got map[string]any
}

func (s *stubStudents) Create(_ context.Context, fields map[string]any) (*models.StudentProfile, error) {
	s.got = fields
	if _, ok := fields["english_level"]; !ok {
		return nil, utils.WithDetails(utils.CodeUnprocessable, "StudentService.Create", "missing required fields", nil,
			[]profile.FieldDefect{{Field: "english_level", Reason: "required"}})
	}
	return &models.StudentProfile{ID: "s1", Name: "Ana", EnglishLevel: "fluent"}, nil
}

type stubExtraction struct {
	services.ExtractionService
	req services.ExtractRequest
}

func (s *stubExtraction) Enqueue(_ context.Context, req services.ExtractRequest) (*models.ExtractionRun, error) {
	s.req = req
	return &models.ExtractionRun{RunID: "r1", Status: models.RunPending}, nil
}

func (s *stubExtraction) Extract(_ context.Context, req services.ExtractRequest) (*services.ExtractOutcome, error) {
	s.req = req
	return &services.ExtractOutcome{Run: &models.ExtractionRun{RunID: "r2", Status: models.RunSucceeded}, Result: pipeline.Result{OK: true}}, nil
}

func (s *stubExtraction) Preview(_ context.Context, transcript string, _ map[string]any, _ string) (pipeline.Result, error) {
	f := &pipeline.Failure{Kind: pipeline.KindExtraction, ExtractionKind: "empty_transcript", Message: "empty"}
	return pipeline.Result{Failure: f}, utils.WithDetails(utils.CodeInvalidArgument, "ExtractionService.Preview", f.Message, f, f)
}

func newRouter(register func(r gin.IRoutes)) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", "teacher-1")
		c.Next()
	})
	register(r)
	return r
}

func serve(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestStudentHandler_CreateKeepsNumbersExact(t *testing.T) {
	svc := &stubStudents{}
	h := NewStudentHandler(svc)
	r := newRouter(func(r gin.IRoutes) { r.POST("/students", h.Create) })

	w := serve(r, http.MethodPost, "/students", `{"name":"Ana","english_level":"fluent","years_of_experience":5}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, json.Number("5"), svc.got["years_of_experience"])
}

func TestStudentHandler_DefectsInErrorDetails(t *testing.T) {
	h := NewStudentHandler(&stubStudents{})
	r := newRouter(func(r gin.IRoutes) { r.POST("/students", h.Create) })

	w := serve(r, http.MethodPost, "/students", `{"name":"Ana"}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.JSONEq(t, `{
		"code": "UNPROCESSABLE",
		"message": "missing required fields",
		"details": [{"field": "english_level", "reason": "required"}]
	}`, w.Body.String())

	w = serve(r, http.MethodPost, "/students", `[1,2]`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExtractionHandler_AsyncAndSync(t *testing.T) {
	svc := &stubExtraction{}
	h := NewExtractionHandler(svc)
	r := newRouter(func(r gin.IRoutes) {
		r.POST("/students/:student_id/transcripts/:transcript_id/extract", h.Extract)
	})

	w := serve(r, http.MethodPost, "/students/s1/transcripts/t1/extract?strategy=local&async=true", "")
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), `"run_id":"r1"`)
	assert.Equal(t, services.ExtractRequest{StudentID: "s1", TranscriptID: "t1", Strategy: "local", RequestedBy: "teacher-1"}, svc.req)

	w = serve(r, http.MethodPost, "/students/s1/transcripts/t1/extract", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok":true`)

	w = serve(r, http.MethodPost, "/students/s1/transcripts/t1/extract?async=maybe", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExtractionHandler_PreviewFailureBody(t *testing.T) {
	h := NewExtractionHandler(&stubExtraction{})
	r := newRouter(func(r gin.IRoutes) { r.POST("/extract", h.Preview) })

	w := serve(r, http.MethodPost, "/extract", `{"transcript":"  ","strategy":"local"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Code    string `json:"code"`
		Details struct {
			Kind           string `json:"kind"`
			ExtractionKind string `json:"extraction_kind"`
		} `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "extraction_error", body.Details.Kind)
	assert.Equal(t, "empty_transcript", body.Details.ExtractionKind)

	w = serve(r, http.MethodPost, "/extract", `{"transcript":"hi","strategy":"magic"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequireUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewStudentHandler(&stubStudents{})
	r.GET("/students/:student_id", h.Get)

	w := serve(r, http.MethodGet, "/students/s1", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
