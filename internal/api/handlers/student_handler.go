package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/eslsheets/internal/services"
	"github.com/yoockh/eslsheets/internal/utils"
)

type StudentHandler struct {
	svc services.StudentService
}

func NewStudentHandler(svc services.StudentService) *StudentHandler {
	return &StudentHandler{svc: svc}
}

// bindFields reads a field-keyed JSON object. Numbers are kept as
// json.Number so the validator decides whether they are whole.
func bindFields(c *gin.Context, op string) (map[string]any, bool) {
	var fields map[string]any
	dec := jsonDecoder(c.Request.Body)
	if err := dec.Decode(&fields); err != nil || fields == nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "body must be a JSON object", err))
		return nil, false
	}
	return fields, true
}

func (h *StudentHandler) Create(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}
	fields, ok := bindFields(c, "StudentHandler.Create")
	if !ok {
		return
	}

	row, err := h.svc.Create(c.Request.Context(), fields)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, row)
}

func (h *StudentHandler) List(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}
	limit := queryInt(c, "limit", 50, 200)
	offset := queryInt(c, "offset", 0, 1<<20)

	rows, err := h.svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": rows})
}

func (h *StudentHandler) Get(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}
	row, err := h.svc.Get(c.Request.Context(), c.Param("student_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

func (h *StudentHandler) Patch(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}
	fields, ok := bindFields(c, "StudentHandler.Patch")
	if !ok {
		return
	}

	row, err := h.svc.Patch(c.Request.Context(), c.Param("student_id"), fields)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

func (h *StudentHandler) Delete(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), c.Param("student_id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
