package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/eslsheets/internal/models"
	"github.com/yoockh/eslsheets/internal/services"
	"github.com/yoockh/eslsheets/internal/utils"
)

type TemplateHandler struct {
	svc services.TemplateService
}

func NewTemplateHandler(svc services.TemplateService) *TemplateHandler {
	return &TemplateHandler{svc: svc}
}

type CreateTemplateRequest struct {
	Name        string          `json:"name" binding:"required"`
	Kind        string          `json:"kind" binding:"required,oneof=class homework"`
	Description string          `json:"description,omitempty"`
	Body        json.RawMessage `json:"body" binding:"required"`
}

func (h *TemplateHandler) Create(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	var req CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "TemplateHandler.Create", "invalid request body", err))
		return
	}

	t, err := h.svc.Create(c.Request.Context(), req.Name, models.TemplateKind(req.Kind), req.Description, req.Body)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *TemplateHandler) List(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}
	rows, err := h.svc.List(c.Request.Context(), models.TemplateKind(c.Query("kind")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": rows})
}

func (h *TemplateHandler) Get(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}
	t, err := h.svc.Get(c.Request.Context(), c.Param("template_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TemplateHandler) Personalize(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}
	w, err := h.svc.Personalize(c.Request.Context(), c.Param("template_id"), c.Param("student_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, w)
}
