package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/eslsheets/internal/services"
	"github.com/yoockh/eslsheets/internal/utils"
)

type ExtractionHandler struct {
	svc services.ExtractionService
}

func NewExtractionHandler(svc services.ExtractionService) *ExtractionHandler {
	return &ExtractionHandler{svc: svc}
}

// Extract runs the pipeline for a stored transcript. With async=true the
// run is queued and 202 is returned with the pending run.
func (h *ExtractionHandler) Extract(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	async := false
	if s := c.Query("async"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			writeError(c, utils.E(utils.CodeInvalidArgument, "ExtractionHandler.Extract", "async must be a boolean", err))
			return
		}
		async = b
	}

	req := services.ExtractRequest{
		StudentID:    c.Param("student_id"),
		TranscriptID: c.Param("transcript_id"),
		Strategy:     c.Query("strategy"),
		RequestedBy:  userID,
	}

	if async {
		run, err := h.svc.Enqueue(c.Request.Context(), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, run)
		return
	}

	out, err := h.svc.Extract(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type PreviewRequest struct {
	Transcript string         `json:"transcript" binding:"required"`
	Existing   map[string]any `json:"existing,omitempty"`
	Strategy   string         `json:"strategy,omitempty" binding:"omitempty,oneof=remote local chain"`
}

// Preview runs the pipeline on posted text and persists nothing.
func (h *ExtractionHandler) Preview(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	var req PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ExtractionHandler.Preview", "invalid request body", err))
		return
	}

	res, err := h.svc.Preview(c.Request.Context(), req.Transcript, req.Existing, req.Strategy)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ExtractionHandler) GetRun(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}
	run, err := h.svc.GetRun(c.Request.Context(), c.Param("run_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

func (h *ExtractionHandler) ListRuns(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}
	studentID := c.Param("student_id")

	runs, err := h.svc.ListRuns(c.Request.Context(), studentID, int64(queryInt(c, "limit", 50, 500)))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"student_id": studentID,
		"runs":       runs,
	})
}
