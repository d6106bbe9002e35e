package handlers

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/eslsheets/internal/services"
	"github.com/yoockh/eslsheets/internal/utils"
)

// maxAudioBytes caps a decoded synchronous recognition upload.
const maxAudioBytes = 10 << 20

type TranscriptHandler struct {
	svc services.TranscriptService
}

func NewTranscriptHandler(svc services.TranscriptService) *TranscriptHandler {
	return &TranscriptHandler{svc: svc}
}

type CreateTranscriptRequest struct {
	Transcription string `json:"transcription" binding:"required"`
	RawAudioURL   string `json:"raw_audio_url,omitempty" binding:"omitempty,url"`
}

func (h *TranscriptHandler) Create(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	var req CreateTranscriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "TranscriptHandler.Create", "invalid request body", err))
		return
	}

	t, err := h.svc.Create(c.Request.Context(), c.Param("student_id"), req.Transcription, req.RawAudioURL)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

type AudioTranscriptRequest struct {
	AudioBase64 string `json:"audio_base64" binding:"required"`
	Language    string `json:"language,omitempty"`
}

func (h *TranscriptHandler) CreateFromAudio(c *gin.Context) {
	const op = "TranscriptHandler.CreateFromAudio"
	if _, ok := requireUserID(c); !ok {
		return
	}

	var req AudioTranscriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}

	raw := req.AudioBase64
	if i := strings.Index(raw, ","); i >= 0 {
		raw = raw[i+1:] // strip data:...;base64,
	}
	audio, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid audio_base64", err))
		return
	}
	if len(audio) > maxAudioBytes {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "audio too large", nil))
		return
	}

	t, err := h.svc.CreateFromAudio(c.Request.Context(), c.Param("student_id"), audio, req.Language)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *TranscriptHandler) List(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}
	studentID := c.Param("student_id")

	rows, err := h.svc.List(c.Request.Context(), studentID, queryInt(c, "limit", 50, 500))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"student_id":  studentID,
		"transcripts": rows,
	})
}
