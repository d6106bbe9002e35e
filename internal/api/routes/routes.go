package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/yoockh/eslsheets/internal/api/handlers"
	"github.com/yoockh/eslsheets/internal/api/middleware"
)

type Deps struct {
	Auth middleware.JWTConfig

	Student    *handlers.StudentHandler
	Transcript *handlers.TranscriptHandler
	Extraction *handlers.ExtractionHandler
	Template   *handlers.TemplateHandler
	WS         *handlers.WSHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Protected routes (JWT)
	auth := r.Group("/")
	auth.Use(middleware.JWTAuth(d.Auth), middleware.RequireStaff())

	auth.POST("/students", d.Student.Create)
	auth.GET("/students", d.Student.List)
	auth.GET("/students/:student_id", d.Student.Get)
	auth.PATCH("/students/:student_id", d.Student.Patch)
	auth.DELETE("/students/:student_id", middleware.RequireAdmin(), d.Student.Delete)

	auth.POST("/students/:student_id/transcripts", d.Transcript.Create)
	auth.POST("/students/:student_id/transcripts/audio", d.Transcript.CreateFromAudio)
	auth.GET("/students/:student_id/transcripts", d.Transcript.List)

	auth.POST("/students/:student_id/transcripts/:transcript_id/extract", d.Extraction.Extract)
	auth.GET("/students/:student_id/extraction-runs", d.Extraction.ListRuns)
	auth.GET("/extraction-runs/:run_id", d.Extraction.GetRun)
	auth.POST("/extract", d.Extraction.Preview)

	auth.POST("/templates", d.Template.Create)
	auth.GET("/templates", d.Template.List)
	auth.GET("/templates/:template_id", d.Template.Get)
	auth.POST("/templates/:template_id/personalize/:student_id", d.Template.Personalize)

	// WebSocket
	auth.GET("/ws/extraction-runs/:run_id", d.WS.RunStatusWS)
}
