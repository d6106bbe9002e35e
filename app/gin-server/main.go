package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/yoockh/eslsheets/config"
	"github.com/yoockh/eslsheets/internal/api/handlers"
	"github.com/yoockh/eslsheets/internal/api/middleware"
	"github.com/yoockh/eslsheets/internal/api/routes"
	"github.com/yoockh/eslsheets/internal/cache"
	"github.com/yoockh/eslsheets/internal/logger"
	"github.com/yoockh/eslsheets/internal/pipeline"
	"github.com/yoockh/eslsheets/internal/providers/stt"
	mongorepo "github.com/yoockh/eslsheets/internal/repositories/mongo"
	pgrepo "github.com/yoockh/eslsheets/internal/repositories/postgres"
	"github.com/yoockh/eslsheets/internal/services"
	"github.com/yoockh/eslsheets/internal/workers"
)

func main() {
	_ = godotenv.Load()
	log := logger.New()

	cfg, err := config.LoadApp()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	merger, err := cfg.Merger()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	if err := config.InitMongo(); err != nil {
		log.Fatalf("MongoDB init error: %v", err)
	}
	if err := config.EnsureMongoIndexes(); err != nil {
		log.Fatalf("MongoDB index error: %v", err)
	}
	log.Info("MongoDB connected")

	if err := config.InitPostgres(); err != nil {
		log.Fatalf("PostgreSQL init error: %v", err)
	}
	if err := config.MigratePostgres(); err != nil {
		log.Fatalf("PostgreSQL migrate error: %v", err)
	}
	log.Info("PostgreSQL connected")

	if err := config.InitRedis(); err != nil {
		log.Fatalf("Redis init error: %v", err)
	}
	log.Info("Redis connected")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gen, err := config.NewLLMProvider(ctx, cfg)
	if err != nil {
		log.Fatalf("LLM provider error: %v", err)
	}
	if gen != nil {
		defer gen.Close()
	}

	var speech stt.Provider
	if cfg.STTEnabled {
		gs, err := stt.NewGoogleSpeech(ctx, cfg.GoogleOptions()...)
		if err != nil {
			log.Fatalf("speech-to-text init error: %v", err)
		}
		defer gs.Close()
		speech = gs
	}

	// Repositories
	students := pgrepo.NewStudentRepo(config.PostgresDB)
	transcripts := pgrepo.NewTranscriptRepo(config.PostgresDB)
	templates := pgrepo.NewTemplateRepo(config.PostgresDB)
	worksheets := pgrepo.NewWorksheetRepo(config.PostgresDB)
	runs := mongorepo.NewRunRepo(config.MongoDatabase())
	profileCache := cache.NewRedisCache(config.RedisClient).WithPrefix("eslsheets:")

	// Services
	studentSvc := services.NewStudentService(students, profileCache, cfg.ProfileCacheTTL, log)
	transcriptSvc := services.NewTranscriptService(transcripts, students, speech)
	extractionSvc := services.NewExtractionService(services.ExtractionDeps{
		Strategies:  config.Strategies(cfg, gen, log),
		Pipeline:    pipeline.New(merger, log),
		Students:    students,
		Transcripts: transcripts,
		Runs:        runs,
		Queue:       services.NewRedisRunQueue(config.RedisClient),
		Notifier:    services.NewRedisRunNotifier(config.RedisClient),
		Cache:       profileCache,
		RunTTL:      cfg.RunTTL,
		Logger:      log,
	})
	templateSvc := services.NewTemplateService(templates, worksheets, students, gen, log)

	pool := &workers.ExtractionWorkerPool{
		Redis:      config.RedisClient,
		Runs:       extractionSvc,
		NumWorkers: cfg.ExtractionWorkers,
		RunTimeout: cfg.ExtractionTimeout * time.Duration(cfg.ExtractionMaxRetries+2),
		Logger:     log,
	}
	if cfg.ExtractionWorkers > 0 {
		if err := pool.Start(ctx); err != nil {
			log.Fatalf("worker pool error: %v", err)
		}
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))
	routes.RegisterRoutes(r, routes.Deps{
		Auth: middleware.JWTConfig{
			Secret:   cfg.JWTSecret,
			Issuer:   cfg.JWTIssuer,
			Audience: cfg.JWTAudience,
		},
		Student:    handlers.NewStudentHandler(studentSvc),
		Transcript: handlers.NewTranscriptHandler(transcriptSvc),
		Extraction: handlers.NewExtractionHandler(extractionSvc),
		Template:   handlers.NewTemplateHandler(templateSvc),
		WS:         handlers.NewWSHandler(extractionSvc, config.RedisClient),
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		log.WithField("port", cfg.Port).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	pool.Wait()
	_ = config.CloseMongo(shutdownCtx)
	_ = config.RedisClient.Close()
}
