package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yoockh/eslsheets/internal/models"
	"github.com/yoockh/eslsheets/internal/providers/stt"
	pgrepo "github.com/yoockh/eslsheets/internal/repositories/postgres"
	"github.com/yoockh/eslsheets/internal/utils"
)

type TranscriptService interface {
	Create(ctx context.Context, studentID, transcription, rawAudioURL string) (*models.Transcript, error)
	// CreateFromAudio runs speech-to-text on audio and stores the best alternative.
	CreateFromAudio(ctx context.Context, studentID string, audio []byte, language string) (*models.Transcript, error)
	Get(ctx context.Context, id string) (*models.Transcript, error)
	List(ctx context.Context, studentID string, limit int) ([]models.Transcript, error)
}

type transcriptService struct {
	transcripts pgrepo.TranscriptRepository
	students    pgrepo.StudentRepository
	stt         stt.Provider // nil when speech-to-text is disabled
}

func NewTranscriptService(transcripts pgrepo.TranscriptRepository, students pgrepo.StudentRepository, sttp stt.Provider) TranscriptService {
	return &transcriptService{transcripts: transcripts, students: students, stt: sttp}
}

func (s *transcriptService) Create(ctx context.Context, studentID, transcription, rawAudioURL string) (*models.Transcript, error) {
	const op = "TranscriptService.Create"

	if strings.TrimSpace(transcription) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "transcription is required", nil)
	}
	if err := s.ensureStudent(ctx, op, studentID); err != nil {
		return nil, err
	}

	t := &models.Transcript{
		ID:            uuid.NewString(),
		StudentID:     studentID,
		Transcription: transcription,
		RawAudioURL:   rawAudioURL,
		Source:        models.TranscriptSourceText,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.transcripts.Insert(ctx, t); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to store transcript", err)
	}
	return t, nil
}

func (s *transcriptService) CreateFromAudio(ctx context.Context, studentID string, audio []byte, language string) (*models.Transcript, error) {
	const op = "TranscriptService.CreateFromAudio"

	if s.stt == nil {
		return nil, utils.E(utils.CodeUnavailable, op, "speech-to-text is disabled", nil)
	}
	if len(audio) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "audio is required", nil)
	}
	if err := s.ensureStudent(ctx, op, studentID); err != nil {
		return nil, err
	}

	language = stt.NormalizeLanguage(language)
	text, conf, err := s.stt.Transcribe(ctx, audio, language)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "speech-to-text failed", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, utils.E(utils.CodeUnprocessable, op, "no speech recognized", nil)
	}

	meta, _ := json.Marshal(map[string]any{"language": language, "audio_bytes": len(audio)})
	t := &models.Transcript{
		ID:            uuid.NewString(),
		StudentID:     studentID,
		Transcription: text,
		Source:        models.TranscriptSourceAudio,
		Confidence:    &conf,
		Metadata:      datatypes.JSON(meta),
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.transcripts.Insert(ctx, t); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to store transcript", err)
	}
	return t, nil
}

func (s *transcriptService) Get(ctx context.Context, id string) (*models.Transcript, error) {
	const op = "TranscriptService.Get"

	t, err := s.transcripts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "transcript not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get transcript", err)
	}
	return t, nil
}

func (s *transcriptService) List(ctx context.Context, studentID string, limit int) ([]models.Transcript, error) {
	const op = "TranscriptService.List"

	if studentID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "student_id is required", nil)
	}
	rows, err := s.transcripts.ListByStudent(ctx, studentID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list transcripts", err)
	}
	return rows, nil
}

func (s *transcriptService) ensureStudent(ctx context.Context, op, studentID string) error {
	if studentID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "student_id is required", nil)
	}
	if _, err := s.students.GetByID(ctx, studentID); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "student not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to get student", err)
	}
	return nil
}
