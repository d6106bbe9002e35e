package models

import (
	"time"

	"gorm.io/datatypes"
)

// Transcript source values.
const (
	TranscriptSourceText  = "text"
	TranscriptSourceAudio = "audio"
)

type Transcript struct {
	ID            string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	StudentID     string         `gorm:"column:student_id;type:uuid;index" json:"student_id"`
	Transcription string         `gorm:"column:transcription;type:text" json:"transcription"`
	RawAudioURL   string         `gorm:"column:raw_audio_url;type:text" json:"raw_audio_url,omitempty"`
	Source        string         `gorm:"column:source;type:text" json:"source"` // text|audio
	Confidence    *float64       `gorm:"column:confidence;type:double precision" json:"confidence,omitempty"`
	Metadata      datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt     time.Time      `gorm:"column:created_at;type:timestamptz;index" json:"created_at"`
}

func (Transcript) TableName() string { return "transcripts" }
