package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Run status values.
const (
	RunPending   = "pending"
	RunRunning   = "running"
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// ExtractionRun records one pipeline invocation for a transcript.
type ExtractionRun struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	RunID        string             `bson:"run_id" json:"run_id"`
	StudentID    string             `bson:"student_id" json:"student_id"`
	TranscriptID string             `bson:"transcript_id" json:"transcript_id"`
	Strategy     string             `bson:"strategy" json:"strategy"`
	Status       string             `bson:"status" json:"status"` // pending|running|succeeded|failed
	RequestedBy  string             `bson:"requested_by,omitempty" json:"requested_by,omitempty"`

	FieldsExtracted []string    `bson:"fields_extracted,omitempty" json:"fields_extracted,omitempty"`
	Failure         *RunFailure `bson:"failure,omitempty" json:"failure,omitempty"`
	ProfileVersion  int64       `bson:"profile_version,omitempty" json:"profile_version,omitempty"`

	CreatedAt        time.Time  `bson:"created_at" json:"created_at"`
	StartedAt        *time.Time `bson:"started_at,omitempty" json:"started_at,omitempty"`
	FinishedAt       *time.Time `bson:"finished_at,omitempty" json:"finished_at,omitempty"`
	ProcessingTimeMS int64      `bson:"processing_time_ms,omitempty" json:"processing_time_ms,omitempty"`

	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"` // TTL index
}

type RunFailure struct {
	Kind           string        `bson:"kind" json:"kind"`
	ExtractionKind string        `bson:"extraction_kind,omitempty" json:"extraction_kind,omitempty"`
	Message        string        `bson:"message" json:"message"`
	Defects        []FieldDefect `bson:"defects,omitempty" json:"defects,omitempty"`
}

type FieldDefect struct {
	Field  string `bson:"field" json:"field"`
	Reason string `bson:"reason" json:"reason"`
}

// RunStatusEvent is published on the run's status channel.
type RunStatusEvent struct {
	RunID   string      `json:"run_id"`
	Status  string      `json:"status"`
	Failure *RunFailure `json:"failure,omitempty"`
	At      time.Time   `json:"at"`
}
