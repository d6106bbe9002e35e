package models

import (
	"time"

	"gorm.io/datatypes"
)

type TemplateKind string

const (
	TemplateClass    TemplateKind = "class"
	TemplateHomework TemplateKind = "homework"
)

// Template is a class or homework activity the generator personalizes.
type Template struct {
	ID          string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name        string         `gorm:"column:name;type:text;not null" json:"name"`
	Kind        TemplateKind   `gorm:"column:kind;type:text;not null" json:"kind"`
	Description string         `gorm:"column:description;type:text" json:"description,omitempty"`
	Body        datatypes.JSON `gorm:"column:body;type:jsonb" json:"body"`
	CreatedAt   time.Time      `gorm:"column:created_at;type:timestamptz" json:"created_at"`
}

func (Template) TableName() string { return "templates" }

// Worksheet is a template personalized for one student.
type Worksheet struct {
	ID         string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	TemplateID string         `gorm:"column:template_id;type:uuid;index" json:"template_id"`
	StudentID  string         `gorm:"column:student_id;type:uuid;index" json:"student_id"`
	Content    datatypes.JSON `gorm:"column:content;type:jsonb" json:"content"`
	CreatedAt  time.Time      `gorm:"column:created_at;type:timestamptz" json:"created_at"`
}

func (Worksheet) TableName() string { return "worksheets" }
