package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Class struct {
	ID                 string         `gorm:"type:uuid;primarykey" json:"id"`
	ClassName          string         `json:"class_name" gorm:"not null"`
	GradeLevel         *string        `json:"grade_level,omitempty"`
	CreatedByTeacherID string         `json:"created_by_teacher_id" gorm:"type:uuid;not null;index"`
	Students           []User         `json:"students,omitempty" gorm:"many2many:class_students;"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *Class) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
