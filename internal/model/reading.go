package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DifficultyLevel string

const (
	DifficultyBeginner     DifficultyLevel = "beginner"
	DifficultyIntermediate DifficultyLevel = "intermediate"
	DifficultyAdvanced     DifficultyLevel = "advanced"
)

type Reading struct {
	ID              string           `gorm:"type:uuid;primarykey" json:"id"`
	Title           string           `json:"title" gorm:"not null"`
	ContentText     *string          `json:"content_text,omitempty" gorm:"type:text"`
	ContentImageURL *string          `json:"content_image_url,omitempty"`
	AgeCategory     *string          `json:"age_category,omitempty"`
	Difficulty      *DifficultyLevel `json:"difficulty,omitempty"`
	Language        string           `json:"language" gorm:"not null;default:'en';index"`
	Genre           *string          `json:"genre,omitempty"`
	AddedByAdminID  *string          `json:"added_by_admin_id,omitempty" gorm:"type:uuid"`
	Questions       []QuizQuestion   `json:"questions,omitempty" gorm:"foreignKey:ReadingID"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	DeletedAt       gorm.DeletedAt   `gorm:"index" json:"-"`
}

func (r *Reading) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
