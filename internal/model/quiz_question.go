package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QuizQuestion is a multiple-choice comprehension question attached to a
// reading. Options maps option id ("A", "B", ...) to display text.
type QuizQuestion struct {
	ID              string            `gorm:"type:uuid;primarykey" json:"id"`
	ReadingID       string            `json:"reading_id" gorm:"type:uuid;not null;index"`
	QuestionText    string            `json:"question_text" gorm:"type:text;not null"`
	Options         datatypes.JSONMap `json:"options" gorm:"not null"`
	CorrectOptionID string            `json:"correct_option_id" gorm:"not null"`
	Language        string            `json:"language" gorm:"not null;default:'en'"`
	AddedByAdminID  *string           `json:"added_by_admin_id,omitempty" gorm:"type:uuid"`
	CreatedAt       time.Time         `json:"created_at"`
	DeletedAt       gorm.DeletedAt    `gorm:"index" json:"-"`
}

func (q *QuizQuestion) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return nil
}

// ValidateAnswer reports whether the selected option is the stored correct one.
func (q *QuizQuestion) ValidateAnswer(selectedOptionID string) bool {
	return selectedOptionID == q.CorrectOptionID
}
