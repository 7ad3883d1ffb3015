package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StudentQuizAnswer records one answer to one quiz question within an
// assessment. Correctness is computed once at write time; there is no update
// path.
type StudentQuizAnswer struct {
	ID               string    `gorm:"type:uuid;primarykey" json:"id"`
	AssessmentID     string    `json:"assessment_id" gorm:"type:uuid;not null;uniqueIndex:idx_assessment_question"`
	QuestionID       string    `json:"question_id" gorm:"type:uuid;not null;uniqueIndex:idx_assessment_question"`
	StudentID        string    `json:"student_id" gorm:"type:uuid;not null;index"`
	SelectedOptionID string    `json:"selected_option_id" gorm:"not null"`
	IsCorrect        bool      `json:"is_correct"`
	AnsweredAt       time.Time `json:"answered_at" gorm:"autoCreateTime"`
}

func (a *StudentQuizAnswer) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
