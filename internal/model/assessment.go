package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AssessmentStatus string

const (
	StatusPendingAudio AssessmentStatus = "pending_audio"
	StatusProcessing   AssessmentStatus = "processing"
	StatusCompleted    AssessmentStatus = "completed"
	StatusError        AssessmentStatus = "error"
)

// Terminal reports whether the automated pipeline is done with this status.
func (s AssessmentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Assessment tracks one student's reading attempt from creation through AI
// analysis. Status only ever moves forward; transitions are performed with
// conditional updates on the current status (see AssessmentRepository).
type Assessment struct {
	ID                  string           `gorm:"type:uuid;primarykey" json:"id"`
	StudentID           string           `json:"student_id" gorm:"type:uuid;not null;index"`
	ReadingID           string           `json:"reading_id" gorm:"type:uuid;not null;index"`
	Reading             Reading          `json:"reading,omitempty" gorm:"foreignKey:ReadingID"`
	AssignedByTeacherID *string          `json:"assigned_by_teacher_id,omitempty" gorm:"type:uuid"`
	AssignedByParentID  *string          `json:"assigned_by_parent_id,omitempty" gorm:"type:uuid"`
	AudioObjectKey      *string          `json:"audio_object_key,omitempty"`
	AudioDuration       *int             `json:"audio_duration,omitempty"` // seconds
	Status              AssessmentStatus `json:"status" gorm:"not null;default:'pending_audio';index"`
	RawTranscript       *string          `json:"raw_transcript,omitempty" gorm:"type:text"`
	ProcessingError     *string          `json:"-" gorm:"type:text"` // diagnostic detail, admin tooling only
	Result              *AssessmentResult `json:"result,omitempty" gorm:"foreignKey:AssessmentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	QuizAnswers         []StudentQuizAnswer `json:"quiz_answers,omitempty" gorm:"foreignKey:AssessmentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
	DeletedAt           gorm.DeletedAt   `gorm:"index" json:"-"`
}

func (a *Assessment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
