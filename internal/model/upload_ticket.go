package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UploadTicket is a single-use record of a presigned upload target issued for
// an assessment. Confirm-upload only accepts object keys that match an
// unconsumed, unexpired ticket for the same assessment.
type UploadTicket struct {
	ID           string     `gorm:"type:uuid;primarykey" json:"id"`
	AssessmentID string     `json:"assessment_id" gorm:"type:uuid;not null;index"`
	ObjectKey    string     `json:"object_key" gorm:"not null;index"`
	ContentType  string     `json:"content_type" gorm:"not null"`
	ExpiresAt    time.Time  `json:"expires_at" gorm:"not null"`
	ConsumedAt   *time.Time `json:"consumed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func (t *UploadTicket) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
