package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationAssignment NotificationType = "assignment"
	NotificationResult     NotificationType = "result"
	NotificationFeedback   NotificationType = "feedback"
	NotificationSystem     NotificationType = "system"
)

type Notification struct {
	ID              string           `gorm:"type:uuid;primarykey" json:"id"`
	UserID          string           `json:"user_id" gorm:"type:uuid;not null;index"`
	Type            NotificationType `json:"type" gorm:"not null;default:'system'"`
	Message         string           `json:"message" gorm:"not null"`
	RelatedEntityID *string          `json:"related_entity_id,omitempty" gorm:"type:uuid"`
	IsRead          bool             `json:"is_read" gorm:"not null;default:false;index"`
	CreatedAt       time.Time        `json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}
