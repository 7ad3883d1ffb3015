package dto

import "time"

type NotificationResponse struct {
	ID              string    `json:"id"`
	Type            string    `json:"type"`
	Message         string    `json:"message"`
	RelatedEntityID *string   `json:"related_entity_id,omitempty"`
	IsRead          bool      `json:"is_read"`
	CreatedAt       time.Time `json:"created_at"`
}

// NotificationEvent is the payload pushed over the live channel when the
// pipeline finishes an assessment. Mirrors what clients can fetch by polling.
type NotificationEvent struct {
	Type         string `json:"type"`
	AssessmentID string `json:"assessment_id"`
	Status       string `json:"status"`
	Message      string `json:"message"`
}
