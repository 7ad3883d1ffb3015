package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AssessmentResult holds the structured output of the analysis worker.
// Exactly one row exists per assessment (unique index); redelivered jobs
// upsert instead of inserting. ComprehensionScore is in [0,1] and may be
// filled in after creation once quiz answers arrive.
type AssessmentResult struct {
	ID                 string            `gorm:"type:uuid;primarykey" json:"id"`
	AssessmentID       string            `json:"assessment_id" gorm:"type:uuid;not null;uniqueIndex"`
	AnalysisData       datatypes.JSONMap `json:"analysis_data"`
	ComprehensionScore *float64          `json:"comprehension_score,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
}

func (r *AssessmentResult) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
