package repository

import (
	"github.com/lunamoss/readmaster/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AssessmentResultRepository interface {
	// Upsert writes the result row for an assessment, updating the analysis
	// payload and score in place when a row already exists. The unique index
	// on assessment_id makes redelivered jobs collapse into one row.
	Upsert(result *model.AssessmentResult) error
	FindByAssessmentID(assessmentID string) (*model.AssessmentResult, error)
	UpdateComprehensionScore(assessmentID string, score float64) error
}

type assessmentResultRepository struct {
	db *gorm.DB
}

func NewAssessmentResultRepository(db *gorm.DB) AssessmentResultRepository {
	return &assessmentResultRepository{db: db}
}

func (r *assessmentResultRepository) Upsert(result *model.AssessmentResult) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "assessment_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"analysis_data"}),
	}).Create(result).Error
}

func (r *assessmentResultRepository) FindByAssessmentID(assessmentID string) (*model.AssessmentResult, error) {
	var result model.AssessmentResult
	if err := r.db.First(&result, "assessment_id = ?", assessmentID).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *assessmentResultRepository) UpdateComprehensionScore(assessmentID string, score float64) error {
	return r.db.Model(&model.AssessmentResult{}).
		Where("assessment_id = ?", assessmentID).
		Update("comprehension_score", score).Error
}
