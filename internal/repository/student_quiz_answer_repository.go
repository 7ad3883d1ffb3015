package repository

import (
	"github.com/lunamoss/readmaster/internal/model"
	"gorm.io/gorm"
)

type StudentQuizAnswerRepository interface {
	BulkCreate(answers []model.StudentQuizAnswer) error
	FindByAssessmentID(assessmentID string) ([]model.StudentQuizAnswer, error)
	// CountByAssessment returns (correct, total) for an assessment's answers.
	CountByAssessment(assessmentID string) (int64, int64, error)
}

type studentQuizAnswerRepository struct {
	db *gorm.DB
}

func NewStudentQuizAnswerRepository(db *gorm.DB) StudentQuizAnswerRepository {
	return &studentQuizAnswerRepository{db: db}
}

func (r *studentQuizAnswerRepository) BulkCreate(answers []model.StudentQuizAnswer) error {
	if len(answers) == 0 {
		return nil
	}
	return r.db.Create(&answers).Error
}

func (r *studentQuizAnswerRepository) FindByAssessmentID(assessmentID string) ([]model.StudentQuizAnswer, error) {
	var answers []model.StudentQuizAnswer
	err := r.db.Where("assessment_id = ?", assessmentID).Order("answered_at ASC").Find(&answers).Error
	return answers, err
}

func (r *studentQuizAnswerRepository) CountByAssessment(assessmentID string) (int64, int64, error) {
	var total, correct int64
	if err := r.db.Model(&model.StudentQuizAnswer{}).
		Where("assessment_id = ?", assessmentID).
		Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err := r.db.Model(&model.StudentQuizAnswer{}).
		Where("assessment_id = ? AND is_correct = ?", assessmentID, true).
		Count(&correct).Error; err != nil {
		return 0, 0, err
	}
	return correct, total, nil
}
