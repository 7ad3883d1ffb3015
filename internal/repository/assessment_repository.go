package repository

import (
	"github.com/lunamoss/readmaster/internal/model"
	"gorm.io/gorm"
)

type AssessmentRepository interface {
	Create(assessment *model.Assessment) error
	FindByID(id string) (*model.Assessment, error)
	FindByIDWithDetails(id string) (*model.Assessment, error)
	FindAllByStudent(studentID string) ([]model.Assessment, error)
	FindAllByStudentAndStatus(studentID string, status model.AssessmentStatus) ([]model.Assessment, error)
	// MarkCompleted performs the processing -> completed transition together
	// with the transcript write. Returns false when the assessment was not in
	// processing, which callers treat as an already-settled job.
	MarkCompleted(id string, transcript string) (bool, error)
	// MarkError flips the assessment to error from any non-terminal status and
	// records the diagnostic detail. Returns false when already terminal.
	MarkError(id string, detail string) (bool, error)
}

type assessmentRepository struct {
	db *gorm.DB
}

func NewAssessmentRepository(db *gorm.DB) AssessmentRepository {
	return &assessmentRepository{db: db}
}

func (r *assessmentRepository) Create(assessment *model.Assessment) error {
	return r.db.Create(assessment).Error
}

func (r *assessmentRepository) FindByID(id string) (*model.Assessment, error) {
	var assessment model.Assessment
	if err := r.db.First(&assessment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &assessment, nil
}

func (r *assessmentRepository) FindByIDWithDetails(id string) (*model.Assessment, error) {
	var assessment model.Assessment
	err := r.db.
		Preload("Reading").
		Preload("Reading.Questions").
		Preload("Result").
		Preload("QuizAnswers").
		First(&assessment, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &assessment, nil
}

func (r *assessmentRepository) FindAllByStudent(studentID string) ([]model.Assessment, error) {
	var assessments []model.Assessment
	err := r.db.
		Preload("Reading").
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&assessments).Error
	return assessments, err
}

func (r *assessmentRepository) FindAllByStudentAndStatus(studentID string, status model.AssessmentStatus) ([]model.Assessment, error) {
	var assessments []model.Assessment
	err := r.db.
		Preload("Reading").
		Where("student_id = ? AND status = ?", studentID, status).
		Order("created_at DESC").
		Find(&assessments).Error
	return assessments, err
}

func (r *assessmentRepository) MarkCompleted(id string, transcript string) (bool, error) {
	res := r.db.Model(&model.Assessment{}).
		Where("id = ? AND status = ?", id, model.StatusProcessing).
		Updates(map[string]interface{}{
			"status":         model.StatusCompleted,
			"raw_transcript": transcript,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *assessmentRepository) MarkError(id string, detail string) (bool, error) {
	res := r.db.Model(&model.Assessment{}).
		Where("id = ? AND status IN ?", id, []model.AssessmentStatus{model.StatusPendingAudio, model.StatusProcessing}).
		Updates(map[string]interface{}{
			"status":           model.StatusError,
			"processing_error": detail,
		})
	return res.RowsAffected > 0, res.Error
}
