package repository

import (
	"github.com/lunamoss/readmaster/internal/model"
	"gorm.io/gorm"
)

type QuizQuestionRepository interface {
	Create(question *model.QuizQuestion) error
	FindByID(id string) (*model.QuizQuestion, error)
	FindByReadingID(readingID string) ([]model.QuizQuestion, error)
	Update(question *model.QuizQuestion) error
	Delete(id string) error
}

type quizQuestionRepository struct {
	db *gorm.DB
}

func NewQuizQuestionRepository(db *gorm.DB) QuizQuestionRepository {
	return &quizQuestionRepository{db: db}
}

func (r *quizQuestionRepository) Create(question *model.QuizQuestion) error {
	return r.db.Create(question).Error
}

func (r *quizQuestionRepository) FindByID(id string) (*model.QuizQuestion, error) {
	var question model.QuizQuestion
	if err := r.db.First(&question, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *quizQuestionRepository) FindByReadingID(readingID string) ([]model.QuizQuestion, error) {
	var questions []model.QuizQuestion
	err := r.db.Where("reading_id = ?", readingID).Order("created_at ASC").Find(&questions).Error
	return questions, err
}

func (r *quizQuestionRepository) Update(question *model.QuizQuestion) error {
	return r.db.Save(question).Error
}

func (r *quizQuestionRepository) Delete(id string) error {
	return r.db.Delete(&model.QuizQuestion{}, "id = ?", id).Error
}
