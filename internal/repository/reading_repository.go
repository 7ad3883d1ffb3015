package repository

import (
	"github.com/lunamoss/readmaster/internal/model"
	"gorm.io/gorm"
)

// ReadingFilter narrows reading listings; zero values mean "no filter".
type ReadingFilter struct {
	Language   string
	Difficulty string
}

type ReadingRepository interface {
	Create(reading *model.Reading) error
	FindByID(id string) (*model.Reading, error)
	FindByIDWithQuestions(id string) (*model.Reading, error)
	FindAll(filter ReadingFilter) ([]model.Reading, error)
	Update(reading *model.Reading) error
	Delete(id string) error
}

type readingRepository struct {
	db *gorm.DB
}

func NewReadingRepository(db *gorm.DB) ReadingRepository {
	return &readingRepository{db: db}
}

func (r *readingRepository) Create(reading *model.Reading) error {
	return r.db.Create(reading).Error
}

func (r *readingRepository) FindByID(id string) (*model.Reading, error) {
	var reading model.Reading
	if err := r.db.First(&reading, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &reading, nil
}

func (r *readingRepository) FindByIDWithQuestions(id string) (*model.Reading, error) {
	var reading model.Reading
	if err := r.db.Preload("Questions").First(&reading, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &reading, nil
}

func (r *readingRepository) FindAll(filter ReadingFilter) ([]model.Reading, error) {
	var readings []model.Reading
	query := r.db.Order("created_at DESC")
	if filter.Language != "" {
		query = query.Where("language = ?", filter.Language)
	}
	if filter.Difficulty != "" {
		query = query.Where("difficulty = ?", filter.Difficulty)
	}
	err := query.Find(&readings).Error
	return readings, err
}

func (r *readingRepository) Update(reading *model.Reading) error {
	return r.db.Save(reading).Error
}

func (r *readingRepository) Delete(id string) error {
	return r.db.Delete(&model.Reading{}, "id = ?", id).Error
}
