package repository

import (
	"github.com/lunamoss/readmaster/internal/model"
	"gorm.io/gorm"
)

type ClassRepository interface {
	Create(class *model.Class) error
	FindByID(id string) (*model.Class, error)
	FindByIDWithStudents(id string) (*model.Class, error)
	FindAllByTeacher(teacherID string) ([]model.Class, error)
	Update(class *model.Class) error
	Delete(id string) error
	AddStudent(classID string, student *model.User) error
	RemoveStudent(classID string, student *model.User) error
}

type classRepository struct {
	db *gorm.DB
}

func NewClassRepository(db *gorm.DB) ClassRepository {
	return &classRepository{db: db}
}

func (r *classRepository) Create(class *model.Class) error {
	return r.db.Create(class).Error
}

func (r *classRepository) FindByID(id string) (*model.Class, error) {
	var class model.Class
	if err := r.db.First(&class, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &class, nil
}

func (r *classRepository) FindByIDWithStudents(id string) (*model.Class, error) {
	var class model.Class
	if err := r.db.Preload("Students").First(&class, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &class, nil
}

func (r *classRepository) FindAllByTeacher(teacherID string) ([]model.Class, error) {
	var classes []model.Class
	err := r.db.Where("created_by_teacher_id = ?", teacherID).Order("created_at DESC").Find(&classes).Error
	return classes, err
}

func (r *classRepository) Update(class *model.Class) error {
	return r.db.Save(class).Error
}

func (r *classRepository) Delete(id string) error {
	return r.db.Delete(&model.Class{}, "id = ?", id).Error
}

func (r *classRepository) AddStudent(classID string, student *model.User) error {
	return r.db.Model(&model.Class{ID: classID}).Association("Students").Append(student)
}

func (r *classRepository) RemoveStudent(classID string, student *model.User) error {
	return r.db.Model(&model.Class{ID: classID}).Association("Students").Delete(student)
}
