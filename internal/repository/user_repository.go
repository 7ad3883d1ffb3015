package repository

import (
	"github.com/lunamoss/readmaster/internal/model"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(user *model.User) error
	FindByID(id string) (*model.User, error)
	FindByEmail(email string) (*model.User, error)
	FindAll(role *model.UserRole) ([]model.User, error)
	Update(user *model.User) error
	CreateParentLink(link *model.ParentStudentLink) error
	FindChildren(parentID string) ([]model.User, error)
	IsParentOf(parentID, studentID string) (bool, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *model.User) error {
	return r.db.Create(user).Error
}

func (r *userRepository) FindByID(id string) (*model.User, error) {
	var user model.User
	if err := r.db.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	if err := r.db.First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindAll(role *model.UserRole) ([]model.User, error) {
	var users []model.User
	query := r.db.Order("created_at DESC")
	if role != nil {
		query = query.Where("role = ?", *role)
	}
	err := query.Find(&users).Error
	return users, err
}

func (r *userRepository) Update(user *model.User) error {
	return r.db.Save(user).Error
}

func (r *userRepository) CreateParentLink(link *model.ParentStudentLink) error {
	return r.db.Create(link).Error
}

func (r *userRepository) FindChildren(parentID string) ([]model.User, error) {
	var children []model.User
	err := r.db.
		Joins("JOIN parent_student_links ON parent_student_links.student_id = users.id").
		Where("parent_student_links.parent_id = ?", parentID).
		Find(&children).Error
	return children, err
}

func (r *userRepository) IsParentOf(parentID, studentID string) (bool, error) {
	var count int64
	err := r.db.Model(&model.ParentStudentLink{}).
		Where("parent_id = ? AND student_id = ?", parentID, studentID).
		Count(&count).Error
	return count > 0, err
}
