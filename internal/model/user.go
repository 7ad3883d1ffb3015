package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleParent  UserRole = "parent"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
)

// User is a single flat entity for every platform role. Role-specific behavior
// is expressed through the capability predicates below instead of subtypes.
type User struct {
	ID                string         `gorm:"type:uuid;primarykey" json:"id"`
	Email             string         `json:"email" gorm:"not null;uniqueIndex"`
	PasswordHash      string         `json:"-" gorm:"not null"`
	FirstName         string         `json:"first_name"`
	LastName          string         `json:"last_name"`
	Role              UserRole       `json:"role" gorm:"not null;default:'student';index"`
	PreferredLanguage string         `json:"preferred_language" gorm:"default:'en'"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// CanManageContent reports whether the user may create or edit readings and
// quiz questions.
func (u *User) CanManageContent() bool {
	return u.Role == RoleAdmin
}

// CanAssignReadings reports whether the user may create assessments for other
// students.
func (u *User) CanAssignReadings() bool {
	return u.Role == RoleTeacher || u.Role == RoleAdmin
}

// CanViewAssessment reports whether the user may read the given assessment.
// Parents and teachers are checked against link tables at the service layer;
// this predicate covers the direct cases.
func (u *User) CanViewAssessment(a *Assessment) bool {
	switch u.Role {
	case RoleAdmin:
		return true
	case RoleStudent:
		return a.StudentID == u.ID
	case RoleTeacher:
		return a.AssignedByTeacherID != nil && *a.AssignedByTeacherID == u.ID
	default:
		return false
	}
}

// ParentStudentLink relates a parent account to one of its children.
type ParentStudentLink struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	ParentID  string    `json:"parent_id" gorm:"type:uuid;not null;uniqueIndex:idx_parent_student"`
	StudentID string    `json:"student_id" gorm:"type:uuid;not null;uniqueIndex:idx_parent_student"`
	CreatedAt time.Time `json:"created_at"`
}

func (l *ParentStudentLink) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}
