package service

import (
	"errors"
	"fmt"

	"github.com/lunamoss/readmaster/internal/dto"
	"github.com/lunamoss/readmaster/internal/model"
	"github.com/lunamoss/readmaster/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ClassService manages teacher-owned class rosters.
type ClassService interface {
	CreateClass(caller *model.User, req dto.CreateClassRequest) (*dto.ClassResponse, error)
	UpdateClass(caller *model.User, id string, req dto.UpdateClassRequest) (*dto.ClassResponse, error)
	DeleteClass(caller *model.User, id string) error
	GetClass(caller *model.User, id string) (*dto.ClassDetailResponse, error)
	ListClasses(caller *model.User) ([]dto.ClassResponse, error)
	AddStudent(caller *model.User, classID string, req dto.AddClassStudentRequest) error
	RemoveStudent(caller *model.User, classID, studentID string) error
}

type classService struct {
	classRepo repository.ClassRepository
	userRepo  repository.UserRepository
}

func NewClassService(classRepo repository.ClassRepository, userRepo repository.UserRepository) ClassService {
	return &classService{classRepo: classRepo, userRepo: userRepo}
}

func toClassResponse(class *model.Class) dto.ClassResponse {
	return dto.ClassResponse{
		ID:                 class.ID,
		ClassName:          class.ClassName,
		GradeLevel:         class.GradeLevel,
		CreatedByTeacherID: class.CreatedByTeacherID,
		CreatedAt:          class.CreatedAt,
	}
}

// loadOwned fetches the class and enforces ownership. Admins may operate on
// any class.
func (s *classService) loadOwned(caller *model.User, id string, withStudents bool) (*model.Class, error) {
	var class *model.Class
	var err error
	if withStudents {
		class, err = s.classRepo.FindByIDWithStudents(id)
	} else {
		class, err = s.classRepo.FindByID(id)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("class %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load class: %w", err)
	}
	if caller.Role != model.RoleAdmin && class.CreatedByTeacherID != caller.ID {
		return nil, fmt.Errorf("class %s does not belong to caller: %w", id, ErrForbidden)
	}
	return class, nil
}

func (s *classService) CreateClass(caller *model.User, req dto.CreateClassRequest) (*dto.ClassResponse, error) {
	if caller.Role != model.RoleTeacher && caller.Role != model.RoleAdmin {
		return nil, fmt.Errorf("creating classes requires teacher role: %w", ErrForbidden)
	}
	class := &model.Class{
		ClassName:          req.ClassName,
		GradeLevel:         req.GradeLevel,
		CreatedByTeacherID: caller.ID,
	}
	if err := s.classRepo.Create(class); err != nil {
		return nil, fmt.Errorf("failed to create class: %w", err)
	}
	log.Info().Str("classID", class.ID).Str("teacherID", caller.ID).Msg("Class created")
	resp := toClassResponse(class)
	return &resp, nil
}

func (s *classService) UpdateClass(caller *model.User, id string, req dto.UpdateClassRequest) (*dto.ClassResponse, error) {
	class, err := s.loadOwned(caller, id, false)
	if err != nil {
		return nil, err
	}
	if req.ClassName != nil {
		class.ClassName = *req.ClassName
	}
	if req.GradeLevel != nil {
		class.GradeLevel = req.GradeLevel
	}
	if err := s.classRepo.Update(class); err != nil {
		return nil, fmt.Errorf("failed to update class: %w", err)
	}
	resp := toClassResponse(class)
	return &resp, nil
}

func (s *classService) DeleteClass(caller *model.User, id string) error {
	if _, err := s.loadOwned(caller, id, false); err != nil {
		return err
	}
	if err := s.classRepo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete class: %w", err)
	}
	log.Info().Str("classID", id).Msg("Class deleted")
	return nil
}

func (s *classService) GetClass(caller *model.User, id string) (*dto.ClassDetailResponse, error) {
	class, err := s.loadOwned(caller, id, true)
	if err != nil {
		return nil, err
	}
	resp := &dto.ClassDetailResponse{
		ClassResponse: toClassResponse(class),
		Students:      make([]dto.UserResponse, 0, len(class.Students)),
	}
	for i := range class.Students {
		resp.Students = append(resp.Students, ToUserResponse(&class.Students[i]))
	}
	return resp, nil
}

func (s *classService) ListClasses(caller *model.User) ([]dto.ClassResponse, error) {
	if caller.Role != model.RoleTeacher && caller.Role != model.RoleAdmin {
		return nil, fmt.Errorf("listing classes requires teacher role: %w", ErrForbidden)
	}
	classes, err := s.classRepo.FindAllByTeacher(caller.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}
	responses := make([]dto.ClassResponse, 0, len(classes))
	for i := range classes {
		responses = append(responses, toClassResponse(&classes[i]))
	}
	return responses, nil
}

func (s *classService) AddStudent(caller *model.User, classID string, req dto.AddClassStudentRequest) error {
	class, err := s.loadOwned(caller, classID, false)
	if err != nil {
		return err
	}
	student, err := s.userRepo.FindByID(req.StudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("student %s: %w", req.StudentID, ErrNotFound)
		}
		return fmt.Errorf("failed to load student: %w", err)
	}
	if student.Role != model.RoleStudent {
		return fmt.Errorf("user %s is not a student: %w", req.StudentID, ErrInvalidState)
	}
	if err := s.classRepo.AddStudent(class.ID, student); err != nil {
		return fmt.Errorf("failed to add student to class: %w", err)
	}
	log.Info().Str("classID", class.ID).Str("studentID", student.ID).Msg("Student added to class")
	return nil
}

func (s *classService) RemoveStudent(caller *model.User, classID, studentID string) error {
	class, err := s.loadOwned(caller, classID, false)
	if err != nil {
		return err
	}
	student, err := s.userRepo.FindByID(studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("student %s: %w", studentID, ErrNotFound)
		}
		return fmt.Errorf("failed to load student: %w", err)
	}
	if err := s.classRepo.RemoveStudent(class.ID, student); err != nil {
		return fmt.Errorf("failed to remove student from class: %w", err)
	}
	return nil
}
