package service

import (
	"errors"
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/lunamoss/readmaster/internal/dto"
	"github.com/lunamoss/readmaster/internal/model"
	"github.com/lunamoss/readmaster/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// UserService covers profile management, the admin user directory, and
// parent-child links.
type UserService interface {
	GetProfile(userID string) (*dto.UserResponse, error)
	UpdateProfile(caller *model.User, req dto.UpdateProfileRequest) (*dto.UserResponse, error)
	ListUsers(caller *model.User, role *model.UserRole) ([]dto.UserResponse, error)
	UpdateUserRole(caller *model.User, userID string, req dto.UpdateUserRoleRequest) (*dto.UserResponse, error)
	LinkChild(caller *model.User, req dto.LinkChildRequest) error
	ListChildren(caller *model.User) ([]dto.UserResponse, error)
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func ToUserResponse(user *model.User) dto.UserResponse {
	var resp dto.UserResponse
	copier.Copy(&resp, user)
	resp.Role = string(user.Role)
	return resp
}

func (s *userService) GetProfile(userID string) (*dto.UserResponse, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	resp := ToUserResponse(user)
	return &resp, nil
}

func (s *userService) UpdateProfile(caller *model.User, req dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	user, err := s.userRepo.FindByID(caller.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.PreferredLanguage != nil {
		user.PreferredLanguage = *req.PreferredLanguage
	}
	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	resp := ToUserResponse(user)
	return &resp, nil
}

func (s *userService) ListUsers(caller *model.User, role *model.UserRole) ([]dto.UserResponse, error) {
	if caller.Role != model.RoleAdmin {
		return nil, fmt.Errorf("listing users requires admin role: %w", ErrForbidden)
	}
	users, err := s.userRepo.FindAll(role)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	responses := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, ToUserResponse(&users[i]))
	}
	return responses, nil
}

func (s *userService) UpdateUserRole(caller *model.User, userID string, req dto.UpdateUserRoleRequest) (*dto.UserResponse, error) {
	if caller.Role != model.RoleAdmin {
		return nil, fmt.Errorf("changing roles requires admin role: %w", ErrForbidden)
	}
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	user.Role = model.UserRole(req.Role)
	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	log.Info().Str("userID", userID).Str("role", req.Role).Msg("User role updated")
	resp := ToUserResponse(user)
	return &resp, nil
}

// LinkChild attaches a student account to the calling parent.
func (s *userService) LinkChild(caller *model.User, req dto.LinkChildRequest) error {
	if caller.Role != model.RoleParent {
		return fmt.Errorf("linking a child requires parent role: %w", ErrForbidden)
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
	linked, err := s.userRepo.IsParentOf(caller.ID, student.ID)
	if err != nil {
		return fmt.Errorf("failed to check parent link: %w", err)
	}
	if linked {
		return fmt.Errorf("student %s already linked: %w", req.StudentID, ErrConflict)
	}
	if err := s.userRepo.CreateParentLink(&model.ParentStudentLink{ParentID: caller.ID, StudentID: student.ID}); err != nil {
		return fmt.Errorf("failed to create parent link: %w", err)
	}
	log.Info().Str("parentID", caller.ID).Str("studentID", student.ID).Msg("Parent-child link created")
	return nil
}

func (s *userService) ListChildren(caller *model.User) ([]dto.UserResponse, error) {
	if caller.Role != model.RoleParent {
		return nil, fmt.Errorf("listing children requires parent role: %w", ErrForbidden)
	}
	children, err := s.userRepo.FindChildren(caller.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list children: %w", err)
	}
	responses := make([]dto.UserResponse, 0, len(children))
	for i := range children {
		responses = append(responses, ToUserResponse(&children[i]))
	}
	return responses, nil
}
