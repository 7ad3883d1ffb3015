package dto

import "time"

// ErrorResponse is the uniform error body for all endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

type RegisterRequest struct {
	Email             string `json:"email" binding:"required,email"`
	Password          string `json:"password" binding:"required,min=8"`
	FirstName         string `json:"first_name" binding:"required"`
	LastName          string `json:"last_name" binding:"required"`
	Role              string `json:"role" binding:"required,oneof=student parent teacher"`
	PreferredLanguage string `json:"preferred_language"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID                string    `json:"id"`
	Email             string    `json:"email"`
	FirstName         string    `json:"first_name"`
	LastName          string    `json:"last_name"`
	Role              string    `json:"role"`
	PreferredLanguage string    `json:"preferred_language"`
	CreatedAt         time.Time `json:"created_at"`
}

type UpdateProfileRequest struct {
	FirstName         *string `json:"first_name"`
	LastName          *string `json:"last_name"`
	PreferredLanguage *string `json:"preferred_language"`
}

type UpdateUserRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=student parent teacher admin"`
}

type LinkChildRequest struct {
	StudentID string `json:"student_id" binding:"required,uuid"`
}
