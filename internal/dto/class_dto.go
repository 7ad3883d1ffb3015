package dto

import "time"

type CreateClassRequest struct {
	ClassName  string  `json:"class_name" binding:"required"`
	GradeLevel *string `json:"grade_level"`
}

type UpdateClassRequest struct {
	ClassName  *string `json:"class_name"`
	GradeLevel *string `json:"grade_level"`
}

type ClassResponse struct {
	ID                 string    `json:"id"`
	ClassName          string    `json:"class_name"`
	GradeLevel         *string   `json:"grade_level,omitempty"`
	CreatedByTeacherID string    `json:"created_by_teacher_id"`
	CreatedAt          time.Time `json:"created_at"`
}

type ClassDetailResponse struct {
	ClassResponse
	Students []UserResponse `json:"students"`
}

type AddClassStudentRequest struct {
	StudentID string `json:"student_id" binding:"required,uuid"`
}
