package dto

import "time"

type CreateReadingRequest struct {
	Title           string  `json:"title" binding:"required"`
	ContentText     *string `json:"content_text"`
	ContentImageURL *string `json:"content_image_url"`
	AgeCategory     *string `json:"age_category"`
	Difficulty      *string `json:"difficulty" binding:"omitempty,oneof=beginner intermediate advanced"`
	Language        string  `json:"language"`
	Genre           *string `json:"genre"`
}

type UpdateReadingRequest struct {
	Title           *string `json:"title"`
	ContentText     *string `json:"content_text"`
	ContentImageURL *string `json:"content_image_url"`
	AgeCategory     *string `json:"age_category"`
	Difficulty      *string `json:"difficulty" binding:"omitempty,oneof=beginner intermediate advanced"`
	Language        *string `json:"language"`
	Genre           *string `json:"genre"`
}

type ReadingResponse struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	ContentText     *string   `json:"content_text,omitempty"`
	ContentImageURL *string   `json:"content_image_url,omitempty"`
	AgeCategory     *string   `json:"age_category,omitempty"`
	Difficulty      *string   `json:"difficulty,omitempty"`
	Language        string    `json:"language"`
	Genre           *string   `json:"genre,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// ReadingDetailResponse includes the quiz questions with correct options
// stripped; students never see the answer key.
type ReadingDetailResponse struct {
	ReadingResponse
	Questions []QuizQuestionResponse `json:"questions"`
}

type CreateQuizQuestionRequest struct {
	ReadingID       string            `json:"reading_id" binding:"required,uuid"`
	QuestionText    string            `json:"question_text" binding:"required"`
	Options         map[string]string `json:"options" binding:"required,min=2"`
	CorrectOptionID string            `json:"correct_option_id" binding:"required"`
	Language        string            `json:"language"`
}

type UpdateQuizQuestionRequest struct {
	QuestionText    *string           `json:"question_text"`
	Options         map[string]string `json:"options" binding:"omitempty,min=2"`
	CorrectOptionID *string           `json:"correct_option_id"`
	Language        *string           `json:"language"`
}

type QuizQuestionResponse struct {
	ID           string                 `json:"id"`
	ReadingID    string                 `json:"reading_id"`
	QuestionText string                 `json:"question_text"`
	Options      map[string]interface{} `json:"options"`
	Language     string                 `json:"language"`
}

// QuizQuestionAdminResponse additionally exposes the correct option.
type QuizQuestionAdminResponse struct {
	QuizQuestionResponse
	CorrectOptionID string `json:"correct_option_id"`
}
