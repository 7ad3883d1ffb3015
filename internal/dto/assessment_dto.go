package dto

import "time"

type StartAssessmentRequest struct {
	ReadingID string `json:"reading_id" binding:"required,uuid"`
}

type AssessmentResponse struct {
	ID                  string    `json:"id"`
	StudentID           string    `json:"student_id"`
	ReadingID           string    `json:"reading_id"`
	ReadingTitle        string    `json:"reading_title,omitempty"`
	AssignedByTeacherID *string   `json:"assigned_by_teacher_id,omitempty"`
	Status              string    `json:"status"`
	AudioDuration       *int      `json:"audio_duration,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

type RequestUploadRequest struct {
	ContentType string `json:"content_type" binding:"omitempty,oneof=audio/wav audio/mpeg audio/ogg audio/mp4"`
}

// RequestUploadResponse carries the time-limited write target and the opaque
// blob reference the client must echo back on confirm.
type RequestUploadResponse struct {
	UploadURL       string            `json:"upload_url"`
	BlobReference   string            `json:"blob_reference"`
	RequiredHeaders map[string]string `json:"required_headers"`
	ExpiresAt       time.Time         `json:"expires_at"`
}

type ConfirmUploadRequest struct {
	BlobReference string `json:"blob_reference" binding:"required"`
	AudioDuration *int   `json:"audio_duration" binding:"omitempty,min=1"`
}

type ConfirmUploadResponse struct {
	AssessmentID string `json:"assessment_id"`
	Status       string `json:"status"`
	Message      string `json:"message"`
}

type QuizAnswerSubmission struct {
	QuestionID       string `json:"question_id" binding:"required,uuid"`
	SelectedOptionID string `json:"selected_option_id" binding:"required"`
}

type SubmitQuizAnswersRequest struct {
	Answers []QuizAnswerSubmission `json:"answers" binding:"required,min=1,dive"`
}

type SubmitQuizAnswersResponse struct {
	AssessmentID       string  `json:"assessment_id"`
	TotalQuestions     int     `json:"total_questions"`
	CorrectAnswers     int     `json:"correct_answers"`
	ComprehensionScore float64 `json:"comprehension_score"`
}

type SubmittedAnswerDetail struct {
	QuestionID       string                 `json:"question_id"`
	QuestionText     string                 `json:"question_text"`
	Options          map[string]interface{} `json:"options"`
	SelectedOptionID string                 `json:"selected_option_id"`
	CorrectOptionID  string                 `json:"correct_option_id"`
	IsCorrect        bool                   `json:"is_correct"`
}

// AssessmentResultResponse is the full result view for a settled assessment.
// Processing diagnostics are deliberately absent; an error status carries no
// detail for students.
type AssessmentResultResponse struct {
	AssessmentID       string                  `json:"assessment_id"`
	StudentID          string                  `json:"student_id"`
	ReadingID          string                  `json:"reading_id"`
	ReadingTitle       string                  `json:"reading_title"`
	Status             string                  `json:"status"`
	AudioDuration      *int                    `json:"audio_duration,omitempty"`
	RawTranscript      *string                 `json:"raw_transcript,omitempty"`
	AnalysisData       map[string]interface{}  `json:"analysis_data,omitempty"`
	ComprehensionScore *float64                `json:"comprehension_score,omitempty"`
	SubmittedAnswers   []SubmittedAnswerDetail `json:"submitted_answers"`
	CreatedAt          time.Time               `json:"created_at"`
	UpdatedAt          time.Time               `json:"updated_at"`
}

type AssignReadingRequest struct {
	ReadingID  string   `json:"reading_id" binding:"required,uuid"`
	StudentIDs []string `json:"student_ids" binding:"omitempty,dive,uuid"`
	ClassID    *string  `json:"class_id" binding:"omitempty,uuid"`
}

type AssignReadingResponse struct {
	CreatedAssessments []AssessmentResponse `json:"created_assessments"`
	SkippedStudents    []string             `json:"skipped_students"`
	Message            string               `json:"message"`
}

type StudentProgressResponse struct {
	StudentID               string   `json:"student_id"`
	TotalAssessments        int      `json:"total_assessments"`
	CompletedAssessments    int      `json:"completed_assessments"`
	PendingAssessments      int      `json:"pending_assessments"`
	ErroredAssessments      int      `json:"errored_assessments"`
	AverageComprehension    *float64 `json:"average_comprehension,omitempty"`
	AverageFluency          *float64 `json:"average_fluency,omitempty"`
}
