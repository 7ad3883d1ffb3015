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

// QuizService handles comprehension quiz submissions. Answers are graded at
// write time against the stored correct option and are immutable afterwards.
type QuizService interface {
	SubmitAnswers(assessmentID string, caller *model.User, req dto.SubmitQuizAnswersRequest) (*dto.SubmitQuizAnswersResponse, error)
}

type quizService struct {
	assessmentRepo repository.AssessmentRepository
	questionRepo   repository.QuizQuestionRepository
	answerRepo     repository.StudentQuizAnswerRepository
	resultRepo     repository.AssessmentResultRepository
}

func NewQuizService(
	assessmentRepo repository.AssessmentRepository,
	questionRepo repository.QuizQuestionRepository,
	answerRepo repository.StudentQuizAnswerRepository,
	resultRepo repository.AssessmentResultRepository,
) QuizService {
	return &quizService{
		assessmentRepo: assessmentRepo,
		questionRepo:   questionRepo,
		answerRepo:     answerRepo,
		resultRepo:     resultRepo,
	}
}

// SubmitAnswers grades and stores one batch of answers for the caller's
// assessment. The quiz is independent of the audio pipeline, so submissions
// are accepted while the assessment is processing or completed; only
// pending_audio and error reject.
func (s *quizService) SubmitAnswers(assessmentID string, caller *model.User, req dto.SubmitQuizAnswersRequest) (*dto.SubmitQuizAnswersResponse, error) {
	assessment, err := s.assessmentRepo.FindByID(assessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("assessment %s: %w", assessmentID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load assessment: %w", err)
	}
	if assessment.StudentID != caller.ID {
		return nil, fmt.Errorf("assessment %s does not belong to caller: %w", assessmentID, ErrForbidden)
	}
	if assessment.Status != model.StatusProcessing && assessment.Status != model.StatusCompleted {
		return nil, fmt.Errorf("assessment %s is %s, quiz submission requires processing or completed: %w",
			assessmentID, assessment.Status, ErrInvalidState)
	}

	questions, err := s.questionRepo.FindByReadingID(assessment.ReadingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load quiz questions: %w", err)
	}
	byID := make(map[string]*model.QuizQuestion, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	existing, err := s.answerRepo.FindByAssessmentID(assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing answers: %w", err)
	}
	answered := make(map[string]struct{}, len(existing))
	for _, a := range existing {
		answered[a.QuestionID] = struct{}{}
	}

	answers := make([]model.StudentQuizAnswer, 0, len(req.Answers))
	for _, submission := range req.Answers {
		question, found := byID[submission.QuestionID]
		if !found {
			return nil, fmt.Errorf("question %s does not belong to reading %s: %w",
				submission.QuestionID, assessment.ReadingID, ErrNotFound)
		}
		if _, dup := answered[submission.QuestionID]; dup {
			return nil, fmt.Errorf("question %s already answered: %w", submission.QuestionID, ErrConflict)
		}
		answered[submission.QuestionID] = struct{}{}
		answers = append(answers, model.StudentQuizAnswer{
			AssessmentID:     assessmentID,
			QuestionID:       submission.QuestionID,
			StudentID:        caller.ID,
			SelectedOptionID: submission.SelectedOptionID,
			IsCorrect:        question.ValidateAnswer(submission.SelectedOptionID),
		})
	}
	if err := s.answerRepo.BulkCreate(answers); err != nil {
		return nil, fmt.Errorf("failed to store answers: %w", err)
	}

	correct, _, err := s.answerRepo.CountByAssessment(assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to count answers: %w", err)
	}
	score := 0.0
	if len(questions) > 0 {
		score = float64(correct) / float64(len(questions))
	}

	// Fold the score into the result row if one exists. While the worker has
	// not yet written it this is a no-op; the worker counts answers after it
	// completes the assessment, so one of the two sides always sees this batch.
	if err := s.resultRepo.UpdateComprehensionScore(assessmentID, score); err != nil {
		log.Warn().Err(err).Str("assessmentID", assessmentID).Msg("Failed to update comprehension score")
	}

	log.Info().Str("assessmentID", assessmentID).Int("submitted", len(answers)).
		Float64("comprehensionScore", score).Msg("Quiz answers submitted")
	return &dto.SubmitQuizAnswersResponse{
		AssessmentID:       assessmentID,
		TotalQuestions:     len(questions),
		CorrectAnswers:     int(correct),
		ComprehensionScore: score,
	}, nil
}
