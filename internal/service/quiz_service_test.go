package service

import (
	"testing"

	"github.com/lunamoss/readmaster/internal/dto"
	"github.com/lunamoss/readmaster/internal/model"
	"github.com/lunamoss/readmaster/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func newQuizFixture(t *testing.T) (*gorm.DB, QuizService) {
	db := newTestDB(t)
	svc := NewQuizService(
		repository.NewAssessmentRepository(db),
		repository.NewQuizQuestionRepository(db),
		repository.NewStudentQuizAnswerRepository(db),
		repository.NewAssessmentResultRepository(db),
	)
	return db, svc
}

func seedQuestion(t *testing.T, db *gorm.DB, readingID, correct string) *model.QuizQuestion {
	t.Helper()
	question := &model.QuizQuestion{
		ReadingID:       readingID,
		QuestionText:    "What did the fox want?",
		Options:         datatypes.JSONMap{"A": "The grapes", "B": "The cheese", "C": "A nap"},
		CorrectOptionID: correct,
		Language:        "en",
	}
	require.NoError(t, db.Create(question).Error)
	return question
}

func TestSubmitAnswersGradesAgainstAnswerKey(t *testing.T) {
	db, svc := newQuizFixture(t)
	student := seedStudent(t, db)
	assessment := seedPendingAssessment(t, db, student)
	require.NoError(t, db.Model(assessment).Update("status", model.StatusProcessing).Error)

	q1 := seedQuestion(t, db, assessment.ReadingID, "A")
	q2 := seedQuestion(t, db, assessment.ReadingID, "B")

	resp, err := svc.SubmitAnswers(assessment.ID, student, dto.SubmitQuizAnswersRequest{
		Answers: []dto.QuizAnswerSubmission{
			{QuestionID: q1.ID, SelectedOptionID: "A"},
			{QuestionID: q2.ID, SelectedOptionID: "C"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.TotalQuestions)
	assert.Equal(t, 1, resp.CorrectAnswers)
	assert.InDelta(t, 0.5, resp.ComprehensionScore, 1e-9)

	var answers []model.StudentQuizAnswer
	require.NoError(t, db.Where("assessment_id = ?", assessment.ID).Order("question_id").Find(&answers).Error)
	require.Len(t, answers, 2)
	for _, answer := range answers {
		if answer.QuestionID == q1.ID {
			assert.True(t, answer.IsCorrect)
		} else {
			assert.False(t, answer.IsCorrect)
		}
	}
}

func TestSubmitAnswersRejectsWrongStateAndForeignQuestions(t *testing.T) {
	db, svc := newQuizFixture(t)
	student := seedStudent(t, db)
	assessment := seedPendingAssessment(t, db, student)
	question := seedQuestion(t, db, assessment.ReadingID, "A")

	req := dto.SubmitQuizAnswersRequest{Answers: []dto.QuizAnswerSubmission{{QuestionID: question.ID, SelectedOptionID: "A"}}}

	// Still pending_audio.
	_, err := svc.SubmitAnswers(assessment.ID, student, req)
	assert.ErrorIs(t, err, ErrInvalidState)

	require.NoError(t, db.Model(assessment).Update("status", model.StatusProcessing).Error)

	otherReading := seedReading(t, db)
	foreign := seedQuestion(t, db, otherReading.ID, "A")
	_, err = svc.SubmitAnswers(assessment.ID, student, dto.SubmitQuizAnswersRequest{
		Answers: []dto.QuizAnswerSubmission{{QuestionID: foreign.ID, SelectedOptionID: "A"}},
	})
	assert.ErrorIs(t, err, ErrNotFound)

	other := seedStudent(t, db)
	_, err = svc.SubmitAnswers(assessment.ID, other, req)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestSubmitAnswersRejectsDuplicates(t *testing.T) {
	db, svc := newQuizFixture(t)
	student := seedStudent(t, db)
	assessment := seedPendingAssessment(t, db, student)
	require.NoError(t, db.Model(assessment).Update("status", model.StatusProcessing).Error)
	question := seedQuestion(t, db, assessment.ReadingID, "A")

	req := dto.SubmitQuizAnswersRequest{Answers: []dto.QuizAnswerSubmission{{QuestionID: question.ID, SelectedOptionID: "B"}}}
	_, err := svc.SubmitAnswers(assessment.ID, student, req)
	require.NoError(t, err)

	// Answers are immutable; a second submission for the same question fails.
	_, err = svc.SubmitAnswers(assessment.ID, student, req)
	assert.ErrorIs(t, err, ErrConflict)

	// A batch repeating one question id is rejected outright.
	q2 := seedQuestion(t, db, assessment.ReadingID, "B")
	_, err = svc.SubmitAnswers(assessment.ID, student, dto.SubmitQuizAnswersRequest{
		Answers: []dto.QuizAnswerSubmission{
			{QuestionID: q2.ID, SelectedOptionID: "A"},
			{QuestionID: q2.ID, SelectedOptionID: "B"},
		},
	})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestSubmitAnswersUpdatesScoreOnCompletedAssessment(t *testing.T) {
	db, svc := newQuizFixture(t)
	student := seedStudent(t, db)
	assessment := seedPendingAssessment(t, db, student)
	require.NoError(t, db.Model(assessment).Update("status", model.StatusCompleted).Error)
	question := seedQuestion(t, db, assessment.ReadingID, "A")

	result := &model.AssessmentResult{
		AssessmentID: assessment.ID,
		AnalysisData: datatypes.JSONMap{"fluency_score": 0.9},
	}
	require.NoError(t, repository.NewAssessmentResultRepository(db).Upsert(result))

	_, err := svc.SubmitAnswers(assessment.ID, student, dto.SubmitQuizAnswersRequest{
		Answers: []dto.QuizAnswerSubmission{{QuestionID: question.ID, SelectedOptionID: "A"}},
	})
	require.NoError(t, err)

	stored, err := repository.NewAssessmentResultRepository(db).FindByAssessmentID(assessment.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ComprehensionScore)
	assert.InDelta(t, 1.0, *stored.ComprehensionScore, 1e-9)
}

func TestSubmitAnswersFoldsScoreWhileStillProcessing(t *testing.T) {
	db, svc := newQuizFixture(t)
	student := seedStudent(t, db)
	assessment := seedPendingAssessment(t, db, student)
	require.NoError(t, db.Model(assessment).Update("status", model.StatusProcessing).Error)
	question := seedQuestion(t, db, assessment.ReadingID, "A")

	// The pipeline has written the analysis but not yet finished its own
	// answer count; the submission must land the score on the stored result.
	result := &model.AssessmentResult{
		AssessmentID: assessment.ID,
		AnalysisData: datatypes.JSONMap{"fluency_score": 0.9},
	}
	require.NoError(t, repository.NewAssessmentResultRepository(db).Upsert(result))

	_, err := svc.SubmitAnswers(assessment.ID, student, dto.SubmitQuizAnswersRequest{
		Answers: []dto.QuizAnswerSubmission{{QuestionID: question.ID, SelectedOptionID: "A"}},
	})
	require.NoError(t, err)

	stored, err := repository.NewAssessmentResultRepository(db).FindByAssessmentID(assessment.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ComprehensionScore)
	assert.InDelta(t, 1.0, *stored.ComprehensionScore, 1e-9)
}
