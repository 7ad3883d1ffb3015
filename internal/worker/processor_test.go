package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/lunamoss/readmaster/internal/dto"
	"github.com/lunamoss/readmaster/internal/model"
	"github.com/lunamoss/readmaster/internal/queue"
	"github.com/lunamoss/readmaster/internal/repository"
	"github.com/lunamoss/readmaster/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Reading{},
		&model.QuizQuestion{},
		&model.Assessment{},
		&model.AssessmentResult{},
		&model.StudentQuizAnswer{},
		&model.Notification{},
	))
	return db
}

type fakeStorage struct{}

func (fakeStorage) PresignUpload(objectKey, contentType string) (string, error) {
	return "https://storage.test/" + objectKey + "?sig=upload", nil
}

func (fakeStorage) PresignDownload(objectKey string) (string, error) {
	return "https://storage.test/" + objectKey + "?sig=download", nil
}

type fakeAnalyzer struct {
	analysis *service.SpeechAnalysis
	err      error
	calls    int
}

func (f *fakeAnalyzer) AnalyzeAudio(ctx context.Context, audioURL, language string) (*service.SpeechAnalysis, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.analysis, nil
}

type fakeNotifier struct {
	settled []model.AssessmentStatus
}

func (f *fakeNotifier) NotifyAssessmentSettled(assessment *model.Assessment) error {
	f.settled = append(f.settled, assessment.Status)
	return nil
}
func (f *fakeNotifier) NotifyAssignment(studentID, readingTitle, assessmentID string) error { return nil }
func (f *fakeNotifier) ListForUser(userID string, unreadOnly bool) ([]dto.NotificationResponse, error) {
	return nil, nil
}
func (f *fakeNotifier) MarkRead(id, userID string) error       { return nil }
func (f *fakeNotifier) MarkAllRead(userID string) (int64, error) { return 0, nil }

func newFixture(t *testing.T, analyzer *fakeAnalyzer) (*gorm.DB, *Processor, *fakeNotifier) {
	db := newTestDB(t)
	notifications := &fakeNotifier{}
	processor := NewProcessor(
		repository.NewAssessmentRepository(db),
		repository.NewAssessmentResultRepository(db),
		repository.NewStudentQuizAnswerRepository(db),
		repository.NewQuizQuestionRepository(db),
		fakeStorage{},
		analyzer,
		notifications,
	)
	return db, processor, notifications
}

func seedProcessingAssessment(t *testing.T, db *gorm.DB) *model.Assessment {
	t.Helper()
	reading := &model.Reading{Title: "The Fox", Language: "en"}
	require.NoError(t, db.Create(reading).Error)
	student := &model.User{Email: uuid.NewString() + "@test.local", PasswordHash: "x", Role: model.RoleStudent}
	require.NoError(t, db.Create(student).Error)
	audioKey := "assessments_audio/" + uuid.NewString() + ".wav"
	assessment := &model.Assessment{
		StudentID:      student.ID,
		ReadingID:      reading.ID,
		Status:         model.StatusProcessing,
		AudioObjectKey: &audioKey,
	}
	require.NoError(t, db.Create(assessment).Error)
	return assessment
}

func taskFor(t *testing.T, assessment *model.Assessment) *asynq.Task {
	t.Helper()
	payload, err := json.Marshal(queue.AssessmentProcessPayload{
		AssessmentID:   assessment.ID,
		AudioObjectKey: *assessment.AudioObjectKey,
	})
	require.NoError(t, err)
	return asynq.NewTask(queue.TypeAssessmentProcess, payload)
}

func TestHandleAssessmentProcessCompletes(t *testing.T) {
	analyzer := &fakeAnalyzer{analysis: &service.SpeechAnalysis{
		Transcript: "the fox jumped over the fence",
		Metrics:    map[string]interface{}{"fluency_score": 0.87, "words_per_minute": 95.0},
	}}
	db, processor, notifications := newFixture(t, analyzer)
	assessment := seedProcessingAssessment(t, db)

	err := processor.HandleAssessmentProcess(context.Background(), taskFor(t, assessment))
	require.NoError(t, err)

	var stored model.Assessment
	require.NoError(t, db.First(&stored, "id = ?", assessment.ID).Error)
	assert.Equal(t, model.StatusCompleted, stored.Status)
	require.NotNil(t, stored.RawTranscript)
	assert.Equal(t, "the fox jumped over the fence", *stored.RawTranscript)

	result, err := repository.NewAssessmentResultRepository(db).FindByAssessmentID(assessment.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.87, result.AnalysisData["fluency_score"])

	require.Len(t, notifications.settled, 1)
	assert.Equal(t, model.StatusCompleted, notifications.settled[0])
}

func TestHandleAssessmentProcessIsIdempotent(t *testing.T) {
	analyzer := &fakeAnalyzer{analysis: &service.SpeechAnalysis{
		Transcript: "transcript",
		Metrics:    map[string]interface{}{"fluency_score": 0.5},
	}}
	db, processor, notifications := newFixture(t, analyzer)
	assessment := seedProcessingAssessment(t, db)
	task := taskFor(t, assessment)

	require.NoError(t, processor.HandleAssessmentProcess(context.Background(), task))
	// Redelivery of the same task acks without reprocessing.
	require.NoError(t, processor.HandleAssessmentProcess(context.Background(), task))

	assert.Equal(t, 1, analyzer.calls)
	assert.Len(t, notifications.settled, 1)

	var resultCount int64
	require.NoError(t, db.Model(&model.AssessmentResult{}).Where("assessment_id = ?", assessment.ID).Count(&resultCount).Error)
	assert.EqualValues(t, 1, resultCount)
}

func TestHandleAssessmentProcessFoldsQuizScore(t *testing.T) {
	analyzer := &fakeAnalyzer{analysis: &service.SpeechAnalysis{
		Transcript: "transcript",
		Metrics:    map[string]interface{}{},
	}}
	db, processor, _ := newFixture(t, analyzer)
	assessment := seedProcessingAssessment(t, db)

	question := &model.QuizQuestion{
		ReadingID:       assessment.ReadingID,
		QuestionText:    "q",
		Options:         datatypes.JSONMap{"A": "a", "B": "b"},
		CorrectOptionID: "A",
		Language:        "en",
	}
	require.NoError(t, db.Create(question).Error)
	answer := &model.StudentQuizAnswer{
		AssessmentID:     assessment.ID,
		QuestionID:       question.ID,
		StudentID:        assessment.StudentID,
		SelectedOptionID: "A",
		IsCorrect:        true,
	}
	require.NoError(t, db.Create(answer).Error)

	require.NoError(t, processor.HandleAssessmentProcess(context.Background(), taskFor(t, assessment)))

	result, err := repository.NewAssessmentResultRepository(db).FindByAssessmentID(assessment.ID)
	require.NoError(t, err)
	require.NotNil(t, result.ComprehensionScore)
	assert.InDelta(t, 1.0, *result.ComprehensionScore, 1e-9)
}

func TestHandleAssessmentProcessSettlesToErrorOnFinalAttempt(t *testing.T) {
	analyzer := &fakeAnalyzer{err: errors.New("model unavailable")}
	db, processor, notifications := newFixture(t, analyzer)
	assessment := seedProcessingAssessment(t, db)

	// Without retry metadata in the context the handler treats the attempt as
	// the last one.
	err := processor.HandleAssessmentProcess(context.Background(), taskFor(t, assessment))
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)

	var stored model.Assessment
	require.NoError(t, db.First(&stored, "id = ?", assessment.ID).Error)
	assert.Equal(t, model.StatusError, stored.Status)
	require.NotNil(t, stored.ProcessingError)
	assert.Contains(t, *stored.ProcessingError, "model unavailable")

	// No result row for a failed analysis.
	var resultCount int64
	require.NoError(t, db.Model(&model.AssessmentResult{}).Where("assessment_id = ?", assessment.ID).Count(&resultCount).Error)
	assert.EqualValues(t, 0, resultCount)

	require.Len(t, notifications.settled, 1)
	assert.Equal(t, model.StatusError, notifications.settled[0])
}
