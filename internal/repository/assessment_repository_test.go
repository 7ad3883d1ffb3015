package repository

import (
	"testing"

	"github.com/google/uuid"
	"github.com/lunamoss/readmaster/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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
		&model.ParentStudentLink{},
		&model.Reading{},
		&model.QuizQuestion{},
		&model.Assessment{},
		&model.AssessmentResult{},
		&model.StudentQuizAnswer{},
		&model.UploadTicket{},
		&model.Class{},
		&model.Notification{},
	))
	return db
}

func seedAssessment(t *testing.T, db *gorm.DB, status model.AssessmentStatus) *model.Assessment {
	t.Helper()
	reading := &model.Reading{Title: "The Fox", Language: "en"}
	require.NoError(t, db.Create(reading).Error)
	student := &model.User{Email: uuid.NewString() + "@test.local", PasswordHash: "x", Role: model.RoleStudent}
	require.NoError(t, db.Create(student).Error)
	assessment := &model.Assessment{StudentID: student.ID, ReadingID: reading.ID, Status: status}
	require.NoError(t, db.Create(assessment).Error)
	return assessment
}

func TestMarkCompletedOnlyFromProcessing(t *testing.T) {
	db := newTestDB(t)
	repo := NewAssessmentRepository(db)

	pending := seedAssessment(t, db, model.StatusPendingAudio)
	ok, err := repo.MarkCompleted(pending.ID, "transcript")
	require.NoError(t, err)
	assert.False(t, ok, "pending_audio must not transition straight to completed")

	processing := seedAssessment(t, db, model.StatusProcessing)
	ok, err = repo.MarkCompleted(processing.ID, "the fox jumped")
	require.NoError(t, err)
	assert.True(t, ok)

	stored, err := repo.FindByID(processing.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, stored.Status)
	require.NotNil(t, stored.RawTranscript)
	assert.Equal(t, "the fox jumped", *stored.RawTranscript)

	// Terminal states never move again.
	ok, err = repo.MarkCompleted(processing.ID, "second transcript")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMarkErrorKeepsDiagnostics(t *testing.T) {
	db := newTestDB(t)
	repo := NewAssessmentRepository(db)

	processing := seedAssessment(t, db, model.StatusProcessing)
	ok, err := repo.MarkError(processing.ID, "analyzer timeout")
	require.NoError(t, err)
	assert.True(t, ok)

	stored, err := repo.FindByID(processing.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusError, stored.Status)
	require.NotNil(t, stored.ProcessingError)
	assert.Equal(t, "analyzer timeout", *stored.ProcessingError)

	// error is terminal.
	ok, err = repo.MarkCompleted(processing.ID, "too late")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = repo.MarkError(processing.ID, "again")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFindAllByStudentNewestFirst(t *testing.T) {
	db := newTestDB(t)
	repo := NewAssessmentRepository(db)

	first := seedAssessment(t, db, model.StatusCompleted)
	second := &model.Assessment{StudentID: first.StudentID, ReadingID: first.ReadingID, Status: model.StatusPendingAudio}
	require.NoError(t, db.Create(second).Error)

	all, err := repo.FindAllByStudent(first.StudentID)
	require.NoError(t, err)
	require.Len(t, all, 2)
}
