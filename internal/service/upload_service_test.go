package service

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lunamoss/readmaster/config"
	"github.com/lunamoss/readmaster/internal/dto"
	"github.com/lunamoss/readmaster/internal/model"
	"github.com/lunamoss/readmaster/internal/queue"
	"github.com/lunamoss/readmaster/internal/repository"
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

func seedStudent(t *testing.T, db *gorm.DB) *model.User {
	t.Helper()
	student := &model.User{Email: uuid.NewString() + "@test.local", PasswordHash: "x", Role: model.RoleStudent}
	require.NoError(t, db.Create(student).Error)
	return student
}

func seedReading(t *testing.T, db *gorm.DB) *model.Reading {
	t.Helper()
	reading := &model.Reading{Title: "The Fox and the Grapes", Language: "en"}
	require.NoError(t, db.Create(reading).Error)
	return reading
}

func seedPendingAssessment(t *testing.T, db *gorm.DB, student *model.User) *model.Assessment {
	t.Helper()
	reading := seedReading(t, db)
	assessment := &model.Assessment{StudentID: student.ID, ReadingID: reading.ID, Status: model.StatusPendingAudio}
	require.NoError(t, db.Create(assessment).Error)
	return assessment
}

type fakeStorage struct {
	uploads   int
	downloads int
}

func (f *fakeStorage) PresignUpload(objectKey, contentType string) (string, error) {
	f.uploads++
	return "https://storage.test/" + objectKey + "?sig=upload", nil
}

func (f *fakeStorage) PresignDownload(objectKey string) (string, error) {
	f.downloads++
	return "https://storage.test/" + objectKey + "?sig=download", nil
}

type fakeEnqueuer struct {
	payloads []queue.AssessmentProcessPayload
	err      error
}

func (f *fakeEnqueuer) EnqueueAssessmentProcess(payload queue.AssessmentProcessPayload) error {
	if f.err != nil {
		return f.err
	}
	f.payloads = append(f.payloads, payload)
	return nil
}

func newUploadFixture(t *testing.T) (*gorm.DB, UploadService, *fakeEnqueuer, *fakeStorage) {
	db := newTestDB(t)
	storage := &fakeStorage{}
	enqueuer := &fakeEnqueuer{}
	cfg := &config.Config{}
	cfg.Storage.UploadTTL = 15 * time.Minute
	svc := NewUploadService(
		repository.NewAssessmentRepository(db),
		repository.NewUploadTicketRepository(db),
		storage,
		enqueuer,
		cfg,
		db,
	)
	return db, svc, enqueuer, storage
}

func TestRequestUploadIssuesSingleUseTicket(t *testing.T) {
	db, svc, _, storage := newUploadFixture(t)
	student := seedStudent(t, db)
	assessment := seedPendingAssessment(t, db, student)

	resp, err := svc.RequestUpload(assessment.ID, student, "audio/mpeg")
	require.NoError(t, err)
	assert.Equal(t, 1, storage.uploads)
	assert.Contains(t, resp.UploadURL, resp.BlobReference)
	assert.Equal(t, "audio/mpeg", resp.RequiredHeaders["Content-Type"])

	var ticket model.UploadTicket
	require.NoError(t, db.Where("assessment_id = ?", assessment.ID).First(&ticket).Error)
	assert.Equal(t, resp.BlobReference, ticket.ObjectKey)
	assert.Nil(t, ticket.ConsumedAt)
}

func TestRequestUploadRejectsWrongOwnerAndState(t *testing.T) {
	db, svc, _, _ := newUploadFixture(t)
	student := seedStudent(t, db)
	assessment := seedPendingAssessment(t, db, student)

	other := seedStudent(t, db)
	_, err := svc.RequestUpload(assessment.ID, other, "audio/wav")
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, db.Model(assessment).Update("status", model.StatusProcessing).Error)
	_, err = svc.RequestUpload(assessment.ID, student, "audio/wav")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestConfirmUploadTransitionsAndEnqueuesOnce(t *testing.T) {
	db, svc, enqueuer, _ := newUploadFixture(t)
	student := seedStudent(t, db)
	assessment := seedPendingAssessment(t, db, student)

	issued, err := svc.RequestUpload(assessment.ID, student, "audio/wav")
	require.NoError(t, err)

	duration := 42
	resp, err := svc.ConfirmUpload(assessment.ID, student, dto.ConfirmUploadRequest{
		BlobReference: issued.BlobReference,
		AudioDuration: &duration,
	})
	require.NoError(t, err)
	assert.Equal(t, string(model.StatusProcessing), resp.Status)

	require.Len(t, enqueuer.payloads, 1)
	assert.Equal(t, assessment.ID, enqueuer.payloads[0].AssessmentID)
	assert.Equal(t, issued.BlobReference, enqueuer.payloads[0].AudioObjectKey)

	var stored model.Assessment
	require.NoError(t, db.First(&stored, "id = ?", assessment.ID).Error)
	assert.Equal(t, model.StatusProcessing, stored.Status)
	require.NotNil(t, stored.AudioObjectKey)
	assert.Equal(t, issued.BlobReference, *stored.AudioObjectKey)

	// Second confirm with the same reference must fail: ticket consumed and
	// status already advanced.
	_, err = svc.ConfirmUpload(assessment.ID, student, dto.ConfirmUploadRequest{BlobReference: issued.BlobReference})
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Len(t, enqueuer.payloads, 1)
}

func TestConfirmUploadRejectsUnknownReference(t *testing.T) {
	db, svc, enqueuer, _ := newUploadFixture(t)
	student := seedStudent(t, db)
	assessment := seedPendingAssessment(t, db, student)

	_, err := svc.ConfirmUpload(assessment.ID, student, dto.ConfirmUploadRequest{BlobReference: "assessments_audio/forged.wav"})
	assert.ErrorIs(t, err, ErrInvalidUploadReference)
	assert.Empty(t, enqueuer.payloads)
}

func TestConfirmUploadRollsBackWhenEnqueueFails(t *testing.T) {
	db, svc, enqueuer, _ := newUploadFixture(t)
	student := seedStudent(t, db)
	assessment := seedPendingAssessment(t, db, student)

	issued, err := svc.RequestUpload(assessment.ID, student, "audio/wav")
	require.NoError(t, err)

	enqueuer.err = errors.New("redis down")
	_, err = svc.ConfirmUpload(assessment.ID, student, dto.ConfirmUploadRequest{BlobReference: issued.BlobReference})
	require.Error(t, err)

	// Neither the transition nor the ticket consumption may stick.
	var stored model.Assessment
	require.NoError(t, db.First(&stored, "id = ?", assessment.ID).Error)
	assert.Equal(t, model.StatusPendingAudio, stored.Status)

	var ticket model.UploadTicket
	require.NoError(t, db.Where("assessment_id = ?", assessment.ID).First(&ticket).Error)
	assert.Nil(t, ticket.ConsumedAt)

	// Once the broker recovers the same reference works.
	enqueuer.err = nil
	_, err = svc.ConfirmUpload(assessment.ID, student, dto.ConfirmUploadRequest{BlobReference: issued.BlobReference})
	require.NoError(t, err)
	assert.Len(t, enqueuer.payloads, 1)
}
