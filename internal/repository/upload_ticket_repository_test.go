package repository

import (
	"testing"
	"time"

	"github.com/lunamoss/readmaster/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestFindActiveExcludesExpiredAndConsumed(t *testing.T) {
	db := newTestDB(t)
	repo := NewUploadTicketRepository(db)
	assessment := seedAssessment(t, db, model.StatusPendingAudio)
	now := time.Now()

	active := &model.UploadTicket{
		AssessmentID: assessment.ID,
		ObjectKey:    "assessments_audio/a/active.wav",
		ContentType:  "audio/wav",
		ExpiresAt:    now.Add(15 * time.Minute),
	}
	require.NoError(t, repo.Create(active))

	expired := &model.UploadTicket{
		AssessmentID: assessment.ID,
		ObjectKey:    "assessments_audio/a/expired.wav",
		ContentType:  "audio/wav",
		ExpiresAt:    now.Add(-time.Minute),
	}
	require.NoError(t, repo.Create(expired))

	consumedAt := now.Add(-time.Minute)
	consumed := &model.UploadTicket{
		AssessmentID: assessment.ID,
		ObjectKey:    "assessments_audio/a/consumed.wav",
		ContentType:  "audio/wav",
		ExpiresAt:    now.Add(15 * time.Minute),
		ConsumedAt:   &consumedAt,
	}
	require.NoError(t, repo.Create(consumed))

	found, err := repo.FindActive(assessment.ID, active.ObjectKey, now)
	require.NoError(t, err)
	assert.Equal(t, active.ID, found.ID)

	_, err = repo.FindActive(assessment.ID, expired.ObjectKey, now)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = repo.FindActive(assessment.ID, consumed.ObjectKey, now)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// A key issued for a different assessment never matches.
	other := seedAssessment(t, db, model.StatusPendingAudio)
	_, err = repo.FindActive(other.ID, active.ObjectKey, now)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
