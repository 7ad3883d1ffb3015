package notifier

import (
	"testing"

	"github.com/google/uuid"
	"github.com/lunamoss/readmaster/internal/dto"
	"github.com/lunamoss/readmaster/internal/model"
	"github.com/lunamoss/readmaster/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type recordingPusher struct {
	events map[string][]dto.NotificationEvent
}

func (p *recordingPusher) PushToUser(userID string, event dto.NotificationEvent) {
	if p.events == nil {
		p.events = make(map[string][]dto.NotificationEvent)
	}
	p.events[userID] = append(p.events[userID], event)
}

func newFixture(t *testing.T) (Service, *recordingPusher, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Notification{}))
	pusher := &recordingPusher{}
	return NewService(repository.NewNotificationRepository(db), pusher), pusher, db
}

func TestNotifyAssessmentSettledPersistsAndPushes(t *testing.T) {
	svc, pusher, db := newFixture(t)
	assessment := &model.Assessment{
		ID:        uuid.NewString(),
		StudentID: uuid.NewString(),
		Status:    model.StatusCompleted,
	}

	require.NoError(t, svc.NotifyAssessmentSettled(assessment))

	var stored model.Notification
	require.NoError(t, db.Where("user_id = ?", assessment.StudentID).First(&stored).Error)
	assert.Equal(t, model.NotificationResult, stored.Type)
	assert.False(t, stored.IsRead)
	require.NotNil(t, stored.RelatedEntityID)
	assert.Equal(t, assessment.ID, *stored.RelatedEntityID)

	events := pusher.events[assessment.StudentID]
	require.Len(t, events, 1)
	assert.Equal(t, assessment.ID, events[0].AssessmentID)
	assert.Equal(t, string(model.StatusCompleted), events[0].Status)
}

func TestNotifyAssessmentSettledErrorMessage(t *testing.T) {
	svc, pusher, _ := newFixture(t)
	assessment := &model.Assessment{
		ID:        uuid.NewString(),
		StudentID: uuid.NewString(),
		Status:    model.StatusError,
	}

	require.NoError(t, svc.NotifyAssessmentSettled(assessment))

	events := pusher.events[assessment.StudentID]
	require.Len(t, events, 1)
	assert.Equal(t, string(model.StatusError), events[0].Status)
	assert.Contains(t, events[0].Message, "could not be processed")
}

func TestMarkReadScopedToOwner(t *testing.T) {
	svc, _, db := newFixture(t)
	owner := uuid.NewString()
	notification := &model.Notification{UserID: owner, Type: model.NotificationSystem, Message: "hello"}
	require.NoError(t, db.Create(notification).Error)

	// Another user cannot mark it read.
	err := svc.MarkRead(notification.ID, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.MarkRead(notification.ID, owner))

	listed, err := svc.ListForUser(owner, true)
	require.NoError(t, err)
	assert.Empty(t, listed, "read notifications excluded from unread listing")

	all, err := svc.ListForUser(owner, false)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].IsRead)
}

func TestMarkAllRead(t *testing.T) {
	svc, _, db := newFixture(t)
	owner := uuid.NewString()
	for i := 0; i < 3; i++ {
		require.NoError(t, db.Create(&model.Notification{UserID: owner, Type: model.NotificationSystem, Message: "n"}).Error)
	}

	count, err := svc.MarkAllRead(owner)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	unread, err := svc.ListForUser(owner, true)
	require.NoError(t, err)
	assert.Empty(t, unread)
}
