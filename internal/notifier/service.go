package notifier

import (
	"errors"
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/lunamoss/readmaster/internal/dto"
	"github.com/lunamoss/readmaster/internal/model"
	"github.com/lunamoss/readmaster/internal/repository"
	"github.com/rs/zerolog/log"
)

// ErrNotFound is returned when a notification does not exist for the user.
var ErrNotFound = errors.New("notification not found")

// Service persists notifications and pushes live events. Pushing is
// fire-and-forget; only the database write can fail the caller.
type Service interface {
	NotifyAssessmentSettled(assessment *model.Assessment) error
	NotifyAssignment(studentID, readingTitle, assessmentID string) error
	ListForUser(userID string, unreadOnly bool) ([]dto.NotificationResponse, error)
	MarkRead(id, userID string) error
	MarkAllRead(userID string) (int64, error)
}

type service struct {
	repo   repository.NotificationRepository
	pusher Pusher
}

func NewService(repo repository.NotificationRepository, pusher Pusher) Service {
	return &service{repo: repo, pusher: pusher}
}

func (s *service) NotifyAssessmentSettled(assessment *model.Assessment) error {
	message := "Your reading assessment has been analyzed. Results are ready."
	if assessment.Status == model.StatusError {
		message = "Your reading assessment could not be processed. Please try again."
	}

	notification := &model.Notification{
		UserID:          assessment.StudentID,
		Type:            model.NotificationResult,
		Message:         message,
		RelatedEntityID: &assessment.ID,
	}
	if err := s.repo.Create(notification); err != nil {
		return fmt.Errorf("failed to store result notification: %w", err)
	}

	s.pusher.PushToUser(assessment.StudentID, dto.NotificationEvent{
		Type:         string(model.NotificationResult),
		AssessmentID: assessment.ID,
		Status:       string(assessment.Status),
		Message:      message,
	})
	log.Info().Str("assessmentID", assessment.ID).Str("studentID", assessment.StudentID).Msg("Result notification dispatched")
	return nil
}

func (s *service) NotifyAssignment(studentID, readingTitle, assessmentID string) error {
	message := fmt.Sprintf("You have been assigned a new reading: %s", readingTitle)
	notification := &model.Notification{
		UserID:          studentID,
		Type:            model.NotificationAssignment,
		Message:         message,
		RelatedEntityID: &assessmentID,
	}
	if err := s.repo.Create(notification); err != nil {
		return fmt.Errorf("failed to store assignment notification: %w", err)
	}

	s.pusher.PushToUser(studentID, dto.NotificationEvent{
		Type:         string(model.NotificationAssignment),
		AssessmentID: assessmentID,
		Message:      message,
	})
	return nil
}

func (s *service) ListForUser(userID string, unreadOnly bool) ([]dto.NotificationResponse, error) {
	notifications, err := s.repo.FindByUser(userID, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	responses := make([]dto.NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		var resp dto.NotificationResponse
		if err := copier.Copy(&resp, &n); err != nil {
			return nil, fmt.Errorf("failed to map notification: %w", err)
		}
		resp.Type = string(n.Type)
		responses = append(responses, resp)
	}
	return responses, nil
}

func (s *service) MarkRead(id, userID string) error {
	ok, err := s.repo.MarkRead(id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if !ok {
		return fmt.Errorf("notification %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *service) MarkAllRead(userID string) (int64, error) {
	return s.repo.MarkAllRead(userID)
}
