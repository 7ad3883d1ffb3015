package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lunamoss/readmaster/config"
	"github.com/lunamoss/readmaster/internal/dto"
	"github.com/lunamoss/readmaster/internal/model"
	"github.com/lunamoss/readmaster/internal/queue"
	"github.com/lunamoss/readmaster/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// UploadService is the upload broker: it issues presigned upload targets for
// pending assessments and, on confirmation, performs the
// pending_audio -> processing transition atomically with the job enqueue.
type UploadService interface {
	RequestUpload(assessmentID string, caller *model.User, contentType string) (*dto.RequestUploadResponse, error)
	ConfirmUpload(assessmentID string, caller *model.User, req dto.ConfirmUploadRequest) (*dto.ConfirmUploadResponse, error)
}

type uploadService struct {
	assessmentRepo repository.AssessmentRepository
	ticketRepo     repository.UploadTicketRepository
	storage        ObjectStorage
	enqueuer       queue.Enqueuer
	uploadTTL      time.Duration
	db             *gorm.DB // transaction scope for confirm-upload
}

func NewUploadService(
	assessmentRepo repository.AssessmentRepository,
	ticketRepo repository.UploadTicketRepository,
	storage ObjectStorage,
	enqueuer queue.Enqueuer,
	cfg *config.Config,
	db *gorm.DB,
) UploadService {
	return &uploadService{
		assessmentRepo: assessmentRepo,
		ticketRepo:     ticketRepo,
		storage:        storage,
		enqueuer:       enqueuer,
		uploadTTL:      cfg.Storage.UploadTTL,
		db:             db,
	}
}

func extensionForContentType(contentType string) string {
	switch contentType {
	case "audio/mpeg":
		return "mp3"
	case "audio/ogg":
		return "ogg"
	case "audio/mp4":
		return "m4a"
	default:
		return "wav"
	}
}

// RequestUpload validates ownership and status, then issues a presigned PUT
// URL together with a single-use blob reference. Assessment state is not
// mutated; the transition happens on confirm.
func (s *uploadService) RequestUpload(assessmentID string, caller *model.User, contentType string) (*dto.RequestUploadResponse, error) {
	if contentType == "" {
		contentType = "audio/wav"
	}

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
	if assessment.Status != model.StatusPendingAudio {
		return nil, fmt.Errorf("assessment %s is %s, upload requires %s: %w",
			assessmentID, assessment.Status, model.StatusPendingAudio, ErrInvalidState)
	}

	objectKey := fmt.Sprintf("assessments_audio/%s/%s.%s", assessmentID, uuid.NewString(), extensionForContentType(contentType))
	uploadURL, err := s.storage.PresignUpload(objectKey, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}

	expiresAt := time.Now().Add(s.uploadTTL)
	ticket := &model.UploadTicket{
		AssessmentID: assessmentID,
		ObjectKey:    objectKey,
		ContentType:  contentType,
		ExpiresAt:    expiresAt,
	}
	if err := s.ticketRepo.Create(ticket); err != nil {
		return nil, fmt.Errorf("failed to persist upload ticket: %w", err)
	}

	log.Info().Str("assessmentID", assessmentID).Str("objectKey", objectKey).Msg("Upload target issued")
	return &dto.RequestUploadResponse{
		UploadURL:       uploadURL,
		BlobReference:   objectKey,
		RequiredHeaders: map[string]string{"Content-Type": contentType},
		ExpiresAt:       expiresAt,
	}, nil
}

// ConfirmUpload validates the blob reference against an outstanding ticket
// and performs the pending_audio -> processing transition, ticket
// consumption, and job enqueue in a single transaction. A failed enqueue
// rolls everything back so the assessment is never stuck in processing
// without a job.
func (s *uploadService) ConfirmUpload(assessmentID string, caller *model.User, req dto.ConfirmUploadRequest) (*dto.ConfirmUploadResponse, error) {
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
	if assessment.Status != model.StatusPendingAudio {
		return nil, fmt.Errorf("assessment %s is %s, confirm requires %s: %w",
			assessmentID, assessment.Status, model.StatusPendingAudio, ErrInvalidState)
	}

	now := time.Now()
	ticket, err := s.ticketRepo.FindActive(assessmentID, req.BlobReference, now)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("blob reference %q was not issued for assessment %s: %w",
				req.BlobReference, assessmentID, ErrInvalidUploadReference)
		}
		return nil, fmt.Errorf("failed to look up upload ticket: %w", err)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.UploadTicket{}).
			Where("id = ? AND consumed_at IS NULL", ticket.ID).
			Update("consumed_at", now)
		if res.Error != nil {
			return fmt.Errorf("failed to consume upload ticket: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("upload ticket already consumed: %w", ErrInvalidUploadReference)
		}

		// Conditional update on the current status serializes concurrent
		// confirms: only one caller can perform the transition.
		res = tx.Model(&model.Assessment{}).
			Where("id = ? AND status = ?", assessmentID, model.StatusPendingAudio).
			Updates(map[string]interface{}{
				"status":           model.StatusProcessing,
				"audio_object_key": ticket.ObjectKey,
				"audio_duration":   req.AudioDuration,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to transition assessment: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("assessment %s left %s concurrently: %w", assessmentID, model.StatusPendingAudio, ErrInvalidState)
		}

		// Enqueue inside the transaction: if the broker is down, the state
		// change must not be persisted. A commit failure after a successful
		// enqueue leaves an orphan task that the worker drops on its
		// status guard, so the pair never diverges in an observable way.
		return s.enqueuer.EnqueueAssessmentProcess(queue.AssessmentProcessPayload{
			AssessmentID:   assessmentID,
			AudioObjectKey: ticket.ObjectKey,
		})
	})
	if err != nil {
		log.Error().Err(err).Str("assessmentID", assessmentID).Msg("Confirm upload failed")
		return nil, err
	}

	log.Info().Str("assessmentID", assessmentID).Str("objectKey", ticket.ObjectKey).Msg("Upload confirmed, analysis job enqueued")
	return &dto.ConfirmUploadResponse{
		AssessmentID: assessmentID,
		Status:       string(model.StatusProcessing),
		Message:      "Audio upload confirmed. Processing has been initiated.",
	}, nil
}
