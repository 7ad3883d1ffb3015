package repository

import (
	"time"

	"github.com/lunamoss/readmaster/internal/model"
	"gorm.io/gorm"
)

type UploadTicketRepository interface {
	Create(ticket *model.UploadTicket) error
	// FindActive returns the unconsumed, unexpired ticket matching the object
	// key issued for the assessment, or gorm.ErrRecordNotFound.
	FindActive(assessmentID, objectKey string, now time.Time) (*model.UploadTicket, error)
}

type uploadTicketRepository struct {
	db *gorm.DB
}

func NewUploadTicketRepository(db *gorm.DB) UploadTicketRepository {
	return &uploadTicketRepository{db: db}
}

func (r *uploadTicketRepository) Create(ticket *model.UploadTicket) error {
	return r.db.Create(ticket).Error
}

func (r *uploadTicketRepository) FindActive(assessmentID, objectKey string, now time.Time) (*model.UploadTicket, error) {
	var ticket model.UploadTicket
	err := r.db.
		Where("assessment_id = ? AND object_key = ? AND consumed_at IS NULL AND expires_at > ?", assessmentID, objectKey, now).
		Order("created_at DESC").
		First(&ticket).Error
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}
