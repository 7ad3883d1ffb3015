package repository

import (
	"github.com/lunamoss/readmaster/internal/model"
	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(notification *model.Notification) error
	FindByUser(userID string, unreadOnly bool) ([]model.Notification, error)
	MarkRead(id, userID string) (bool, error)
	MarkAllRead(userID string) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(notification *model.Notification) error {
	return r.db.Create(notification).Error
}

func (r *notificationRepository) FindByUser(userID string, unreadOnly bool) ([]model.Notification, error) {
	var notifications []model.Notification
	query := r.db.Where("user_id = ?", userID).Order("created_at DESC")
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}
	err := query.Find(&notifications).Error
	return notifications, err
}

func (r *notificationRepository) MarkRead(id, userID string) (bool, error) {
	res := r.db.Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	return res.RowsAffected > 0, res.Error
}

func (r *notificationRepository) MarkAllRead(userID string) (int64, error) {
	res := r.db.Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}
