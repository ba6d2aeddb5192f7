package dbmysql

import (
	"context"
	"fmt"
	"time"

	"weddinghub/internal/common"

	"gorm.io/gorm"
)

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) common.NotificationRepository {
	return &notificationRepository{
		db: db,
	}
}

func (r *notificationRepository) Create(ctx context.Context, n *common.Notification) error {
	row := FromWire(*n)

	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	// reflect the generated id and create time back to the caller
	n.ID = row.ID
	n.CreatedAt = row.CreatedAt
	return nil
}

func (r *notificationRepository) ByRecipient(
	ctx context.Context,
	id common.Identity,
	limit, offset int,
) ([]common.Notification, error) {
	var rows []*Notification

	query := r.db.WithContext(ctx).
		Where("recipient_id = ? AND recipient_role = ?", id.UserID, string(id.Role)).
		Order("created_at DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get recipient notifications: %w", err)
	}

	result := make([]common.Notification, len(rows))
	for i, row := range rows {
		result[i] = row.ToWire()
	}

	return result, nil
}

func (r *notificationRepository) MarkAsRead(
	ctx context.Context,
	notificationID uint64,
	id common.Identity,
) (time.Time, error) {
	now := time.Now()

	result := r.db.WithContext(ctx).
		Model(&Notification{}).
		Where("id = ? AND recipient_id = ? AND recipient_role = ?",
			notificationID, id.UserID, string(id.Role)).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": &now,
		})

	if result.Error != nil {
		return time.Time{}, fmt.Errorf("failed to mark notification as read: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return time.Time{}, fmt.Errorf("notification not found or access denied: %d", notificationID)
	}

	return now, nil
}

func (r *notificationRepository) UnreadCount(ctx context.Context, id common.Identity) (int64, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Model(&Notification{}).
		Where("recipient_id = ? AND recipient_role = ? AND is_read = ?",
			id.UserID, string(id.Role), false).
		Count(&count).Error

	if err != nil {
		return 0, fmt.Errorf("failed to get unread count: %w", err)
	}

	return count, nil
}
