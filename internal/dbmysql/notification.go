package dbmysql

import (
	"time"

	"weddinghub/internal/common"
)

type Notification struct {
	ID            uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	RecipientID   uint64     `gorm:"index:idx_recipient;not null" json:"recipient_id"`
	RecipientRole string     `gorm:"index:idx_recipient;type:enum('CUSTOMER','OWNER');not null" json:"recipient_role"`
	Type          string     `gorm:"type:varchar(64);not null" json:"type"`
	Title         string     `gorm:"type:varchar(255)" json:"title"`
	Message       string     `gorm:"type:text" json:"message"`
	ReservationID *uint64    `json:"reservation_id"`
	ActionURL     *string    `gorm:"type:varchar(512)" json:"action_url"`
	IsRead        bool       `gorm:"default:false" json:"is_read"`
	ReadAt        *time.Time `json:"read_at"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	ExpiresAt     *time.Time `json:"expires_at"`
}

// ToWire converts the stored row to the wire shape shared with the client.
func (n *Notification) ToWire() common.Notification {
	return common.Notification{
		ID:            n.ID,
		RecipientID:   n.RecipientID,
		RecipientRole: common.Role(n.RecipientRole),
		Type:          common.NotificationType(n.Type),
		Title:         n.Title,
		Message:       n.Message,
		ReservationID: n.ReservationID,
		ActionURL:     n.ActionURL,
		IsRead:        n.IsRead,
		ReadAt:        n.ReadAt,
		CreatedAt:     n.CreatedAt,
		ExpiresAt:     n.ExpiresAt,
	}
}

// FromWire builds a storable row from the wire shape.
func FromWire(n common.Notification) *Notification {
	return &Notification{
		ID:            n.ID,
		RecipientID:   n.RecipientID,
		RecipientRole: string(n.RecipientRole),
		Type:          string(n.Type),
		Title:         n.Title,
		Message:       n.Message,
		ReservationID: n.ReservationID,
		ActionURL:     n.ActionURL,
		IsRead:        n.IsRead,
		ReadAt:        n.ReadAt,
		CreatedAt:     n.CreatedAt,
		ExpiresAt:     n.ExpiresAt,
	}
}
