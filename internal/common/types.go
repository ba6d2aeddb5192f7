package common

import (
	"time"
)

type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleOwner    Role = "OWNER"
)

// Valid reports whether r is one of the two roles the marketplace knows about.
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleOwner
}

// Identity is the (userId, userRole) pair the session is currently
// authenticated as. It is derived from a bearer credential and owned by the
// auth collaborator; nothing in this repo persists it.
type Identity struct {
	UserID uint64
	Role   Role
}

type NotificationType string

const (
	PaymentRequiredType      NotificationType = "payment-required"
	PaymentCompletedType     NotificationType = "payment-completed"
	ReservationCompletedType NotificationType = "reservation-completed"
	GenericType              NotificationType = "generic"
)

// Notification is the unit of delivery, both on the SSE wire and on the
// history endpoint. The type tag is an open enumeration - senders may
// introduce new tags at any time, so nothing here rejects unknown values.
type Notification struct {
	ID            uint64           `json:"id"`
	RecipientID   uint64           `json:"recipientId"`
	RecipientRole Role             `json:"recipientRole"`
	Type          NotificationType `json:"type"`
	Title         string           `json:"title"`
	Message       string           `json:"message"`
	ReservationID *uint64          `json:"reservationId,omitempty"`
	ActionURL     *string          `json:"actionUrl,omitempty"`
	IsRead        bool             `json:"isRead"`
	ReadAt        *time.Time       `json:"readAt,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	ExpiresAt     *time.Time       `json:"expiresAt,omitempty"`
}

// AddressedTo reports whether the notification is for the given identity.
// Most traffic on the shared broadcast channel is not.
func (n *Notification) AddressedTo(id Identity) bool {
	return n.RecipientID == id.UserID && n.RecipientRole == id.Role
}
