package notify

import (
	"fmt"

	"weddinghub/internal/common"
)

// Navigation targets. These are contracts with the host routing system, not
// literal URLs; the sender-supplied actionUrl is passed through opaque.
const (
	CheckoutTarget      = "/checkout"
	NotificationsTarget = "/notifications"
)

// OwnerReservationTarget is the owner-side reservation detail page.
func OwnerReservationTarget(reservationID uint64) string {
	return fmt.Sprintf("/owner/reservations/%d", reservationID)
}

// Route maps a notification to exactly one navigation target. The clause
// order encodes business priority, not just type equality: a notification
// satisfying several clauses takes the first. Unrecognized types fall through
// to the notifications listing, so Route is total.
func Route(n common.Notification) string {
	actionURL := ""
	if n.ActionURL != nil {
		actionURL = *n.ActionURL
	}

	switch {
	case n.Type == common.PaymentRequiredType:
		return CheckoutTarget

	case n.Type == common.PaymentCompletedType && actionURL != "":
		return actionURL

	case n.Type == common.ReservationCompletedType &&
		n.RecipientRole == common.RoleOwner &&
		n.ReservationID != nil:
		return OwnerReservationTarget(*n.ReservationID)

	case actionURL != "":
		return actionURL

	default:
		return NotificationsTarget
	}
}
