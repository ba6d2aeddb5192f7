package common

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleCustomer.Valid())
	assert.True(t, RoleOwner.Valid())
	assert.False(t, Role("ADMIN").Valid())
	assert.False(t, Role("customer").Valid())
	assert.False(t, Role("").Valid())
}

func TestNotification_AddressedTo(t *testing.T) {
	n := Notification{ID: 1, RecipientID: 42, RecipientRole: RoleCustomer}

	assert.True(t, n.AddressedTo(Identity{UserID: 42, Role: RoleCustomer}))
	assert.False(t, n.AddressedTo(Identity{UserID: 42, Role: RoleOwner}))
	assert.False(t, n.AddressedTo(Identity{UserID: 7, Role: RoleCustomer}))
}

func TestNotification_WireShape(t *testing.T) {
	raw := []byte(`{
		"id": 12,
		"recipientId": 42,
		"recipientRole": "OWNER",
		"type": "reservation-completed",
		"title": "Booking confirmed",
		"message": "A new reservation came in",
		"reservationId": 7,
		"isRead": false,
		"createdAt": "2026-08-01T10:00:00Z"
	}`)

	var n Notification
	require.NoError(t, json.Unmarshal(raw, &n))

	assert.Equal(t, uint64(12), n.ID)
	assert.Equal(t, RoleOwner, n.RecipientRole)
	assert.Equal(t, ReservationCompletedType, n.Type)
	require.NotNil(t, n.ReservationID)
	assert.Equal(t, uint64(7), *n.ReservationID)
	assert.Nil(t, n.ActionURL)
	assert.Nil(t, n.ExpiresAt)
}

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("roundtrip-secret")

	token, err := GenerateToken(secret, 42, RoleOwner)
	require.NoError(t, err)

	claims, err := ParseToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.Equal(t, string(RoleOwner), claims.Role)
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken([]byte("one"), 42, RoleCustomer)
	require.NoError(t, err)

	_, err = ParseToken([]byte("two"), token)
	assert.Error(t, err)
}
