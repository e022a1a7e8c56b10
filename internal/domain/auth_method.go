package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuthMethodType represents the type of authentication credential.
type AuthMethodType string

const (
	AuthMethodAnonymous AuthMethodType = "anonymous"
	AuthMethodPassword  AuthMethodType = "password"
	AuthMethodGoogle    AuthMethodType = "google"
)

func (m AuthMethodType) String() string { return string(m) }

// IsValid returns true if the method type is a known value.
func (m AuthMethodType) IsValid() bool {
	switch m {
	case AuthMethodAnonymous, AuthMethodPassword, AuthMethodGoogle:
		return true
	}
	return false
}

// IsPermanent returns true for credentials that survive logout.
func (m AuthMethodType) IsPermanent() bool {
	return m == AuthMethodPassword || m == AuthMethodGoogle
}

// AuthMethod represents a single credential bound to an identity.
// Permanent credentials are unique by (Method, Subject): a Google account ID
// or a lowercased email for passwords.
type AuthMethod struct {
	ID           uuid.UUID
	IdentityID   uuid.UUID
	Method       AuthMethodType
	Subject      *string
	PasswordHash *string
	CreatedAt    time.Time
}
