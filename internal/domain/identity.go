package domain

import (
	"time"

	"github.com/google/uuid"
)

// Identity is the owner of a session and its bundles. Anonymous identities
// are upgraded in place: the ID never changes.
type Identity struct {
	ID         uuid.UUID
	Anonymous  bool
	Email      *string
	Name       *string
	CreatedAt  time.Time
	UpgradedAt *time.Time
	LastSeenAt time.Time
}

// Upgrade marks the identity as permanent and copies profile data.
func (i *Identity) Upgrade(email, name *string, now time.Time) {
	i.Anonymous = false
	if email != nil {
		i.Email = email
	}
	if name != nil {
		i.Name = name
	}
	t := now.UTC()
	i.UpgradedAt = &t
}
