package domain

import (
	"time"

	"github.com/google/uuid"
)

// ChangeKind tells subscribers of the change feed what was persisted.
type ChangeKind string

const (
	ChangeSession ChangeKind = "session"
	ChangeBundles ChangeKind = "bundles"
)

// ChangeEvent announces a persisted mutation of an identity's data.
// Words is set for ChangeSession only. Origin names the publishing
// instance so it can skip its own events.
type ChangeEvent struct {
	Kind       ChangeKind
	IdentityID uuid.UUID
	Origin     string
	Words      Session
	At         time.Time
}
