package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session is an ordered list of word entries, most recent first.
type Session []WordEntry

// IndexOf returns the position of the entry with the given dedup key, or -1.
func (s Session) IndexOf(key DedupKey) int {
	for i, w := range s {
		if w.Key() == key {
			return i
		}
	}
	return -1
}

// IndexByID returns the position of the entry with the given ID, or -1.
func (s Session) IndexByID(id uuid.UUID) int {
	for i, w := range s {
		if w.ID == id {
			return i
		}
	}
	return -1
}

// Prepend returns a new session with entry in front of s. An existing entry
// with the same dedup key is dropped so the key stays unique.
func (s Session) Prepend(entry WordEntry) Session {
	out := make(Session, 0, len(s)+1)
	out = append(out, entry)
	key := entry.Key()
	for _, w := range s {
		if w.Key() == key {
			continue
		}
		out = append(out, w)
	}
	return out
}

// MoveToFront returns a new session with the entry at index i moved to the
// front and stamped with ts.
func (s Session) MoveToFront(i int, ts time.Time) Session {
	moved := s[i]
	moved.Timestamp = ts
	out := make(Session, 0, len(s))
	out = append(out, moved)
	out = append(out, s[:i]...)
	out = append(out, s[i+1:]...)
	return out
}

// Without returns a new session without the entry with the given ID.
func (s Session) Without(id uuid.UUID) Session {
	out := make(Session, 0, len(s))
	for _, w := range s {
		if w.ID != id {
			out = append(out, w)
		}
	}
	return out
}

// Replace returns a new session with the entry of the same ID replaced.
func (s Session) Replace(entry WordEntry) Session {
	out := make(Session, len(s))
	for i, w := range s {
		if w.ID == entry.ID {
			out[i] = entry
			continue
		}
		out[i] = w
	}
	return out
}

// Latest returns the greatest timestamp in the session (zero for empty).
func (s Session) Latest() time.Time {
	var latest time.Time
	for _, w := range s {
		if w.Timestamp.After(latest) {
			latest = w.Timestamp
		}
	}
	return latest
}

// Clone returns a deep copy of the session.
func (s Session) Clone() Session {
	if s == nil {
		return Session{}
	}
	out := make(Session, len(s))
	for i, w := range s {
		out[i] = w.Clone()
	}
	return out
}

// View identifies what a workspace is showing: the live session (empty
// BundleID) or an open bundle.
type View struct {
	BundleID string
}

// LiveView is the "today" view.
var LiveView = View{}

// IsLive reports whether the view is the live session.
func (v View) IsLive() bool { return v.BundleID == "" }
