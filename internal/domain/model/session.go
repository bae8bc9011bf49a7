package model

import "time"

// SessionRecord is the persisted form of a live session.
type SessionRecord struct {
	ID        string
	Principal Principal
	Token     string
	SavedAt   time.Time
}
