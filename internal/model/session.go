package model

import "time"

// SessionTTL is the fixed validity window measured from the session's
// creation timestamp. An expired session is treated as absent, never
// silently extended.
const SessionTTL = 24 * time.Hour

// Session is the persisted record asserting that this browser is
// currently acting as a principal. UserID duplicates User.ID so fast
// checks can skip decoding the full record; the two must never diverge,
// which is why the record is always replaced wholesale.
type Session struct {
	User            *User `json:"user"`
	UserID          int   `json:"userId"`
	IsAuthenticated bool  `json:"isAuthenticated"`
	Timestamp       int64 `json:"timestamp"` // milliseconds since epoch
}

// CreatedAt returns the creation time encoded in Timestamp.
func (s *Session) CreatedAt() time.Time {
	return time.UnixMilli(s.Timestamp)
}

// Age returns how long ago the session was created.
func (s *Session) Age(now time.Time) time.Duration {
	return now.Sub(s.CreatedAt())
}

// Expired reports whether the validity window has elapsed.
func (s *Session) Expired(now time.Time) bool {
	return s.Age(now) >= SessionTTL
}

// Valid reports whether the record is structurally sound: an
// authenticated session must carry a principal with a positive numeric
// id matching the cached UserID. Anything else is treated as corrupt.
func (s *Session) Valid() bool {
	if s == nil || !s.IsAuthenticated || s.User == nil {
		return false
	}
	if s.User.ID <= 0 || s.UserID != s.User.ID {
		return false
	}
	return s.Timestamp > 0
}
