package model

import (
	"bytes"
	"fmt"
)

// Flag decodes the backend's loose boolean encoding, which is sometimes
// a JSON bool and sometimes 0/1.
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	switch string(bytes.TrimSpace(b)) {
	case "true", "1":
		*f = true
	case "false", "0", "null":
		*f = false
	default:
		return fmt.Errorf("invalid flag value %q", b)
	}
	return nil
}

func (f Flag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte("true"), nil
	}
	return []byte("false"), nil
}

// Room is a listing published by a user.
type Room struct {
	ID          int     `json:"id"`
	UserID      int     `json:"user_id"`
	Title       string  `json:"title"`
	Subtitle    string  `json:"subtitle"`
	Details     string  `json:"details"`
	Description string  `json:"description"`
	Address     string  `json:"address"`
	Price       float64 `json:"price"`
	RoomzType   string  `json:"roomz_type"`
	IsAvailable Flag    `json:"is_available"`
	PublishedAt string  `json:"published_at"`
}

// Contact is one contact method attached to a user profile.
type Contact struct {
	ID     int    `json:"id"`
	UserID int    `json:"user_id"`
	Type   string `json:"type"`
	Value  string `json:"value"`
}
