package utils

import "github.com/google/uuid"

// NewID returns a random identifier used for profiles, rooms, messages and
// relay connections.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether s looks like an identifier produced by NewID.
func ValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
