package domain

import "time"

// IssuedToken is a signed access token handed to a client at login.
type IssuedToken struct {
	Value     string
	SubjectID string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}
