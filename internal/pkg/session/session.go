package session

import "github.com/google/uuid"

// GenerateRefreshToken returns a new opaque session token. A random UUID
// carries 122 bits of entropy, so collisions between users are not a
// practical concern. The caller is responsible for persisting it against the
// user record, replacing any previous value.
func GenerateRefreshToken() string {
	return uuid.NewString()
}
