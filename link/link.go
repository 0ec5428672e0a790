// Package link produces the short shareable tokens that identify forms.
package link

import "github.com/gofrs/uuid"

const (
	// TokenLength is the length of a generated link token.
	TokenLength = 8

	// DefaultAttempts bounds the collision retry loop on form creation.
	DefaultAttempts = 10
)

// Generator supplies link tokens. NewToken is swappable so tests can
// force collisions with a tiny token space.
type Generator struct {
	NewToken func() string
	Attempts int
}

func NewGenerator() Generator {
	return Generator{
		NewToken: Token,
		Attempts: DefaultAttempts,
	}
}

// Token returns a short URL-safe token: the leading hex of a random UUID.
func Token() string {
	return uuid.Must(uuid.NewV4()).String()[:TokenLength]
}
