package link_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mbolis/quick-forms/link"
)

func TestToken(t *testing.T) {
	token := link.Token()
	assert.Len(t, token, link.TokenLength)
	for _, c := range token {
		assert.Contains(t, "0123456789abcdef", string(c))
	}
}

func TestTokensDiffer(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		seen[link.Token()] = true
	}
	assert.Len(t, seen, 100)
}

func TestNewGenerator(t *testing.T) {
	gen := link.NewGenerator()
	assert.Equal(t, link.DefaultAttempts, gen.Attempts)
	assert.Len(t, gen.NewToken(), link.TokenLength)
}
