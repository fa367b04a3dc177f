package puzzle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenEquivalence(t *testing.T) {
	tests := []struct {
		a, b Token
		want bool
	}{
		{"Qg6+", "Qg6", true},
		{"Rxg6#", "Rxg6", true},
		{"Qg7#", "Qg7+", true},
		{"Qh7", "Qh7", true},
		{"0-0", "O-O", true},
		{"0-0-0+", "O-O-O", true},
		{"e8Q#", "e8=Q", true},
		{"exd8N", "exd8=N+", true},
		{"Qg6", "Qg7", false},
		{"O-O", "O-O-O", false},
		{"e8=Q", "e8=R", false},
		{"", "", false},
		{"", "Qg6", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Equivalent(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
	}
}

func TestTokenNormalize(t *testing.T) {
	assert.Equal(t, Token("Qg6"), Token(" Qg6+ ").Normalize())
	assert.Equal(t, Token("Nf3"), Token("Nf3").Normalize())
	assert.Equal(t, Token("a8=Q"), Token("a8Q#").Normalize())
}
