package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_VerifiesOnlyExactPlaintext(t *testing.T) {
	hash, err := HashPassword("CorrectHorse9!")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.NoError(t, ComparePassword(hash, "CorrectHorse9!"))

	// Any other input fails, including the empty string and the hash itself.
	assert.Error(t, ComparePassword(hash, "correcthorse9!"))
	assert.Error(t, ComparePassword(hash, ""))
	assert.Error(t, ComparePassword(hash, hash))
}

func TestHashPassword_EmptyRejected(t *testing.T) {
	_, err := HashPassword("")
	assert.Error(t, err)
}

func TestHashPassword_SaltedHashesDiffer(t *testing.T) {
	h1, err := HashPassword("CorrectHorse9!")
	require.NoError(t, err)
	h2, err := HashPassword("CorrectHorse9!")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"acceptable", "Sufficient9!", false},
		{"too short", "short1", true},
		{"too long", strings.Repeat("a", 80), true},
		{"common", "Password123", true},
		{"minimum length", "exactly8", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
