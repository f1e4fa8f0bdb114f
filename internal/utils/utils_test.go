package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `[1,2]`, StripCodeFences("  [1,2]  "))
}

func TestTokenRoundTrip(t *testing.T) {
	token, _, err := GenerateAccessToken("user-42", "Ana", "secret", time.Minute)
	require.NoError(t, err)

	claims, err := ValidateToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.UserID)

	_, err = ValidateToken(token, "other-secret")
	assert.Error(t, err)
}

func TestValidators(t *testing.T) {
	assert.True(t, IsValidEmail("a@b.io"))
	assert.False(t, IsValidEmail("nope"))
	assert.True(t, IsValidRating(5))
	assert.False(t, IsValidRating(0))
	assert.Equal(t, 3, WordCount(" best  gaming laptop "))
}
