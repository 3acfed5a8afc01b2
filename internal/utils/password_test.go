package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	ok, err := ComparePasswordAndHash("s3cret-pass", hash)
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = ComparePasswordAndHash("wrong-pass", hash)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	h1, _ := HashPassword("same")
	h2, _ := HashPassword("same")
	assert.NotEqual(t, h1, h2)
}

func TestComparePasswordAndHash_Malformed(t *testing.T) {
	_, err := ComparePasswordAndHash("pass", "not-a-hash")
	assert.Error(t, err)

	_, err = ComparePasswordAndHash("pass", "$bcrypt$whatever")
	assert.Error(t, err)
}
