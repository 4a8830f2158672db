package credentials

import (
	"encoding/base64"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashVerifyRoundtrip(t *testing.T) {
	encoded, err := Hash("Sup3rsecret")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$"))

	ok, err := Verify("Sup3rsecret", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Verify("wrong-password", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashIsSalted(t *testing.T) {
	a, err := Hash("Sup3rsecret")
	require.NoError(t, err)
	b, err := Hash("Sup3rsecret")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerifyMalformedHash(t *testing.T) {
	for _, encoded := range []string{
		"",
		"plaintext",
		"$bcrypt$whatever",
		"$argon2id$v=19$m=65536,t=2,p=2$not-base64!!$x",
	} {
		_, err := Verify("anything", encoded)
		assert.Error(t, err, "encoded=%q", encoded)
	}
}

func TestVerifyUsesParametersFromHash(t *testing.T) {
	// Parameters come from the encoded hash itself, so a hash produced with
	// different settings still parses; the digest comparison decides.
	salt := base64.RawStdEncoding.EncodeToString([]byte("0123456789abcdef"))
	digest := base64.RawStdEncoding.EncodeToString([]byte("not the real derived key, 32B!!!"))
	legacy := fmt.Sprintf("$argon2id$v=19$m=8,t=1,p=1$%s$%s", salt, digest)

	ok, err := Verify("Sup3rsecret", legacy)
	require.NoError(t, err)
	assert.False(t, ok, "wrong digest must not verify")
}

func TestCheckStrength(t *testing.T) {
	assert.Empty(t, CheckStrength("Sup3rsecret"))

	assert.NotEmpty(t, CheckStrength("short"))
	assert.NotEmpty(t, CheckStrength("alllowercase1"))
	assert.NotEmpty(t, CheckStrength("ALLUPPERCASE1"))
	assert.NotEmpty(t, CheckStrength("NoDigitsHere"))

	problems := CheckStrength("x")
	assert.Len(t, problems, 3)
}
