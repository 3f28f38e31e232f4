package service

import (
	"bytes"
	"crypto/rand"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightboard/brightboard-backend/internal/config"
	"github.com/brightboard/brightboard-backend/internal/model"
)

func testAuthService(jwtExpiry time.Duration) *AuthService {
	return NewAuthService(&config.Config{
		JWTSecret:        "test-secret",
		JWTExpiry:        jwtExpiry,
		BcryptCost:       4,
		GuestTokenLength: 32,
	}, nil, DefaultCaps())
}

func TestTokenRoundTrip(t *testing.T) {
	s := testAuthService(time.Hour)
	tenant := &model.Tenant{ID: uuid.New(), Email: "teacher@example.com"}

	token, err := s.GenerateToken(tenant)
	require.NoError(t, err)

	claims, err := s.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, claims.TenantID)
	assert.Equal(t, tenant.Email, claims.Email)
	assert.Equal(t, tenant.ID.String(), claims.Subject)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	s := testAuthService(-time.Minute)
	token, err := s.GenerateToken(&model.Tenant{ID: uuid.New()})
	require.NoError(t, err)

	_, err = s.ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	s := testAuthService(time.Hour)
	token, err := s.GenerateToken(&model.Tenant{ID: uuid.New()})
	require.NoError(t, err)

	other := testAuthService(time.Hour)
	other.cfg.JWTSecret = "different-secret"
	_, err = other.ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	s := testAuthService(time.Hour)
	_, err := s.ParseToken("not.a.token")
	assert.Error(t, err)
}

func TestMintGuestToken(t *testing.T) {
	s := testAuthService(time.Hour)

	a, err := s.MintGuestToken()
	require.NoError(t, err)
	b, err := s.MintGuestToken()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	// 32 bytes base64url without padding is 43 characters.
	assert.Len(t, a, 43)
	assert.NotContains(t, a, "=")
	assert.NotContains(t, a, "+")
	assert.NotContains(t, a, "/")
}

func TestVerifyGuestToken(t *testing.T) {
	assert.True(t, VerifyGuestToken("abc123", "abc123"))
	assert.False(t, VerifyGuestToken("abc123", "abc124"))
	assert.False(t, VerifyGuestToken("", "abc123"))
	assert.False(t, VerifyGuestToken("abc123", ""))
	assert.False(t, VerifyGuestToken("", ""))
}

func TestGenerateRoomCode(t *testing.T) {
	code, err := GenerateRoomCode(rand.Reader, 6)
	require.NoError(t, err)
	assert.Len(t, code, 6)
	for _, r := range code {
		assert.True(t, strings.ContainsRune(roomCodeAlphabet, r),
			"room code contains character outside the alphabet: %c", r)
	}
}

func TestGenerateRoomCodeDeterministicWithScriptedEntropy(t *testing.T) {
	// Byte n maps to alphabet[n % 32], so 0..5 reads "ABCDEF".
	code, err := GenerateRoomCode(bytes.NewReader([]byte{0, 1, 2, 3, 4, 5}), 6)
	require.NoError(t, err)
	assert.Equal(t, "ABCDEF", code)

	_, err = GenerateRoomCode(bytes.NewReader([]byte{0}), 6)
	assert.Error(t, err, "exhausted entropy source must fail, not truncate")
}

func TestGenerateRoomCodeExcludesAmbiguousCharacters(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateRoomCode(rand.Reader, 8)
		require.NoError(t, err)
		assert.NotContains(t, code, "0")
		assert.NotContains(t, code, "O")
		assert.NotContains(t, code, "1")
		assert.NotContains(t, code, "I")
		assert.NotContains(t, code, "L")
	}
}
