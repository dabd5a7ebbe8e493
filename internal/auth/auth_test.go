package auth

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/bk001juma/api-matengenezo/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func TestAccessTokenRoundTrip(t *testing.T) {
	user := &model.User{ID: 7, GeneratedUsername: "4821/MU.25", Role: model.RoleAdmin, TokenVersion: 3}

	token, err := GenerateAccessToken(user, secret)
	require.NoError(t, err)

	claims, err := ValidateAccessToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "4821/MU.25", claims.Username)
	assert.Equal(t, model.RoleAdmin, claims.Role)
	assert.Equal(t, int64(3), claims.TokenVersion)
}

func TestAccessTokenWrongSecret(t *testing.T) {
	token, err := GenerateAccessToken(&model.User{ID: 1}, secret)
	require.NoError(t, err)

	_, err = ValidateAccessToken(token, "other-secret")
	assert.Error(t, err)
}

func TestAccessTokenExpired(t *testing.T) {
	claims := Claims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			Issuer:    issuer,
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)

	_, err = ValidateAccessToken(token, secret)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestAccessTokenRejectsNoneAlgorithm(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 1}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ValidateAccessToken(token, secret)
	assert.Error(t, err)
}

func TestRefreshTokensAreRandom(t *testing.T) {
	a, err := GenerateRefreshToken()
	require.NoError(t, err)
	b, err := GenerateRefreshToken()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Len(t, a, 44)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)

	assert.NotEqual(t, "s3cret!", hash)
	assert.True(t, CheckPassword(hash, "s3cret!"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

func TestFormatUsername(t *testing.T) {
	at := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "4821/MU.25", FormatUsername(4821, at))
	assert.Equal(t, "1000/MU.07", FormatUsername(1000, time.Date(2007, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestGenerateUsernameSkipsTaken(t *testing.T) {
	pattern := regexp.MustCompile(`^[1-9]\d{3}/MU\.25$`)
	calls := 0
	taken := func(_ context.Context, candidate string) (bool, error) {
		calls++
		assert.Regexp(t, pattern, candidate)
		return calls < 3, nil
	}

	name, err := GenerateUsername(context.Background(), time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), taken)
	require.NoError(t, err)
	assert.Regexp(t, pattern, name)
	assert.Equal(t, 3, calls)
}

func TestGenerateUsernameExhausted(t *testing.T) {
	always := func(context.Context, string) (bool, error) { return true, nil }

	_, err := GenerateUsername(context.Background(), time.Now(), always)
	assert.ErrorIs(t, err, ErrUsernameSpaceExhausted)
}

func TestGenerateUsernamePropagatesLookupError(t *testing.T) {
	boom := errors.New("db down")
	failing := func(context.Context, string) (bool, error) { return false, boom }

	_, err := GenerateUsername(context.Background(), time.Now(), failing)
	assert.ErrorIs(t, err, boom)
}
