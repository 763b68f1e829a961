package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

func testConfig() JWTConfig {
	return JWTConfig{
		SecretKey: testSecret,
		Issuer:    "specmap",
		Audience:  []string{"specmap-api"},
	}
}

func TestJWT_GenerateAndValidate(t *testing.T) {
	gen, err := NewJWTGenerator(testConfig(), time.Hour)
	require.NoError(t, err)
	val, err := NewJWTValidator(testConfig())
	require.NoError(t, err)

	token, err := gen.GenerateToken("user-1", "dev@example.com", []string{"authenticated"})
	require.NoError(t, err)

	claims, err := val.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "dev@example.com", claims.Email)
	assert.Equal(t, []string{"authenticated"}, claims.Roles)
}

func TestJWT_WrongSecretRejected(t *testing.T) {
	gen, err := NewJWTGenerator(testConfig(), time.Hour)
	require.NoError(t, err)

	otherCfg := testConfig()
	otherCfg.SecretKey = "different-secret"
	val, err := NewJWTValidator(otherCfg)
	require.NoError(t, err)

	token, err := gen.GenerateToken("user-1", "", nil)
	require.NoError(t, err)

	_, err = val.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestJWT_ExpiredRejected(t *testing.T) {
	gen, err := NewJWTGenerator(testConfig(), time.Nanosecond)
	require.NoError(t, err)
	val, err := NewJWTValidator(testConfig())
	require.NoError(t, err)

	token, err := gen.GenerateToken("user-1", "", nil)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = val.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWT_GarbageRejected(t *testing.T) {
	val, err := NewJWTValidator(testConfig())
	require.NoError(t, err)

	_, err = val.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestUserContext_RoundTrip(t *testing.T) {
	ctx := SetUserInContext(context.Background(), &UserContext{UserID: "user-1"})

	user, err := GetUserFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.UserID)

	_, err = GetUserFromContext(context.Background())
	assert.ErrorIs(t, err, ErrNoUserInContext)
}

func TestKeyedLimiter_EnforcesLimit(t *testing.T) {
	limiter := NewKeyedLimiter(2)
	ctx := context.Background()

	allowed, err := limiter.Allow(ctx, "a")
	require.NoError(t, err)
	assert.True(t, allowed)
	allowed, _ = limiter.Allow(ctx, "a")
	assert.True(t, allowed)
	allowed, _ = limiter.Allow(ctx, "a")
	assert.False(t, allowed)

	// Other keys are unaffected.
	allowed, _ = limiter.Allow(ctx, "b")
	assert.True(t, allowed)

	// Reset restores the bucket.
	require.NoError(t, limiter.Reset(ctx, "a"))
	allowed, _ = limiter.Allow(ctx, "a")
	assert.True(t, allowed)
}
