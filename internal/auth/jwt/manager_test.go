package jwt_test

import (
	"testing"
	"time"

	"github.com/hostelhq/hostelhq-backend/internal/auth/jwt"
	"github.com/hostelhq/hostelhq-backend/pkg/config"
	"github.com/hostelhq/hostelhq-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(secret string) *jwt.Manager {
	return jwt.NewManager(&config.JWTConfig{
		Secret: secret,
		Issuer: "hostelhq-auth",
	})
}

func testUser() *jwt.UserInfo {
	return &jwt.UserInfo{
		ID:    "5d2f6c1e-3f7a-4b9e-8a2d-1c0b9e8d7f6a",
		Email: "warden@test.hostelhq.io",
		Name:  "Hostel Warden",
		Role:  "Staff",
	}
}

func TestManager_GenerateAndValidate(t *testing.T) {
	manager := newManager("test-secret")

	token, err := manager.Generate(testUser(), time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := manager.Validate(token)
	require.NoError(t, err)

	assert.Equal(t, "5d2f6c1e-3f7a-4b9e-8a2d-1c0b9e8d7f6a", claims.UserID)
	assert.Equal(t, "warden@test.hostelhq.io", claims.Email)
	assert.Equal(t, "Hostel Warden", claims.Name)
	assert.Equal(t, "Staff", claims.Role)
	assert.Equal(t, "hostelhq-auth", claims.Issuer)
}

func TestManager_Validate_ExpiredToken(t *testing.T) {
	manager := newManager("test-secret")

	token, err := manager.Generate(testUser(), -time.Minute)
	require.NoError(t, err)

	_, err = manager.Validate(token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTokenExpired))
}

func TestManager_Validate_WrongSecret(t *testing.T) {
	issuer := newManager("right-secret")
	verifier := newManager("wrong-secret")

	token, err := issuer.Generate(testUser(), time.Hour)
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTokenInvalid))
}

func TestManager_Validate_Garbage(t *testing.T) {
	manager := newManager("test-secret")

	_, err := manager.Validate("not.a.token")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTokenInvalid))
}
