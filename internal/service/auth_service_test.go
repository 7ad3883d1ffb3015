package service

import (
	"testing"
	"time"

	"github.com/lunamoss/readmaster/config"
	"github.com/lunamoss/readmaster/internal/dto"
	"github.com/lunamoss/readmaster/internal/model"
	"github.com/lunamoss/readmaster/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthFixture(t *testing.T) AuthService {
	db := newTestDB(t)
	cfg := &config.Config{}
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.TokenTTL = time.Hour
	return NewAuthService(repository.NewUserRepository(db), cfg)
}

func TestRegisterLoginRoundTrip(t *testing.T) {
	svc := newAuthFixture(t)

	user, err := svc.Register(dto.RegisterRequest{
		Email:     "student@test.local",
		Password:  "correct horse",
		FirstName: "Sam",
		LastName:  "Reader",
		Role:      "student",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleStudent, user.Role)
	assert.NotEqual(t, "correct horse", user.PasswordHash)
	assert.Equal(t, "en", user.PreferredLanguage)

	token, loggedIn, err := svc.Login(dto.LoginRequest{Email: "student@test.local", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	claims, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, model.RoleStudent, claims.Role)
}

func TestRegisterRejectsAdminAndDuplicates(t *testing.T) {
	svc := newAuthFixture(t)

	_, err := svc.Register(dto.RegisterRequest{
		Email: "root@test.local", Password: "password1", FirstName: "A", LastName: "B", Role: "admin",
	})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Register(dto.RegisterRequest{
		Email: "dup@test.local", Password: "password1", FirstName: "A", LastName: "B", Role: "teacher",
	})
	require.NoError(t, err)

	_, err = svc.Register(dto.RegisterRequest{
		Email: "dup@test.local", Password: "password2", FirstName: "C", LastName: "D", Role: "student",
	})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newAuthFixture(t)

	_, _, err := svc.Login(dto.LoginRequest{Email: "ghost@test.local", Password: "whatever"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err2 := svc.Register(dto.RegisterRequest{
		Email: "kid@test.local", Password: "password1", FirstName: "A", LastName: "B", Role: "student",
	})
	require.NoError(t, err2)

	_, _, err = svc.Login(dto.LoginRequest{Email: "kid@test.local", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestParseTokenRejectsForeignSignature(t *testing.T) {
	svc := newAuthFixture(t)
	other := newAuthFixtureWithSecret(t, "other-secret")

	_, err := other.Register(dto.RegisterRequest{
		Email: "x@test.local", Password: "password1", FirstName: "A", LastName: "B", Role: "student",
	})
	require.NoError(t, err)
	token, _, err := other.Login(dto.LoginRequest{Email: "x@test.local", Password: "password1"})
	require.NoError(t, err)

	_, err = svc.ParseToken(token)
	assert.Error(t, err)
}

func newAuthFixtureWithSecret(t *testing.T, secret string) AuthService {
	db := newTestDB(t)
	cfg := &config.Config{}
	cfg.Auth.JWTSecret = secret
	cfg.Auth.TokenTTL = time.Hour
	return NewAuthService(repository.NewUserRepository(db), cfg)
}
