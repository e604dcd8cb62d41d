package server

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/coursecraft/internal/config"
)

func TestJWTService_RoundTrip(t *testing.T) {
	service := NewJWTService(&config.JWTConfig{Secret: "test-secret", ExpirationHours: 1})
	operatorID := uuid.New()

	token, err := service.GenerateToken(operatorID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, operatorID, claims.OperatorID)
	assert.Equal(t, operatorID, claims.GetOperatorID())
}

func TestJWTService_WrongSecret(t *testing.T) {
	issuer := NewJWTService(&config.JWTConfig{Secret: "issuer-secret", ExpirationHours: 1})
	verifier := NewJWTService(&config.JWTConfig{Secret: "other-secret", ExpirationHours: 1})

	token, err := issuer.GenerateToken(uuid.New())
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTService_EmptyToken(t *testing.T) {
	service := NewJWTService(&config.JWTConfig{Secret: "test-secret", ExpirationHours: 1})

	_, err := service.ValidateToken("")
	assert.Error(t, err)
}

func TestJWTService_MalformedToken(t *testing.T) {
	service := NewJWTService(&config.JWTConfig{Secret: "test-secret", ExpirationHours: 1})

	_, err := service.ValidateToken("not.a.token")
	assert.Error(t, err)
}

func TestJWTService_AsTokenValidator(t *testing.T) {
	service := NewJWTService(&config.JWTConfig{Secret: "test-secret", ExpirationHours: 1})
	operatorID := uuid.New()

	token, err := service.GenerateToken(operatorID)
	require.NoError(t, err)

	getter, err := service.AsTokenValidator().ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, operatorID, getter.GetOperatorID())
}
