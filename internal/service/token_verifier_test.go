package service

import (
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-engine-api/internal/models"
	appErrors "github.com/noah-isme/class-engine-api/pkg/errors"
)

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims *models.JWTClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func validClaims(issuer string) *models.JWTClaims {
	now := time.Now()
	return &models.JWTClaims{
		UserID: "instructor-1",
		Role:   models.RoleInstructor,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
}

func TestTokenVerifierAcceptsValidToken(t *testing.T) {
	verifier := NewTokenVerifier("secret", "identity")
	token := signToken(t, jwt.SigningMethodHS256, []byte("secret"), validClaims("identity"))

	claims, err := verifier.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "instructor-1", claims.UserID)
	assert.Equal(t, models.RoleInstructor, claims.Role)
}

func TestTokenVerifierRejections(t *testing.T) {
	verifier := NewTokenVerifier("secret", "identity")

	expired := validClaims("identity")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	anonymous := validClaims("identity")
	anonymous.UserID = ""

	cases := map[string]string{
		"wrong secret":  signToken(t, jwt.SigningMethodHS256, []byte("other"), validClaims("identity")),
		"wrong issuer":  signToken(t, jwt.SigningMethodHS256, []byte("secret"), validClaims("someone")),
		"expired":       signToken(t, jwt.SigningMethodHS256, []byte("secret"), expired),
		"hs512":         signToken(t, jwt.SigningMethodHS512, []byte("secret"), validClaims("identity")),
		"missing user":  signToken(t, jwt.SigningMethodHS256, []byte("secret"), anonymous),
		"garbage token": "not-a-jwt",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := verifier.Verify(token)
			requireAppError(t, err, appErrors.ErrUnauthorized.Code, http.StatusUnauthorized)
		})
	}
}

func TestTokenVerifierWithoutIssuer(t *testing.T) {
	verifier := NewTokenVerifier("secret", "")
	token := signToken(t, jwt.SigningMethodHS256, []byte("secret"), validClaims("anyone"))

	_, err := verifier.Verify(token)
	assert.NoError(t, err)
}
