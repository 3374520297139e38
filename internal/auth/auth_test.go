package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_GenerateAndValidate(t *testing.T) {
	s := NewService("test-secret")
	s.RegisterAPICredentials("key", "secret")

	token, err := s.GenerateToken(Credentials{APIKey: "key", APISecret: "secret"})
	require.NoError(t, err)
	assert.NotEmpty(t, token.Token)
	assert.WithinDuration(t, time.Now().Add(tokenTTL), token.Expiration, time.Minute)

	claims, err := s.ValidateToken(token.Token)
	require.NoError(t, err)
	assert.Equal(t, "key", claims.ClientID)
	assert.True(t, claims.HasPermission(PermissionReconcile))
	assert.True(t, claims.HasPermission(PermissionRegistry))
	assert.False(t, claims.HasPermission("admin"))
}

func TestService_InvalidCredentials(t *testing.T) {
	s := NewService("test-secret")
	s.RegisterAPICredentials("key", "secret")

	_, err := s.GenerateToken(Credentials{APIKey: "key", APISecret: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.GenerateToken(Credentials{APIKey: "other", APISecret: "secret"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_ValidateToken_Rejects(t *testing.T) {
	s := NewService("test-secret")
	s.RegisterAPICredentials("key", "secret")

	other := NewService("another-secret")
	other.RegisterAPICredentials("key", "secret")
	foreign, err := other.GenerateToken(Credentials{APIKey: "key", APISecret: "secret"})
	require.NoError(t, err)

	_, err = s.ValidateToken(foreign.Token)
	assert.Error(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
		ClientID: "key",
	})
	signed, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = s.ValidateToken(signed)
	assert.Error(t, err)

	foreignIssuer := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone-else"},
		ClientID:         "key",
	})
	signed, err = foreignIssuer.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = s.ValidateToken(signed)
	assert.Error(t, err)

	anonymous := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: tokenIssuer},
	})
	signed, err = anonymous.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = s.ValidateToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_ScopedPermissions(t *testing.T) {
	s := NewService("test-secret")
	s.RegisterAPICredentials("auditor", "secret", PermissionReconcile)

	token, err := s.GenerateToken(Credentials{APIKey: "auditor", APISecret: "secret"})
	require.NoError(t, err)

	claims, err := s.ValidateToken(token.Token)
	require.NoError(t, err)
	assert.Equal(t, "klear-recon", claims.Issuer)
	assert.True(t, claims.HasPermission(PermissionReconcile))
	assert.False(t, claims.HasPermission(PermissionRegistry))
}

func TestGenerateTokenHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := NewService("test-secret")
	s.RegisterAPICredentials("key", "secret")

	r := gin.New()
	r.POST("/auth/token", NewGinHandlers(s).GenerateTokenHandler())

	post := func(body any) *httptest.ResponseRecorder {
		data, _ := json.Marshal(body)
		req := httptest.NewRequest(http.MethodPost, "/auth/token", bytes.NewReader(data))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := post(Credentials{APIKey: "key", APISecret: "secret"})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "jwt_token")

	w = post(Credentials{APIKey: "key", APISecret: "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = post(map[string]string{"api_key": "key"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
