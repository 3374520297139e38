package auth

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/ksred/klear-recon/pkg/response"
)

var (
	ErrInvalidCredentials = errors.New("invalid API credentials")
	ErrTokenGeneration    = errors.New("failed to generate token")
	ErrInvalidToken       = errors.New("invalid token")
)

const (
	PermissionReconcile = "reconcile"
	PermissionRegistry  = "registry"

	tokenIssuer = "klear-recon"
	tokenTTL    = 12 * time.Hour
)

// AllPermissions is granted to clients registered without an explicit list
var AllPermissions = []string{PermissionReconcile, PermissionRegistry}

type Credentials struct {
	APIKey    string `json:"api_key" binding:"required"`
	APISecret string `json:"api_secret" binding:"required"`
}

type TokenResponse struct {
	Token      string    `json:"jwt_token"`
	Expiration time.Time `json:"expiration"`
}

// Claims identifies an API client and what it may do
type Claims struct {
	jwt.RegisteredClaims
	ClientID    string   `json:"client_id"`
	Permissions []string `json:"permissions"`
}

// HasPermission reports whether the claims grant p
func (c *Claims) HasPermission(p string) bool {
	for _, have := range c.Permissions {
		if have == p {
			return true
		}
	}
	return false
}

type apiClient struct {
	secret      string
	permissions []string
}

// Service issues and validates API tokens
type Service struct {
	jwtSecret []byte
	// TODO: move API clients into the registry database once client onboarding exists
	clients map[string]apiClient
}

func NewService(jwtSecret string) *Service {
	return &Service{
		jwtSecret: []byte(jwtSecret),
		clients:   make(map[string]apiClient),
	}
}

// GenerateToken issues a signed token for valid API credentials
func (s *Service) GenerateToken(creds Credentials) (*TokenResponse, error) {
	client, ok := s.authenticate(creds)
	if !ok {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	expiration := now.Add(tokenTTL)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiration),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   creds.APIKey,
		},
		ClientID:    creds.APIKey,
		Permissions: client.permissions,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, ErrTokenGeneration
	}

	return &TokenResponse{
		Token:      tokenString,
		Expiration: expiration,
	}, nil
}

// ValidateToken verifies signature and expiry and returns the claims
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.ClientID != "" {
		return claims, nil
	}

	return nil, ErrInvalidToken
}

func (s *Service) authenticate(creds Credentials) (apiClient, bool) {
	client, exists := s.clients[creds.APIKey]
	if !exists {
		return apiClient{}, false
	}
	if subtle.ConstantTimeCompare([]byte(client.secret), []byte(creds.APISecret)) != 1 {
		return apiClient{}, false
	}
	return client, true
}

// RegisterAPICredentials registers an API key and secret pair. Tokens issued
// to the client carry permissions, or AllPermissions when none are given.
func (s *Service) RegisterAPICredentials(apiKey, apiSecret string, permissions ...string) {
	if len(permissions) == 0 {
		permissions = AllPermissions
	}
	s.clients[apiKey] = apiClient{
		secret:      apiSecret,
		permissions: append([]string(nil), permissions...),
	}
}

// GinHandlers contains HTTP handlers for authentication endpoints
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// GenerateTokenHandler handles POST requests exchanging credentials for a token
func (h *GinHandlers) GenerateTokenHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var creds Credentials
		if err := c.ShouldBindJSON(&creds); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}

		token, err := h.service.GenerateToken(creds)
		if errors.Is(err, ErrInvalidCredentials) {
			response.Unauthorized(c, err.Error())
			return
		}
		response.Handle(c, token, err)
	}
}
