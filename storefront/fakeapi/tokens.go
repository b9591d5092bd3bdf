package fakeapi

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	accessTokenType  = "access"
	refreshTokenType = "refresh"

	defaultAccessTTL  = time.Hour
	defaultRefreshTTL = 30 * 24 * time.Hour
)

var (
	errMissingBearer = errors.New("Missing Authorization Header")
	errBadToken      = errors.New("Token has expired or is invalid")
	errWrongType     = errors.New("Wrong token type")
)

type tokenClaims struct {
	Role string `json:"role,omitempty"`
	Type string `json:"type"`
	jwtlib.RegisteredClaims
}

func (s *Server) issue(u *user, tokenType string, ttl time.Duration) (string, string, error) {
	now := s.now()
	jti := uuid.NewString()
	claims := tokenClaims{
		Role: u.Role,
		Type: tokenType,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			ID:        jti,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}
	return signed, jti, nil
}

// issuePair creates an access/refresh pair. Callers hold s.mu.
func (s *Server) issuePair(u *user) (string, string, error) {
	access, jti, err := s.issue(u, accessTokenType, s.accessTTL)
	if err != nil {
		return "", "", err
	}
	s.issuedAccess[jti] = struct{}{}

	refresh, _, err := s.issue(u, refreshTokenType, defaultRefreshTTL)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// issueAccess creates a fresh access token. Callers hold s.mu.
func (s *Server) issueAccess(u *user) (string, error) {
	access, jti, err := s.issue(u, accessTokenType, s.accessTTL)
	if err != nil {
		return "", err
	}
	s.issuedAccess[jti] = struct{}{}
	return access, nil
}

func bearer(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", errMissingBearer
	}
	return parts[1], nil
}

// verify parses raw and checks signature, expiry and token type. Callers hold s.mu.
func (s *Server) verify(raw, wantType string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	_, err := jwtlib.ParseWithClaims(raw, claims, func(t *jwtlib.Token) (any, error) {
		return s.secret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, errBadToken
	}
	if claims.Type != wantType {
		return nil, errWrongType
	}
	return claims, nil
}
