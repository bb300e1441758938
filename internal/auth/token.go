package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token types carried in the claims. Refresh tokens cannot be used to
// authenticate API requests and access tokens cannot be exchanged for
// new token pairs.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	// ErrInvalidToken indicates the token failed signature or claims validation.
	ErrInvalidToken = errors.New("invalid token")
	// ErrWrongTokenType indicates a valid token presented in the wrong role.
	ErrWrongTokenType = errors.New("wrong token type")
)

// Claims is the JWT payload issued for authenticated sessions.
// Subject carries the user ID.
type Claims struct {
	Username  string `json:"username,omitempty"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// TokenIssuer issues and verifies HS256 bearer tokens.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenIssuer creates a TokenIssuer with the given signing secret and TTLs.
func NewTokenIssuer(secret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// IssueAccessToken creates a signed access token for the user.
func (i *TokenIssuer) IssueAccessToken(userID, username string) (string, error) {
	return i.issue(userID, username, TokenTypeAccess, i.accessTTL)
}

// IssueRefreshToken creates a signed refresh token for the user.
func (i *TokenIssuer) IssueRefreshToken(userID string) (string, error) {
	return i.issue(userID, "", TokenTypeRefresh, i.refreshTTL)
}

func (i *TokenIssuer) issue(userID, username, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Username:  username,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, enforcing the expected token type.
// Returns ErrInvalidToken for any signature, expiry, or format failure.
func (i *TokenIssuer) Verify(token, wantType string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	if claims.TokenType != wantType {
		return nil, ErrWrongTokenType
	}

	return claims, nil
}
