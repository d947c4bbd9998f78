package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/mind-insight/apiserver/types"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the session identity inside a signed token, so the server
// reconstructs a Session per request without any server-side session state.
type Claims struct {
	Username string     `json:"username"`
	Role     types.Role `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for an authenticated session.
func IssueToken(session types.Session, secret []byte, ttl time.Duration) (string, error) {
	if !session.Authenticated {
		return "", ErrUnauthenticated
	}

	now := time.Now()
	claims := Claims{
		Username: session.Username,
		Role:     session.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseToken validates a token and rebuilds the session it encodes.
func ParseToken(tokenString string, secret []byte) (types.Session, error) {
	claims := Claims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return secret, nil
	})
	if err != nil {
		return types.Anonymous(), err
	}
	if !token.Valid {
		return types.Anonymous(), errors.New("invalid token")
	}
	if strings.TrimSpace(claims.Username) == "" {
		return types.Anonymous(), errors.New("missing username claim")
	}
	role, err := types.ParseRole(string(claims.Role))
	if err != nil {
		return types.Anonymous(), err
	}

	return types.Session{
		Authenticated: true,
		Username:      claims.Username,
		Role:          role,
	}, nil
}
