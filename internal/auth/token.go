package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"fastadmin/internal/admin"
)

// TokenTTL bounds the lifetime of bearer tokens issued for API clients.
// Browser sessions use the session store instead and live longer.
const TokenTTL = 24 * time.Hour

// Claims carries the principal snapshot inside a signed token, so bearer
// requests skip the user lookup entirely.
type Claims struct {
	jwt.RegisteredClaims
	Username  string `json:"username"`
	Email     string `json:"email"`
	Active    bool   `json:"active"`
	Staff     bool   `json:"staff"`
	Superuser bool   `json:"superuser"`
}

// GenerateToken creates a signed HS256 bearer token for a principal.
func GenerateToken(p *admin.Principal, secret string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(p.ID, 10),
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
		Username:  p.Username,
		Email:     p.Email,
		Active:    p.Active,
		Staff:     p.Staff,
		Superuser: p.Superuser,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken validates a bearer token and reconstructs the principal.
func VerifyToken(tokenStr, secret string) (*admin.Principal, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid token subject: %w", err)
	}

	return &admin.Principal{
		ID:        id,
		Username:  claims.Username,
		Email:     claims.Email,
		Active:    claims.Active,
		Staff:     claims.Staff,
		Superuser: claims.Superuser,
	}, nil
}
