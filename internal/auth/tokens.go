package auth

import (
	"errors"
	"strconv"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

var errMissingSecret = errors.New("missing jwt secret")

// Claims carried by a login token.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// UserID returns the numeric user id stored in the subject.
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidToken
	}
	return uint(id), nil
}

// TokenIssuer signs and verifies HS256 login tokens.
type TokenIssuer struct {
	Secret []byte
	TTL    time.Duration
}

// NewToken signs a token for the user valid for TTL from now.
func (s TokenIssuer) NewToken(userID uint, username string, now time.Time) (string, time.Time, error) {
	if len(s.Secret) == 0 {
		return "", time.Time{}, errMissingSecret
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	exp := now.Add(s.TTL)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Username: username,
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Parse verifies a token and returns its claims.
func (s TokenIssuer) Parse(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return s.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
