// Package token mints and verifies the signed session descriptors embedded in
// attendance QR codes. Tokens are self-contained: any replica can check
// authenticity without a registry read; only business state (active,
// duplicate) needs the store.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrExpiredToken is returned when the token's expiry has elapsed.
	ErrExpiredToken = errors.New("session token expired")
	// ErrInvalidToken is returned for any signature or structural problem.
	ErrInvalidToken = errors.New("invalid session token")
)

// Payload is the session descriptor carried inside a QR token.
type Payload struct {
	SessionID     string `json:"sid"`
	CourseCode    string `json:"course_code"`
	CourseTitle   string `json:"course_title"`
	Level         int    `json:"level"`
	TotalStudents int    `json:"total_students"`
	// ExpiryTime duplicates the exp claim as a unix timestamp. It feeds the
	// preview's remaining-time field and is re-checked at mark time.
	ExpiryTime int64 `json:"expiry_time"`
}

type sessionClaims struct {
	Payload
	jwt.RegisteredClaims
}

// Codec signs and verifies session tokens with a symmetric secret.
type Codec struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewCodec creates a codec. The secret must be non-empty.
func NewCodec(secret, issuer string) *Codec {
	return &Codec{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// Mint signs payload with the given ttl and returns the opaque token string
// alongside the expiry it encodes.
func (c *Codec) Mint(p Payload, ttl time.Duration) (string, time.Time, error) {
	now := c.now()
	exp := now.Add(ttl)
	p.ExpiryTime = exp.Unix()

	claims := sessionClaims{
		Payload: p,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   p.SessionID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify checks signature and expiry and returns the embedded payload.
func (c *Codec) Verify(tokenStr string) (Payload, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &sessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Payload{}, ErrExpiredToken
		}
		return Payload{}, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid {
		return Payload{}, ErrInvalidToken
	}
	if c.issuer != "" && claims.Issuer != c.issuer {
		return Payload{}, ErrInvalidToken
	}
	return claims.Payload, nil
}
