// Package auth mints and validates the signed session tokens handed out after
// a successful magic-link verification.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/tiergate/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the registered claims plus the verified e-mail.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// GenerateSessionToken signs an HS256 token for email valid for validity.
func GenerateSessionToken(email string, secretKey []byte, validity time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		Email: email,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// EmailFromSessionToken validates tokenString and returns its e-mail.
// Every failure, expiry included, is reported as common.ErrInvalidToken.
func EmailFromSessionToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", errors.Join(common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.Email == "" {
		return "", common.ErrInvalidToken
	}

	return claims.Email, nil
}

// SessionIssuer mints sessions for verified e-mails.
type SessionIssuer struct {
	secret   []byte
	validity time.Duration
}

func NewSessionIssuer(secret string, validity time.Duration) *SessionIssuer {
	return &SessionIssuer{secret: []byte(secret), validity: validity}
}

func (s *SessionIssuer) IssueSession(email string) (string, error) {
	return GenerateSessionToken(email, s.secret, s.validity)
}
