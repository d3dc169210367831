package auth

import (
	"strings"

	"github.com/dmitrijs2005/tiergate/internal/common"
)

// AdminList tells whether an e-mail is on the admin allow-list.
type AdminList interface {
	IsAdmin(email string) bool
}

// AdminAuthenticator resolves a session token to the e-mail of an admin.
type AdminAuthenticator struct {
	secret []byte
	admins AdminList
}

func NewAdminAuthenticator(secret string, admins AdminList) *AdminAuthenticator {
	return &AdminAuthenticator{secret: []byte(secret), admins: admins}
}

// Authenticate returns common.ErrInvalidToken when the token is missing or
// does not verify, and common.ErrForbidden when its e-mail is not an admin.
func (a *AdminAuthenticator) Authenticate(token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", common.ErrInvalidToken
	}

	email, err := EmailFromSessionToken(token, a.secret)
	if err != nil {
		return "", err
	}

	if a.admins == nil || !a.admins.IsAdmin(email) {
		return "", common.ErrForbidden
	}

	return email, nil
}
