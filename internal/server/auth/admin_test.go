package auth

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/tiergate/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticAdmins map[string]bool

func (a staticAdmins) IsAdmin(email string) bool { return a[email] }

func TestAdminAuthenticator(t *testing.T) {
	const secret = "admin-secret"
	a := NewAdminAuthenticator(secret, staticAdmins{"admin@example.com": true})

	adminTok, err := GenerateSessionToken("admin@example.com", []byte(secret), time.Hour)
	require.NoError(t, err)
	userTok, err := GenerateSessionToken("user@example.com", []byte(secret), time.Hour)
	require.NoError(t, err)
	forged, err := GenerateSessionToken("admin@example.com", []byte("other-secret"), time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		want    string
		wantErr error
	}{
		{"admin", adminTok, "admin@example.com", nil},
		{"empty", "", "", common.ErrInvalidToken},
		{"plain e-mail", "admin@example.com", "", common.ErrInvalidToken},
		{"wrong secret", forged, "", common.ErrInvalidToken},
		{"not an admin", userTok, "", common.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.Authenticate(tt.token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAdminAuthenticator_NilList(t *testing.T) {
	tok, err := GenerateSessionToken("admin@example.com", []byte("k"), time.Hour)
	require.NoError(t, err)

	_, err = NewAdminAuthenticator("k", nil).Authenticate(tok)
	assert.ErrorIs(t, err, common.ErrForbidden)
}
