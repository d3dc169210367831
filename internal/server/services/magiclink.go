package services

import (
	"context"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tiergate/internal/common"
	"github.com/dmitrijs2005/tiergate/internal/logging"
	"github.com/dmitrijs2005/tiergate/internal/server/events"
	"github.com/dmitrijs2005/tiergate/internal/server/models"
	"github.com/dmitrijs2005/tiergate/internal/server/repositories/repomanager"
	"golang.org/x/crypto/blake2b"
)

// DefaultMagicLinkTTL is the token lifetime used when none is configured.
const DefaultMagicLinkTTL = 24 * time.Hour

// SessionIssuer turns a verified e-mail into an authenticated session.
type SessionIssuer interface {
	IssueSession(email string) (string, error)
}

// IssuedToken is the secret handed to the user together with its expiry.
type IssuedToken struct {
	Email     string
	Token     string
	ExpiresAt time.Time
}

// Verification is the result of a successful redemption.
type Verification struct {
	Email        string
	SessionToken string
}

// MagicLinkService issues single-use, time-limited sign-in tokens and
// redeems them exactly once.
type MagicLinkService struct {
	repomanager repomanager.RepositoryManager
	sessions    SessionIssuer
	publisher   events.Publisher
	log         logging.Logger

	digestKey [32]byte
	ttl       time.Duration

	now      func() time.Time
	newToken func() (string, error)
}

// NewMagicLinkService builds the service. secret keys the digest under which
// tokens are stored; ttl <= 0 selects DefaultMagicLinkTTL.
func NewMagicLinkService(m repomanager.RepositoryManager, secret string, ttl time.Duration,
	sessions SessionIssuer, pub events.Publisher, log logging.Logger) *MagicLinkService {
	if ttl <= 0 {
		ttl = DefaultMagicLinkTTL
	}
	return &MagicLinkService{
		repomanager: m,
		sessions:    sessions,
		publisher:   pub,
		log:         log.With("module", "magiclink"),
		digestKey:   blake2b.Sum256([]byte(secret)),
		ttl:         ttl,
		now:         time.Now,
		newToken: func() (string, error) {
			return common.MakeRandHexString(common.TokenBytes)
		},
	}
}

// TTL returns the token lifetime.
func (s *MagicLinkService) TTL() time.Duration { return s.ttl }

// digest returns the keyed BLAKE2b-256 of token, hex encoded.
func (s *MagicLinkService) digest(token string) string {
	h, err := blake2b.New256(s.digestKey[:])
	if err != nil {
		// only possible with a key longer than 64 bytes
		panic(err)
	}
	h.Write([]byte(token))
	return hex.EncodeToString(h.Sum(nil))
}

// Issue mints a fresh token for email, replacing any earlier one.
func (s *MagicLinkService) Issue(ctx context.Context, email string) (*IssuedToken, error) {
	email = models.NormalizeEmail(email)
	if !models.ValidEmail(email) {
		return nil, fmt.Errorf("%w: email", common.ErrValidation)
	}

	token, err := s.newToken()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	now := s.now().UTC()
	rec := &models.MagicToken{
		Email:     email,
		TokenHash: s.digest(token),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.repomanager.MagicTokens().Upsert(ctx, rec); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}

	s.log.Info(ctx, "magic link issued", "email", email, "expires_at", rec.ExpiresAt)
	s.publisher.Publish(ctx, events.New(models.EventMagicLinkIssued, email, nil))

	return &IssuedToken{Email: email, Token: token, ExpiresAt: rec.ExpiresAt}, nil
}

// Verify redeems token for email. Every failure is common.ErrInvalidOrExpired
// except storage faults, which are returned as is.
func (s *MagicLinkService) Verify(ctx context.Context, email, token string) (*Verification, error) {
	email = models.NormalizeEmail(email)
	if !models.ValidEmail(email) || token == "" {
		return nil, common.ErrInvalidOrExpired
	}

	now := s.now().UTC()
	rec, err := s.repomanager.MagicTokens().Get(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidOrExpired
		}
		return nil, fmt.Errorf("get token: %w", err)
	}

	hash := s.digest(token)
	match := subtle.ConstantTimeCompare([]byte(hash), []byte(rec.TokenHash)) == 1
	if !match || rec.Used || rec.Expired(now) {
		return nil, common.ErrInvalidOrExpired
	}

	// the session is minted first so a failure leaves the token redeemable
	v := &Verification{Email: email}
	if s.sessions != nil {
		v.SessionToken, err = s.sessions.IssueSession(email)
		if err != nil {
			return nil, fmt.Errorf("issue session: %w", err)
		}
	}

	redeemed, err := s.repomanager.MagicTokens().Redeem(ctx, email, hash, now)
	if err != nil {
		return nil, fmt.Errorf("redeem token: %w", err)
	}
	if !redeemed {
		return nil, common.ErrInvalidOrExpired
	}

	s.log.Info(ctx, "magic link redeemed", "email", email)
	s.publisher.Publish(ctx, events.New(models.EventMagicLinkRedeemed, email, nil))
	return v, nil
}
