package services

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/tiergate/internal/common"
	"github.com/dmitrijs2005/tiergate/internal/logging"
	"github.com/dmitrijs2005/tiergate/internal/server/mailer"
	"github.com/dmitrijs2005/tiergate/internal/server/models"
	"github.com/dmitrijs2005/tiergate/internal/server/policy"
	"github.com/dmitrijs2005/tiergate/internal/server/repositories/memory"
	"github.com/dmitrijs2005/tiergate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/tiergate/internal/server/repositories/tiers"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e models.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) ofType(t string) []models.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []models.Event
	for _, e := range p.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeSessions struct{}

func (fakeSessions) IssueSession(email string) (string, error) { return "session-for-" + email, nil }

type fakeSender struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (s *fakeSender) Send(_ context.Context, m mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, m)
	return nil
}

// brokenManager fails every tier registry call with a transient error.
type brokenManager struct {
	*memory.Store
}

func (b brokenManager) Tiers() tiers.Repository { return brokenTiers{} }

func (b brokenManager) WithTx(ctx context.Context, fn func(ctx context.Context, m repomanager.RepositoryManager) error) error {
	return fn(ctx, b)
}

type brokenTiers struct{}

func (brokenTiers) Get(context.Context, string) (*models.TierRecord, error) {
	return nil, common.ErrStorageUnavailable
}
func (brokenTiers) GetForUpdate(context.Context, string) (*models.TierRecord, error) {
	return nil, common.ErrStorageUnavailable
}
func (brokenTiers) Upgrade(context.Context, string, models.Tier, string) (bool, error) {
	return false, common.ErrStorageUnavailable
}
func (brokenTiers) IncrementUnlocks(context.Context, string) error {
	return common.ErrStorageUnavailable
}

type fixture struct {
	store  *memory.Store
	pub    *recordingPublisher
	clock  *fakeClock
	sender *fakeSender
	policy *policy.Policy

	access  *AccessService
	tiers   *TierService
	links   *MagicLinkService
	invites *InviteService
}

func newFixture(limits policy.Limits) *fixture {
	f := &fixture{
		store:  memory.NewStore(),
		pub:    &recordingPublisher{},
		clock:  newFakeClock(),
		sender: &fakeSender{},
		policy: policy.New(limits),
	}
	log := logging.Nop{}
	f.access = NewAccessService(f.store, f.policy, f.pub, log)
	f.tiers = NewTierService(f.store, f.policy, f.pub, log)
	f.links = NewMagicLinkService(f.store, "test-secret", 0, fakeSessions{}, f.pub, log)
	f.links.now = f.clock.Now
	f.invites = NewInviteService(f.store, f.tiers, f.links, f.sender, f.pub, log, InviteConfig{
		PublicBaseURL:      "https://read.example.com/",
		DefaultRedirectURL: "https://read.example.com/welcome",
		AdminEmails:        []string{" Admin@Example.com "},
	})
	return f
}

func (f *fixture) seed(email string, tier models.Tier) {
	if _, err := f.store.Tiers().Upgrade(context.Background(), email, tier, models.SourceInbound); err != nil {
		panic(err)
	}
}
