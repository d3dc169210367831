package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/tiergate/internal/common"
	"github.com/dmitrijs2005/tiergate/internal/logging"
	"github.com/dmitrijs2005/tiergate/internal/server/events"
	"github.com/dmitrijs2005/tiergate/internal/server/mailer"
	"github.com/dmitrijs2005/tiergate/internal/server/models"
	"github.com/dmitrijs2005/tiergate/internal/server/repositories/repomanager"
)

const ActionGenerateLink = "generate_link"

// InviteConfig holds the URLs and the admin allow-list used by InviteService.
type InviteConfig struct {
	PublicBaseURL      string
	DefaultRedirectURL string
	AdminEmails        []string
}

// Invitation is what an invite or admin link request produced.
type Invitation struct {
	Email      string
	Link       string
	ExpiresAt  time.Time
	TierChange *TierChange
}

// InviteService provisions users at tier1 and sends or returns their sign-in link.
type InviteService struct {
	repomanager repomanager.RepositoryManager
	tiers       *TierService
	links       *MagicLinkService
	sender      mailer.Sender
	publisher   events.Publisher
	log         logging.Logger

	baseURL         string
	defaultRedirect string
	admins          map[string]struct{}
}

func NewInviteService(m repomanager.RepositoryManager, tiers *TierService, links *MagicLinkService,
	sender mailer.Sender, pub events.Publisher, log logging.Logger, cfg InviteConfig) *InviteService {
	admins := make(map[string]struct{}, len(cfg.AdminEmails))
	for _, a := range cfg.AdminEmails {
		if a = models.NormalizeEmail(a); a != "" {
			admins[a] = struct{}{}
		}
	}
	base := strings.TrimRight(cfg.PublicBaseURL, "/")
	redirect := cfg.DefaultRedirectURL
	if redirect == "" {
		redirect = base
	}
	return &InviteService{
		repomanager:     m,
		tiers:           tiers,
		links:           links,
		sender:          sender,
		publisher:       pub,
		log:             log.With("module", "invite"),
		baseURL:         base,
		defaultRedirect: redirect,
		admins:          admins,
	}
}

// IsAdmin reports whether email is on the admin allow-list.
func (s *InviteService) IsAdmin(email string) bool {
	_, ok := s.admins[models.NormalizeEmail(email)]
	return ok
}

// Invite provisions email at tier1 (existing higher tiers are kept), issues a
// magic link and mails it.
func (s *InviteService) Invite(ctx context.Context, email, source string) (*Invitation, error) {
	if source == "" {
		source = models.SourceInbound
	}
	inv, err := s.provision(ctx, email, source, s.defaultRedirect)
	if err != nil {
		return nil, err
	}

	if err := s.sender.Send(ctx, mailer.Message{To: inv.Email, Link: inv.Link, ExpiresAt: inv.ExpiresAt}); err != nil {
		return nil, fmt.Errorf("send magic link: %w", err)
	}

	s.publisher.Publish(ctx, events.New(models.EventUserInvited, inv.Email, map[string]string{
		models.DetailSource: source,
	}))
	return inv, nil
}

// AdminGenerateLink returns a sign-in link for email on behalf of admin
// without mailing it. With promoSlug set the link lands on that report.
func (s *InviteService) AdminGenerateLink(ctx context.Context, admin, email, promoSlug string) (*Invitation, error) {
	admin = models.NormalizeEmail(admin)
	if !s.IsAdmin(admin) {
		return nil, common.ErrForbidden
	}
	promoSlug = strings.Trim(strings.TrimSpace(promoSlug), "/")

	redirect := s.defaultRedirect
	if promoSlug != "" {
		redirect = s.baseURL + "/" + url.PathEscape(promoSlug) + "?promo_report=" + url.QueryEscape(promoSlug)
	}

	inv, err := s.provision(ctx, email, models.SourceOutbound, redirect)
	if err != nil {
		return nil, err
	}

	entry := &models.AuditEntry{
		AdminEmail:      admin,
		Action:          ActionGenerateLink,
		TargetEmail:     inv.Email,
		PromoReportSlug: promoSlug,
	}
	if err := s.repomanager.Audit().Insert(ctx, entry); err != nil {
		return nil, fmt.Errorf("write audit: %w", err)
	}

	details := map[string]string{
		models.DetailSource:     models.SourceOutbound,
		models.DetailAdminEmail: admin,
	}
	if promoSlug != "" {
		details[models.DetailPromoSlug] = promoSlug
	}
	s.publisher.Publish(ctx, events.New(models.EventUserInvited, inv.Email, details))
	return inv, nil
}

func (s *InviteService) provision(ctx context.Context, email, source, redirect string) (*Invitation, error) {
	change, err := s.tiers.RequestTierChange(ctx, email, models.Tier1, TierChangeOptions{Source: source})
	if err != nil {
		return nil, err
	}

	issued, err := s.links.Issue(ctx, change.Email)
	if err != nil {
		return nil, err
	}

	return &Invitation{
		Email:      issued.Email,
		Link:       s.VerifyURL(issued.Email, issued.Token, redirect),
		ExpiresAt:  issued.ExpiresAt,
		TierChange: change,
	}, nil
}

// VerifyURL builds the link the user clicks to redeem token.
func (s *InviteService) VerifyURL(email, token, redirect string) string {
	q := url.Values{}
	q.Set("email", email)
	q.Set("token", token)
	if redirect != "" {
		q.Set("redirect_to", redirect)
	}
	return s.baseURL + "/auth/verify?" + q.Encode()
}

// RedirectFor returns candidate when it points at the public site and the
// default redirect otherwise, so verify links cannot bounce users elsewhere.
func (s *InviteService) RedirectFor(candidate string) string {
	if candidate == "" {
		return s.defaultRedirect
	}
	u, err := url.Parse(candidate)
	if err != nil {
		return s.defaultRedirect
	}
	base, err := url.Parse(s.baseURL)
	if err != nil || u.Scheme != base.Scheme || u.Host != base.Host {
		return s.defaultRedirect
	}
	return u.String()
}
