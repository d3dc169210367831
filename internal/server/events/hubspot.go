package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/tiergate/internal/server/models"
	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"
)

const (
	DefaultHubSpotBaseURL = "https://api.hubapi.com"

	lifecycleMQL = "marketingqualifiedlead"
	lifecycleSQL = "salesqualifiedlead"
)

// HubSpotConfig configures HubSpotSink.
type HubSpotConfig struct {
	BaseURL string
	Token   string
	// RequestsPerSecond throttles calls to the CRM API; zero means 10.
	RequestsPerSecond float64
	MaxRetries        uint64
}

// HubSpotSink mirrors invitations and tier changes onto CRM contacts.
// A contact is created; if it already exists it is looked up by e-mail and
// patched without touching its lifecycle stage.
type HubSpotSink struct {
	cfg     HubSpotConfig
	client  *http.Client
	limiter *rate.Limiter
	backoff func() retry.Backoff
}

func NewHubSpotSink(cfg HubSpotConfig, client *http.Client) *HubSpotSink {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultHubSpotBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 10
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	maxRetries := cfg.MaxRetries
	return &HubSpotSink{
		cfg:     cfg,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(maxRetries, retry.NewExponential(200*time.Millisecond))
		},
	}
}

func (s *HubSpotSink) Name() string { return "hubspot" }

// ContactProperties maps an event to CRM contact properties. ok is false for
// events the CRM does not track.
func ContactProperties(e models.Event) (props map[string]string, ok bool) {
	switch e.Type {
	case models.EventUserInvited:
		source := e.Details[models.DetailSource]
		if source == "" {
			source = models.SourceInbound
		}
		return map[string]string{
			"email":           e.Email,
			"lifecyclestage":  lifecycleMQL,
			"tier_status":     string(models.Tier1),
			"beta_icp_list":   "true",
			"founder_led_mql": "true",
			"lead_source":     source,
		}, true
	case models.EventTierChanged:
		tier := models.Tier(e.Details[models.DetailNewTier])
		props := map[string]string{
			"email":       e.Email,
			"tier_status": string(tier),
		}
		switch tier {
		case models.Tier2:
			if v := e.Details[models.DetailSector]; v != "" {
				props["sector_interest"] = v
			}
			if v := e.Details[models.DetailNPS]; v != "" {
				props["nps_score"] = v
			}
		case models.TierVIP:
			props["lifecyclestage"] = lifecycleSQL
		}
		return props, true
	default:
		return nil, false
	}
}

func (s *HubSpotSink) Handle(ctx context.Context, e models.Event) error {
	props, ok := ContactProperties(e)
	if !ok {
		return nil
	}

	status, _, err := s.call(ctx, http.MethodPost, "/crm/v3/objects/contacts", contactBody{Properties: props})
	if err != nil {
		return fmt.Errorf("hubspot create contact: %w", err)
	}
	if status != http.StatusConflict {
		return nil
	}

	id, err := s.findContact(ctx, e.Email)
	if err != nil {
		return err
	}
	if id == "" {
		return nil
	}

	update := make(map[string]string, len(props))
	for k, v := range props {
		if k != "lifecyclestage" {
			update[k] = v
		}
	}
	if _, _, err := s.call(ctx, http.MethodPatch, "/crm/v3/objects/contacts/"+id, contactBody{Properties: update}); err != nil {
		return fmt.Errorf("hubspot update contact: %w", err)
	}
	return nil
}

type contactBody struct {
	Properties map[string]string `json:"properties"`
}

type searchFilter struct {
	PropertyName string `json:"propertyName"`
	Operator     string `json:"operator"`
	Value        string `json:"value"`
}

type filterGroup struct {
	Filters []searchFilter `json:"filters"`
}

type searchRequest struct {
	FilterGroups []filterGroup `json:"filterGroups"`
}

type searchResponse struct {
	Results []struct {
		ID string `json:"id"`
	} `json:"results"`
}

func (s *HubSpotSink) findContact(ctx context.Context, email string) (string, error) {
	req := searchRequest{FilterGroups: []filterGroup{{
		Filters: []searchFilter{{PropertyName: "email", Operator: "EQ", Value: email}},
	}}}

	_, body, err := s.call(ctx, http.MethodPost, "/crm/v3/objects/contacts/search", req)
	if err != nil {
		return "", fmt.Errorf("hubspot search contact: %w", err)
	}
	var res searchResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return "", fmt.Errorf("hubspot search contact: decode: %w", err)
	}
	if len(res.Results) == 0 {
		return "", nil
	}
	return res.Results[0].ID, nil
}

var errHubSpotStatus = errors.New("unexpected status")

// call sends one JSON request, retrying on 429 and 5xx. A 409 is returned to
// the caller as a status, not an error.
func (s *HubSpotSink) call(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, err
	}

	var (
		status int
		body   []byte
	)
	err = retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, method, s.cfg.BaseURL+path, bytes.NewReader(raw))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+s.cfg.Token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		status = resp.StatusCode
		body, err = io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return retry.RetryableError(err)
		}

		switch {
		case status == http.StatusTooManyRequests || status >= 500:
			return retry.RetryableError(fmt.Errorf("%w %d", errHubSpotStatus, status))
		case status == http.StatusConflict || (status >= 200 && status < 300):
			return nil
		default:
			return fmt.Errorf("%w %d: %s", errHubSpotStatus, status, strings.TrimSpace(string(body)))
		}
	})
	return status, body, err
}
