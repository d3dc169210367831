package httpapi

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/tiergate/internal/server/models"
	"github.com/dmitrijs2005/tiergate/internal/server/services"
	"github.com/labstack/echo/v4"
)

// typeformPayload is the subset of a Typeform webhook delivery tiergate reads.
type typeformPayload struct {
	FormResponse struct {
		Hidden struct {
			UserEmail string `json:"user_email"`
			Email     string `json:"email"`
		} `json:"hidden"`
		Answers []typeformAnswer `json:"answers"`
	} `json:"form_response"`
}

type typeformAnswer struct {
	Type   string `json:"type"`
	Text   string `json:"text"`
	Choice *struct {
		Label string `json:"label"`
	} `json:"choice"`
	Number *float64 `json:"number"`
}

// surveyAnswers extracts the sector of interest and the NPS score. Later
// answers of the same kind win.
func surveyAnswers(answers []typeformAnswer) (sector string, nps float64) {
	for _, a := range answers {
		switch a.Type {
		case "text", "choice":
			sector = a.Text
			if sector == "" && a.Choice != nil {
				sector = a.Choice.Label
			}
		case "number", "opinion_scale":
			nps = 0
			if a.Number != nil {
				nps = *a.Number
			}
		}
	}
	return sector, nps
}

type webhookResponse struct {
	Success bool   `json:"success"`
	Outcome string `json:"outcome"`
	Tier    string `json:"tier"`
}

func (s *Server) handleTypeform(c echo.Context) error {
	var p typeformPayload
	if err := c.Bind(&p); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}

	email := p.FormResponse.Hidden.UserEmail
	if email == "" {
		email = p.FormResponse.Hidden.Email
	}
	if email == "" {
		return jsonError(c, http.StatusBadRequest, "Missing user email")
	}

	sector, nps := surveyAnswers(p.FormResponse.Answers)
	change, err := s.tiers.RequestTierChange(c.Request().Context(), email, models.Tier2, services.TierChangeOptions{
		Source: models.SourceWebhook,
		Details: map[string]string{
			models.DetailSector: sector,
			models.DetailNPS:    strconv.FormatFloat(nps, 'f', -1, 64),
		},
	})
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(http.StatusOK, webhookResponse{Success: true, Outcome: string(change.Outcome), Tier: change.NewTier.String()})
}

// vipPayload covers the booking tool's webhook shapes.
type vipPayload struct {
	Email   string `json:"email"`
	Payload struct {
		Email   string `json:"email"`
		Invitee struct {
			Email string `json:"email"`
		} `json:"invitee"`
	} `json:"payload"`
}

func (p vipPayload) email() string {
	switch {
	case p.Email != "":
		return p.Email
	case p.Payload.Email != "":
		return p.Payload.Email
	default:
		return p.Payload.Invitee.Email
	}
}

func (s *Server) handleVIP(c echo.Context) error {
	var email string
	if c.Request().Method == http.MethodGet {
		email = c.QueryParam("email")
	} else {
		var p vipPayload
		if err := c.Bind(&p); err != nil {
			return jsonError(c, http.StatusBadRequest, "invalid request")
		}
		email = p.email()
	}
	if email == "" {
		return jsonError(c, http.StatusBadRequest, "Invalid email")
	}

	change, err := s.tiers.RequestTierChange(c.Request().Context(), email, models.TierVIP, services.TierChangeOptions{
		Source: models.SourceWebhook,
	})
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(http.StatusOK, webhookResponse{Success: true, Outcome: string(change.Outcome), Tier: change.NewTier.String()})
}
