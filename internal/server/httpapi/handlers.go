package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/tiergate/internal/common"
	"github.com/dmitrijs2005/tiergate/internal/server/models"
	"github.com/labstack/echo/v4"
)

type errorResponse struct {
	Error string `json:"error"`
}

type checkAccessRequest struct {
	PostSlug  string `json:"post_slug"`
	ContentID string `json:"content_id"`
	UserEmail string `json:"user_email"`
}

type checkAccessResponse struct {
	CanAccess bool   `json:"can_access"`
	Reason    string `json:"reason"`
	Message   string `json:"message,omitempty"`
}

type inviteRequest struct {
	Email  string `json:"email"`
	Source string `json:"source"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type verifyRequest struct {
	Token      string `json:"token"`
	Email      string `json:"email"`
	RedirectTo string `json:"redirect_to"`
}

type verifyResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	SessionToken string `json:"session_token,omitempty"`
	RedirectURL  string `json:"redirect_url"`
}

type generateLinkRequest struct {
	Email           string `json:"email"`
	PromoReportSlug string `json:"promo_report_slug"`
}

type generateLinkResponse struct {
	Link      string `json:"link"`
	ExpiresAt string `json:"expires_at"`
}

func jsonError(c echo.Context, code int, msg string) error {
	return c.JSON(code, errorResponse{Error: msg})
}

// fail maps service errors to HTTP responses. Details of unexpected errors
// are logged and not returned.
func (s *Server) fail(c echo.Context, err error) error {
	ctx := c.Request().Context()
	switch {
	case errors.Is(err, common.ErrValidation):
		return jsonError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrForbidden):
		return jsonError(c, http.StatusForbidden, "Forbidden")
	case errors.Is(err, common.ErrInvalidOrExpired):
		return jsonError(c, http.StatusUnauthorized, "Invalid or expired magic link")
	case errors.Is(err, common.ErrStorageUnavailable):
		s.logger.Warn(ctx, "storage unavailable", "error", err)
		return jsonError(c, http.StatusServiceUnavailable, "service unavailable")
	default:
		s.logger.Error(ctx, "request failed", "error", err)
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) handleCheckAccess(c echo.Context) error {
	var req checkAccessRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}

	contentID := req.ContentID
	if contentID == "" {
		contentID = req.PostSlug
	}
	if strings.TrimSpace(contentID) == "" {
		return jsonError(c, http.StatusBadRequest, "Missing post_slug")
	}
	if strings.TrimSpace(req.UserEmail) == "" {
		return jsonError(c, http.StatusBadRequest, "Missing user_email")
	}

	d, err := s.access.EvaluateAccess(c.Request().Context(), req.UserEmail, contentID)
	if errors.Is(err, common.ErrNotAllowed) {
		return c.JSON(http.StatusOK, checkAccessResponse{
			CanAccess: false,
			Reason:    string(models.ReasonNotAllowed),
			Message:   "User not in allowed list",
		})
	}
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(http.StatusOK, checkAccessResponse{CanAccess: d.Granted, Reason: string(d.Reason)})
}

func (s *Server) handleInvite(c echo.Context) error {
	var req inviteRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}

	if _, err := s.invites.Invite(c.Request().Context(), req.Email, req.Source); err != nil {
		return s.fail(c, err)
	}

	return c.JSON(http.StatusOK, messageResponse{Success: true, Message: "Magic link sent to your email"})
}

func (s *Server) handleVerify(c echo.Context) error {
	var req verifyRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}
	if req.Token == "" || req.Email == "" {
		return jsonError(c, http.StatusBadRequest, "Token and email are required")
	}

	v, err := s.links.Verify(c.Request().Context(), req.Email, req.Token)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(http.StatusOK, verifyResponse{
		Success:      true,
		Message:      "Magic link verified successfully",
		SessionToken: v.SessionToken,
		RedirectURL:  s.invites.RedirectFor(req.RedirectTo),
	})
}

func (s *Server) handleAdminGenerateLink(c echo.Context) error {
	admin, _ := c.Get(adminEmailKey).(string)

	var req generateLinkRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}

	inv, err := s.invites.AdminGenerateLink(c.Request().Context(), admin, req.Email, req.PromoReportSlug)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(http.StatusOK, generateLinkResponse{
		Link:      inv.Link,
		ExpiresAt: inv.ExpiresAt.UTC().Format(time.RFC3339),
	})
}
