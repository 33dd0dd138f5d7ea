package http

import (
	"errors"
	"net/http"
	"strings"

	"log/slog"

	appsession "github.com/astro-web3/mobile-access-gate/internal/app/session"
	"github.com/astro-web3/mobile-access-gate/internal/config"
	"github.com/astro-web3/mobile-access-gate/internal/domain/session"
	"github.com/astro-web3/mobile-access-gate/pkg/logger"
	"github.com/astro-web3/mobile-access-gate/pkg/tracer"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

type Handler struct {
	appService appsession.Service
	cfg        *config.Config
}

func NewHandler(appService appsession.Service, cfg *config.Config) *Handler {
	return &Handler{
		appService: appService,
		cfg:        cfg,
	}
}

type credentialsRequest struct {
	Identifier         string `json:"identifier"`
	Secret             string `json:"secret"`
	SecretConfirmation string `json:"secret_confirmation,omitempty"`
}

type profileResponse struct {
	DisplayName string `json:"display_name"`
	Initials    string `json:"initials"`
	Email       string `json:"email,omitempty"`
	Subject     string `json:"subject,omitempty"`
}

func (h *Handler) Login(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "transport.http.Login")
	defer span.End()

	req, ok := h.bindCredentials(c)
	if !ok {
		span.SetAttributes(attribute.Bool("auth.invalid_payload", true))
		return
	}

	outcome, err := h.appService.SubmitLogin(ctx, req.Identifier, req.Secret)
	if err != nil {
		if errors.Is(err, session.ErrSubmissionInFlight) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		span.RecordError(err)
		logger.ErrorContext(ctx, "login attempt failed", slog.String("error", err.Error()))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	switch outcome.Kind {
	case session.OutcomeForbidden:
		c.JSON(http.StatusForbidden, gin.H{"error": outcome.Message})
	case session.OutcomeCredentialFailure:
		c.JSON(http.StatusUnauthorized, gin.H{"error": outcome.Message})
	case session.OutcomeProceed:
		c.JSON(http.StatusOK, gin.H{"profile": profileResponse{
			DisplayName: outcome.Profile.DisplayName,
			Initials:    outcome.Profile.Initials,
			Email:       outcome.Profile.Email,
			Subject:     outcome.Profile.Subject,
		}})
	}
}

func (h *Handler) Register(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "transport.http.Register")
	defer span.End()

	req, ok := h.bindCredentials(c)
	if !ok {
		return
	}
	if req.Secret != req.SecretConfirmation {
		c.JSON(http.StatusBadRequest, gin.H{"error": "secret confirmation does not match"})
		return
	}

	outcome, err := h.appService.Register(ctx, req.Identifier, req.Secret, req.SecretConfirmation)
	if err != nil {
		if errors.Is(err, session.ErrSubmissionInFlight) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		span.RecordError(err)
		logger.ErrorContext(ctx, "registration failed", slog.String("error", err.Error()))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	if outcome.Kind != session.OutcomeProceed {
		c.JSON(http.StatusBadRequest, gin.H{"error": outcome.Message})
		return
	}

	c.Status(http.StatusCreated)
}

func (h *Handler) Logout(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "transport.http.Logout")
	defer span.End()

	if err := h.appService.Logout(ctx); err != nil {
		span.RecordError(err)
		logger.WarnContext(ctx, "logout reported an error, local state cleared",
			slog.String("error", err.Error()),
		)
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) Profile(c *gin.Context) {
	if h.appService.State() != session.StateAllowedActive {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no active session"})
		return
	}

	profile := h.appService.Profile()
	c.JSON(http.StatusOK, profileResponse{
		DisplayName: profile.DisplayName,
		Initials:    profile.Initials,
		Email:       profile.Email,
		Subject:     profile.Subject,
	})
}

// bindCredentials performs the form-layer validation: a non-empty identifier
// and a secret of at least the configured minimum length.
func (h *Handler) bindCredentials(c *gin.Context) (credentialsRequest, bool) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return req, false
	}

	req.Identifier = strings.TrimSpace(req.Identifier)
	if req.Identifier == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "identifier must not be empty"})
		return req, false
	}
	if len(req.Secret) < h.cfg.Auth.MinSecretLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "secret is too short"})
		return req, false
	}

	return req, true
}
