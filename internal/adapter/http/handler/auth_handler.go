package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mver/payflow/internal/adapter/http/dto"
	"github.com/mver/payflow/internal/domain"
	"github.com/mver/payflow/internal/infrastructure/auth"
	"github.com/mver/payflow/internal/infrastructure/metrics"
	"github.com/mver/payflow/internal/usecase"
)

// AuthService defines the behavior needed by AuthHandler.
type AuthService interface {
	Authenticate(ctx context.Context, input usecase.AuthenticateInput) (*domain.Account, error)
}

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	accountUC  AuthService
	jwtManager *auth.JWTManager
	metrics    *metrics.Metrics
}

// NewAuthHandler creates a new auth handler. metrics may be nil.
func NewAuthHandler(accountUC AuthService, jwtManager *auth.JWTManager, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{
		accountUC:  accountUC,
		jwtManager: jwtManager,
		metrics:    m,
	}
}

// Login verifies credentials and issues a token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	account, err := h.accountUC.Authenticate(r.Context(), req.ToUseCaseInput())
	if err != nil {
		h.countAuth("failure")
		writeError(w, http.StatusUnauthorized, "invalid credentials", "")
		return
	}

	token, err := h.jwtManager.Generate(account)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate token", err.Error())
		return
	}

	h.countAuth("success")

	summary := account.Summary()
	writeJSON(w, http.StatusOK, dto.TokenResponse{
		Token:   token,
		Account: dto.SummaryFromDomain(summary),
	})
}

func (h *AuthHandler) countAuth(status string) {
	if h.metrics != nil {
		h.metrics.AuthAttempts.WithLabelValues(status).Inc()
	}
}
