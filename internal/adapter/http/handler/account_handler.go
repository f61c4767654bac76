package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mver/payflow/internal/adapter/http/dto"
	"github.com/mver/payflow/internal/adapter/http/middleware"
	"github.com/mver/payflow/internal/domain"
	"github.com/mver/payflow/internal/infrastructure/metrics"
	"github.com/mver/payflow/internal/usecase"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
	GetAccount(ctx context.Context, id int64) (*domain.Account, error)
	SearchReceivers(ctx context.Context, input usecase.SearchReceiversInput) ([]domain.AccountSummary, error)
}

// AccountHandler handles account endpoints.
type AccountHandler struct {
	accountUC AccountService
	metrics   *metrics.Metrics
}

// NewAccountHandler creates a new account handler. metrics may be nil.
func NewAccountHandler(accountUC AccountService, m *metrics.Metrics) *AccountHandler {
	return &AccountHandler{
		accountUC: accountUC,
		metrics:   m,
	}
}

// Create registers a new account.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	account, err := h.accountUC.CreateAccount(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.AccountsCreated.Inc()
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Me returns the authenticated caller's own account, balance included.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required", "")
		return
	}

	account, err := h.accountUC.GetAccount(r.Context(), identity.AccountID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// Receivers lists accounts the caller can send money to, optionally
// filtered by a name or email substring.
func (h *AccountHandler) Receivers(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required", "")
		return
	}

	summaries, err := h.accountUC.SearchReceivers(r.Context(), usecase.SearchReceiversInput{
		RequesterID: identity.AccountID,
		Query:       r.URL.Query().Get("q"),
		Limit:       parseIntQuery(r, "limit", 0),
		Offset:      parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SummariesFromDomain(summaries))
}
