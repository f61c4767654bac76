package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/mver/payflow/internal/adapter/http/dto"
	"github.com/mver/payflow/internal/adapter/http/middleware"
	"github.com/mver/payflow/internal/domain"
	"github.com/mver/payflow/internal/infrastructure/metrics"
	"github.com/mver/payflow/internal/usecase"
)

// TransferService defines the behavior needed by TransferHandler.
type TransferService interface {
	CreateTransfer(ctx context.Context, input usecase.CreateTransferInput) (*domain.Transfer, error)
	GetTransfer(ctx context.Context, id int64) (*domain.Transfer, error)
	ListTransfers(ctx context.Context, input usecase.ListTransfersInput) ([]*domain.Transfer, error)
	DeleteTransfer(ctx context.Context, id int64) error
}

// SummaryService resolves account summaries for response enrichment.
type SummaryService interface {
	GetSummaries(ctx context.Context, ids []int64) (map[int64]domain.AccountSummary, error)
}

// TransferHandler handles transfer endpoints.
type TransferHandler struct {
	transferUC TransferService
	accountUC  SummaryService
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewTransferHandler creates a new transfer handler. metrics may be nil.
func NewTransferHandler(
	transferUC TransferService,
	accountUC SummaryService,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *TransferHandler {
	return &TransferHandler{
		transferUC: transferUC,
		accountUC:  accountUC,
		metrics:    m,
		logger:     logger.With().Str("component", "transfer_handler").Logger(),
	}
}

// Create executes a transfer from the authenticated caller to the
// requested receiver. The sender is always the caller; a sender field
// in the body is not accepted.
func (h *TransferHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required", "")
		return
	}

	var req dto.CreateTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	start := time.Now()
	transfer, err := h.transferUC.CreateTransfer(r.Context(), req.ToUseCaseInput(identity.AccountID))
	if err != nil {
		h.recordFailure(err)
		writeDomainError(w, err)
		return
	}
	h.recordSuccess(transfer, time.Since(start))

	writeJSON(w, http.StatusCreated, h.enrich(r, transfer))
}

// List returns transfers where the caller is either party, newest
// first. Soft-deleted records are included only when requested.
func (h *TransferHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required", "")
		return
	}

	transfers, err := h.transferUC.ListTransfers(r.Context(), usecase.ListTransfersInput{
		AccountID:      identity.AccountID,
		IncludeDeleted: r.URL.Query().Get("include_deleted") == "true",
		Limit:          parseIntQuery(r, "limit", 0),
		Offset:         parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	responses := dto.TransfersFromDomain(transfers)
	if parties, err := h.partiesFor(r, transfers); err == nil {
		for _, resp := range responses {
			resp.WithParties(parties)
		}
	}

	writeJSON(w, http.StatusOK, responses)
}

// Get returns a single transfer. Only a participant may view it;
// anyone else gets a not found to avoid leaking record existence.
func (h *TransferHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required", "")
		return
	}

	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transfer id", "")
		return
	}

	transfer, err := h.transferUC.GetTransfer(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if !transfer.Involves(identity.AccountID) {
		writeError(w, http.StatusNotFound, domain.ErrTransferNotFound.Error(), "")
		return
	}

	writeJSON(w, http.StatusOK, h.enrich(r, transfer))
}

// Delete tombstones a transfer. Only a participant may delete it, and
// the deletion never reverses the balance movement.
func (h *TransferHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required", "")
		return
	}

	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transfer id", "")
		return
	}

	transfer, err := h.transferUC.GetTransfer(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !transfer.Involves(identity.AccountID) {
		writeError(w, http.StatusNotFound, domain.ErrTransferNotFound.Error(), "")
		return
	}

	if err := h.transferUC.DeleteTransfer(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// enrich attaches sender and receiver summaries to a single transfer
// response. Enrichment failures are logged and the bare response
// returned; the transfer itself already committed.
func (h *TransferHandler) enrich(r *http.Request, transfer *domain.Transfer) *dto.TransferResponse {
	resp := dto.TransferFromDomain(transfer)
	parties, err := h.partiesFor(r, []*domain.Transfer{transfer})
	if err != nil {
		h.logger.Warn().Err(err).Int64("transfer_id", transfer.ID).Msg("failed to load transfer parties")
		return resp
	}
	return resp.WithParties(parties)
}

func (h *TransferHandler) partiesFor(r *http.Request, transfers []*domain.Transfer) (map[int64]domain.AccountSummary, error) {
	if len(transfers) == 0 {
		return nil, nil
	}
	seen := make(map[int64]struct{}, len(transfers)*2)
	ids := make([]int64, 0, len(transfers)*2)
	for _, t := range transfers {
		for _, id := range []int64{t.SenderID, t.ReceiverID} {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	return h.accountUC.GetSummaries(r.Context(), ids)
}

func (h *TransferHandler) recordSuccess(transfer *domain.Transfer, elapsed time.Duration) {
	if h.metrics == nil {
		return
	}
	h.metrics.TransfersCreated.Inc()
	h.metrics.TransferDuration.Observe(elapsed.Seconds())
	h.metrics.TransferAmount.Observe(transfer.Amount.Decimal().InexactFloat64())
}

func (h *TransferHandler) recordFailure(err error) {
	if h.metrics == nil {
		return
	}
	h.metrics.TransferErrors.WithLabelValues(errorType(err)).Inc()
}

func errorType(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, domain.ErrSelfTransfer):
		return "self_transfer"
	case errors.Is(err, domain.ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrAmountTooSmall),
		errors.Is(err, domain.ErrAmountTooLarge):
		return "invalid_amount"
	default:
		return "internal"
	}
}
