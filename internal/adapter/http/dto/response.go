package dto

import (
	"time"

	"github.com/mver/payflow/internal/domain"
)

// AccountResponse represents an account in API responses. Balance is
// rendered as a fixed-point string with four fractional digits.
type AccountResponse struct {
	ID        int64        `json:"id"`
	Name      string       `json:"name"`
	Email     string       `json:"email"`
	Balance   domain.Money `json:"balance"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:        a.ID,
		Name:      a.Name,
		Email:     a.Email,
		Balance:   a.Balance,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// AccountSummaryResponse identifies a transfer party without exposing
// its balance.
type AccountSummaryResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SummaryFromDomain converts a domain summary to a response.
func SummaryFromDomain(s domain.AccountSummary) *AccountSummaryResponse {
	return &AccountSummaryResponse{
		ID:    s.ID,
		Name:  s.Name,
		Email: s.Email,
	}
}

// SummariesFromDomain converts domain summaries to responses.
func SummariesFromDomain(summaries []domain.AccountSummary) []*AccountSummaryResponse {
	result := make([]*AccountSummaryResponse, len(summaries))
	for i, s := range summaries {
		result[i] = SummaryFromDomain(s)
	}
	return result
}

// TransferResponse represents a transfer in API responses.
type TransferResponse struct {
	ID            int64                   `json:"id"`
	Sender        *AccountSummaryResponse `json:"sender,omitempty"`
	Receiver      *AccountSummaryResponse `json:"receiver,omitempty"`
	SenderID      int64                   `json:"sender_id"`
	ReceiverID    int64                   `json:"receiver_id"`
	Amount        domain.Money            `json:"amount"`
	CommissionFee domain.Money            `json:"commission_fee"`
	CreatedAt     time.Time               `json:"created_at"`
	DeletedAt     *time.Time              `json:"deleted_at,omitempty"`
}

// TransferFromDomain converts domain transfer to response.
func TransferFromDomain(t *domain.Transfer) *TransferResponse {
	return &TransferResponse{
		ID:            t.ID,
		SenderID:      t.SenderID,
		ReceiverID:    t.ReceiverID,
		Amount:        t.Amount,
		CommissionFee: t.CommissionFee,
		CreatedAt:     t.CreatedAt,
		DeletedAt:     t.DeletedAt,
	}
}

// WithParties attaches sender and receiver summaries when available.
func (r *TransferResponse) WithParties(summaries map[int64]domain.AccountSummary) *TransferResponse {
	if s, ok := summaries[r.SenderID]; ok {
		r.Sender = SummaryFromDomain(s)
	}
	if s, ok := summaries[r.ReceiverID]; ok {
		r.Receiver = SummaryFromDomain(s)
	}
	return r
}

// TransfersFromDomain converts domain transfers to responses.
func TransfersFromDomain(transfers []*domain.Transfer) []*TransferResponse {
	result := make([]*TransferResponse, len(transfers))
	for i, t := range transfers {
		result[i] = TransferFromDomain(t)
	}
	return result
}

// TokenResponse represents a successful login.
type TokenResponse struct {
	Token   string                  `json:"token"`
	Account *AccountSummaryResponse `json:"account"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
