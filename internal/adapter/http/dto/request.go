package dto

import (
	"github.com/shopspring/decimal"

	"github.com/mver/payflow/internal/domain"
	"github.com/mver/payflow/internal/usecase"
)

// LoginRequest represents a login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ToUseCaseInput converts to use case input.
func (r *LoginRequest) ToUseCaseInput() usecase.AuthenticateInput {
	return usecase.AuthenticateInput{
		Email:    r.Email,
		Password: r.Password,
	}
}

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	Password       string          `json:"password"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		Name:           r.Name,
		Email:          r.Email,
		Password:       r.Password,
		InitialBalance: domain.NewMoney(r.InitialBalance),
	}
}

// CreateTransferRequest represents a request to create a transfer.
// The sender is always the authenticated caller.
type CreateTransferRequest struct {
	ReceiverID int64           `json:"receiver_id"`
	Amount     decimal.Decimal `json:"amount"`
}

// ToUseCaseInput converts to use case input for the given sender.
func (r *CreateTransferRequest) ToUseCaseInput(senderID int64) usecase.CreateTransferInput {
	return usecase.CreateTransferInput{
		SenderID:   senderID,
		ReceiverID: r.ReceiverID,
		Amount:     domain.NewMoney(r.Amount),
	}
}
