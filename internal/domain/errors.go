package domain

import (
	"errors"
	"fmt"
)

var (
	// Transfer errors
	ErrSelfTransfer        = errors.New("cannot transfer to the same account")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrAmountTooSmall      = errors.New("amount below minimum allowed")
	ErrAmountTooLarge      = errors.New("amount exceeds maximum allowed")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrTransferNotFound    = errors.New("transfer not found")

	// ErrTransferFailed is the opaque error returned for unexpected
	// infrastructure failures. The underlying cause is logged, never
	// surfaced to the caller.
	ErrTransferFailed = errors.New("transfer failed")

	// Account errors
	ErrAccountNotFound = errors.New("account not found")
	ErrEmailTaken      = errors.New("email already registered")

	// Authentication errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// InsufficientBalanceError rejects a transfer whose total debit exceeds
// the sender's balance. It carries the computed values so the caller
// can react.
type InsufficientBalanceError struct {
	Required  Money
	Available Money
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: required %s, available %s", e.Required, e.Available)
}

// Is makes the error match ErrInsufficientBalance under errors.Is.
func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}
