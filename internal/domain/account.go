package domain

import (
	"time"
)

// Account holds a spendable balance. Balances are mutated only by the
// transfer use case inside a locked database transaction.
type Account struct {
	ID             int64
	Name           string
	Email          string
	HashedPassword string
	Balance        Money
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CanDebit reports whether the balance covers the given total debit.
func (a *Account) CanDebit(total Money) bool {
	return a.Balance.GreaterThanOrEqual(total)
}

// Summary returns the public view of the account. It never exposes the
// balance or credentials.
func (a *Account) Summary() AccountSummary {
	return AccountSummary{
		ID:    a.ID,
		Name:  a.Name,
		Email: a.Email,
	}
}

// AccountSummary identifies a transfer party in API responses, events
// and the receiver directory.
type AccountSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
