package domain

import (
	"time"
)

// Transfer is a single committed movement of funds from one account to
// another, net of a commission fee. Once created, everything except the
// tombstone is immutable.
type Transfer struct {
	ID            int64
	SenderID      int64
	ReceiverID    int64
	Amount        Money
	CommissionFee Money
	CreatedAt     time.Time
	DeletedAt     *time.Time
}

// Validate checks the request-level invariants of a transfer.
func (t *Transfer) Validate() error {
	if t.SenderID == t.ReceiverID {
		return ErrSelfTransfer
	}

	return ValidateAmount(t.Amount)
}

// TotalDebit is the full amount removed from the sender for this
// transfer.
func (t *Transfer) TotalDebit() Money {
	return t.Amount.Add(t.CommissionFee)
}

// Involves reports whether the account is a party to this transfer.
func (t *Transfer) Involves(accountID int64) bool {
	return t.SenderID == accountID || t.ReceiverID == accountID
}

// Deleted reports whether the record has been tombstoned. A tombstone
// hides the record from default listings; it never reverses balances.
func (t *Transfer) Deleted() bool {
	return t.DeletedAt != nil
}
