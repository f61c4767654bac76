package domain

import "github.com/shopspring/decimal"

// commissionRate is the platform fee charged on every transfer: 1.5%
// of the transferred amount, debited from the sender on top of the
// amount itself. The fee is not credited to any account.
var commissionRate = decimal.RequireFromString("0.015")

// CommissionFee computes the platform fee for a transfer amount,
// rounded half-up at the fourth fractional digit.
func CommissionFee(amount Money) Money {
	return amount.MulRate(commissionRate)
}

// TotalDebit is the full amount removed from the sender: the transfer
// amount plus the commission fee.
func TotalDebit(amount Money) Money {
	return amount.Add(CommissionFee(amount))
}
