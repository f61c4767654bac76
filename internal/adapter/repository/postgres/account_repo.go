package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mver/payflow/internal/domain"
	"github.com/mver/payflow/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

const accountColumns = `id, name, email, password_hash, balance, created_at, updated_at`

// Create inserts a new account and assigns its generated id.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (name, email, password_hash, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	return r.pool.QueryRow(ctx, query,
		account.Name,
		account.Email,
		account.HashedPassword,
		moneyToNumeric(account.Balance),
		timeToPgTimestamptz(account.CreatedAt),
		timeToPgTimestamptz(account.UpdatedAt),
	).Scan(&account.ID)
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	return account, nil
}

// GetByIDs retrieves multiple accounts by their IDs.
func (r *AccountRepository) GetByIDs(ctx context.Context, ids []int64) ([]*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = ANY($1) ORDER BY id`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAccounts(rows)
}

// GetByEmail retrieves an account by its email address.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`

	account, err := scanAccount(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	return account, nil
}

// GetByIDsForUpdate retrieves accounts with FOR UPDATE row locks. Rows
// are locked in ascending id order; every caller passing sorted ids
// acquires them in the same sequence.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []int64) ([]*domain.Account, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = ANY($1) ORDER BY id FOR UPDATE`

	rows, err := pgxTx.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAccounts(rows)
}

// Debit subtracts amount from the account balance. The WHERE clause
// re-checks sufficiency inside the database; a false return means the
// guard rejected the write.
func (r *AccountRepository) Debit(ctx context.Context, tx usecase.Transaction, id int64, amount domain.Money, updatedAt time.Time) (bool, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		UPDATE accounts
		SET balance = balance - $2, updated_at = $3
		WHERE id = $1 AND balance >= $2
	`

	tag, err := pgxTx.Exec(ctx, query, id, moneyToNumeric(amount), timeToPgTimestamptz(updatedAt))
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

// Credit adds amount to the account balance.
func (r *AccountRepository) Credit(ctx context.Context, tx usecase.Transaction, id int64, amount domain.Money, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		UPDATE accounts
		SET balance = balance + $2, updated_at = $3
		WHERE id = $1
	`

	tag, err := pgxTx.Exec(ctx, query, id, moneyToNumeric(amount), timeToPgTimestamptz(updatedAt))
	if err != nil {
		return err
	}

	if tag.RowsAffected() != 1 {
		return domain.ErrAccountNotFound
	}

	return nil
}

// Search lists accounts matching query by name or email, excluding
// the requester, ordered by name.
func (r *AccountRepository) Search(ctx context.Context, excludeID int64, query string, limit, offset int) ([]*domain.Account, error) {
	sql := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE id <> $1 AND (name ILIKE $2 OR email ILIKE $2)
		ORDER BY name, id
		LIMIT $3 OFFSET $4
	`

	rows, err := r.pool.Query(ctx, sql, excludeID, "%"+query+"%", limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAccounts(rows)
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account   domain.Account
		balance   pgtype.Numeric
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&account.ID,
		&account.Name,
		&account.Email,
		&account.HashedPassword,
		&balance,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	account.Balance = numericToMoney(balance)
	account.CreatedAt = createdAt.Time
	account.UpdatedAt = updatedAt.Time

	return &account, nil
}

func collectAccounts(rows pgx.Rows) ([]*domain.Account, error) {
	var accounts []*domain.Account

	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}

		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

// Type conversion helpers.
func moneyToNumeric(m domain.Money) pgtype.Numeric {
	var n pgtype.Numeric

	if err := n.Scan(m.String()); err != nil {
		// Money always renders as a plain decimal string, so a scan
		// failure means memory corruption rather than bad input.
		panic(fmt.Sprintf("money %q is not a valid numeric: %v", m.String(), err))
	}

	return n
}

func numericToMoney(n pgtype.Numeric) domain.Money {
	if !n.Valid {
		return domain.Zero
	}

	d, _ := decimal.NewFromString(n.Int.String())
	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return domain.NewMoney(d)
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}
