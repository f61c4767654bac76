package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mver/payflow/internal/domain"
	"github.com/mver/payflow/internal/usecase"
)

// TransferRepository implements usecase.TransferRepository. Transfer
// rows are append-only: besides the deleted_at tombstone nothing is
// ever updated.
type TransferRepository struct {
	pool *pgxpool.Pool
}

// NewTransferRepository creates a new TransferRepository.
func NewTransferRepository(pool *pgxpool.Pool) *TransferRepository {
	return &TransferRepository{pool: pool}
}

const transferColumns = `id, sender_id, receiver_id, amount, commission_fee, created_at, deleted_at`

// Create appends a transfer record within the transaction and assigns
// its generated id.
func (r *TransferRepository) Create(ctx context.Context, tx usecase.Transaction, transfer *domain.Transfer) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		INSERT INTO transfers (sender_id, receiver_id, amount, commission_fee, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	return pgxTx.QueryRow(ctx, query,
		transfer.SenderID,
		transfer.ReceiverID,
		moneyToNumeric(transfer.Amount),
		moneyToNumeric(transfer.CommissionFee),
		timeToPgTimestamptz(transfer.CreatedAt),
	).Scan(&transfer.ID)
}

// GetByID retrieves a transfer by ID, tombstoned or not.
func (r *TransferRepository) GetByID(ctx context.Context, id int64) (*domain.Transfer, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers WHERE id = $1`

	transfer, err := scanTransfer(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransferNotFound
		}

		return nil, err
	}

	return transfer, nil
}

// ListByParticipant lists transfers where the account is sender or
// receiver, newest first.
func (r *TransferRepository) ListByParticipant(ctx context.Context, accountID int64, includeDeleted bool, limit, offset int) ([]*domain.Transfer, error) {
	query := `
		SELECT ` + transferColumns + `
		FROM transfers
		WHERE (sender_id = $1 OR receiver_id = $1)
	`

	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}

	query += ` ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transfers []*domain.Transfer

	for rows.Next() {
		transfer, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}

		transfers = append(transfers, transfer)
	}

	return transfers, rows.Err()
}

// SoftDelete tombstones a transfer record. The recorded balance
// movement stays in effect.
func (r *TransferRepository) SoftDelete(ctx context.Context, id int64, deletedAt time.Time) error {
	query := `UPDATE transfers SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.pool.Exec(ctx, query, id, timeToPgTimestamptz(deletedAt))
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		// Distinguish a missing row from one already tombstoned.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}

	return nil
}

func scanTransfer(row pgx.Row) (*domain.Transfer, error) {
	var (
		transfer  domain.Transfer
		amount    pgtype.Numeric
		fee       pgtype.Numeric
		createdAt pgtype.Timestamptz
		deletedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&transfer.ID,
		&transfer.SenderID,
		&transfer.ReceiverID,
		&amount,
		&fee,
		&createdAt,
		&deletedAt,
	)
	if err != nil {
		return nil, err
	}

	transfer.Amount = numericToMoney(amount)
	transfer.CommissionFee = numericToMoney(fee)
	transfer.CreatedAt = createdAt.Time

	if deletedAt.Valid {
		t := deletedAt.Time
		transfer.DeletedAt = &t
	}

	return &transfer, nil
}
