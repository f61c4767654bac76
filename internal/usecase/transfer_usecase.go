package usecase

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/mver/payflow/internal/domain"
)

// TransferUseCase moves money between two accounts: it debits the
// sender by amount plus commission, credits the receiver the amount,
// appends a ledger record and stages a domain event, all inside one
// database transaction holding both account row locks.
type TransferUseCase struct {
	txManager    TransactionManager
	accountRepo  AccountRepository
	transferRepo TransferRepository
	outboxRepo   OutboxRepository
	idGen        IDGenerator
	retrier      Retrier
	logger       zerolog.Logger
}

// NewTransferUseCase creates a new TransferUseCase. retrier may be nil
// to disable transient-error retries.
func NewTransferUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	transferRepo TransferRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	retrier Retrier,
	logger zerolog.Logger,
) *TransferUseCase {
	return &TransferUseCase{
		txManager:    txManager,
		accountRepo:  accountRepo,
		transferRepo: transferRepo,
		outboxRepo:   outboxRepo,
		idGen:        idGen,
		retrier:      retrier,
		logger:       logger,
	}
}

// CreateTransferInput represents input for creating a transfer. The
// sender identity comes from the authenticated caller, never from the
// request body.
type CreateTransferInput struct {
	SenderID   int64
	ReceiverID int64
	Amount     domain.Money
}

// CreateTransfer executes a single transfer as one atomic unit of work.
func (uc *TransferUseCase) CreateTransfer(ctx context.Context, input CreateTransferInput) (*domain.Transfer, error) {
	// Validate inputs before touching storage.
	if input.SenderID == input.ReceiverID {
		return nil, domain.ErrSelfTransfer
	}

	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	var transfer *domain.Transfer

	op := func() error {
		t, err := uc.createOnce(ctx, input)
		if err != nil {
			return err
		}

		transfer = t

		return nil
	}

	var err error
	if uc.retrier != nil {
		err = uc.retrier.Retry(ctx, op)
	} else {
		err = op()
	}

	if err != nil {
		if isBusinessError(err) {
			return nil, err
		}

		// Unexpected storage failure: log the cause with full
		// context, surface an opaque error.
		uc.logger.Error().
			Err(err).
			Int64("sender_id", input.SenderID).
			Int64("receiver_id", input.ReceiverID).
			Str("amount", input.Amount.String()).
			Msg("transfer failed")

		return nil, domain.ErrTransferFailed
	}

	return transfer, nil
}

// createOnce runs one attempt of the transfer inside a fresh
// transaction. It returns business errors and raw storage errors
// unwrapped so the retrier can classify them.
func (uc *TransferUseCase) createOnce(ctx context.Context, input CreateTransferInput) (*domain.Transfer, error) {
	// Lock ordering: both transfers of any contending pair acquire
	// the two row locks in ascending id order, so circular wait is
	// impossible.
	ids := []int64{input.SenderID, input.ReceiverID}
	slices.Sort(ids)

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	accounts, err := uc.accountRepo.GetByIDsForUpdate(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	if len(accounts) != 2 {
		return nil, domain.ErrAccountNotFound
	}

	var sender, receiver *domain.Account

	for _, a := range accounts {
		switch a.ID {
		case input.SenderID:
			sender = a
		case input.ReceiverID:
			receiver = a
		}
	}

	if sender == nil || receiver == nil {
		return nil, domain.ErrAccountNotFound
	}

	fee := domain.CommissionFee(input.Amount)
	total := input.Amount.Add(fee)

	if !sender.CanDebit(total) {
		return nil, &domain.InsufficientBalanceError{
			Required:  total,
			Available: sender.Balance,
		}
	}

	now := time.Now().UTC()

	// The storage layer re-checks balance >= total in the UPDATE
	// itself, beneath the row lock.
	debited, err := uc.accountRepo.Debit(ctx, tx, sender.ID, total, now)
	if err != nil {
		return nil, err
	}

	if !debited {
		return nil, &domain.InsufficientBalanceError{
			Required:  total,
			Available: sender.Balance,
		}
	}

	// Receiver gets the amount only; the commission is removed from
	// circulation.
	if err := uc.accountRepo.Credit(ctx, tx, receiver.ID, input.Amount, now); err != nil {
		return nil, err
	}

	transfer := &domain.Transfer{
		SenderID:      input.SenderID,
		ReceiverID:    input.ReceiverID,
		Amount:        input.Amount,
		CommissionFee: fee,
		CreatedAt:     now,
	}

	if err := uc.transferRepo.Create(ctx, tx, transfer); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   strconv.FormatInt(transfer.ID, 10),
		AggregateType: domain.AggregateTypeTransfer,
		EventType:     domain.EventTypeTransferCreated,
		Payload:       domain.NewTransferCreatedEvent(transfer).AsPayload(),
		CreatedAt:     now,
	}

	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return transfer, nil
}

// GetTransfer retrieves a transfer by ID.
func (uc *TransferUseCase) GetTransfer(ctx context.Context, id int64) (*domain.Transfer, error) {
	return uc.transferRepo.GetByID(ctx, id)
}

// ListTransfersInput represents input for listing a participant's
// history.
type ListTransfersInput struct {
	AccountID      int64
	IncludeDeleted bool
	Limit          int
	Offset         int
}

// ListTransfers lists transfers where the account is either party,
// newest first. Tombstoned records are excluded unless requested.
func (uc *TransferUseCase) ListTransfers(ctx context.Context, input ListTransfersInput) ([]*domain.Transfer, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	return uc.transferRepo.ListByParticipant(ctx, input.AccountID, input.IncludeDeleted, limit, offset)
}

// DeleteTransfer tombstones a ledger record. The balance effect it
// recorded is never reversed.
func (uc *TransferUseCase) DeleteTransfer(ctx context.Context, id int64) error {
	return uc.transferRepo.SoftDelete(ctx, id, time.Now().UTC())
}

// isBusinessError reports whether the error is an expected validation
// or business-rule rejection rather than an infrastructure fault.
func isBusinessError(err error) bool {
	return errors.Is(err, domain.ErrSelfTransfer) ||
		errors.Is(err, domain.ErrInvalidAmount) ||
		errors.Is(err, domain.ErrAmountTooSmall) ||
		errors.Is(err, domain.ErrAmountTooLarge) ||
		errors.Is(err, domain.ErrAccountNotFound) ||
		errors.Is(err, domain.ErrInsufficientBalance)
}
