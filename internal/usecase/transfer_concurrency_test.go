package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mver/payflow/internal/domain"
	"github.com/mver/payflow/internal/usecase"
)

// memStore is an in-memory store with per-account row locks. It
// mimics the blocking behavior of SELECT ... FOR UPDATE closely
// enough to exercise the lock-ordering protocol: row locks are
// acquired one mutex per account, in the order the ids are given,
// and held until the transaction commits or rolls back.
type memStore struct {
	mu             sync.Mutex
	accounts       map[int64]*memAccount
	transfers      map[int64]*domain.Transfer
	events         []*domain.OutboxEvent
	nextTransferID int64
}

type memAccount struct {
	mu   sync.Mutex
	acct domain.Account
}

func newMemStore() *memStore {
	return &memStore{
		accounts:  make(map[int64]*memAccount),
		transfers: make(map[int64]*domain.Transfer),
	}
}

func (s *memStore) addAccount(id int64, balance string) {
	s.accounts[id] = &memAccount{
		acct: domain.Account{
			ID:      id,
			Balance: domain.MustMoney(balance),
		},
	}
}

func (s *memStore) balance(id int64) domain.Money {
	a := s.accounts[id]
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.acct.Balance
}

type memTx struct {
	locked []*memAccount
	undo   []func()
	done   bool
}

func (s *memStore) Begin(ctx context.Context) (usecase.Transaction, error) {
	return &memTx{}, nil
}

func (tx *memTx) Commit(ctx context.Context) error {
	if tx.done {
		return errors.New("transaction already closed")
	}
	tx.finish()
	return nil
}

func (tx *memTx) Rollback(ctx context.Context) error {
	if tx.done {
		return nil
	}
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.finish()
	return nil
}

func (tx *memTx) finish() {
	tx.done = true
	for i := len(tx.locked) - 1; i >= 0; i-- {
		tx.locked[i].mu.Unlock()
	}
	tx.locked = nil
	tx.undo = nil
}

// memAccounts implements the account repository against memStore.
type memAccounts struct{ store *memStore }

func (r *memAccounts) Create(ctx context.Context, account *domain.Account) error {
	return errors.New("not implemented")
}

func (r *memAccounts) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	a, ok := r.store.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	snapshot := a.acct
	return &snapshot, nil
}

func (r *memAccounts) GetByIDs(ctx context.Context, ids []int64) ([]*domain.Account, error) {
	out := make([]*domain.Account, 0, len(ids))
	for _, id := range ids {
		a, err := r.GetByID(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *memAccounts) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return nil, domain.ErrAccountNotFound
}

func (r *memAccounts) Search(ctx context.Context, excludeID int64, query string, limit, offset int) ([]*domain.Account, error) {
	return nil, nil
}

func (r *memAccounts) GetByIDsForUpdate(ctx context.Context, txi usecase.Transaction, ids []int64) ([]*domain.Account, error) {
	tx := txi.(*memTx)

	out := make([]*domain.Account, 0, len(ids))
	for _, id := range ids {
		a, ok := r.store.accounts[id]
		if !ok {
			continue
		}
		a.mu.Lock()
		tx.locked = append(tx.locked, a)

		snapshot := a.acct
		out = append(out, &snapshot)
	}
	return out, nil
}

func (r *memAccounts) Debit(ctx context.Context, txi usecase.Transaction, id int64, amount domain.Money, updatedAt time.Time) (bool, error) {
	tx := txi.(*memTx)
	a := r.store.accounts[id]

	// Caller holds the row lock; this mirrors the conditional
	// UPDATE ... WHERE balance >= amount guard.
	if a.acct.Balance.LessThan(amount) {
		return false, nil
	}

	prev := a.acct
	a.acct.Balance = a.acct.Balance.Sub(amount)
	a.acct.UpdatedAt = updatedAt
	tx.undo = append(tx.undo, func() { a.acct = prev })

	return true, nil
}

func (r *memAccounts) Credit(ctx context.Context, txi usecase.Transaction, id int64, amount domain.Money, updatedAt time.Time) error {
	tx := txi.(*memTx)
	a := r.store.accounts[id]

	prev := a.acct
	a.acct.Balance = a.acct.Balance.Add(amount)
	a.acct.UpdatedAt = updatedAt
	tx.undo = append(tx.undo, func() { a.acct = prev })

	return nil
}

// memTransfers implements the transfer repository against memStore.
type memTransfers struct{ store *memStore }

func (r *memTransfers) Create(ctx context.Context, txi usecase.Transaction, transfer *domain.Transfer) error {
	tx := txi.(*memTx)

	r.store.mu.Lock()
	r.store.nextTransferID++
	transfer.ID = r.store.nextTransferID
	r.store.transfers[transfer.ID] = transfer
	r.store.mu.Unlock()

	tx.undo = append(tx.undo, func() {
		r.store.mu.Lock()
		delete(r.store.transfers, transfer.ID)
		r.store.mu.Unlock()
	})

	return nil
}

func (r *memTransfers) GetByID(ctx context.Context, id int64) (*domain.Transfer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	transfer, ok := r.store.transfers[id]
	if !ok {
		return nil, domain.ErrTransferNotFound
	}
	return transfer, nil
}

func (r *memTransfers) ListByParticipant(ctx context.Context, accountID int64, includeDeleted bool, limit, offset int) ([]*domain.Transfer, error) {
	return nil, nil
}

func (r *memTransfers) SoftDelete(ctx context.Context, id int64, deletedAt time.Time) error {
	return errors.New("not implemented")
}

// memOutbox implements the outbox repository; only Create is
// exercised by the transfer path.
type memOutbox struct{ store *memStore }

func (o *memOutbox) Create(ctx context.Context, txi usecase.Transaction, event *domain.OutboxEvent) error {
	tx := txi.(*memTx)

	o.store.mu.Lock()
	o.store.events = append(o.store.events, event)
	o.store.mu.Unlock()

	tx.undo = append(tx.undo, func() {
		o.store.mu.Lock()
		o.store.events = o.store.events[:len(o.store.events)-1]
		o.store.mu.Unlock()
	})

	return nil
}

func (o *memOutbox) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	return nil, nil
}

func (o *memOutbox) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	return nil
}

func (o *memOutbox) DeletePublished(ctx context.Context, before time.Time) error {
	return nil
}

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("event-%06d", g.n)
}

func newMemTransferUseCase(store *memStore) *usecase.TransferUseCase {
	return usecase.NewTransferUseCase(
		store,
		&memAccounts{store: store},
		&memTransfers{store: store},
		&memOutbox{store: store},
		&seqIDs{},
		nil,
		zerolog.Nop(),
	)
}

func TestCreateTransfer_ConcurrentSpendsNeverOverdraw(t *testing.T) {
	ctx := context.Background()

	store := newMemStore()
	store.addAccount(1, "25.0000")
	store.addAccount(2, "0.0000")

	uc := newMemTransferUseCase(store)

	// Each attempt needs 10 + 0.15 commission. 25.0000 covers
	// exactly two of them.
	const attempts = 8
	amount := domain.MustMoney("10")

	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.CreateTransfer(ctx, usecase.CreateTransferInput{
				SenderID:   1,
				ReceiverID: 2,
				Amount:     amount,
			})
			results <- err
		}()
	}

	wg.Wait()
	close(results)

	var succeeded, rejected int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrInsufficientBalance):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 2, succeeded)
	assert.Equal(t, attempts-2, rejected)

	assert.Equal(t, "4.7000", store.balance(1).String())
	assert.Equal(t, "20.0000", store.balance(2).String())

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Len(t, store.transfers, 2)
	assert.Len(t, store.events, 2)
}

func TestCreateTransfer_OpposingDirectionsDoNotDeadlock(t *testing.T) {
	ctx := context.Background()

	store := newMemStore()
	store.addAccount(1, "10000.0000")
	store.addAccount(2, "10000.0000")

	uc := newMemTransferUseCase(store)

	// Without ordered lock acquisition this pattern deadlocks
	// almost immediately: half the goroutines send 1->2 while the
	// other half send 2->1.
	const rounds = 50
	amount := domain.MustMoney("1")

	done := make(chan struct{})
	var wg sync.WaitGroup

	for i := 0; i < rounds; i++ {
		sender, receiver := int64(1), int64(2)
		if i%2 == 1 {
			sender, receiver = receiver, sender
		}

		wg.Add(1)
		go func(senderID, receiverID int64) {
			defer wg.Done()
			_, err := uc.CreateTransfer(ctx, usecase.CreateTransferInput{
				SenderID:   senderID,
				ReceiverID: receiverID,
				Amount:     amount,
			})
			assert.NoError(t, err)
		}(sender, receiver)
	}

	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("transfers deadlocked")
	}

	// Every transfer burns the 0.015 commission, nothing else
	// leaves the system.
	fee := domain.CommissionFee(amount)
	burned := domain.Zero
	for i := 0; i < rounds; i++ {
		burned = burned.Add(fee)
	}

	total := store.balance(1).Add(store.balance(2))
	want := domain.MustMoney("20000").Sub(burned)
	require.Equal(t, want.String(), total.String())

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Len(t, store.transfers, rounds)
}
