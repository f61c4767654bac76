package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mver/payflow/internal/domain"
)

// receiverCacheTTL bounds staleness of the receiver directory. Only
// identity summaries are cached, never balances.
const receiverCacheTTL = 30 * time.Second

// AccountUseCase handles account provisioning, authentication and the
// receiver directory. It never mutates balances; that is the transfer
// use case's job.
type AccountUseCase struct {
	accountRepo AccountRepository
	cache       Cache
}

// NewAccountUseCase creates a new AccountUseCase. cache may be nil to
// disable receiver-directory caching.
func NewAccountUseCase(accountRepo AccountRepository, cache Cache) *AccountUseCase {
	return &AccountUseCase{
		accountRepo: accountRepo,
		cache:       cache,
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	Name           string
	Email          string
	Password       string
	InitialBalance domain.Money
}

// CreateAccount provisions a new account with a hashed password.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	if err := domain.ValidateName(input.Name); err != nil {
		return nil, err
	}

	if err := domain.ValidateEmail(input.Email); err != nil {
		return nil, err
	}

	if err := domain.ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	if input.InitialBalance.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))

	if existing, err := uc.accountRepo.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, domain.ErrEmailTaken
	}

	hashed, err := hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	account := &domain.Account{
		Name:           strings.TrimSpace(input.Name),
		Email:          email,
		HashedPassword: hashed,
		Balance:        input.InitialBalance,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := uc.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	account.HashedPassword = ""

	return account, nil
}

// AuthenticateInput represents authentication input.
type AuthenticateInput struct {
	Email    string
	Password string
}

// Authenticate verifies credentials and returns the account.
func (uc *AccountUseCase) Authenticate(ctx context.Context, input AuthenticateInput) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	if err := verifyPassword(account.HashedPassword, input.Password); err != nil {
		return nil, domain.ErrUnauthorized
	}

	account.HashedPassword = ""

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id int64) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	account.HashedPassword = ""

	return account, nil
}

// GetSummaries resolves account summaries for the given IDs.
func (uc *AccountUseCase) GetSummaries(ctx context.Context, ids []int64) (map[int64]domain.AccountSummary, error) {
	accounts, err := uc.accountRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	summaries := make(map[int64]domain.AccountSummary, len(accounts))
	for _, a := range accounts {
		summaries[a.ID] = a.Summary()
	}

	return summaries, nil
}

// SearchReceiversInput represents input for the receiver directory.
type SearchReceiversInput struct {
	RequesterID int64
	Query       string
	Limit       int
	Offset      int
}

// SearchReceivers lists accounts the requester can send money to:
// everyone but themselves, filtered by name or email substring,
// ordered by name.
func (uc *AccountUseCase) SearchReceivers(ctx context.Context, input SearchReceiversInput) ([]domain.AccountSummary, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)
	query := strings.TrimSpace(input.Query)

	cacheKey := fmt.Sprintf("receivers:%d:%s:%d:%d", input.RequesterID, query, limit, offset)

	if uc.cache != nil {
		if data, err := uc.cache.Get(ctx, cacheKey); err == nil {
			var cached []domain.AccountSummary
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
		}
	}

	accounts, err := uc.accountRepo.Search(ctx, input.RequesterID, query, limit, offset)
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.AccountSummary, 0, len(accounts))
	for _, a := range accounts {
		summaries = append(summaries, a.Summary())
	}

	if uc.cache != nil {
		if data, err := json.Marshal(summaries); err == nil {
			_ = uc.cache.Set(ctx, cacheKey, data, receiverCacheTTL)
		}
	}

	return summaries, nil
}

// hashPassword hashes a password using bcrypt.
func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// verifyPassword verifies a password against a hash.
func verifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
