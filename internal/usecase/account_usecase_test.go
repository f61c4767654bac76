package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"github.com/mver/payflow/internal/domain"
	"github.com/mver/payflow/internal/usecase"
	"github.com/mver/payflow/internal/usecase/mocks"
)

func newAccountUseCase(t *testing.T) (*usecase.AccountUseCase, *mocks.MockAccountRepository, *mocks.MockCache) {
	t.Helper()

	ctrl := gomock.NewController(t)
	repo := mocks.NewMockAccountRepository(ctrl)
	cache := mocks.NewMockCache(ctrl)

	return usecase.NewAccountUseCase(repo, cache), repo, cache
}

func TestAccountUseCase_CreateAccount(t *testing.T) {
	ctx := context.Background()

	validInput := func() usecase.CreateAccountInput {
		return usecase.CreateAccountInput{
			Name:           "Alice Smith",
			Email:          "alice@example.com",
			Password:       "sup3r-secret",
			InitialBalance: domain.MustMoney("100"),
		}
	}

	t.Run("creates account with hashed password", func(t *testing.T) {
		uc, repo, _ := newAccountUseCase(t)
		input := validInput()

		repo.EXPECT().GetByEmail(ctx, "alice@example.com").Return(nil, domain.ErrAccountNotFound)
		repo.EXPECT().
			Create(ctx, gomock.Any()).
			DoAndReturn(func(_ context.Context, a *domain.Account) error {
				assert.Equal(t, "Alice Smith", a.Name)
				assert.Equal(t, "alice@example.com", a.Email)
				assert.NotEqual(t, input.Password, a.HashedPassword)
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(a.HashedPassword), []byte(input.Password)))
				a.ID = 1
				return nil
			})

		account, err := uc.CreateAccount(ctx, input)
		require.NoError(t, err)

		assert.Equal(t, int64(1), account.ID)
		assert.Equal(t, "100.0000", account.Balance.String())
		assert.Empty(t, account.HashedPassword, "hash must not leave the use case")
	})

	t.Run("normalizes email casing", func(t *testing.T) {
		uc, repo, _ := newAccountUseCase(t)
		input := validInput()
		input.Email = "  Alice@Example.COM "

		repo.EXPECT().GetByEmail(ctx, "alice@example.com").Return(nil, domain.ErrAccountNotFound)
		repo.EXPECT().
			Create(ctx, gomock.Any()).
			DoAndReturn(func(_ context.Context, a *domain.Account) error {
				assert.Equal(t, "alice@example.com", a.Email)
				return nil
			})

		_, err := uc.CreateAccount(ctx, input)
		require.NoError(t, err)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		uc, repo, _ := newAccountUseCase(t)

		repo.EXPECT().
			GetByEmail(ctx, "alice@example.com").
			Return(&domain.Account{ID: 3, Email: "alice@example.com"}, nil)

		_, err := uc.CreateAccount(ctx, validInput())
		assert.ErrorIs(t, err, domain.ErrEmailTaken)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		uc, _, _ := newAccountUseCase(t)

		tests := []struct {
			name    string
			mutate  func(*usecase.CreateAccountInput)
			wantErr error
		}{
			{
				name:    "empty name",
				mutate:  func(in *usecase.CreateAccountInput) { in.Name = "  " },
				wantErr: domain.ErrInvalidName,
			},
			{
				name:    "malformed email",
				mutate:  func(in *usecase.CreateAccountInput) { in.Email = "not-an-email" },
				wantErr: domain.ErrInvalidEmail,
			},
			{
				name:    "short password",
				mutate:  func(in *usecase.CreateAccountInput) { in.Password = "short" },
				wantErr: domain.ErrPasswordTooWeak,
			},
			{
				name:    "negative opening balance",
				mutate:  func(in *usecase.CreateAccountInput) { in.InitialBalance = domain.MustMoney("-1") },
				wantErr: domain.ErrInvalidAmount,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				input := validInput()
				tt.mutate(&input)

				_, err := uc.CreateAccount(ctx, input)
				assert.ErrorIs(t, err, tt.wantErr)
			})
		}
	})
}

func TestAccountUseCase_Authenticate(t *testing.T) {
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("sup3r-secret"), bcrypt.MinCost)
	require.NoError(t, err)

	stored := func() *domain.Account {
		return &domain.Account{
			ID:             1,
			Email:          "alice@example.com",
			HashedPassword: string(hash),
		}
	}

	t.Run("returns account for valid credentials", func(t *testing.T) {
		uc, repo, _ := newAccountUseCase(t)

		repo.EXPECT().GetByEmail(ctx, "alice@example.com").Return(stored(), nil)

		account, err := uc.Authenticate(ctx, usecase.AuthenticateInput{
			Email:    "Alice@example.com",
			Password: "sup3r-secret",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), account.ID)
		assert.Empty(t, account.HashedPassword)
	})

	t.Run("rejects wrong password", func(t *testing.T) {
		uc, repo, _ := newAccountUseCase(t)

		repo.EXPECT().GetByEmail(ctx, "alice@example.com").Return(stored(), nil)

		_, err := uc.Authenticate(ctx, usecase.AuthenticateInput{
			Email:    "alice@example.com",
			Password: "wrong-password",
		})
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("rejects unknown email without leaking existence", func(t *testing.T) {
		uc, repo, _ := newAccountUseCase(t)

		repo.EXPECT().GetByEmail(ctx, "ghost@example.com").Return(nil, domain.ErrAccountNotFound)

		_, err := uc.Authenticate(ctx, usecase.AuthenticateInput{
			Email:    "ghost@example.com",
			Password: "whatever-1234",
		})
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}

func TestAccountUseCase_GetAccount(t *testing.T) {
	ctx := context.Background()
	uc, repo, _ := newAccountUseCase(t)

	repo.EXPECT().GetByID(ctx, int64(1)).Return(&domain.Account{
		ID:             1,
		Name:           "Alice",
		HashedPassword: "$2a$10$secret",
	}, nil)

	account, err := uc.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, account.HashedPassword)
}

func TestAccountUseCase_GetSummaries(t *testing.T) {
	ctx := context.Background()
	uc, repo, _ := newAccountUseCase(t)

	repo.EXPECT().GetByIDs(ctx, []int64{1, 2}).Return([]*domain.Account{
		{ID: 1, Name: "Alice", Email: "alice@example.com"},
		{ID: 2, Name: "Bob", Email: "bob@example.com"},
	}, nil)

	summaries, err := uc.GetSummaries(ctx, []int64{1, 2})
	require.NoError(t, err)

	require.Len(t, summaries, 2)
	assert.Equal(t, "Alice", summaries[1].Name)
	assert.Equal(t, "bob@example.com", summaries[2].Email)
}

func TestAccountUseCase_SearchReceivers(t *testing.T) {
	ctx := context.Background()

	t.Run("excludes requester and caches summaries", func(t *testing.T) {
		uc, repo, cache := newAccountUseCase(t)

		cache.EXPECT().Get(ctx, "receivers:1:bob:20:0").Return(nil, errors.New("cache miss"))

		repo.EXPECT().
			Search(ctx, int64(1), "bob", 20, 0).
			Return([]*domain.Account{
				{ID: 2, Name: "Bob", Email: "bob@example.com", Balance: domain.MustMoney("999")},
			}, nil)

		cache.EXPECT().
			Set(ctx, "receivers:1:bob:20:0", gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, data []byte, _ any) error {
				// Balances never enter the cache.
				assert.NotContains(t, string(data), "999")
				return nil
			})

		summaries, err := uc.SearchReceivers(ctx, usecase.SearchReceiversInput{
			RequesterID: 1,
			Query:       "bob",
		})
		require.NoError(t, err)

		require.Len(t, summaries, 1)
		assert.Equal(t, int64(2), summaries[0].ID)
		assert.Equal(t, "Bob", summaries[0].Name)
	})

	t.Run("serves cached results without hitting storage", func(t *testing.T) {
		uc, _, cache := newAccountUseCase(t)

		cached, err := json.Marshal([]domain.AccountSummary{
			{ID: 2, Name: "Bob", Email: "bob@example.com"},
		})
		require.NoError(t, err)

		cache.EXPECT().Get(ctx, "receivers:1::20:0").Return(cached, nil)

		summaries, err := uc.SearchReceivers(ctx, usecase.SearchReceiversInput{RequesterID: 1})
		require.NoError(t, err)

		require.Len(t, summaries, 1)
		assert.Equal(t, "Bob", summaries[0].Name)
	})

	t.Run("works without a cache", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockAccountRepository(ctrl)
		uc := usecase.NewAccountUseCase(repo, nil)

		repo.EXPECT().
			Search(ctx, int64(1), "", 20, 0).
			Return([]*domain.Account{}, nil)

		summaries, err := uc.SearchReceivers(ctx, usecase.SearchReceiversInput{RequesterID: 1})
		require.NoError(t, err)
		assert.Empty(t, summaries)
	})
}
