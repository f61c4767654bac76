package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mver/payflow/internal/adapter/http/dto"
	"github.com/mver/payflow/internal/domain"
	"github.com/mver/payflow/internal/infrastructure/auth"
	"github.com/mver/payflow/internal/usecase"
)

type authServiceStub struct {
	authenticateFn func(ctx context.Context, input usecase.AuthenticateInput) (*domain.Account, error)
}

func (s *authServiceStub) Authenticate(ctx context.Context, input usecase.AuthenticateInput) (*domain.Account, error) {
	return s.authenticateFn(ctx, input)
}

func testJWTManager() *auth.JWTManager {
	return auth.NewJWTManager("test-secret", time.Hour)
}

func TestAuthHandler_Login_Success(t *testing.T) {
	account := &domain.Account{ID: 3, Name: "Alice", Email: "alice@example.com"}
	h := NewAuthHandler(&authServiceStub{
		authenticateFn: func(ctx context.Context, input usecase.AuthenticateInput) (*domain.Account, error) {
			if input.Email != "alice@example.com" || input.Password != "s3cret-pass" {
				t.Fatalf("unexpected input: %+v", input)
			}
			return account, nil
		},
	}, testJWTManager(), nil)

	body, _ := json.Marshal(dto.LoginRequest{Email: "alice@example.com", Password: "s3cret-pass"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.TokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("expected a token")
	}
	if resp.Account == nil || resp.Account.ID != 3 {
		t.Fatalf("unexpected account: %+v", resp.Account)
	}

	// The issued token must verify and carry the account identity.
	claims, err := testJWTManager().Verify(resp.Token)
	if err != nil {
		t.Fatalf("token did not verify: %v", err)
	}
	if claims.AccountID != 3 || claims.Email != "alice@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&authServiceStub{
		authenticateFn: func(ctx context.Context, input usecase.AuthenticateInput) (*domain.Account, error) {
			return nil, domain.ErrUnauthorized
		},
	}, testJWTManager(), nil)

	body := []byte(`{"email": "alice@example.com", "password": "wrong"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthHandler_Login_InvalidBody(t *testing.T) {
	h := NewAuthHandler(&authServiceStub{
		authenticateFn: func(ctx context.Context, input usecase.AuthenticateInput) (*domain.Account, error) {
			t.Fatal("Authenticate should not be called")
			return nil, nil
		},
	}, testJWTManager(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader([]byte(`{`)))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
