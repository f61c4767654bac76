package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		wantErr error
	}{
		{"valid", "10.00", nil},
		{"minimum", "0.01", nil},
		{"zero", "0", ErrInvalidAmount},
		{"negative", "-5", ErrInvalidAmount},
		{"below minimum", "0.0099", ErrAmountTooSmall},
		{"above maximum", "1000000000001", ErrAmountTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAmount(MustMoney(tt.amount))
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateName(t *testing.T) {
	if err := ValidateName("Alice"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := ValidateName("  "); err == nil {
		t.Error("expected error for blank name")
	}

	if err := ValidateName(strings.Repeat("x", 256)); err == nil {
		t.Error("expected error for overlong name")
	}
}

func TestValidateEmail(t *testing.T) {
	valid := []string{"user@example.com", "a.b+c@sub.domain.org"}
	for _, email := range valid {
		if err := ValidateEmail(email); err != nil {
			t.Errorf("ValidateEmail(%q): %v", email, err)
		}
	}

	invalid := []string{"", "plain", "missing@tld", "@example.com"}
	for _, email := range invalid {
		if err := ValidateEmail(email); err == nil {
			t.Errorf("ValidateEmail(%q): expected error", email)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("longenough1"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := ValidatePassword("short"); err == nil {
		t.Error("expected error for short password")
	}

	if err := ValidatePassword(strings.Repeat("p", 129)); err == nil {
		t.Error("expected error for overlong password")
	}
}

func TestValidatePagination(t *testing.T) {
	tests := []struct {
		limit, offset         int
		wantLimit, wantOffset int
	}{
		{0, 0, 20, 0},
		{-5, -3, 20, 0},
		{50, 10, 50, 10},
		{500, 0, 100, 0},
	}

	for _, tt := range tests {
		limit, offset := ValidatePagination(tt.limit, tt.offset)
		if limit != tt.wantLimit || offset != tt.wantOffset {
			t.Errorf("ValidatePagination(%d, %d) = (%d, %d), want (%d, %d)",
				tt.limit, tt.offset, limit, offset, tt.wantLimit, tt.wantOffset)
		}
	}
}
