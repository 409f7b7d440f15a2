package utils

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func validInput() WithdrawInput {
	return WithdrawInput{
		Coin:    "BTC",
		Network: "BTC",
		Address: "bc1qxy2kgdygjrsqtzq2n0yrf2493p83kkfjhx0wlh",
		Amount:  decimal.NewFromFloat(0.5),
	}
}

func hasError(result ValidationResult, substr string) bool {
	for _, e := range result.Errors {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}

func TestValidateWithdrawRequest(t *testing.T) {
	t.Run("valid request has zero errors", func(t *testing.T) {
		result := ValidateWithdrawRequest(validInput())
		if !result.Valid {
			t.Errorf("expected valid=true, errors: %v", result.Errors)
		}
		if len(result.Errors) != 0 {
			t.Errorf("expected zero errors, got %v", result.Errors)
		}
	})

	t.Run("valid request with address tag", func(t *testing.T) {
		in := validInput()
		in.Coin = "XRP"
		in.Network = "XRP"
		in.AddressTag = "12345"
		result := ValidateWithdrawRequest(in)
		if !result.Valid {
			t.Errorf("expected valid=true, errors: %v", result.Errors)
		}
	})

	t.Run("zero amount rejected", func(t *testing.T) {
		in := validInput()
		in.Amount = decimal.Zero
		result := ValidateWithdrawRequest(in)
		if result.Valid {
			t.Error("expected valid=false")
		}
		if !hasError(result, "Amount must be greater than 0") {
			t.Errorf("missing amount error, got %v", result.Errors)
		}
	})

	t.Run("negative amount rejected", func(t *testing.T) {
		in := validInput()
		in.Amount = decimal.NewFromFloat(-1)
		result := ValidateWithdrawRequest(in)
		if !hasError(result, "Amount must be greater than 0") {
			t.Errorf("missing amount error, got %v", result.Errors)
		}
	})

	t.Run("amount above ceiling rejected", func(t *testing.T) {
		in := validInput()
		in.Amount = decimal.NewFromInt(1_000_001)
		result := ValidateWithdrawRequest(in)
		if !hasError(result, "Amount exceeds maximum limit") {
			t.Errorf("missing ceiling error, got %v", result.Errors)
		}
	})

	t.Run("amount exactly at ceiling accepted", func(t *testing.T) {
		in := validInput()
		in.Amount = decimal.NewFromInt(1_000_000)
		result := ValidateWithdrawRequest(in)
		if !result.Valid {
			t.Errorf("expected valid=true at ceiling, errors: %v", result.Errors)
		}
	})

	t.Run("short address rejected", func(t *testing.T) {
		in := validInput()
		in.Address = "tooshort"
		result := ValidateWithdrawRequest(in)
		if !hasError(result, "Address length must be between 20 and 200 characters") {
			t.Errorf("missing address length error, got %v", result.Errors)
		}
	})

	t.Run("overly long address rejected", func(t *testing.T) {
		in := validInput()
		in.Address = strings.Repeat("a", 201)
		result := ValidateWithdrawRequest(in)
		if !hasError(result, "Address length must be between 20 and 200 characters") {
			t.Errorf("missing address length error, got %v", result.Errors)
		}
	})

	t.Run("missing coin rejected", func(t *testing.T) {
		in := validInput()
		in.Coin = ""
		result := ValidateWithdrawRequest(in)
		if !hasError(result, "Coin is required") {
			t.Errorf("missing coin error, got %v", result.Errors)
		}
	})

	t.Run("lowercase coin rejected", func(t *testing.T) {
		in := validInput()
		in.Coin = "btc"
		result := ValidateWithdrawRequest(in)
		if !hasError(result, "Invalid coin format") {
			t.Errorf("missing coin format error, got %v", result.Errors)
		}
	})

	t.Run("invalid network rejected", func(t *testing.T) {
		in := validInput()
		in.Network = "bad network!"
		result := ValidateWithdrawRequest(in)
		if !hasError(result, "Invalid network format") {
			t.Errorf("missing network format error, got %v", result.Errors)
		}
	})

	t.Run("too long address tag rejected", func(t *testing.T) {
		in := validInput()
		in.AddressTag = strings.Repeat("x", 101)
		result := ValidateWithdrawRequest(in)
		if !hasError(result, "Address tag is too long") {
			t.Errorf("missing tag error, got %v", result.Errors)
		}
	})

	t.Run("multiple failures reported together", func(t *testing.T) {
		result := ValidateWithdrawRequest(WithdrawInput{})
		if result.Valid {
			t.Error("expected valid=false")
		}
		if len(result.Errors) < 3 {
			t.Errorf("expected several discrete errors, got %v", result.Errors)
		}
	})
}
