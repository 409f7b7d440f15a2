package utils

import (
	"regexp"

	"github.com/shopspring/decimal"
)

// Правила формата для полей заявки на вывод
var (
	coinPattern    = regexp.MustCompile(`^[A-Z0-9]{2,10}$`)
	networkPattern = regexp.MustCompile(`^[A-Z0-9]{2,20}$`)
)

// maxWithdrawAmount - верхняя граница суммы одного вывода
var maxWithdrawAmount = decimal.NewFromInt(1_000_000)

// WithdrawInput - поля заявки на вывод, подлежащие структурной валидации
type WithdrawInput struct {
	Coin       string
	Network    string
	Address    string
	AddressTag string
	Amount     decimal.Decimal
}

// ValidationResult - результат структурной валидации
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// ValidateWithdrawRequest проверяет формат и диапазоны полей заявки на
// вывод. Возвращает список дискретных причин отказа, а не одно общее
// сообщение - UI показывает их пользователю по отдельности.
func ValidateWithdrawRequest(in WithdrawInput) ValidationResult {
	var errs []string

	if in.Coin == "" {
		errs = append(errs, "Coin is required")
	} else if !coinPattern.MatchString(in.Coin) {
		errs = append(errs, "Invalid coin format")
	}

	if in.Network == "" {
		errs = append(errs, "Network is required")
	} else if !networkPattern.MatchString(in.Network) {
		errs = append(errs, "Invalid network format")
	}

	if in.Address == "" {
		errs = append(errs, "Address is required")
	} else if len(in.Address) < 20 || len(in.Address) > 200 {
		errs = append(errs, "Address length must be between 20 and 200 characters")
	}

	if in.Amount.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, "Amount must be greater than 0")
	} else if in.Amount.GreaterThan(maxWithdrawAmount) {
		errs = append(errs, "Amount exceeds maximum limit")
	}

	if len(in.AddressTag) > 100 {
		errs = append(errs, "Address tag is too long")
	}

	return ValidationResult{
		Valid:  len(errs) == 0,
		Errors: errs,
	}
}
