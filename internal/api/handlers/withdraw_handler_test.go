package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"treasury/internal/exchange"
)

const testActionKey = "action-key"

func withdrawBody(amount string) string {
	return `{"coin":"USDT","network":"TRC20","address":"TAbcdefghijklmnopqrstuvwxyz12345","amount":"` + amount + `"}`
}

func doWithdraw(h *WithdrawHandler, body, actionKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/api/account/withdraw", strings.NewReader(body))
	if actionKey != "" {
		req.Header.Set("X-API-ACTION-KEY", actionKey)
	}
	req.RemoteAddr = "10.0.0.1:54321"
	rr := httptest.NewRecorder()
	h.Withdraw(rr, req)
	return rr
}

func TestWithdrawHandler_Withdraw(t *testing.T) {
	t.Run("valid request returns withdrawal id", func(t *testing.T) {
		mock := fundedMock()
		h := NewWithdrawHandler(newWithdrawService(mock, testActionKey, 5))

		rr := doWithdraw(h, withdrawBody("100"), testActionKey)

		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
		}
		if !strings.Contains(rr.Body.String(), `"id":"w1"`) {
			t.Errorf("unexpected body: %s", rr.Body.String())
		}
		if mock.withdrawCalls != 1 {
			t.Errorf("exchange called %d times, want 1", mock.withdrawCalls)
		}
	})

	t.Run("missing action key gets 403", func(t *testing.T) {
		h := NewWithdrawHandler(newWithdrawService(fundedMock(), testActionKey, 5))

		rr := doWithdraw(h, withdrawBody("100"), "")

		if rr.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rr.Code)
		}
	})

	t.Run("second request within window gets 429", func(t *testing.T) {
		h := NewWithdrawHandler(newWithdrawService(fundedMock(), testActionKey, 1))

		if rr := doWithdraw(h, withdrawBody("10"), testActionKey); rr.Code != http.StatusOK {
			t.Fatalf("first request: status = %d", rr.Code)
		}
		rr := doWithdraw(h, withdrawBody("10"), testActionKey)
		if rr.Code != http.StatusTooManyRequests {
			t.Errorf("status = %d, want 429", rr.Code)
		}
	})

	t.Run("invalid request body gets 400", func(t *testing.T) {
		h := NewWithdrawHandler(newWithdrawService(fundedMock(), testActionKey, 5))

		rr := doWithdraw(h, "{not json", testActionKey)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rr.Code)
		}
	})

	t.Run("non-decimal amount gets 400", func(t *testing.T) {
		h := NewWithdrawHandler(newWithdrawService(fundedMock(), testActionKey, 5))

		rr := doWithdraw(h, withdrawBody("abc"), testActionKey)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rr.Code)
		}
	})

	t.Run("structurally invalid request gets 400 with reasons", func(t *testing.T) {
		h := NewWithdrawHandler(newWithdrawService(fundedMock(), testActionKey, 5))

		body := `{"coin":"USDT","network":"TRC20","address":"short","amount":"10"}`
		rr := doWithdraw(h, body, testActionKey)

		if rr.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "Address length must be between 20 and 200 characters") {
			t.Errorf("missing validation reason: %s", rr.Body.String())
		}
	})

	t.Run("insufficient balance gets 400 with available amount", func(t *testing.T) {
		h := NewWithdrawHandler(newWithdrawService(fundedMock(), testActionKey, 5))

		rr := doWithdraw(h, withdrawBody("1000"), testActionKey)

		if rr.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "Insufficient balance. Available: 500 USDT") {
			t.Errorf("unexpected body: %s", rr.Body.String())
		}
	})

	t.Run("exchange credential rejection gets 401 sanitized", func(t *testing.T) {
		mock := fundedMock()
		mock.withdrawErr = exchange.ErrCredentials
		h := NewWithdrawHandler(newWithdrawService(mock, testActionKey, 5))

		rr := doWithdraw(h, withdrawBody("100"), testActionKey)

		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "Authentication failed. Please check your API credentials.") {
			t.Errorf("unexpected body: %s", rr.Body.String())
		}
	})

	t.Run("degraded balance check gets 500", func(t *testing.T) {
		mock := fundedMock()
		mock.balances = exchange.BalanceSnapshot{Degraded: true}
		h := NewWithdrawHandler(newWithdrawService(mock, testActionKey, 5))

		rr := doWithdraw(h, withdrawBody("100"), testActionKey)

		if rr.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", rr.Code)
		}
	})

	t.Run("error responses never leak secrets", func(t *testing.T) {
		mock := fundedMock()
		mock.withdrawErr = &exchange.APIError{Code: -1000, Message: "secret key rotation required"}
		h := NewWithdrawHandler(newWithdrawService(mock, testActionKey, 5))

		rr := doWithdraw(h, withdrawBody("100"), testActionKey)

		if strings.Contains(rr.Body.String(), "secret key rotation") {
			t.Errorf("raw exchange message leaked: %s", rr.Body.String())
		}
		if !strings.Contains(rr.Body.String(), "Authentication error. Please verify your configuration.") {
			t.Errorf("unexpected body: %s", rr.Body.String())
		}
	})
}

func TestWithdrawHandler_EstimateFee(t *testing.T) {
	h := NewWithdrawHandler(newWithdrawService(fundedMock(), testActionKey, 5))

	t.Run("returns fee and total", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/account/estimate-fee", strings.NewReader(`{"coin":"USDT","amount":"100"}`))
		rr := httptest.NewRecorder()
		h.EstimateFee(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), `"estimatedFee":"1"`) {
			t.Errorf("unexpected body: %s", rr.Body.String())
		}
		if !strings.Contains(rr.Body.String(), `"total":"101"`) {
			t.Errorf("unexpected body: %s", rr.Body.String())
		}
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/account/estimate-fee", strings.NewReader(`{"coin":"BTC","amount":"0"}`))
		rr := httptest.NewRecorder()
		h.EstimateFee(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rr.Code)
		}
	})

	t.Run("rejects missing coin", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/account/estimate-fee", strings.NewReader(`{"amount":"10"}`))
		rr := httptest.NewRecorder()
		h.EstimateFee(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rr.Code)
		}
	})
}
