package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Dan9191/web-banking/internal/config"
	"github.com/Dan9191/web-banking/internal/models"
	"github.com/Dan9191/web-banking/internal/repository"
	"github.com/Dan9191/web-banking/internal/service"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	router *mux.Router
	repo   *repository.MemoryRepository
	token  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := repository.NewMemoryRepository()
	repo.AddUser(models.User{ID: "u1", Username: "john", FullName: "John Doe", Email: "john@example.com", PasswordHash: string(hash)})
	repo.AddAccount(models.Account{AccountNumber: "1001", UserID: "u1", Type: "checking", Balance: decimal.RequireFromString("100")})
	repo.AddAccount(models.Account{AccountNumber: "1002", UserID: "u1", Type: "savings", Balance: decimal.RequireFromString("20")})
	repo.AddAccount(models.Account{AccountNumber: "2001", UserID: "u2", Type: "checking", Balance: decimal.RequireFromString("5")})

	cfg := &config.Config{JWTSecret: "test-secret", TokenTTL: time.Hour, MiniStatementSize: 5}
	svc := service.NewService(repo, logger, cfg,
		service.WithClock(func() time.Time { return time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC) }))
	t.Cleanup(svc.Close)

	_, token, err := svc.Login(context.Background(), "john", "password123")
	require.NoError(t, err)

	return &testServer{
		router: NewRouter(NewHandler(svc, logger), cfg, http.NotFoundHandler()),
		repo:   repo,
		token:  token,
	}
}

func (s *testServer) do(t *testing.T, method, path, body string, auth bool) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if auth {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var out map[string]interface{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodPost, "/api/login", `{"username":"john","password":"password123"}`, false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["token"])
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "u1", user["id"])
	assert.Equal(t, "John Doe", user["fullName"])
	assert.NotContains(t, rec.Body.String(), "password")

	rec, body = s.do(t, http.MethodPost, "/api/login", `{"username":"john","password":"nope"}`, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid username or password", body["message"])

	rec, _ = s.do(t, http.MethodPost, "/api/login", `{"username":"john"}`, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/login", `{`, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/api/accounts/u1", "/api/all-accounts", "/api/transactions/1001", "/api/mini-statement/1001", "/api/statement/1001"} {
		rec, _ := s.do(t, http.MethodGet, path, "", false)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
	rec, _ := s.do(t, http.MethodPost, "/api/transfer", `{}`, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAccounts(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodGet, "/api/accounts/u1", "", true)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["accounts"], 2)

	rec, body = s.do(t, http.MethodGet, "/api/accounts/nobody", "", true)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{}, body["accounts"])

	rec, body = s.do(t, http.MethodGet, "/api/all-accounts", "", true)
	assert.Equal(t, http.StatusOK, rec.Code)
	accounts := body["accounts"].([]interface{})
	require.Len(t, accounts, 3)
	first := accounts[0].(map[string]interface{})
	assert.Contains(t, first, "accountNumber")
	assert.Contains(t, first, "type")
	assert.NotContains(t, first, "balance")
}

func TestTransfer(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodPost, "/api/transfer",
		`{"fromAccount":"1001","toAccount":"2001","amount":"50","description":"rent"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Successfully transferred $50.00 to account 2001", body["message"])
	assert.Equal(t, 50.0, body["newBalance"])
	receipt := body["receipt"].(map[string]interface{})
	assert.NotEmpty(t, receipt["correlationId"])

	// numeric amount
	rec, body = s.do(t, http.MethodPost, "/api/transfer",
		`{"fromAccount":"1001","toAccount":"2001","amount":10.5,"description":"more"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 39.5, body["newBalance"])

	acct, err := s.repo.GetAccount(context.Background(), "2001")
	require.NoError(t, err)
	assert.Equal(t, "65.50", acct.Balance.StringFixed(2))
}

func TestTransfer_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantMsg    string
	}{
		{"malformed body", `{"fromAccount":`, http.StatusBadRequest, "Invalid request body"},
		{"missing fields", `{"fromAccount":"1001","toAccount":"2001","amount":"5"}`, http.StatusBadRequest, "All fields are required"},
		{"null amount", `{"fromAccount":"1001","toAccount":"2001","amount":null,"description":"x"}`, http.StatusBadRequest, "All fields are required"},
		{"same account", `{"fromAccount":"1001","toAccount":"1001","amount":"5","description":"x"}`, http.StatusBadRequest, "Cannot transfer to the same account"},
		{"bad amount", `{"fromAccount":"1001","toAccount":"2001","amount":"abc","description":"x"}`, http.StatusBadRequest, "Amount must be a positive number"},
		{"boolean amount", `{"fromAccount":"1001","toAccount":"2001","amount":true,"description":"x"}`, http.StatusBadRequest, "Amount must be a positive number"},
		{"negative amount", `{"fromAccount":"1001","toAccount":"2001","amount":-3,"description":"x"}`, http.StatusBadRequest, "Amount must be a positive number"},
		{"huge exponent", `{"fromAccount":"1001","toAccount":"2001","amount":"1e20000000","description":"x"}`, http.StatusBadRequest, "Amount must be a positive number"},
		{"numeric exponent", `{"fromAccount":"1001","toAccount":"2001","amount":1e-20000000,"description":"x"}`, http.StatusBadRequest, "Amount must be a positive number"},
		{"unknown source", `{"fromAccount":"9999","toAccount":"2001","amount":"5","description":"x"}`, http.StatusNotFound, "Your account was not found"},
		{"unknown destination", `{"fromAccount":"1001","toAccount":"nonexistent","amount":"5","description":"x"}`, http.StatusNotFound, "Recipient account not found. Please check the account number."},
		{"insufficient funds", `{"fromAccount":"1002","toAccount":"2001","amount":"20.01","description":"x"}`, http.StatusBadRequest, "Insufficient balance. Your current balance is $20.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			rec, body := s.do(t, http.MethodPost, "/api/transfer", tt.body, true)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.wantMsg, body["message"])
			assert.NotContains(t, body, "newBalance")
		})
	}
}

func TestTransactionsAndMiniStatement(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 6; i++ {
		rec, _ := s.do(t, http.MethodPost, "/api/transfer",
			`{"fromAccount":"1001","toAccount":"1002","amount":"1","description":"save"}`, true)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec, body := s.do(t, http.MethodGet, "/api/transactions/1001", "", true)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["transactions"], 6)

	rec, body = s.do(t, http.MethodGet, "/api/transactions/1001?from=2026-02-14", "", true)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{}, body["transactions"])

	rec, body = s.do(t, http.MethodGet, "/api/transactions/1001?to=14-02-2026", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])

	rec, body = s.do(t, http.MethodGet, "/api/mini-statement/1002", "", true)
	assert.Equal(t, http.StatusOK, rec.Code)
	entries := body["transactions"].([]interface{})
	require.Len(t, entries, 5)
	newest := entries[0].(map[string]interface{})
	assert.Equal(t, "credit", newest["type"])
	assert.Equal(t, 26.0, newest["balanceAfter"])
	assert.Equal(t, "2026-02-13", newest["date"])
}

func TestStatementExport(t *testing.T) {
	s := newTestServer(t)
	rec, _ := s.do(t, http.MethodPost, "/api/transfer",
		`{"fromAccount":"1001","toAccount":"1002","amount":"7.25","description":"xml"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/statement/1001", "", true)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/xml; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<Statement")
	assert.Contains(t, rec.Body.String(), "Transfer to 1002 - xml")

	rec, _ = s.do(t, http.MethodGet, "/api/statement/1001?from=bad", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec, body := s.do(t, http.MethodGet, "/healthz", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestAmountText(t *testing.T) {
	tests := map[string]string{
		`"12.50"`: "12.50",
		`12.5`:    "12.5",
		`1e2`:     "1e2",
		`null`:    "",
		``:        "",
		`false`:   "",
		`true`:    "true",
		`{}`:      "{}",
	}
	for raw, want := range tests {
		assert.Equal(t, want, amountText(json.RawMessage(raw)), raw)
	}
}
