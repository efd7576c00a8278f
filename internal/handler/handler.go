package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Dan9191/web-banking/internal/middleware"
	"github.com/Dan9191/web-banking/internal/models"
	"github.com/Dan9191/web-banking/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	svc      *service.Service
	log      *logrus.Logger
	validate *validator.Validate
}

func NewHandler(svc *service.Service, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log, validate: validator.New()}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type transferRequest struct {
	FromAccount string          `json:"fromAccount"`
	ToAccount   string          `json:"toAccount"`
	Amount      json.RawMessage `json:"amount"`
	Description string          `json:"description"`
}

type transferReceipt struct {
	CorrelationID string             `json:"correlationId"`
	Debit         models.Transaction `json:"debit"`
	Credit        models.Transaction `json:"credit"`
}

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, token, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user,
		"token":   token,
	})
}

// Accounts lists the accounts of one user
func (h *Handler) Accounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.svc.ListAccounts(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if accounts == nil {
		accounts = []models.Account{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "accounts": accounts})
}

// AllAccounts lists every account number with its type
func (h *Handler) AllAccounts(w http.ResponseWriter, r *http.Request) {
	refs, err := h.svc.ListAccountRefs(r.Context())
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if refs == nil {
		refs = []models.AccountRef{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "accounts": refs})
}

// Transactions returns the history of an account, optionally filtered by
// the from and to query parameters
func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entries, err := h.svc.Transactions(r.Context(), mux.Vars(r)["accountNumber"], q.Get("from"), q.Get("to"))
	if errors.Is(err, service.ErrInvalidDate) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeTransactions(w, entries)
}

// MiniStatement returns the latest entries of an account
func (h *Handler) MiniStatement(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.MiniStatement(r.Context(), mux.Vars(r)["accountNumber"])
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeTransactions(w, entries)
}

// Statement exports the history of an account as XML
func (h *Handler) Statement(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	doc, err := h.svc.Statement(r.Context(), mux.Vars(r)["accountNumber"], q.Get("from"), q.Get("to"))
	if errors.Is(err, service.ErrInvalidDate) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

// Transfer moves funds between two accounts
func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.svc.Transfer(r.Context(), service.TransferRequest{
		FromAccount: req.FromAccount,
		ToAccount:   req.ToAccount,
		Amount:      amountText(req.Amount),
		Description: req.Description,
	})
	if err != nil {
		var te *service.TransferError
		if !errors.As(err, &te) {
			h.internalError(w, r, err)
			return
		}
		if te.Kind == service.TransferFailed {
			h.log.WithField("user_id", middleware.UserID(r.Context())).WithError(err).Error("Transfer request failed")
		}
		writeError(w, transferStatus(te.Kind), te.Message)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"message":    res.Message,
		"newBalance": res.NewBalance,
		"receipt": transferReceipt{
			CorrelationID: res.CorrelationID,
			Debit:         res.Debit,
			Credit:        res.Credit,
		},
	})
}

// Health reports liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.log.WithFields(logrus.Fields{
		"path":    r.URL.Path,
		"user_id": middleware.UserID(r.Context()),
	}).WithError(err).Error("Request failed")
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

// amountText accepts the amount as a JSON string or number
func amountText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	switch v := strings.TrimSpace(string(raw)); v {
	case "", "null", "false":
		return ""
	default:
		return v
	}
}

func transferStatus(kind service.ErrorKind) int {
	switch kind {
	case service.SourceNotFound, service.DestinationNotFound:
		return http.StatusNotFound
	case service.TransferFailed:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
