// internal/api/handler/transaction.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"fintx-engine/internal/api/types"
	"fintx-engine/internal/domain"
	"fintx-engine/internal/service"
	"fintx-engine/internal/util" // For custom errors
)

// DefaultTimeout bounds each HTTP request.
const DefaultTimeout = 30 * time.Second

// userIDHeader carries the caller identity. Authentication itself lives in
// the excluded HTTP/auth layer; the engine only needs the resolved user ID.
const userIDHeader = "X-User-ID"

// TransactionHandler handles HTTP requests for the transaction engine.
type TransactionHandler struct {
	engine  service.EngineService
	wallets service.WalletService
	logger  *slog.Logger
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(engine service.EngineService, wallets service.WalletService, logger *slog.Logger) *TransactionHandler {
	return &TransactionHandler{
		engine:  engine,
		wallets: wallets,
		logger:  logger,
	}
}

// Helper function to send JSON responses.
func (h *TransactionHandler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// Helper function to send error responses.
func (h *TransactionHandler) respondWithError(w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case util.IsError(err, util.ErrValidation), util.IsError(err, util.ErrSameWalletTransfer), util.IsError(err, util.ErrCurrencyMismatch):
		statusCode = http.StatusBadRequest
		message = err.Error()
	case util.IsError(err, util.ErrNotFound), util.IsError(err, util.ErrWalletNotFound):
		statusCode = http.StatusNotFound
		message = "Resource not found"
	case util.IsError(err, util.ErrInsufficientBalance):
		statusCode = http.StatusPaymentRequired // 402 Payment Required
		message = "Insufficient balance"
	case util.IsError(err, util.ErrResourceLocked):
		statusCode = http.StatusConflict
		message = "Wallet is locked by another transaction"
	case util.IsError(err, util.ErrInvalidStateTransition), util.IsError(err, util.ErrAlreadyReversed):
		statusCode = http.StatusConflict
		message = err.Error()
	default:
		h.logger.Error("Unhandled service error", "error", err)
	}

	h.respondWithJSON(w, statusCode, map[string]string{"error": message})
}

func (h *TransactionHandler) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get(userIDHeader)
	if userID == "" {
		h.respondWithJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing " + userIDHeader + " header"})
		return "", false
	}
	return userID, true
}

// Create handles transaction submission.
// POST /transactions
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req service.CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrValidation)
		return
	}

	transaction, err := h.engine.Create(r.Context(), req, userID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	// Processing happens asynchronously; the caller polls the status endpoint.
	h.respondWithJSON(w, http.StatusAccepted, transaction)
}

// GetOne handles transaction lookup by ID.
// GET /transactions/{transactionID}
func (h *TransactionHandler) GetOne(w http.ResponseWriter, r *http.Request) {
	transaction, err := h.engine.FindOne(r.Context(), chi.URLParam(r, "transactionID"))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, transaction)
}

// GetStatus handles status polling.
// GET /transactions/{transactionID}/status
func (h *TransactionHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.engine.GetStatus(r.Context(), chi.URLParam(r, "transactionID"))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, status)
}

// Cancel handles user cancellation of a PENDING transaction.
// POST /transactions/{transactionID}/cancel
func (h *TransactionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	transaction, err := h.engine.Cancel(r.Context(), chi.URLParam(r, "transactionID"), userID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, transaction)
}

// ReverseRequest represents the request body for an admin reversal.
type ReverseRequest struct {
	Reason string `json:"reason"`
}

// Reverse handles admin reversal of a COMPLETED transaction.
// POST /transactions/{transactionID}/reverse
func (h *TransactionHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	var req ReverseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrValidation)
		return
	}

	transaction, err := h.engine.Reverse(r.Context(), chi.URLParam(r, "transactionID"), req.Reason)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, transaction)
}

// ListByWallet handles the wallet transaction listing.
// GET /wallets/{walletID}/transactions
func (h *TransactionHandler) ListByWallet(w http.ResponseWriter, r *http.Request) {
	walletID := chi.URLParam(r, "walletID")

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 10 // Default limit
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0 // Default offset
	}

	transactions, err := h.engine.FindByWallet(r.Context(), walletID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	total := int64(len(transactions))
	if offset > len(transactions) {
		offset = len(transactions)
	}
	end := offset + limit
	if end > len(transactions) {
		end = len(transactions)
	}

	h.respondWithJSON(w, http.StatusOK, types.PaginatedResponse[domain.Transaction]{
		Data:       transactions[offset:end],
		Limit:      limit,
		Offset:     offset,
		TotalCount: total,
	})
}

// CreateWalletRequest represents the request body for wallet creation.
type CreateWalletRequest struct {
	Currency string `json:"currency"`
}

// CreateWallet handles wallet bootstrap.
// POST /wallets
func (h *TransactionHandler) CreateWallet(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req CreateWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Currency == "" {
		h.respondWithError(w, util.ErrValidation)
		return
	}

	wallet, err := h.wallets.CreateWallet(r.Context(), userID, req.Currency)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, wallet)
}

// GetWallet handles wallet lookup.
// GET /wallets/{walletID}
func (h *TransactionHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.wallets.FindOne(r.Context(), chi.URLParam(r, "walletID"))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, wallet)
}
