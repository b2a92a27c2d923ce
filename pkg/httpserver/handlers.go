package httpserver

import (
	"net/http"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/mselser95/crossarb/internal/executor"
	"github.com/mselser95/crossarb/internal/orderbook"
	"github.com/mselser95/crossarb/pkg/types"
)

// ErrorResponse represents an HTTP error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusHandler serves the executor snapshot.
type StatusHandler struct {
	exec   *executor.Executor
	logger *zap.Logger
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(exec *executor.Executor, logger *zap.Logger) *StatusHandler {
	return &StatusHandler{
		exec:   exec,
		logger: logger,
	}
}

// HandleStatus handles GET /api/status requests.
func (h *StatusHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	status := h.exec.Status()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	err := json.NewEncoder(w).Encode(status)
	if err != nil {
		h.logger.Error("failed-to-encode-response", zap.Error(err))
	}
}

// BookHandler serves order book snapshots.
type BookHandler struct {
	manager *orderbook.Manager
	logger  *zap.Logger
}

// NewBookHandler creates a new book handler.
func NewBookHandler(manager *orderbook.Manager, logger *zap.Logger) *BookHandler {
	return &BookHandler{
		manager: manager,
		logger:  logger,
	}
}

// BookResponse represents the HTTP response for an order book snapshot.
type BookResponse struct {
	Symbol string             `json:"symbol"`
	Bids   []types.PriceLevel `json:"bids"`
	Asks   []types.PriceLevel `json:"asks"`
}

// HandleBook handles GET /api/orderbook?symbol=<symbol> requests.
func (h *BookHandler) HandleBook(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		h.writeError(w, "missing required query parameter: symbol", http.StatusBadRequest)
		return
	}

	h.logger.Debug("orderbook-request-received", zap.String("symbol", symbol))

	book, found := h.manager.Snapshot(symbol)
	if !found {
		h.writeError(w, "no book for symbol", http.StatusNotFound)
		return
	}

	response := BookResponse{
		Symbol: book.Symbol,
		Bids:   book.Bids,
		Asks:   book.Asks,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		h.logger.Error("failed-to-encode-response", zap.Error(err))
	}
}

// writeError writes a JSON error response.
func (h *BookHandler) writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{Error: message}
	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		h.logger.Error("failed-to-encode-error-response", zap.Error(err))
	}
}
