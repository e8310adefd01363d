package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/bn-mk/fanwave-crypto/internal/application/usecase"
)

const (
	defaultTopLimit    = 10
	defaultSearchLimit = 20
	maxLimit           = 100
	maxQueryLength     = 50
)

type CoinHandler struct {
	useCase *usecase.CoinUseCase
	logger  *slog.Logger
	debug   bool
}

func NewCoinHandler(useCase *usecase.CoinUseCase, debug bool, logger *slog.Logger) *CoinHandler {
	return &CoinHandler{
		useCase: useCase,
		logger:  logger,
		debug:   debug,
	}
}

// Top serves GET /api/crypto/top.
func (h *CoinHandler) Top(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.parseLimit(w, r, defaultTopLimit)
	if !ok {
		return
	}

	coins, err := h.useCase.TopByRank(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to get top coins", "limit", limit, "error", err)
		h.internalError(w, "Failed to retrieve cryptocurrencies", err)
		return
	}

	meta := map[string]any{
		"count":    len(coins),
		"limit":    limit,
		"endpoint": "top",
	}
	if len(coins) > 0 {
		meta["last_updated"] = coins[0].LastUpdated
	}

	writeData(w, NewCoinResourceList(coins), meta)
}

// Show serves GET /api/crypto/{id}.
func (h *CoinHandler) Show(w http.ResponseWriter, r *http.Request) {
	coinID := r.PathValue("id")
	if coinID == "" {
		writeValidationError(w, "id", "coin id is required")
		return
	}

	coin, err := h.useCase.GetByCoinID(r.Context(), coinID)
	if err != nil {
		h.logger.Error("failed to get coin", "coin_id", coinID, "error", err)
		h.internalError(w, "Failed to retrieve cryptocurrency", err)
		return
	}

	if coin == nil {
		writeError(w, http.StatusNotFound, "Cryptocurrency not found")
		return
	}

	writeData(w, NewCoinResource(*coin), nil)
}

// Search serves GET /api/crypto/search.
func (h *CoinHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		writeValidationError(w, "query", "query is required")
		return
	}
	if len(query) > maxQueryLength {
		writeValidationError(w, "query", "query must not exceed 50 characters")
		return
	}

	limit, ok := h.parseLimit(w, r, defaultSearchLimit)
	if !ok {
		return
	}

	coins, err := h.useCase.Search(r.Context(), query, limit)
	if err != nil {
		h.logger.Error("failed to search coins", "query", query, "error", err)
		h.internalError(w, "Failed to search cryptocurrencies", err)
		return
	}

	writeData(w, NewCoinResourceList(coins), map[string]any{
		"query": query,
		"count": len(coins),
		"limit": limit,
	})
}

// Stats serves GET /api/crypto/stats.
func (h *CoinHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.useCase.Statistics(r.Context())
	if err != nil {
		h.logger.Error("failed to get statistics", "error", err)
		h.internalError(w, "Failed to retrieve statistics", err)
		return
	}

	writeData(w, stats, nil)
}

// parseLimit validates the limit query parameter. Out-of-range values are the
// caller's mistake and come back as 422 rather than being clamped silently.
func (h *CoinHandler) parseLimit(w http.ResponseWriter, r *http.Request, def int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, true
	}

	limit, err := strconv.Atoi(raw)
	if err != nil {
		writeValidationError(w, "limit", "limit must be an integer")
		return 0, false
	}
	if limit < 1 || limit > maxLimit {
		writeValidationError(w, "limit", "limit must be between 1 and 100")
		return 0, false
	}
	return limit, true
}

func (h *CoinHandler) internalError(w http.ResponseWriter, message string, err error) {
	if h.debug {
		writeError(w, http.StatusInternalServerError, message+": "+err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, message)
}
