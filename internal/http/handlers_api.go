package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"finbook/internal/log"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// handleAPICrypto returns the top cryptocurrencies by 24h volume.
func (s *Server) handleAPICrypto(w http.ResponseWriter, r *http.Request) {
	if s.market == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "market data unavailable"})
		return
	}

	limit := 5
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= 20 {
			limit = n
		}
	}

	tickers, err := s.market.TopByVolume(r.Context(), limit)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Crypto ticker fetch failed", log.FieldError, err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "market data unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"tickers": tickers})
}

// handleAPIStatistics returns income and expense sums for the last N days.
func (s *Server) handleAPIStatistics(w http.ResponseWriter, r *http.Request) {
	days := 30
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 3650 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "days must be between 1 and 3650"})
			return
		}
		days = n
	}

	stats, err := s.store.PeriodStats(r.Context(), userID(r), days)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Period stats failed", log.FieldError, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"days":    stats.Days,
		"income":  stats.Income.String(),
		"expense": stats.Expense.String(),
		"net":     stats.Net().String(),
		"count":   stats.Count,
	})
}
