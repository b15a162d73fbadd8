package api

import (
	"net/http"
)

// handleRefreshWallet handles POST /api/tracker/wallets/{id}/refresh
func (s *Server) handleRefreshWallet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "INVALID_ID", "invalid wallet id", nil)
		return
	}

	wallet, err := s.walletService.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if err := s.refresher.RefreshWallet(r.Context(), wallet); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"walletId":  wallet.ID,
		"refreshed": true,
	})
}

// handleTrackingStats handles GET /api/tracker/stats
func (s *Server) handleTrackingStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.reportService.TrackingStats(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

// handleBalanceReport handles GET /api/tracker/report?format=csv|json
func (s *Server) handleBalanceReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.reportService.Report(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	format := r.URL.Query().Get("format")
	switch format {
	case "", "json":
		body, err := s.reportService.RenderJSON(report)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(body) // nolint:errcheck // nothing to do on write failure
	case "csv":
		body, err := s.reportService.RenderCSV(report)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="balance-report.csv"`)
		w.WriteHeader(http.StatusOK)
		w.Write(body) // nolint:errcheck // nothing to do on write failure
	default:
		respondError(w, http.StatusBadRequest, "INVALID_PARAMETER", "format must be csv or json", nil)
	}
}
