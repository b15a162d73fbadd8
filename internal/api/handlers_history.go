package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/wallet-tracker/internal/models"
	"github.com/wallet-tracker/internal/types"
)

// handleHistory handles GET /api/history/{address}
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	query := r.URL.Query()

	filter := &models.HistoryFilter{
		Network:       types.Network(query.Get("network")),
		Category:      types.TransactionCategory(query.Get("category")),
		Direction:     types.TransactionDirection(query.Get("direction")),
		FromBlock:     query.Get("fromBlock"),
		ToBlock:       query.Get("toBlock"),
		WhitelistOnly: query.Get("whitelistedOnly") == "true",
	}

	if v := query.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_PARAMETER", "limit must be an integer", nil)
			return
		}
		filter.Limit = limit
	}
	if v := query.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_PARAMETER", "offset must be an integer", nil)
			return
		}
		filter.Offset = offset
	}
	if v := query.Get("fromDate"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_PARAMETER", "fromDate must be RFC3339", nil)
			return
		}
		filter.FromDate = &t
	}
	if v := query.Get("toDate"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_PARAMETER", "toDate must be RFC3339", nil)
			return
		}
		filter.ToDate = &t
	}

	page, err := s.historyService.History(r.Context(), address, filter)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, page)
}
