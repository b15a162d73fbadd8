package api

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wallet-tracker/internal/models"
	"github.com/wallet-tracker/internal/types"
)

// handleTriggerSync handles POST /api/sync/wallets/{id}/networks/{network}.
// The request body optionally carries sync options; an empty body runs an
// incremental sync from the checkpoint.
func (s *Server) handleTriggerSync(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "INVALID_ID", "invalid wallet id", nil)
		return
	}
	network := types.Network(mux.Vars(r)["network"])

	var opts models.SyncOptions
	if err := parseJSONBody(r, &opts); err != nil && err != io.EOF {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body", nil)
		return
	}

	wallet, err := s.walletService.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if !walletTracksNetwork(wallet, network) {
		respondError(w, http.StatusBadRequest, "INVALID_PARAMETER",
			"network is not in the wallet's tracked set", nil)
		return
	}

	result, err := s.syncRunner.RunSync(r.Context(), wallet.ID, wallet.Address, network, opts)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func walletTracksNetwork(wallet *models.Wallet, network types.Network) bool {
	for _, n := range wallet.Networks {
		if n == network {
			return true
		}
	}
	return false
}

// handleSyncStatus handles GET /api/sync/wallets/{id}/status
func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "INVALID_ID", "invalid wallet id", nil)
		return
	}

	states, err := s.walletService.SyncStatus(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"walletId": id,
		"states":   states,
	})
}

// handleSetAutoSync handles PUT /api/sync/wallets/{id}/networks/{network}/autosync
func (s *Server) handleSetAutoSync(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "INVALID_ID", "invalid wallet id", nil)
		return
	}
	network := types.Network(mux.Vars(r)["network"])

	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body", nil)
		return
	}

	if err := s.walletService.SetAutoSync(r.Context(), id, network, req.Enabled); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"walletId": id,
		"network":  network,
		"autoSync": req.Enabled,
	})
}
