package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/wallet-tracker/internal/models"
	"github.com/wallet-tracker/internal/types"
)

// pathID extracts and parses the {id} path variable
func pathID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	return id, err == nil
}

// handleRegisterWallet handles POST /api/wallets
func (s *Server) handleRegisterWallet(w http.ResponseWriter, r *http.Request) {
	var req models.CreateWalletRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body", nil)
		return
	}

	wallet, err := s.walletService.Register(r.Context(), &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, wallet)
}

// handleListWallets handles GET /api/wallets
func (s *Server) handleListWallets(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	wallets, err := s.walletService.List(r.Context(), activeOnly)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"wallets": wallets,
		"count":   len(wallets),
	})
}

// handleGetWallet handles GET /api/wallets/{id}
func (s *Server) handleGetWallet(w http.ResponseWriter, r *http.Request) {
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

	respondJSON(w, http.StatusOK, wallet)
}

// handleUpdateWallet handles PUT /api/wallets/{id}
func (s *Server) handleUpdateWallet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "INVALID_ID", "invalid wallet id", nil)
		return
	}

	var req models.UpdateWalletRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body", nil)
		return
	}

	wallet, err := s.walletService.Update(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, wallet)
}

// handleDeleteWallet handles DELETE /api/wallets/{id}
func (s *Server) handleDeleteWallet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "INVALID_ID", "invalid wallet id", nil)
		return
	}

	if err := s.walletService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

// handleActivateWallet handles POST /api/wallets/{id}/activate
func (s *Server) handleActivateWallet(w http.ResponseWriter, r *http.Request) {
	s.setWalletActive(w, r, true)
}

// handleDeactivateWallet handles POST /api/wallets/{id}/deactivate
func (s *Server) handleDeactivateWallet(w http.ResponseWriter, r *http.Request) {
	s.setWalletActive(w, r, false)
}

func (s *Server) setWalletActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "INVALID_ID", "invalid wallet id", nil)
		return
	}

	if err := s.walletService.SetActive(r.Context(), id, active); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":       id,
		"isActive": active,
	})
}

// handleWalletStats handles GET /api/wallets/{id}/stats
func (s *Server) handleWalletStats(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "INVALID_ID", "invalid wallet id", nil)
		return
	}

	stats, err := s.historyService.Stats(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

// handleWalletBalances handles GET /api/wallets/{id}/balances
func (s *Server) handleWalletBalances(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "INVALID_ID", "invalid wallet id", nil)
		return
	}

	query := r.URL.Query()
	filter := &models.BalanceFilter{
		Network:       types.Network(query.Get("network")),
		WhitelistOnly: query.Get("whitelistedOnly") == "true",
		ExcludeSpam:   query.Get("excludeSpam") == "true",
	}

	balances, err := s.reportService.Balances(r.Context(), id, filter)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"balances": balances,
		"count":    len(balances),
	})
}
