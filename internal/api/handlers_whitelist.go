package api

import (
	"net/http"

	"github.com/wallet-tracker/internal/models"
	"github.com/wallet-tracker/internal/types"
)

// handleAddWhitelistToken handles POST /api/whitelist
func (s *Server) handleAddWhitelistToken(w http.ResponseWriter, r *http.Request) {
	var req models.CreateWhitelistTokenRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body", nil)
		return
	}

	token, err := s.whitelistService.Add(r.Context(), &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, token)
}

// handleListWhitelistTokens handles GET /api/whitelist
func (s *Server) handleListWhitelistTokens(w http.ResponseWriter, r *http.Request) {
	network := types.Network(r.URL.Query().Get("network"))

	tokens, err := s.whitelistService.List(r.Context(), network)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"tokens": tokens,
		"count":  len(tokens),
	})
}

// handleGetWhitelistToken handles GET /api/whitelist/{id}
func (s *Server) handleGetWhitelistToken(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "INVALID_ID", "invalid token id", nil)
		return
	}

	token, err := s.whitelistService.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, token)
}

// handleUpdateWhitelistToken handles PUT /api/whitelist/{id}
func (s *Server) handleUpdateWhitelistToken(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "INVALID_ID", "invalid token id", nil)
		return
	}

	var req models.UpdateWhitelistTokenRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body", nil)
		return
	}

	token, err := s.whitelistService.Update(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, token)
}

// handleDeleteWhitelistToken handles DELETE /api/whitelist/{id}
func (s *Server) handleDeleteWhitelistToken(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "INVALID_ID", "invalid token id", nil)
		return
	}

	if err := s.whitelistService.Remove(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}
