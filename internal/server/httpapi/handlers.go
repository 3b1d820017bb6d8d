package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/tokenkeeper/internal/common"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/clients"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/models"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/tokens"
)

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

// handleToken is the OAuth token endpoint. Request and response bodies are
// JSON; failures carry a generic error code only.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {

	var req tokens.IssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, tokens.CodeMissingField, "malformed request body")
		return
	}

	resp, issueErr := s.tokens.Issue(r.Context(), &req)
	if issueErr != nil {
		writeError(w, issueErr.Status, issueErr.Code, "")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

type clientResponse struct {
	ClientID      string    `json:"client_id"`
	ClientSecret  string    `json:"client_secret,omitempty"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	AllowedScopes []string  `json:"allowed_scopes,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toClientResponse(c *models.Client) clientResponse {
	return clientResponse{
		ClientID:      c.ID,
		Name:          c.Name,
		Description:   c.Description,
		AllowedScopes: c.AllowedScopes,
		Status:        c.Status,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

type createClientRequest struct {
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	AllowedScopes []string `json:"allowed_scopes,omitempty"`
}

func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {

	var req createClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}

	client, secret, err := s.clients.Create(r.Context(), clients.CreateSpec{
		Name:          req.Name,
		Description:   req.Description,
		AllowedScopes: req.AllowedScopes,
	})
	if err != nil {
		s.logger.Error(r.Context(), "client creation failed", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}

	// the plaintext secret appears in this response and nowhere else
	resp := toClientResponse(client)
	resp.ClientSecret = secret
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetClient(w http.ResponseWriter, r *http.Request) {

	client, err := s.clients.Get(r.Context(), chi.URLParam(r, "clientID"))
	if err != nil {
		s.writeClientError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toClientResponse(client))
}

func (s *Server) handleUpdateClient(w http.ResponseWriter, r *http.Request) {

	var req createClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed request body")
		return
	}

	client, err := s.clients.Update(r.Context(), chi.URLParam(r, "clientID"), clients.UpdateSpec{
		Name:          req.Name,
		Description:   req.Description,
		AllowedScopes: req.AllowedScopes,
	})
	if err != nil {
		s.writeClientError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toClientResponse(client))
}

func (s *Server) handleDeleteClient(w http.ResponseWriter, r *http.Request) {

	if err := s.clients.Delete(r.Context(), chi.URLParam(r, "clientID")); err != nil {
		s.writeClientError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeClientError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, common.ErrorNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "")
		return
	}
	s.logger.Error(r.Context(), "client store failure", "error", err.Error())
	writeError(w, http.StatusInternalServerError, "internal_error", "")
}
