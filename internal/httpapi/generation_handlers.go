package httpapi

import (
	"net/http"
	"strings"

	"socialloom.io/internal/identity"
)

type generateRequest struct {
	BriefingID string   `json:"briefing_id"`
	Subject    string   `json:"subject"`
	NumAgents  int      `json:"num_agents"`
	NumRounds  int      `json:"num_rounds"`
	Platforms  []string `json:"platforms"`
}

func (a *API) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	principal, ok := a.ensurePermission(w, r, identity.PermissionContentGenerate)
	if !ok {
		return
	}
	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	session, err := a.sessions.Start(r.Context(), principal, req.BriefingID, req.Subject, req.NumAgents, req.NumRounds, req.Platforms)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	a.auditEvent(r.Context(), "session.start", "session", session.ID, map[string]string{
		"briefing_id": session.BriefingID,
		"subject":     session.Subject,
	})
	writeJSON(w, http.StatusAccepted, session)
}

func (a *API) handleSessionResource(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/sessions/"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	principal, ok := a.ensurePermission(w, r, identity.PermissionContentGenerate)
	if !ok {
		return
	}
	session, err := a.sessions.Get(r.Context(), principal, id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}
