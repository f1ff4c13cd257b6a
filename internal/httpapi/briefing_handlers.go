package httpapi

import (
	"net/http"
	"strings"

	"socialloom.io/internal/briefing"
	"socialloom.io/internal/identity"
)

type createBriefingRequest struct {
	TemplateID string        `json:"template_id"`
	Name       string        `json:"name"`
	Data       briefing.Data `json:"data"`
}

func (a *API) handleBriefings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		principal, ok := a.ensurePermission(w, r, identity.PermissionBriefingRead)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"briefings": a.briefings.List(r.Context(), principal),
		})
	case http.MethodPost:
		principal, ok := a.ensurePermission(w, r, identity.PermissionBriefingCreate)
		if !ok {
			return
		}
		var req createBriefingRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		b, err := a.briefings.Create(r.Context(), principal, req.TemplateID, req.Name, req.Data)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		a.auditEvent(r.Context(), "briefing.create", "briefing", b.ID, map[string]string{
			"template_id": b.TemplateID,
			"name":        b.Name,
		})
		writeJSON(w, http.StatusCreated, b)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleBriefingTemplates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if _, ok := a.ensurePermission(w, r, identity.PermissionBriefingRead); !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"templates": briefing.Templates})
}

func (a *API) handleBriefingResource(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/briefings/"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	principal, ok := a.ensurePermission(w, r, identity.PermissionBriefingRead)
	if !ok {
		return
	}
	b, err := a.briefings.Get(r.Context(), principal, id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}
