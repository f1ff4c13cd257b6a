package httpapi

import (
	"net/http"
	"strings"

	"socialloom.io/internal/identity"
)

type generateImageRequest struct {
	WorkflowID string `json:"workflow_id"`
	Platform   string `json:"platform"`
	Prompt     string `json:"prompt"`
}

type generateVideoRequest struct {
	WorkflowID string `json:"workflow_id"`
	Script     string `json:"script"`
	AvatarType string `json:"avatar_type"`
}

func (a *API) handleGenerateImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	principal, ok := a.ensurePermission(w, r, identity.PermissionCreativeGenerate)
	if !ok {
		return
	}
	var req generateImageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	created, err := a.assets.GenerateImage(r.Context(), principal, req.WorkflowID, req.Platform, req.Prompt)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	a.auditEvent(r.Context(), "asset.generate_image", "asset", created.ID, map[string]string{
		"workflow_id": created.WorkflowID,
	})
	writeJSON(w, http.StatusCreated, created)
}

func (a *API) handleGenerateVideo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	principal, ok := a.ensurePermission(w, r, identity.PermissionCreativeGenerate)
	if !ok {
		return
	}
	var req generateVideoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	created, err := a.assets.GenerateVideo(r.Context(), principal, req.WorkflowID, req.Script, req.AvatarType)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	a.auditEvent(r.Context(), "asset.generate_video", "asset", created.ID, map[string]string{
		"workflow_id": created.WorkflowID,
	})
	writeJSON(w, http.StatusAccepted, created)
}

func (a *API) handleAssets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	principal, ok := a.ensurePermission(w, r, identity.PermissionAssetRead)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"assets": a.assets.List(r.Context(), principal),
	})
}

func (a *API) handleAssetResource(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/assets/"), "/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	parts := strings.Split(path, "/")
	switch {
	case len(parts) == 1:
		a.handleAssetGet(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "download":
		a.handleAssetDownload(w, r, parts[0])
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) handleAssetGet(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	principal, ok := a.ensurePermission(w, r, identity.PermissionAssetRead)
	if !ok {
		return
	}
	got, err := a.assets.Get(r.Context(), principal, id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, got)
}

func (a *API) handleAssetDownload(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	principal, ok := a.ensurePermission(w, r, identity.PermissionAssetRead)
	if !ok {
		return
	}
	link, err := a.assets.Download(r.Context(), principal, id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}
