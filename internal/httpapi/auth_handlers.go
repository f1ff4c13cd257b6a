package httpapi

import (
	"net/http"

	"socialloom.io/internal/identity"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	res, err := a.identity.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	a.auditEvent(r.Context(), "auth.login", "user", res.User.ID, map[string]string{
		"tenant_id": res.User.TenantID,
		"role":      string(res.User.Role),
	})
	writeJSON(w, http.StatusOK, res)
}

func (a *API) handleProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	principal, ok := a.ensurePermission(w, r, identity.PermissionUserRead)
	if !ok {
		return
	}
	user, tenant, err := a.identity.Profile(r.Context(), principal)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":   user,
		"tenant": tenant,
	})
}

// handleTenants is the platform-admin aggregate view.
func (a *API) handleTenants(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if _, ok := a.ensurePermission(w, r, identity.PermissionWildcard); !ok {
		return
	}
	tenants, err := a.identity.Tenants(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tenants": tenants})
}
