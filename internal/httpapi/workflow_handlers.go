package httpapi

import (
	"net/http"
	"strings"

	"socialloom.io/internal/identity"
	"socialloom.io/internal/workflow"
)

type transitionRequest struct {
	State   string `json:"state"`
	Comment string `json:"comment"`
}

type approvalRequest struct {
	Comment string `json:"comment"`
}

func (a *API) handleWorkflows(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	principal, ok := a.ensurePermission(w, r, identity.PermissionWorkflowRead)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"workflows": a.workflows.List(r.Context(), principal),
	})
}

func (a *API) handleWorkflowResource(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/workflows/"), "/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	parts := strings.Split(path, "/")
	switch {
	case len(parts) == 1:
		a.handleWorkflowGet(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "transition":
		a.handleWorkflowTransition(w, r, parts[0])
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) handleWorkflowGet(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	principal, ok := a.ensurePermission(w, r, identity.PermissionWorkflowRead)
	if !ok {
		return
	}
	wf, err := a.workflows.Get(r.Context(), principal, id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wf)
}

func (a *API) handleWorkflowTransition(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	principal, ok := a.ensurePermission(w, r, identity.PermissionWorkflowTransition)
	if !ok {
		return
	}
	var req transitionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	wf, err := a.workflows.Transition(r.Context(), principal, id, workflow.State(req.State), req.Comment)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	a.auditEvent(r.Context(), "workflow.transition", "workflow", wf.ID, map[string]string{
		"state": string(wf.State),
	})
	writeJSON(w, http.StatusOK, wf)
}

// handleApprovalResource routes the client-approver entry points
// /approval/{id}/approve and /approval/{id}/request-changes.
func (a *API) handleApprovalResource(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/approval/"), "/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	principal, ok := a.ensurePermission(w, r, identity.PermissionWorkflowApprove)
	if !ok {
		return
	}
	var req approvalRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}

	var (
		wf     *workflow.Workflow
		err    error
		action string
	)
	switch parts[1] {
	case "approve":
		wf, err = a.workflows.Approve(r.Context(), principal, parts[0], req.Comment)
		action = "workflow.approve"
	case "request-changes":
		wf, err = a.workflows.RequestChanges(r.Context(), principal, parts[0], req.Comment)
		action = "workflow.request_changes"
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	a.auditEvent(r.Context(), action, "workflow", wf.ID, map[string]string{
		"state": string(wf.State),
	})
	writeJSON(w, http.StatusOK, wf)
}
