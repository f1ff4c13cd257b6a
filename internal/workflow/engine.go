package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"socialloom.io/internal/identity"
	"socialloom.io/internal/ids"
	"socialloom.io/internal/tenant"
)

// Engine advances workflows through the state machine and keeps their
// auditable history.
type Engine struct {
	repo *tenant.Repo[*Workflow]
	now  func() time.Time
}

// NewEngine constructs the engine over its tenant-scoped repository.
func NewEngine(repo *tenant.Repo[*Workflow]) (*Engine, error) {
	if repo == nil {
		return nil, errors.New("workflow repo is required")
	}
	return &Engine{repo: repo, now: time.Now}, nil
}

// Begin creates a workflow in the generation state. Called by the generation
// session manager when a session completes; actor is the user that started
// the session.
func (e *Engine) Begin(tenantID, sessionID, briefingID, actor string, content Content) *Workflow {
	now := e.now().UTC()
	w := &Workflow{
		ID:         ids.New(),
		TenantID:   tenantID,
		SessionID:  sessionID,
		BriefingID: briefingID,
		State:      StateGeneration,
		Content:    content,
		History: []HistoryEntry{{
			State:   StateGeneration,
			At:      now,
			Actor:   actor,
			Comment: "content generated",
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	e.repo.Insert(w.ID, w)
	return w
}

// List returns the caller's tenant workflows in creation order.
func (e *Engine) List(ctx context.Context, p identity.Principal) []*Workflow {
	return e.repo.List(p.TenantID)
}

// Get resolves one workflow within the caller's tenant.
func (e *Engine) Get(ctx context.Context, p identity.Principal, id string) (*Workflow, error) {
	w, err := e.repo.Get(p.TenantID, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return w, nil
}

// Transition moves the workflow to target and appends a history entry with
// the acting user. Illegal moves fail with ErrInvalidTransition before
// anything is mutated.
func (e *Engine) Transition(ctx context.Context, p identity.Principal, id string, target State, comment string) (*Workflow, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("%w: unknown state %q", ErrInvalidTransition, target)
	}
	comment = strings.TrimSpace(comment)
	updated, err := e.repo.Update(p.TenantID, id, func(w *Workflow) (*Workflow, error) {
		if !w.State.CanTransition(target) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, w.State, target)
		}
		now := e.now().UTC()
		w.History = append(w.History, HistoryEntry{
			State:   target,
			At:      now,
			Actor:   p.UserID,
			Comment: comment,
		})
		w.State = target
		w.UpdatedAt = now
		return w, nil
	})
	if err != nil {
		if errors.Is(err, tenant.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Approve is the client-approver entry point: approval -> ready_for_download.
func (e *Engine) Approve(ctx context.Context, p identity.Principal, id, comment string) (*Workflow, error) {
	if comment == "" {
		comment = "approved"
	}
	return e.Transition(ctx, p, id, StateReadyForDownload, comment)
}

// RequestChanges is the client-approver entry point: approval -> adjustments.
func (e *Engine) RequestChanges(ctx context.Context, p identity.Principal, id, comment string) (*Workflow, error) {
	if comment == "" {
		comment = "changes requested"
	}
	return e.Transition(ctx, p, id, StateAdjustments, comment)
}
