// Package workflow tracks a generated content draft through its approval
// lifecycle. The state machine is restricted: only the transitions listed in
// the table below are legal.
package workflow

import (
	"errors"
	"time"
)

// State is the lifecycle position of a content draft.
type State string

const (
	StateGeneration       State = "generation"
	StateAdjustments      State = "adjustments"
	StateApproval         State = "approval"
	StateReadyForDownload State = "ready_for_download"
)

// legalTransitions restricts the reachable states. ready_for_download is
// terminal.
var legalTransitions = map[State][]State{
	StateGeneration:  {StateAdjustments, StateApproval},
	StateAdjustments: {StateApproval},
	StateApproval:    {StateAdjustments, StateReadyForDownload},
}

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	switch s {
	case StateGeneration, StateAdjustments, StateApproval, StateReadyForDownload:
		return true
	}
	return false
}

// CanTransition reports whether the move from s to target is legal.
func (s State) CanTransition(target State) bool {
	for _, next := range legalTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

var (
	ErrNotFound          = errors.New("workflow: not found")
	ErrInvalidTransition = errors.New("workflow: invalid transition")
)

// Content is the draft payload carried by a workflow.
type Content struct {
	Text     string   `json:"text"`
	Hashtags []string `json:"hashtags"`
}

// HistoryEntry records one state change. History is append-only and never
// reordered; the workflow's current state is always the state of the last
// entry.
type HistoryEntry struct {
	State   State     `json:"state"`
	At      time.Time `json:"at"`
	Actor   string    `json:"actor"`
	Comment string    `json:"comment,omitempty"`
}

// Workflow is the lifecycle tracker for one content draft.
type Workflow struct {
	ID         string         `json:"id"`
	TenantID   string         `json:"tenant_id"`
	SessionID  string         `json:"session_id"`
	BriefingID string         `json:"briefing_id"`
	State      State          `json:"state"`
	Content    Content        `json:"content"`
	History    []HistoryEntry `json:"history"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Owner implements tenant.Entity.
func (w *Workflow) Owner() string { return w.TenantID }

// Clone implements tenant.Entity: a deep copy safe to hand to callers while
// the stored record keeps being mutated under the repository lock.
func (w *Workflow) Clone() *Workflow {
	out := *w
	out.History = make([]HistoryEntry, len(w.History))
	copy(out.History, w.History)
	out.Content.Hashtags = append([]string(nil), w.Content.Hashtags...)
	return &out
}
