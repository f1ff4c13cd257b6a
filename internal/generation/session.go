// Package generation simulates multi-agent content production. A session is
// created synchronously in "processing" and completed exactly once by a
// deferred task that synthesizes the draft and opens its workflow.
package generation

import (
	"errors"
	"time"
)

// Status is the session lifecycle position.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var (
	ErrBriefingRequired = errors.New("generation: briefing is required")
	ErrBriefingNotFound = errors.New("generation: briefing not found")
	ErrSessionNotFound  = errors.New("generation: session not found")
	ErrInvalidInput     = errors.New("generation: invalid input")
)

// Agent is one simulated participant in the debate.
type Agent struct {
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
}

// Content is the synthesized draft a completed session produces.
type Content struct {
	Text      string   `json:"text"`
	Hashtags  []string `json:"hashtags"`
	Platforms []string `json:"platforms"`
}

// Session is one asynchronous unit of simulated content production. It is
// mutated exactly once after creation, by the deferred completion.
type Session struct {
	ID            string     `json:"id"`
	TenantID      string     `json:"tenant_id"`
	UserID        string     `json:"user_id"`
	BriefingID    string     `json:"briefing_id"`
	Subject       string     `json:"subject"`
	Status        Status     `json:"status"`
	Agents        []Agent    `json:"agents"`
	Rounds        int        `json:"rounds"`
	Platforms     []string   `json:"platforms"`
	Result        *Content   `json:"result,omitempty"`
	WorkflowID    string     `json:"workflow_id,omitempty"`
	FailureReason string     `json:"failure_reason,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// Owner implements tenant.Entity.
func (s *Session) Owner() string { return s.TenantID }

// Clone implements tenant.Entity with a deep copy.
func (s *Session) Clone() *Session {
	out := *s
	out.Agents = append([]Agent(nil), s.Agents...)
	out.Platforms = append([]string(nil), s.Platforms...)
	if s.Result != nil {
		result := *s.Result
		result.Hashtags = append([]string(nil), s.Result.Hashtags...)
		result.Platforms = append([]string(nil), s.Result.Platforms...)
		out.Result = &result
	}
	if s.CompletedAt != nil {
		completed := *s.CompletedAt
		out.CompletedAt = &completed
	}
	return &out
}

// specialties is the fixed roster pool; a session gets
// min(requested, len(specialties)) agents.
var specialties = []string{"strategy", "copywriting", "design", "analytics", "community"}
