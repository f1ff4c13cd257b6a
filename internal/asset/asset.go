// Package asset produces simulated creative media tied to a workflow. Images
// are generated synchronously; videos follow the deferred
// processing-to-completed pattern of generation sessions.
package asset

import (
	"errors"
	"time"
)

// Kind distinguishes the two creative types.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// Status is the asset lifecycle position. Images are born in
// StatusGenerated; videos pass through StatusProcessing first.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusGenerated  Status = "generated"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var (
	ErrNotFound     = errors.New("asset: not found")
	ErrInvalidInput = errors.New("asset: invalid input")
)

// Asset is one produced media artifact.
type Asset struct {
	ID              string     `json:"id"`
	TenantID        string     `json:"tenant_id"`
	WorkflowID      string     `json:"workflow_id"`
	Kind            Kind       `json:"kind"`
	Status          Status     `json:"status"`
	Platform        string     `json:"platform,omitempty"`
	Prompt          string     `json:"prompt,omitempty"`
	Script          string     `json:"script,omitempty"`
	AvatarType      string     `json:"avatar_type,omitempty"`
	MediaURL        string     `json:"media_url,omitempty"`
	ThumbnailURL    string     `json:"thumbnail_url,omitempty"`
	DurationSeconds int        `json:"duration_seconds,omitempty"`
	FailureReason   string     `json:"failure_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// Owner implements tenant.Entity.
func (a *Asset) Owner() string { return a.TenantID }

// Clone implements tenant.Entity with a deep copy.
func (a *Asset) Clone() *Asset {
	out := *a
	if a.CompletedAt != nil {
		completed := *a.CompletedAt
		out.CompletedAt = &completed
	}
	return &out
}

// DownloadLink references already-produced media. Download never blocks on a
// pending generation: a still-processing video yields an empty URL.
type DownloadLink struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}
