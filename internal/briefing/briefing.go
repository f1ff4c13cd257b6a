// Package briefing holds the campaign briefs that gate content generation.
// Briefings are append-only: the reference behavior exposes no update or
// delete.
package briefing

import (
	"errors"
	"time"
)

var (
	ErrTemplateNotFound = errors.New("briefing: template not found")
	ErrNotFound         = errors.New("briefing: not found")
	ErrInvalidInput     = errors.New("briefing: invalid input")
)

// Data is the structured free-form part of a brief.
type Data struct {
	Objective string   `json:"objective"`
	Audience  string   `json:"audience"`
	Tone      string   `json:"tone"`
	Platforms []string `json:"platforms"`
	Keywords  []string `json:"keywords"`
}

// Briefing is a creative brief owned by one tenant.
type Briefing struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	UserID     string    `json:"user_id"`
	TemplateID string    `json:"template_id"`
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	Data       Data      `json:"data"`
	CreatedAt  time.Time `json:"created_at"`
}

// Owner implements tenant.Entity.
func (b *Briefing) Owner() string { return b.TenantID }

// Clone implements tenant.Entity with a deep copy.
func (b *Briefing) Clone() *Briefing {
	out := *b
	out.Data.Platforms = append([]string(nil), b.Data.Platforms...)
	out.Data.Keywords = append([]string(nil), b.Data.Keywords...)
	return &out
}

// StatusActive is the only status the reference behavior assigns.
const StatusActive = "active"

// Template is a known briefing schema operators pick from.
type Template struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Templates is the closed template catalog, in display order.
var Templates = []Template{
	{ID: "product-launch", Name: "Product Launch", Description: "Introduce a new product across channels"},
	{ID: "brand-awareness", Name: "Brand Awareness", Description: "Sustained visibility and reach campaign"},
	{ID: "seasonal-push", Name: "Seasonal Push", Description: "Time-boxed seasonal or holiday campaign"},
	{ID: "community-engagement", Name: "Community Engagement", Description: "Conversation-driven audience building"},
}

var templatesByID = func() map[string]Template {
	m := make(map[string]Template, len(Templates))
	for _, t := range Templates {
		m[t.ID] = t
	}
	return m
}()

// TemplateByID resolves a template id against the catalog.
func TemplateByID(id string) (Template, bool) {
	t, ok := templatesByID[id]
	return t, ok
}
