package briefing

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

// Service is the briefing registry.
type Service struct {
	repo *tenant.Repo[*Briefing]
	now  func() time.Time
}

// NewService constructs the registry over its tenant-scoped repository.
func NewService(repo *tenant.Repo[*Briefing]) (*Service, error) {
	if repo == nil {
		return nil, errors.New("briefing repo is required")
	}
	return &Service{repo: repo, now: time.Now}, nil
}

// Create validates the template and stores a new active briefing tagged with
// the caller's tenant.
func (s *Service) Create(ctx context.Context, p identity.Principal, templateID, name string, data Data) (*Briefing, error) {
	templateID = strings.TrimSpace(templateID)
	if templateID == "" {
		return nil, fmt.Errorf("%w: template_id is required", ErrInvalidInput)
	}
	if _, ok := TemplateByID(templateID); !ok {
		return nil, ErrTemplateNotFound
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	b := &Briefing{
		ID:         ids.New(),
		TenantID:   p.TenantID,
		UserID:     p.UserID,
		TemplateID: templateID,
		Name:       name,
		Status:     StatusActive,
		Data:       data,
		CreatedAt:  s.now().UTC(),
	}
	s.repo.Insert(b.ID, b)
	return b, nil
}

// List returns the caller's tenant briefings in creation order.
func (s *Service) List(ctx context.Context, p identity.Principal) []*Briefing {
	return s.repo.List(p.TenantID)
}

// Get resolves one briefing within the caller's tenant. Absent and foreign
// ids fail identically.
func (s *Service) Get(ctx context.Context, p identity.Principal, id string) (*Briefing, error) {
	b, err := s.repo.Get(p.TenantID, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return b, nil
}
