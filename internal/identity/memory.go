package identity

import (
	"context"
	"strings"
	"sync"
	"time"

	"socialloom.io/internal/ids"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore implements Store with in-process maps. This is the reference
// backing store; the service also ships a Postgres implementation.
type MemoryStore struct {
	mu          sync.RWMutex
	users       map[string]*User
	usersByMail map[string]*User
	userOrder   []string
	tenants     map[string]*Tenant
	tenantOrder []string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[string]*User),
		usersByMail: make(map[string]*User),
		tenants:     make(map[string]*Tenant),
	}
}

func (s *MemoryStore) Users() UserStore     { return (*memoryUserStore)(s) }
func (s *MemoryStore) Tenants() TenantStore { return (*memoryTenantStore)(s) }

type memoryUserStore MemoryStore

func (s *memoryUserStore) Create(ctx context.Context, u *User) error {
	if u == nil {
		return ErrInvalidInput
	}
	email := strings.TrimSpace(strings.ToLower(u.Email))
	if email == "" || u.TenantID == "" || !u.Role.Valid() {
		return ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.usersByMail[email]; exists {
		return ErrAlreadyExists
	}
	if u.ID == "" {
		u.ID = ids.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	u.Email = email
	stored := *u
	s.users[u.ID] = &stored
	s.usersByMail[email] = &stored
	s.userOrder = append(s.userOrder, u.ID)
	return nil
}

func (s *memoryUserStore) Find(ctx context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *u
	return &out, nil
}

func (s *memoryUserStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.usersByMail[email]
	if !ok {
		return nil, ErrNotFound
	}
	out := *u
	return &out, nil
}

func (s *memoryUserStore) ListByTenant(ctx context.Context, tenantID string) ([]*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []*User
	for _, id := range s.userOrder {
		u := s.users[id]
		if u.TenantID != tenantID {
			continue
		}
		out := *u
		res = append(res, &out)
	}
	return res, nil
}

type memoryTenantStore MemoryStore

func (s *memoryTenantStore) Create(ctx context.Context, t *Tenant) error {
	if t == nil || strings.TrimSpace(t.Name) == "" {
		return ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = ids.New()
	}
	if _, exists := s.tenants[t.ID]; exists {
		return ErrAlreadyExists
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	stored := *t
	s.tenants[t.ID] = &stored
	s.tenantOrder = append(s.tenantOrder, t.ID)
	return nil
}

func (s *memoryTenantStore) Find(ctx context.Context, id string) (*Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tenants[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *t
	return &out, nil
}

func (s *memoryTenantStore) List(ctx context.Context) ([]*Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]*Tenant, 0, len(s.tenantOrder))
	for _, id := range s.tenantOrder {
		out := *s.tenants[id]
		res = append(res, &out)
	}
	return res, nil
}
