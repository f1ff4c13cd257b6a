// Package tenant provides the generic tenant-scoped collection every mutable
// entity lives in. Scoping is enforced here, inside the repository, so
// handlers cannot forget it.
package tenant

import (
	"errors"
	"sync"
)

// ErrNotFound is returned both for ids that do not exist and for ids owned by
// another tenant. The two cases are deliberately indistinguishable so
// existence never leaks across tenants.
var ErrNotFound = errors.New("tenant: not found")

// Entity is any record owned by exactly one tenant. Clone must return a deep
// copy; the repository clones on every boundary crossing so callers never
// share memory with a record a deferred completion is mutating.
type Entity[T any] interface {
	Owner() string
	Clone() T
}

// Repo stores records of one entity type keyed by id, scoped by tenant.
// Insertion order is preserved for listing. All operations are safe for
// concurrent use; records enter and leave as clones taken under the lock, so
// a reader can never observe a half-applied Update.
type Repo[T Entity[T]] struct {
	mu    sync.RWMutex
	byID  map[string]T
	order []string
}

// NewRepo creates an empty repository.
func NewRepo[T Entity[T]]() *Repo[T] {
	return &Repo[T]{byID: make(map[string]T)}
}

// Insert appends a clone of the record under the given id; the caller keeps
// sole ownership of its argument. The id must be fresh; reusing one replaces
// nothing and is a programming error guarded by the panic.
func (r *Repo[T]) Insert(id string, record T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[id]; exists {
		panic("tenant: duplicate id " + id)
	}
	r.byID[id] = record.Clone()
	r.order = append(r.order, id)
}

// Get returns a clone of the record when it exists and belongs to tenantID,
// and ErrNotFound otherwise.
func (r *Repo[T]) Get(tenantID, id string) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var zero T
	record, ok := r.byID[id]
	if !ok || record.Owner() != tenantID {
		return zero, ErrNotFound
	}
	return record.Clone(), nil
}

// List returns clones of all records owned by tenantID in insertion order.
func (r *Repo[T]) List(tenantID string) []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var res []T
	for _, id := range r.order {
		record := r.byID[id]
		if record.Owner() == tenantID {
			res = append(res, record.Clone())
		}
	}
	return res
}

// All returns clones of every record regardless of tenant, in insertion
// order. Reserved for system-level callers: the platform aggregate view and
// the reaper.
func (r *Repo[T]) All() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]T, 0, len(r.order))
	for _, id := range r.order {
		res = append(res, r.byID[id].Clone())
	}
	return res
}

// Update re-validates tenant ownership and applies fn to the record under the
// write lock. fn receives the stored record and returns the replacement; an
// error from fn aborts the update with nothing mutated. The returned record
// is a clone taken before the lock is released.
func (r *Repo[T]) Update(tenantID, id string, fn func(T) (T, error)) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var zero T
	record, ok := r.byID[id]
	if !ok || record.Owner() != tenantID {
		return zero, ErrNotFound
	}
	updated, err := fn(record)
	if err != nil {
		return zero, err
	}
	r.byID[id] = updated
	return updated.Clone(), nil
}
