package identity

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"socialloom.io/internal/ids"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store on PostgreSQL. Open the *sql.DB with the pgx
// stdlib driver.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Users() UserStore     { return &pgUserStore{db: s.db} }
func (s *PGStore) Tenants() TenantStore { return &pgTenantStore{db: s.db} }

// Tenant store --------------------------------------------------------------
type pgTenantStore struct{ db *sql.DB }

func (s *pgTenantStore) Create(ctx context.Context, t *Tenant) error {
	if t.ID == "" {
		t.ID = ids.New()
	}
	branding, _ := json.Marshal(t.Branding)
	_, err := s.db.ExecContext(ctx,
		`insert into tenants(id, name, kind, branding) values($1,$2,$3,$4)`,
		t.ID, t.Name, string(t.Kind), branding,
	)
	return err
}

func (s *pgTenantStore) Find(ctx context.Context, id string) (*Tenant, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, name, kind, branding, created_at from tenants where id=$1`, id)
	var (
		t        Tenant
		kind     string
		branding []byte
	)
	if err := row.Scan(&t.ID, &t.Name, &kind, &branding, &t.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	t.Kind = TenantKind(kind)
	_ = json.Unmarshal(branding, &t.Branding)
	return &t, nil
}

func (s *pgTenantStore) List(ctx context.Context) ([]*Tenant, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, name, kind, branding, created_at from tenants order by created_at asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*Tenant
	for rows.Next() {
		var (
			t        Tenant
			kind     string
			branding []byte
		)
		if err := rows.Scan(&t.ID, &t.Name, &kind, &branding, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Kind = TenantKind(kind)
		_ = json.Unmarshal(branding, &t.Branding)
		res = append(res, &t)
	}
	return res, rows.Err()
}

// User store ----------------------------------------------------------------
type pgUserStore struct{ db *sql.DB }

func (s *pgUserStore) Create(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = ids.New()
	}
	u.Email = strings.TrimSpace(strings.ToLower(u.Email))
	_, err := s.db.ExecContext(ctx,
		`insert into users(id, tenant_id, email, display_name, password_hash, role) values($1,$2,$3,$4,$5,$6)`,
		u.ID, u.TenantID, u.Email, u.DisplayName, u.PasswordHash, string(u.Role),
	)
	return err
}

func (s *pgUserStore) Find(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, tenant_id, email, display_name, password_hash, role, created_at from users where id=$1`, id)
	return scanUser(row)
}

func (s *pgUserStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	row := s.db.QueryRowContext(ctx,
		`select id, tenant_id, email, display_name, password_hash, role, created_at from users where email=$1`, email)
	return scanUser(row)
}

func (s *pgUserStore) ListByTenant(ctx context.Context, tenantID string) ([]*User, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, tenant_id, email, display_name, password_hash, role, created_at from users where tenant_id=$1 order by created_at`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		var (
			u    User
			role string
		)
		if err := rows.Scan(&u.ID, &u.TenantID, &u.Email, &u.DisplayName, &u.PasswordHash, &role, &u.CreatedAt); err != nil {
			return nil, err
		}
		u.Role = Role(role)
		users = append(users, &u)
	}
	return users, rows.Err()
}

func scanUser(row *sql.Row) (*User, error) {
	var (
		u    User
		role string
	)
	if err := row.Scan(&u.ID, &u.TenantID, &u.Email, &u.DisplayName, &u.PasswordHash, &role, &u.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.Role = Role(role)
	return &u, nil
}
