package identity

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Service is the authenticator: it verifies credentials, issues session
// tokens and turns bearer tokens back into principals.
type Service struct {
	store  Store
	signer *TokenSigner
}

// NewService constructs the identity service.
func NewService(store Store, signer *TokenSigner) (*Service, error) {
	if store == nil {
		return nil, errors.New("identity store is required")
	}
	if signer == nil {
		return nil, errors.New("token signer is required")
	}
	return &Service{store: store, signer: signer}, nil
}

// LoginResult carries the issued token and the public slice of the user
// record returned to the caller.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *User     `json:"user"`
}

// Login verifies credentials and issues a signed session token. Unknown
// email and wrong password both fail with ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}
	user, err := s.store.Users().FindByEmail(ctx, email)
	if err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}
	token, expiresAt, err := s.signer.Sign(user)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Authenticate validates a bearer token and returns the principal it encodes.
// No store lookup happens here: tokens are stateless for their lifetime.
func (s *Service) Authenticate(ctx context.Context, token string) (Principal, error) {
	claims, err := s.signer.Verify(token)
	if err != nil {
		return Principal{}, err
	}
	return NewPrincipal(claims.Subject, claims.Email, claims.TenantID, Role(claims.Role), claims.Permissions), nil
}

// Profile resolves the principal's user record and tenant (with branding).
func (s *Service) Profile(ctx context.Context, p Principal) (*User, *Tenant, error) {
	user, err := s.store.Users().Find(ctx, p.UserID)
	if err != nil {
		return nil, nil, err
	}
	tenant, err := s.store.Tenants().Find(ctx, user.TenantID)
	if err != nil {
		return nil, nil, err
	}
	return user, tenant, nil
}

// Tenants lists all tenants. Platform-admin aggregate view only; the caller
// is expected to have passed the wildcard permission check.
func (s *Service) Tenants(ctx context.Context) ([]*Tenant, error) {
	return s.store.Tenants().List(ctx)
}
