package identity

import (
	"context"
	"fmt"
)

// DemoPassword is the password shared by all seeded demo accounts.
const DemoPassword = "demo1234"

// Seed provisions the demo tenants and one user per role so a fresh instance
// is usable immediately. Safe to call only on an empty store.
func Seed(ctx context.Context, store Store) error {
	tenants := []*Tenant{
		{
			ID:   "platform",
			Name: "Socialloom Platform",
			Kind: TenantKindPlatform,
			Branding: Branding{
				PrimaryColor:   "#1a1a2e",
				SecondaryColor: "#e94560",
				CompanyName:    "Socialloom",
			},
		},
		{
			ID:   "agency-demo",
			Name: "Northwind Creative",
			Kind: TenantKindAgency,
			Branding: Branding{
				PrimaryColor:   "#0f3460",
				SecondaryColor: "#f5a623",
				CompanyName:    "Northwind Creative",
			},
		},
		{
			ID:   "client-demo",
			Name: "Aurora Beverages",
			Kind: TenantKindClient,
			Branding: Branding{
				PrimaryColor:   "#16a085",
				SecondaryColor: "#2c3e50",
				CompanyName:    "Aurora Beverages",
			},
		},
	}
	for _, t := range tenants {
		if err := store.Tenants().Create(ctx, t); err != nil {
			return fmt.Errorf("seed tenant %s: %w", t.ID, err)
		}
	}

	hash, err := HashPassword(DemoPassword)
	if err != nil {
		return fmt.Errorf("seed password: %w", err)
	}

	users := []*User{
		{Email: "admin@platform.com", DisplayName: "Platform Admin", Role: RolePlatformAdmin, TenantID: "platform"},
		{Email: "owner@agency.com", DisplayName: "Agency Owner", Role: RoleAgencyAdmin, TenantID: "agency-demo"},
		{Email: "manager@agency.com", DisplayName: "Content Manager", Role: RoleContentManager, TenantID: "agency-demo"},
		{Email: "viewer@agency.com", DisplayName: "Account Viewer", Role: RoleViewer, TenantID: "agency-demo"},
		{Email: "approver@client.com", DisplayName: "Client Approver", Role: RoleClientApprover, TenantID: "client-demo"},
	}
	for _, u := range users {
		u.PasswordHash = hash
		if err := store.Users().Create(ctx, u); err != nil {
			return fmt.Errorf("seed user %s: %w", u.Email, err)
		}
	}
	return nil
}
