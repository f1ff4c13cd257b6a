package identity

// Role is the closed set of operator roles. Permission sets are derived from
// the role once, below, not re-computed per request.
type Role string

const (
	RolePlatformAdmin  Role = "platform_admin"
	RoleAgencyAdmin    Role = "agency_admin"
	RoleContentManager Role = "content_manager"
	RoleClientApprover Role = "client_approver"
	RoleViewer         Role = "viewer"
)

// Permission keys gate every operation. PermissionWildcard satisfies any
// check and is held only by platform admins.
const (
	PermissionWildcard           = "*"
	PermissionBriefingCreate     = "briefing.create"
	PermissionBriefingRead       = "briefing.read"
	PermissionContentGenerate    = "content.generate"
	PermissionWorkflowRead       = "workflow.read"
	PermissionWorkflowTransition = "workflow.transition"
	PermissionWorkflowApprove    = "workflow.approve"
	PermissionCreativeGenerate   = "creative.generate"
	PermissionAssetRead          = "asset.read"
	PermissionUserRead           = "user.read"
)

var rolePermissions = buildRolePermissions()

func buildRolePermissions() map[Role]map[string]struct{} {
	grants := map[Role][]string{
		RolePlatformAdmin: {PermissionWildcard},
		RoleAgencyAdmin: {
			PermissionBriefingCreate,
			PermissionBriefingRead,
			PermissionContentGenerate,
			PermissionWorkflowRead,
			PermissionWorkflowTransition,
			PermissionCreativeGenerate,
			PermissionAssetRead,
			PermissionUserRead,
		},
		RoleContentManager: {
			PermissionBriefingCreate,
			PermissionBriefingRead,
			PermissionContentGenerate,
			PermissionWorkflowRead,
			PermissionWorkflowTransition,
			PermissionCreativeGenerate,
			PermissionAssetRead,
			PermissionUserRead,
		},
		RoleClientApprover: {
			PermissionBriefingRead,
			PermissionWorkflowRead,
			PermissionWorkflowApprove,
			PermissionAssetRead,
			PermissionUserRead,
		},
		RoleViewer: {
			PermissionBriefingRead,
			PermissionWorkflowRead,
			PermissionAssetRead,
			PermissionUserRead,
		},
	}
	out := make(map[Role]map[string]struct{}, len(grants))
	for role, keys := range grants {
		set := make(map[string]struct{}, len(keys))
		for _, k := range keys {
			set[k] = struct{}{}
		}
		out[role] = set
	}
	return out
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := rolePermissions[r]
	return ok
}

// Permissions returns the permission keys granted to the role, sorted-free;
// callers needing stable output should sort.
func (r Role) Permissions() []string {
	set, ok := rolePermissions[r]
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	return keys
}
