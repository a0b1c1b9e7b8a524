package hookrbac

func permSet(perms ...Permission) map[Permission]struct{} {
	set := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// DefaultRoles returns the five built-in roles every manager is seeded
// with: admin, hook_admin, developer, approver, viewer.
func DefaultRoles() []Role {
	return []Role{
		{
			Name:        "admin",
			Description: "Full system administrator",
			Permissions: permSet(PermissionSystemAdmin),
		},
		{
			Name:        "hook_admin",
			Description: "Hook system administrator",
			Permissions: permSet(
				PermissionCreateHook,
				PermissionDeleteHook,
				PermissionModifyHook,
				PermissionEnableHook,
				PermissionDisableHook,
				PermissionViewHook,
				PermissionManageSecurity,
				PermissionViewAuditLogs,
			),
		},
		{
			Name:        "developer",
			Description: "Developer with hook creation and modification rights",
			Permissions: permSet(
				PermissionCreateHook,
				PermissionModifyHook,
				PermissionViewHook,
				PermissionExecuteHook,
			),
		},
		{
			Name:        "approver",
			Description: "Can approve hook executions",
			Permissions: permSet(
				PermissionViewHook,
				PermissionApproveHookExecution,
				PermissionDenyHookExecution,
				PermissionViewAuditLogs,
			),
		},
		{
			Name:        "viewer",
			Description: "Read-only access to hooks",
			Permissions: permSet(
				PermissionViewHook,
				PermissionViewAuditLogs,
			),
		},
	}
}
