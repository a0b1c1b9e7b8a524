package hookrbac

// Permission is a hook operation a role/user may be granted. The closed
// set below mirrors the original enum; any other string value is treated
// as a custom permission (the original's Permission::Custom(name)).
type Permission string

const (
	PermissionCreateHook           Permission = "create_hook"
	PermissionDeleteHook           Permission = "delete_hook"
	PermissionModifyHook           Permission = "modify_hook"
	PermissionEnableHook           Permission = "enable_hook"
	PermissionDisableHook          Permission = "disable_hook"
	PermissionViewHook             Permission = "view_hook"
	PermissionExecuteHook          Permission = "execute_hook"
	PermissionApproveHookExecution Permission = "approve_hook_execution"
	PermissionDenyHookExecution    Permission = "deny_hook_execution"
	PermissionManageSecurity       Permission = "manage_security"
	PermissionViewAuditLogs        Permission = "view_audit_logs"
	PermissionManageApprovals      Permission = "manage_approvals"
	PermissionManageUsers          Permission = "manage_users"
	PermissionManageRoles          Permission = "manage_roles"
	PermissionManageTeams          Permission = "manage_teams"
	PermissionSystemAdmin          Permission = "system_admin"
)
