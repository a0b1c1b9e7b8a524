package hookrbac

import "time"

// Role groups permissions, optionally inheriting from other roles.
type Role struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Permissions map[Permission]struct{} `json:"permissions"`
	Inherits    []string          `json:"inherits,omitempty"`
}

// User is a principal with direct permissions plus role and team membership.
type User struct {
	ID                 string                   `json:"id"`
	Name               string                   `json:"name"`
	Email              string                   `json:"email,omitempty"`
	Roles              map[string]struct{}      `json:"roles"`
	Teams              map[string]struct{}      `json:"teams"`
	DirectPermissions  map[Permission]struct{}  `json:"direct_permissions"`
	Active             bool                     `json:"active"`
	CreatedAt          time.Time                `json:"created_at"`
}

// HookAccess scopes a team's access to specific hooks by id or name
// pattern. The zero value denies everything; NewDefaultHookAccess grants
// everything via the "*" pattern, matching the original's Default impl.
type HookAccess struct {
	AllowedHooks map[string]struct{} `json:"allowed_hooks"`
	DeniedHooks  map[string]struct{} `json:"denied_hooks"`
	HookPatterns []string            `json:"hook_patterns"`
}

// NewDefaultHookAccess returns a HookAccess that allows every hook.
func NewDefaultHookAccess() HookAccess {
	return HookAccess{
		AllowedHooks: map[string]struct{}{},
		DeniedHooks:  map[string]struct{}{},
		HookPatterns: []string{"*"},
	}
}

// Team groups users under shared roles and hook access rules.
type Team struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Roles       map[string]struct{} `json:"roles"`
	Members     map[string]struct{} `json:"members"`
	HookAccess  HookAccess          `json:"hook_access"`
}

// Statistics summarizes the RBAC manager's current population.
type Statistics struct {
	TotalUsers     int `json:"total_users"`
	ActiveUsers    int `json:"active_users"`
	TotalRoles     int `json:"total_roles"`
	TotalTeams     int `json:"total_teams"`
	UsersWithTeams int `json:"users_with_teams"`
	UsersWithRoles int `json:"users_with_roles"`
}
