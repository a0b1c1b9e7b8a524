// Package hookrbac implements role-based access control for the hook
// runtime: users, roles (with inheritance), teams, and per-team hook
// access rules layered on top of permission checks.
package hookrbac

import (
	"sync"
	"time"

	"github.com/hookguard/hookguard/pkg/hooks/hookerrors"
)

// Manager owns the user/role/team population and answers permission and
// hook-access checks against it.
type Manager struct {
	mu    sync.RWMutex
	users map[string]*User
	roles map[string]*Role
	teams map[string]*Team
}

// New returns an empty Manager. Call SeedDefaultRoles to install the five
// built-in roles before use.
func New() *Manager {
	return &Manager{
		users: make(map[string]*User),
		roles: make(map[string]*Role),
		teams: make(map[string]*Team),
	}
}

// SeedDefaultRoles installs the built-in admin/hook_admin/developer/
// approver/viewer roles, skipping any name already present.
func (m *Manager) SeedDefaultRoles() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, role := range DefaultRoles() {
		role := role
		if _, exists := m.roles[role.Name]; !exists {
			m.roles[role.Name] = &role
		}
	}
}

// CheckPermission reports whether user has permission, directly, through
// role/team inheritance, or (when hookID is non-empty) through hook-specific
// access rules as a fallback.
func (m *Manager) CheckPermission(userID string, permission Permission, hookID string) (bool, error) {
	m.mu.RLock()
	user, ok := m.users[userID]
	m.mu.RUnlock()
	if !ok {
		return false, hookerrors.New("check_permission", hookerrors.KindValidation, hookerrors.ErrNotFound).WithID(userID)
	}
	if !user.Active {
		return false, nil
	}

	if _, ok := user.DirectPermissions[permission]; ok {
		return true, nil
	}

	perms, err := m.userPermissions(user)
	if err != nil {
		return false, err
	}
	if _, ok := perms[permission]; ok {
		return true, nil
	}
	if _, ok := perms[PermissionSystemAdmin]; ok {
		return true, nil
	}

	if hookID != "" {
		return m.CheckHookAccess(userID, hookID)
	}

	return false, nil
}

// CheckHookAccess reports whether user may access the hook named hookID.
//
// The original scans a user's teams and returns on the first team with
// any non-default verdict — so an earlier team's allow can shadow a
// later team's explicit deny, contradicting the stated precedence
// (deny > allow > pattern > default-deny). This instead collects every
// team's verdict first, then applies that precedence globally.
func (m *Manager) CheckHookAccess(userID, hookID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[userID]
	if !ok {
		return false, hookerrors.New("check_hook_access", hookerrors.KindValidation, hookerrors.ErrNotFound).WithID(userID)
	}

	var anyDenied, anyAllowed, anyPatternMatch bool
	for teamName := range user.Teams {
		team, ok := m.teams[teamName]
		if !ok {
			continue
		}
		if _, denied := team.HookAccess.DeniedHooks[hookID]; denied {
			anyDenied = true
		}
		if _, allowed := team.HookAccess.AllowedHooks[hookID]; allowed {
			anyAllowed = true
		}
		for _, pattern := range team.HookAccess.HookPatterns {
			if matchesPattern(hookID, pattern) {
				anyPatternMatch = true
				break
			}
		}
	}

	switch {
	case anyDenied:
		return false, nil
	case anyAllowed:
		return true, nil
	case anyPatternMatch:
		return true, nil
	default:
		return false, nil
	}
}

func (m *Manager) userPermissions(user *User) (map[Permission]struct{}, error) {
	perms := make(map[Permission]struct{}, len(user.DirectPermissions))
	for p := range user.DirectPermissions {
		perms[p] = struct{}{}
	}

	for roleName := range user.Roles {
		role, ok := m.roles[roleName]
		if !ok {
			continue
		}
		resolved, err := m.resolveRolePermissions(role, map[string]struct{}{})
		if err != nil {
			return nil, err
		}
		for p := range resolved {
			perms[p] = struct{}{}
		}
	}

	for teamName := range user.Teams {
		team, ok := m.teams[teamName]
		if !ok {
			continue
		}
		for roleName := range team.Roles {
			role, ok := m.roles[roleName]
			if !ok {
				continue
			}
			resolved, err := m.resolveRolePermissions(role, map[string]struct{}{})
			if err != nil {
				return nil, err
			}
			for p := range resolved {
				perms[p] = struct{}{}
			}
		}
	}

	return perms, nil
}

// resolveRolePermissions walks a role's inheritance chain, carrying a
// visited set so a cyclic role graph (which the original has no defense
// against) degrades to "stop revisiting" instead of infinite recursion.
func (m *Manager) resolveRolePermissions(role *Role, visited map[string]struct{}) (map[Permission]struct{}, error) {
	if _, seen := visited[role.Name]; seen {
		return map[Permission]struct{}{}, nil
	}
	visited[role.Name] = struct{}{}

	perms := make(map[Permission]struct{}, len(role.Permissions))
	for p := range role.Permissions {
		perms[p] = struct{}{}
	}

	for _, inheritedName := range role.Inherits {
		inherited, ok := m.roles[inheritedName]
		if !ok {
			continue
		}
		resolved, err := m.resolveRolePermissions(inherited, visited)
		if err != nil {
			return nil, err
		}
		for p := range resolved {
			perms[p] = struct{}{}
		}
	}

	return perms, nil
}

// wouldCycle reports whether setting role.Inherits as given would create a
// cycle reachable from role.Name, checked before the role is committed.
func wouldCycle(roles map[string]*Role, name string, inherits []string) bool {
	visited := map[string]struct{}{name: {}}
	var dfs func(names []string) bool
	dfs = func(names []string) bool {
		for _, n := range names {
			if _, seen := visited[n]; seen {
				return true
			}
			visited[n] = struct{}{}
			if r, ok := roles[n]; ok {
				if dfs(r.Inherits) {
					return true
				}
			}
			delete(visited, n)
		}
		return false
	}
	return dfs(inherits)
}

// CreateUser registers a new user. Returns an error if the id is taken.
func (m *Manager) CreateUser(user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.users[user.ID]; exists {
		return hookerrors.New("create_user", hookerrors.KindValidation, hookerrors.ErrDuplicateID).WithID(user.ID)
	}
	m.users[user.ID] = user
	return nil
}

// GetUser returns the user with the given id, if any.
func (m *Manager) GetUser(userID string) (*User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[userID]
	return u, ok
}

// UpdateUser replaces the stored user record.
func (m *Manager) UpdateUser(user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[user.ID]; !exists {
		return hookerrors.New("update_user", hookerrors.KindValidation, hookerrors.ErrNotFound).WithID(user.ID)
	}
	m.users[user.ID] = user
	return nil
}

// DeleteUser removes a user.
func (m *Manager) DeleteUser(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, userID)
}

// CreateRole registers a new role, rejecting a graph that would cycle.
func (m *Manager) CreateRole(role *Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.roles[role.Name]; exists {
		return hookerrors.New("create_role", hookerrors.KindValidation, hookerrors.ErrDuplicateID).WithID(role.Name)
	}

	proposed := make(map[string]*Role, len(m.roles)+1)
	for k, v := range m.roles {
		proposed[k] = v
	}
	proposed[role.Name] = role
	if wouldCycle(proposed, role.Name, role.Inherits) {
		return hookerrors.New("create_role", hookerrors.KindInternalInvariant, hookerrors.ErrCycle).WithID(role.Name)
	}

	m.roles[role.Name] = role
	return nil
}

// GetRole returns the role with the given name, if any.
func (m *Manager) GetRole(name string) (*Role, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.roles[name]
	return r, ok
}

// UpdateRole replaces a role's definition, rejecting a change that would
// introduce an inheritance cycle.
func (m *Manager) UpdateRole(role *Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	proposed := make(map[string]*Role, len(m.roles))
	for k, v := range m.roles {
		proposed[k] = v
	}
	proposed[role.Name] = role
	if wouldCycle(proposed, role.Name, role.Inherits) {
		return hookerrors.New("update_role", hookerrors.KindInternalInvariant, hookerrors.ErrCycle).WithID(role.Name)
	}

	m.roles[role.Name] = role
	return nil
}

// DeleteRole removes a role definition.
func (m *Manager) DeleteRole(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.roles, name)
}

// CreateTeam registers a new team.
func (m *Manager) CreateTeam(team *Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.teams[team.Name]; exists {
		return hookerrors.New("create_team", hookerrors.KindValidation, hookerrors.ErrDuplicateID).WithID(team.Name)
	}
	m.teams[team.Name] = team
	return nil
}

// GetTeam returns the team with the given name, if any.
func (m *Manager) GetTeam(name string) (*Team, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.teams[name]
	return t, ok
}

// UpdateTeam replaces a team's definition.
func (m *Manager) UpdateTeam(team *Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teams[team.Name] = team
	return nil
}

// DeleteTeam removes a team.
func (m *Manager) DeleteTeam(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.teams, name)
}

// AddUserToTeam adds userID to team's members and team to the user's teams.
func (m *Manager) AddUserToTeam(userID, teamName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	team, ok := m.teams[teamName]
	if !ok {
		return hookerrors.New("add_user_to_team", hookerrors.KindValidation, hookerrors.ErrNotFound).WithID(teamName)
	}
	user, ok := m.users[userID]
	if !ok {
		return hookerrors.New("add_user_to_team", hookerrors.KindValidation, hookerrors.ErrNotFound).WithID(userID)
	}

	team.Members[userID] = struct{}{}
	user.Teams[teamName] = struct{}{}
	return nil
}

// RemoveUserFromTeam removes the membership in both directions, tolerant
// of either side already being absent.
func (m *Manager) RemoveUserFromTeam(userID, teamName string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if team, ok := m.teams[teamName]; ok {
		delete(team.Members, userID)
	}
	if user, ok := m.users[userID]; ok {
		delete(user.Teams, teamName)
	}
}

// AssignRole grants roleName to userID, failing if the role doesn't exist.
func (m *Manager) AssignRole(userID, roleName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return hookerrors.New("assign_role", hookerrors.KindValidation, hookerrors.ErrNotFound).WithID(userID)
	}
	if _, ok := m.roles[roleName]; !ok {
		return hookerrors.New("assign_role", hookerrors.KindValidation, hookerrors.ErrNotFound).WithID(roleName)
	}
	user.Roles[roleName] = struct{}{}
	return nil
}

// RemoveRole revokes roleName from userID.
func (m *Manager) RemoveRole(userID, roleName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return hookerrors.New("remove_role", hookerrors.KindValidation, hookerrors.ErrNotFound).WithID(userID)
	}
	delete(user.Roles, roleName)
	return nil
}

// ListUsers returns every user.
func (m *Manager) ListUsers() []*User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out
}

// ListRoles returns every role.
func (m *Manager) ListRoles() []*Role {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Role, 0, len(m.roles))
	for _, r := range m.roles {
		out = append(out, r)
	}
	return out
}

// ListTeams returns every team.
func (m *Manager) ListTeams() []*Team {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Team, 0, len(m.teams))
	for _, t := range m.teams {
		out = append(out, t)
	}
	return out
}

// GetStatistics summarizes the manager's current population.
func (m *Manager) GetStatistics() Statistics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := Statistics{
		TotalUsers: len(m.users),
		TotalRoles: len(m.roles),
		TotalTeams: len(m.teams),
	}
	for _, u := range m.users {
		if u.Active {
			stats.ActiveUsers++
		}
		if len(u.Teams) > 0 {
			stats.UsersWithTeams++
		}
		if len(u.Roles) > 0 {
			stats.UsersWithRoles++
		}
	}
	return stats
}

// NewUser constructs a User with CreatedAt stamped to now.
func NewUser(id, name, email string) *User {
	return &User{
		ID:                id,
		Name:              name,
		Email:             email,
		Roles:             map[string]struct{}{},
		Teams:             map[string]struct{}{},
		DirectPermissions: map[Permission]struct{}{},
		Active:            true,
		CreatedAt:         time.Now().UTC(),
	}
}
