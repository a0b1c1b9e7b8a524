package hooksecurity

import "strings"

// Context carries the identity and trust boundaries a hook execution runs
// under: who is acting, what they're allowed to do, and which filesystem
// paths are considered trusted regardless of SecurityPolicy.AllowFileSystem.
type Context struct {
	UserID       string
	SessionID    string
	Permissions  map[string]struct{}
	TrustedPaths []string
}

// NewContext builds a Context from a permission set and trusted path list.
func NewContext(userID, sessionID string, permissions, trustedPaths []string) *Context {
	perms := make(map[string]struct{}, len(permissions))
	for _, p := range permissions {
		perms[p] = struct{}{}
	}
	return &Context{
		UserID:       userID,
		SessionID:    sessionID,
		Permissions:  perms,
		TrustedPaths: trustedPaths,
	}
}

// HasPermission reports whether the context holds permission, or holds
// the "admin" wildcard permission.
func (c *Context) HasPermission(permission string) bool {
	if _, ok := c.Permissions["admin"]; ok {
		return true
	}
	_, ok := c.Permissions[permission]
	return ok
}

// IsPathTrusted reports whether path falls under any trusted path prefix.
func (c *Context) IsPathTrusted(path string) bool {
	for _, trusted := range c.TrustedPaths {
		if strings.HasPrefix(path, trusted) {
			return true
		}
	}
	return false
}
