package hooksecurity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hookguard/hookguard/pkg/hooks/hookmodel"
)

func TestDangerousCommandDetection(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	assert.Error(t, v.ValidateCommand("rm"))
	assert.NoError(t, v.ValidateCommand("echo"))
	assert.Error(t, v.ValidateCommand("sudo"))
	assert.NoError(t, v.ValidateCommand("cargo"))
	assert.Error(t, v.ValidateCommand("curl"), "curl stays blocked by default")
	assert.Error(t, v.ValidateCommand("wget"), "wget stays blocked by default")
}

func TestURLValidation(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	assert.NoError(t, v.ValidateURL("https://api.github.com"))
	assert.NoError(t, v.ValidateURL("http://localhost:8080"))
	assert.Error(t, v.ValidateURL("ftp://example.com"))
	assert.Error(t, v.ValidateURL("file:///etc/passwd"))
}

func TestValidateHookActionCountLimit(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	hook := &hookmodel.Hook{
		ID:       "too-many-actions",
		Security: hookmodel.DefaultSecurityPolicy(),
	}
	for i := 0; i < hookmodel.MaxActions+1; i++ {
		hook.Actions = append(hook.Actions, hookmodel.ModifyContextAction{Operation: hookmodel.OpSet, Key: "x", Value: i})
	}

	err = v.ValidateHook(hook)
	assert.Error(t, err)
}

func TestValidateCommandActionBlockedByPolicy(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	policy := hookmodel.DefaultSecurityPolicy()
	policy.AllowedCommands = []string{"git"}

	assert.Error(t, v.validateCommandAction("npm", nil, &policy))
	assert.NoError(t, v.validateCommandAction("git", []string{"status"}, &policy))
}

func TestValidateHTTPActionRequiresNetworkAllowed(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	policy := hookmodel.DefaultSecurityPolicy()
	err = v.validateHTTPAction("https://api.github.com", &policy)
	assert.Error(t, err, "AllowNetwork defaults to false")

	policy.AllowNetwork = true
	policy.AllowedDomains = []string{"api.github.com"}
	assert.NoError(t, v.validateHTTPAction("https://api.github.com/repos", &policy))
	assert.Error(t, v.validateHTTPAction("https://evil.example.com", &policy))
}

func TestValidateSecurityPolicyExecutionTimeRange(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	policy := hookmodel.DefaultSecurityPolicy()
	policy.MaxExecutionTime = 0
	assert.Error(t, v.validateSecurityPolicy(&policy))

	policy.MaxExecutionTime = 3601
	assert.Error(t, v.validateSecurityPolicy(&policy))

	policy.MaxExecutionTime = 30
	assert.NoError(t, v.validateSecurityPolicy(&policy))
}

func TestSecurityContextPermissions(t *testing.T) {
	ctx := NewContext("user-1", "sess-1", []string{"hooks:read"}, []string{"/workspace"})
	assert.True(t, ctx.HasPermission("hooks:read"))
	assert.False(t, ctx.HasPermission("hooks:write"))
	assert.True(t, ctx.IsPathTrusted("/workspace/repo/file.go"))
	assert.False(t, ctx.IsPathTrusted("/etc/passwd"))

	admin := NewContext("admin-1", "sess-2", []string{"admin"}, nil)
	assert.True(t, admin.HasPermission("anything"))
}
