// Package hooksecurity performs static validation of a Hook's actions and
// SecurityPolicy at registration time, and runtime re-validation of
// individual commands, script languages, and URLs at execution time.
package hooksecurity

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/hookguard/hookguard/pkg/hooks/hookerrors"
	"github.com/hookguard/hookguard/pkg/hooks/hookmodel"
)

// maxActionCount mirrors hookmodel.MaxActions; kept local so the validator
// does not need hookmodel for anything but the types it validates.
const maxActionCount = hookmodel.MaxActions

// DefaultDangerousCommands is the default command blocklist. curl and wget
// are included: the original hook security module's actual set blocks
// them even though an adjacent comment there claims they are "allowed but
// validated" — no such validation exists, so this keeps the real behavior.
var DefaultDangerousCommands = []string{
	"rm", "del", "rmdir", "format", "dd", "mkfs", "fdisk", "chmod", "chown", "chgrp",
	"kill", "killall", "pkill", "shutdown", "reboot", "halt", "passwd", "useradd",
	"userdel", "sudo", "su", "doas", "nc", "netcat", "ncat", "curl", "wget",
}

var defaultDangerousPatterns = []string{
	`rm\s+-rf\s+/`,
	`:\(\)\{\s*:\|:&\s*\};:`,
	`>\s*/dev/sd[a-z]`,
	`dd\s+if=/dev/zero`,
	`/etc/passwd`,
	`/etc/shadow`,
	`base64\s+-d.*sh`,
	`eval\s*\(`,
	`exec\s*\(`,
}

var defaultShellConstructs = []string{"eval ", "source /dev/stdin", "bash -c", "sh -c"}

var defaultPythonConstructs = []string{
	"eval(", "exec(", "__import__", "compile(", "open('/etc/passwd'", "subprocess.call(['rm'",
}

var defaultJavaScriptConstructs = []string{
	"eval(", "Function(", "require('child_process')", "exec(", "spawn(",
}

var defaultAllowedScriptLanguages = map[string]struct{}{
	"bash": {}, "sh": {}, "python": {}, "javascript": {}, "js": {}, "ruby": {},
}

// Validator checks hooks and individual actions against the dangerous
// command/pattern lists and a hook's own SecurityPolicy.
type Validator struct {
	dangerousCommands map[string]struct{}
	dangerousPatterns []*regexp.Regexp
}

// NewValidator compiles the default dangerous-pattern set. It only fails
// if one of the built-in patterns itself fails to compile, which would be
// a programming error in this package.
func NewValidator() (*Validator, error) {
	commands := make(map[string]struct{}, len(DefaultDangerousCommands))
	for _, c := range DefaultDangerousCommands {
		commands[c] = struct{}{}
	}

	patterns := make([]*regexp.Regexp, 0, len(defaultDangerousPatterns))
	for _, p := range defaultDangerousPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, hookerrors.New("new_validator", hookerrors.KindInternalInvariant, err)
		}
		patterns = append(patterns, re)
	}

	return &Validator{dangerousCommands: commands, dangerousPatterns: patterns}, nil
}

// ValidateHook performs static validation of a hook's full action list and
// security policy, run once at registration time.
func (v *Validator) ValidateHook(hook *hookmodel.Hook) error {
	if len(hook.Actions) > maxActionCount {
		return hookerrors.Newf("validate_hook", hookerrors.KindValidation,
			"hook has too many actions (%d > %d)", len(hook.Actions), maxActionCount).WithID(string(hook.ID))
	}

	for _, action := range hook.Actions {
		if err := v.validateAction(action, &hook.Security); err != nil {
			return err
		}
	}

	return v.validateSecurityPolicy(&hook.Security)
}

func (v *Validator) validateAction(action hookmodel.HookAction, policy *hookmodel.SecurityPolicy) error {
	switch a := action.(type) {
	case hookmodel.CommandAction:
		return v.validateCommandAction(a.Command, a.Args, policy)
	case hookmodel.ScriptAction:
		return v.validateScriptAction(a.Language, a.Content, policy)
	case hookmodel.HTTPRequestAction:
		return v.validateHTTPAction(a.URL, policy)
	default:
		return nil // other actions carry no external attack surface
	}
}

func (v *Validator) validateCommandAction(command string, args []string, policy *hookmodel.SecurityPolicy) error {
	if _, blocked := v.dangerousCommands[command]; blocked {
		return hookerrors.Newf("validate_command_action", hookerrors.KindValidation,
			"command %q is not allowed for security reasons", command)
	}

	if len(policy.AllowedCommands) > 0 && !contains(policy.AllowedCommands, command) {
		return hookerrors.Newf("validate_command_action", hookerrors.KindValidation,
			"command %q is not in the allowed commands list", command)
	}

	full := command + " " + strings.Join(args, " ")
	for _, pattern := range v.dangerousPatterns {
		if pattern.MatchString(full) {
			return hookerrors.Newf("validate_command_action", hookerrors.KindValidation,
				"command contains dangerous pattern: %s", full)
		}
	}

	return nil
}

func (v *Validator) validateScriptAction(language, content string, policy *hookmodel.SecurityPolicy) error {
	if len(policy.AllowedLanguages) > 0 && !contains(policy.AllowedLanguages, language) {
		return hookerrors.Newf("validate_script_action", hookerrors.KindValidation,
			"script language %q is not allowed", language)
	}

	for _, pattern := range v.dangerousPatterns {
		if pattern.MatchString(content) {
			return hookerrors.Newf("validate_script_action", hookerrors.KindValidation, "script contains dangerous pattern")
		}
	}

	var constructs []string
	switch language {
	case "bash", "sh":
		constructs = defaultShellConstructs
	case "python":
		constructs = defaultPythonConstructs
	case "javascript", "js":
		constructs = defaultJavaScriptConstructs
	}
	for _, construct := range constructs {
		if strings.Contains(content, construct) {
			return hookerrors.Newf("validate_script_action", hookerrors.KindValidation,
				"script contains dangerous construct: %s", construct)
		}
	}

	return nil
}

func (v *Validator) validateHTTPAction(rawURL string, policy *hookmodel.SecurityPolicy) error {
	if !policy.AllowNetwork {
		return hookerrors.Newf("validate_http_action", hookerrors.KindValidation, "network access is not allowed for this hook")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return hookerrors.New("validate_http_action", hookerrors.KindValidation, err).WithID(rawURL)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return hookerrors.Newf("validate_http_action", hookerrors.KindValidation, "only http/https urls are allowed")
	}

	host := parsed.Hostname()
	if host == "" {
		return nil
	}

	for _, blocked := range policy.BlockedDomains {
		if strings.Contains(host, blocked) {
			return hookerrors.Newf("validate_http_action", hookerrors.KindValidation, "domain %q is blocked", host)
		}
	}

	if len(policy.AllowedDomains) > 0 {
		allowed := false
		for _, d := range policy.AllowedDomains {
			if strings.Contains(host, d) {
				allowed = true
				break
			}
		}
		if !allowed {
			return hookerrors.Newf("validate_http_action", hookerrors.KindValidation, "domain %q is not in allowed domains list", host)
		}
	}

	return nil
}

func (v *Validator) validateSecurityPolicy(policy *hookmodel.SecurityPolicy) error {
	if policy.MaxExecutionTime <= 0 || policy.MaxExecutionTime > 3600 {
		return hookerrors.Newf("validate_security_policy", hookerrors.KindValidation,
			"invalid max_execution_time: %d (must be between 1 and 3600 seconds)", policy.MaxExecutionTime)
	}

	if policy.MaxMemoryMB != nil {
		mem := *policy.MaxMemoryMB
		if mem <= 0 || mem > 8192 {
			return hookerrors.Newf("validate_security_policy", hookerrors.KindValidation,
				"invalid max_memory_mb: %d (must be between 1 and 8192)", mem)
		}
	}

	return nil
}

// ValidateCommand re-checks a single command at execution time, after the
// hook itself has already passed ValidateHook.
func (v *Validator) ValidateCommand(command string) error {
	if _, blocked := v.dangerousCommands[command]; blocked {
		return hookerrors.Newf("validate_command", hookerrors.KindValidation,
			"command %q is not allowed for security reasons", command)
	}
	return nil
}

// ValidateScriptLanguage re-checks a script language at execution time.
func (v *Validator) ValidateScriptLanguage(language string) error {
	if _, ok := defaultAllowedScriptLanguages[language]; !ok {
		return hookerrors.Newf("validate_script_language", hookerrors.KindValidation,
			"script language %q is not supported", language)
	}
	return nil
}

// ValidateURL re-checks a URL's scheme at execution time.
func (v *Validator) ValidateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return hookerrors.New("validate_url", hookerrors.KindValidation, err).WithID(rawURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return hookerrors.Newf("validate_url", hookerrors.KindValidation, "only http/https urls are allowed")
	}
	return nil
}

func contains(list []string, want string) bool {
	for _, item := range list {
		if item == want {
			return true
		}
	}
	return false
}
