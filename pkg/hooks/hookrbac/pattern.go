package hookrbac

import (
	"regexp"
	"strings"
)

// matchesPattern reports whether hookName matches pattern. "*" matches
// everything; a pattern containing "*" is compiled to a simple anchored
// regex (". " escaped, "*" -> ".*", "?" -> "."); otherwise it's an exact
// match. This mirrors the original's matches_pattern, distinct from the
// condition evaluator's glob_to_regex (which escapes a wider character set).
func matchesPattern(hookName, pattern string) bool {
	if pattern == "*" {
		return true
	}

	if strings.Contains(pattern, "*") {
		regexPattern := strings.ReplaceAll(pattern, ".", `\.`)
		regexPattern = strings.ReplaceAll(regexPattern, "*", ".*")
		regexPattern = strings.ReplaceAll(regexPattern, "?", ".")

		re, err := regexp.Compile("^" + regexPattern + "$")
		if err == nil {
			return re.MatchString(hookName)
		}
	}

	return hookName == pattern
}
