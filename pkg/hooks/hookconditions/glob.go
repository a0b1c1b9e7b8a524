package hookconditions

import "strings"

// globToRegex compiles a glob pattern into an anchored regular expression.
// `*` becomes `.*`, `?` becomes `.`, and regex metacharacters are escaped;
// everything else passes through literally. This mirrors glob_to_regex in
// the original hook conditions module exactly.
func globToRegex(pattern string) string {
	var b strings.Builder
	b.WriteByte('^')

	for _, ch := range pattern {
		switch ch {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteByte('.')
		case '.', '+', '^', '$', '(', ')', '[', ']', '{', '}', '|', '\\':
			b.WriteByte('\\')
			b.WriteRune(ch)
		default:
			b.WriteRune(ch)
		}
	}

	b.WriteByte('$')
	return b.String()
}
