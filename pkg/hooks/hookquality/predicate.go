package hookquality

// ContentPredicate inspects text for content a gate should flag, returning
// whether it is flagged and a human-readable reason. Callers substitute
// their own (e.g. a moderation API client) in place of the default
// permissive predicate without touching gate evaluation logic.
type ContentPredicate func(text string) (flagged bool, reason string)

// PermissiveContentPredicate flags nothing — the default when no
// moderation backend is configured.
func PermissiveContentPredicate(text string) (bool, string) {
	return false, ""
}
