package services

import "strings"

// HasAnyRole reports whether any of the member's role names matches one of
// the allowed names. Matching is exact after trimming surrounding space.
func HasAnyRole(memberRoles, allowed []string) bool {
	if len(allowed) == 0 {
		return false
	}
	lookup := make(map[string]struct{}, len(allowed))
	for _, name := range allowed {
		if name = strings.TrimSpace(name); name != "" {
			lookup[name] = struct{}{}
		}
	}
	for _, role := range memberRoles {
		if _, ok := lookup[strings.TrimSpace(role)]; ok {
			return true
		}
	}
	return false
}
