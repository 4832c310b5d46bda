package common

import "strings"

// HasAnyFold returns true if s contains any of the substrings,
// ignoring case. AEMET status descriptions are not consistent about
// casing, so upstream reply matching goes through here.
func HasAnyFold(s string, subs ...string) bool {
	ls := strings.ToLower(s)
	for _, sub := range subs {
		if strings.Contains(ls, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}
