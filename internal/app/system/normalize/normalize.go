// Package normalize canonicalizes user-supplied strings before they are
// stored or compared.
package normalize

import "strings"

// Email lowercases and trims an email address. Stored emails are always in
// this form, so lookups must normalize their input the same way.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Emails normalizes every entry, dropping blanks and repeats while keeping
// first-seen order.
func Emails(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, e := range in {
		e = Email(e)
		if e == "" {
			continue
		}
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}

// Name trims surrounding space and collapses internal runs of whitespace.
// Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
