// internal/app/system/search/search.go
package search

import (
	"strings"

	"github.com/dalemusser/waffle/pantry/text"
)

// Sort keys for user directory queries.
const (
	FieldName  = "name_ci"
	FieldEmail = "email"
)

// EmailPivot reports whether a directory query should pivot from name-based
// sorting to email-based sorting. We pivot when the user is clearly searching
// by email (the query contains '@').
func EmailPivot(q string) bool {
	return strings.Contains(q, "@")
}

// Query is a normalized directory search: the field to sort and match on
// and the prefix to match it with.
type Query struct {
	Field  string
	Prefix string
}

// Parse normalizes q. Names are folded the same way name_ci is stored;
// emails are lowercased.
//
//	q := search.Parse(r.URL.Query().Get("q"))
//	if lo, hi, ok := q.Bounds(); ok {
//	    filter[q.Field] = bson.M{"$gte": lo, "$lt": hi}
//	}
func Parse(q string) Query {
	q = strings.TrimSpace(q)
	if EmailPivot(q) {
		return Query{Field: FieldEmail, Prefix: strings.ToLower(q)}
	}
	return Query{Field: FieldName, Prefix: text.Fold(q)}
}

// Bounds returns the half-open range [lo, hi) covering every value that
// starts with the prefix. ok is false when there is nothing to match.
func (q Query) Bounds() (lo, hi string, ok bool) {
	if q.Prefix == "" {
		return "", "", false
	}
	return q.Prefix, q.Prefix + "\uffff", true
}
