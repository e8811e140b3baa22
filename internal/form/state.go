// Package form holds the values a user has typed into a form.
package form

import "sort"

// Field names shared by the login and registration forms.
const (
	FieldEmail    = "email"
	FieldPassword = "password"
)

// CredentialFields lists the inputs of both credential forms, in display order.
var CredentialFields = []string{FieldEmail, FieldPassword}

// State maps field names to their current values. The zero value is an empty form.
//
// State is a value type: Set returns a new State and leaves the receiver untouched,
// so callers can detect a change by comparing the old and new values.
type State struct {
	values map[string]string
}

// New returns a State with every named field present and empty.
func New(fields ...string) State {
	values := make(map[string]string, len(fields))
	for _, f := range fields {
		values[f] = ""
	}
	return State{values: values}
}

// NewCredentials returns an empty email/password form.
func NewCredentials() State {
	return New(CredentialFields...)
}

// Get returns the value of field, or "" when it was never set.
func (s State) Get(field string) string {
	return s.values[field]
}

// Set returns a copy of s with exactly one field replaced.
func (s State) Set(field, value string) State {
	next := make(map[string]string, len(s.values)+1)
	for k, v := range s.values {
		next[k] = v
	}
	next[field] = value
	return State{values: next}
}

// Has reports whether field is part of the form.
func (s State) Has(field string) bool {
	_, ok := s.values[field]
	return ok
}

// Fields returns the field names in sorted order.
func (s State) Fields() []string {
	out := make([]string, 0, len(s.values))
	for k := range s.values {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Values returns a copy of the field map, suitable as a request body.
func (s State) Values() map[string]string {
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Equal reports whether both states hold the same fields and values.
func (s State) Equal(other State) bool {
	if len(s.values) != len(other.values) {
		return false
	}
	for k, v := range s.values {
		ov, ok := other.values[k]
		if !ok || ov != v {
			return false
		}
	}
	return true
}

// FromValues builds a State for fields, reading each value through lookup.
// Fields that lookup does not know stay empty; unknown inputs are ignored.
func FromValues(lookup func(string) string, fields ...string) State {
	s := New(fields...)
	for _, f := range fields {
		s = s.Set(f, lookup(f))
	}
	return s
}
