package eventping

import (
	"fmt"
	"strings"
)

// RoleAssignment maps a fixed, ordered set of role labels to recipients.
type RoleAssignment struct {
	labels  []string
	members map[string][]Recipient
}

// NewRoleAssignment creates an empty assignment over labels. Blank and
// duplicate labels are dropped; at least one label is required.
func NewRoleAssignment(labels []string) (*RoleAssignment, error) {
	a := &RoleAssignment{members: make(map[string][]Recipient, len(labels))}
	for _, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		if _, ok := a.members[label]; ok {
			continue
		}
		a.labels = append(a.labels, label)
		a.members[label] = nil
	}
	if len(a.labels) == 0 {
		return nil, fmt.Errorf("role assignment: no labels configured")
	}
	return a, nil
}

// Assign appends r under label.
func (a *RoleAssignment) Assign(label string, r Recipient) error {
	if _, ok := a.members[label]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownRole, label)
	}
	a.members[label] = append(a.members[label], r)
	return nil
}

// Labels returns the labels in configured order.
func (a *RoleAssignment) Labels() []string {
	return append([]string(nil), a.labels...)
}

// Members returns the recipients under label in insertion order.
func (a *RoleAssignment) Members(label string) []Recipient {
	return append([]Recipient(nil), a.members[label]...)
}

// Len counts every assigned recipient.
func (a *RoleAssignment) Len() int {
	total := 0
	for _, members := range a.members {
		total += len(members)
	}
	return total
}

// Each visits every assignment, label by label in configured order.
func (a *RoleAssignment) Each(fn func(label string, r Recipient)) {
	for _, label := range a.labels {
		for _, r := range a.members[label] {
			fn(label, r)
		}
	}
}
