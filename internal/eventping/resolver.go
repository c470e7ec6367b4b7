package eventping

import (
	"context"
	"fmt"
	"strings"
)

// DeliveryStatus is the outcome of one invitation.
type DeliveryStatus int

const (
	DeliveryPending DeliveryStatus = iota
	DeliveryDelivered
	DeliveryFailed
)

func (d DeliveryStatus) String() string {
	switch d {
	case DeliveryDelivered:
		return "delivered"
	case DeliveryFailed:
		return "failed"
	default:
		return "pending"
	}
}

// Recipient is a member selected to receive an invitation.
type Recipient struct {
	UserID      string
	DisplayName string
	Outcome     DeliveryStatus
	// FailReason is set when Outcome is DeliveryFailed.
	FailReason string
}

// Resolver selects reachable human members.
type Resolver struct {
	members   MemberDirectory
	reachable map[string]struct{}
}

// NewResolver builds a resolver accepting the listed presence values.
func NewResolver(members MemberDirectory, reachable []string) *Resolver {
	set := make(map[string]struct{}, len(reachable))
	for _, value := range reachable {
		if v := strings.ToLower(strings.TrimSpace(value)); v != "" {
			set[v] = struct{}{}
		}
	}
	return &Resolver{members: members, reachable: set}
}

// Reachable reports whether a member qualifies for an invitation.
func (r *Resolver) Reachable(member MemberInfo) bool {
	if member.Bot {
		return false
	}
	_, ok := r.reachable[strings.ToLower(member.Presence)]
	return ok
}

// Resolve returns reachable members in provider order. No match yields an
// empty slice; only a listing failure is an error.
func (r *Resolver) Resolve(ctx context.Context, guildID string) ([]Recipient, error) {
	members, err := r.members.ListMembers(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", classify(err))
	}
	recipients := make([]Recipient, 0, len(members))
	for _, member := range members {
		if !r.Reachable(member) {
			continue
		}
		recipients = append(recipients, Recipient{UserID: member.UserID, DisplayName: member.Name()})
	}
	return recipients, nil
}
