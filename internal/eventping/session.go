package eventping

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Status is the lifecycle state of an event session.
type Status int32

const (
	StatusProvisioning Status = iota
	StatusActive
	StatusMonitoring
	StatusClosing
	StatusClosed
	StatusAbandoned
)

func (s Status) String() string {
	switch s {
	case StatusProvisioning:
		return "provisioning"
	case StatusActive:
		return "active"
	case StatusMonitoring:
		return "monitoring"
	case StatusClosing:
		return "closing"
	case StatusClosed:
		return "closed"
	case StatusAbandoned:
		return "abandoned"
	default:
		return fmt.Sprintf("status(%d)", int32(s))
	}
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusClosed || s == StatusAbandoned
}

// ParseStatus converts a stored status name back to a Status.
func ParseStatus(value string) (Status, bool) {
	for s := StatusProvisioning; s <= StatusAbandoned; s++ {
		if s.String() == value {
			return s, true
		}
	}
	return 0, false
}

var transitions = map[Status][]Status{
	StatusProvisioning: {StatusActive},
	StatusActive:       {StatusMonitoring},
	StatusMonitoring:   {StatusMonitoring, StatusClosing, StatusClosed},
	StatusClosing:      {StatusClosed},
}

// CanTransition reports whether from -> to is a legal move. Abandoned is
// reachable from every non-terminal state.
func CanTransition(from, to Status) bool {
	if from.Terminal() {
		return false
	}
	if to == StatusAbandoned {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Session is one /eventping run. After the orchestrator hands it to the
// registry only the owning monitor mutates it; readers use Snapshot.
type Session struct {
	ID            string
	GuildID       string
	InitiatorID   string
	InitiatorName string
	Departure     string
	Resource      ResourceRef
	Marker        *LabelMarker
	CreatedAt     time.Time
	Recipients    int

	status   atomic.Int32
	tornDown atomic.Bool

	mu        sync.Mutex
	updatedAt time.Time
	occupancy int
	reason    string
}

// NewSession starts a session in the Provisioning state for a provisioned room.
func NewSession(resource ResourceRef, initiator MemberInfo, departure string, marker *LabelMarker, now time.Time) *Session {
	s := &Session{
		ID:            resource.ID,
		GuildID:       resource.GuildID,
		InitiatorID:   initiator.UserID,
		InitiatorName: initiator.Name(),
		Departure:     departure,
		Resource:      resource,
		Marker:        marker,
		CreatedAt:     now,
		updatedAt:     now,
	}
	s.status.Store(int32(StatusProvisioning))
	return s
}

// Status returns the current state.
func (s *Session) Status() Status {
	return Status(s.status.Load())
}

// advance moves the session to next and returns the previous state.
func (s *Session) advance(next Status, now time.Time, occupancy int, reason string) (Status, error) {
	for {
		current := s.Status()
		if !CanTransition(current, next) {
			return current, fmt.Errorf("session %s: illegal transition %s -> %s", s.ID, current, next)
		}
		if s.status.CompareAndSwap(int32(current), int32(next)) {
			s.mu.Lock()
			s.updatedAt = now
			s.occupancy = occupancy
			s.reason = reason
			s.mu.Unlock()
			return current, nil
		}
	}
}

// claimTeardown returns true exactly once per session.
func (s *Session) claimTeardown() bool {
	return s.tornDown.CompareAndSwap(false, true)
}

// SessionSnapshot is an immutable copy of a session used by observers and
// the status API.
type SessionSnapshot struct {
	ID            string    `json:"id"`
	GuildID       string    `json:"guild_id"`
	InitiatorID   string    `json:"initiator_id"`
	InitiatorName string    `json:"initiator_name"`
	ResourceName  string    `json:"resource_name"`
	JoinURL       string    `json:"join_url,omitempty"`
	Departure     string    `json:"departure,omitempty"`
	Recipients    int       `json:"recipients"`
	Status        Status    `json:"-"`
	StatusName    string    `json:"status"`
	Previous      Status    `json:"-"`
	Occupancy     int       `json:"occupancy"`
	Reason        string    `json:"reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Snapshot copies the session state.
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	updated, occupancy, reason := s.updatedAt, s.occupancy, s.reason
	s.mu.Unlock()
	status := s.Status()
	return SessionSnapshot{
		ID:            s.ID,
		GuildID:       s.GuildID,
		InitiatorID:   s.InitiatorID,
		InitiatorName: s.InitiatorName,
		ResourceName:  s.Resource.Name,
		JoinURL:       s.Resource.JoinURL,
		Departure:     s.Departure,
		Recipients:    s.Recipients,
		Status:        status,
		StatusName:    status.String(),
		Occupancy:     occupancy,
		Reason:        reason,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     updated,
	}
}
