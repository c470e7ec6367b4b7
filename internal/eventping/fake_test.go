package eventping

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

type labelCall struct {
	GuildID string
	UserID  string
	Label   string
}

type dmCall struct {
	UserID string
	Text   string
}

// fakeGuild implements ResourceProvider and MemberDirectory in memory.
type fakeGuild struct {
	mu sync.Mutex

	categories []GroupRef
	findErr    error
	createErr  error
	created    []ResourceRef
	nextID     int

	occupancy    []int
	occupancyErr error
	gone         map[string]bool
	polls        int
	deleteErr    error
	deletes      []string

	members  []MemberInfo
	listErr  error
	labelErr error
	labels   []labelCall
	dmErrs   map[string]error
	dms      []dmCall
}

func newFakeGuild() *fakeGuild {
	return &fakeGuild{
		categories: []GroupRef{{ID: "cat-1", GuildID: "guild-1", Name: "War Room"}},
		gone:       map[string]bool{},
		dmErrs:     map[string]error{},
	}
}

func (f *fakeGuild) FindParentGrouping(_ context.Context, guildID, name string) (GroupRef, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return GroupRef{}, false, f.findErr
	}
	for _, c := range f.categories {
		if SameGroupName(c.Name, name) {
			return c, true, nil
		}
	}
	return GroupRef{}, false, nil
}

func (f *fakeGuild) CreateResource(_ context.Context, parent GroupRef, label string, _ AccessPolicy) (ResourceRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return ResourceRef{}, f.createErr
	}
	f.nextID++
	id := fmt.Sprintf("room-%d", f.nextID)
	ref := ResourceRef{
		ID:      id,
		GuildID: parent.GuildID,
		Name:    label,
		JoinURL: "https://discord.com/channels/" + parent.GuildID + "/" + id,
	}
	f.created = append(f.created, ref)
	return ref, nil
}

func (f *fakeGuild) Occupancy(_ context.Context, ref ResourceRef) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	if f.gone[ref.ID] {
		return 0, ErrResourceNotFound
	}
	if f.occupancyErr != nil {
		return 0, f.occupancyErr
	}
	if len(f.occupancy) == 0 {
		return 0, nil
	}
	next := f.occupancy[0]
	f.occupancy = f.occupancy[1:]
	return next, nil
}

func (f *fakeGuild) DeleteResource(_ context.Context, ref ResourceRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, ref.ID)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.gone[ref.ID] = true
	return nil
}

func (f *fakeGuild) ListMembers(_ context.Context, _ string) ([]MemberInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]MemberInfo(nil), f.members...), nil
}

func (f *fakeGuild) SetLabel(_ context.Context, guildID, userID, label string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.labels = append(f.labels, labelCall{GuildID: guildID, UserID: userID, Label: label})
	return f.labelErr
}

func (f *fakeGuild) SendDirectMessage(_ context.Context, userID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dms = append(f.dms, dmCall{UserID: userID, Text: text})
	return f.dmErrs[userID]
}

func (f *fakeGuild) deleteCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.deletes)
}

func (f *fakeGuild) labelCalls() []labelCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]labelCall(nil), f.labels...)
}

func (f *fakeGuild) dmsTo(userID string) []dmCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []dmCall
	for _, dm := range f.dms {
		if dm.UserID == userID {
			out = append(out, dm)
		}
	}
	return out
}

// recordingObserver captures every transition.
type recordingObserver struct {
	mu        sync.Mutex
	snapshots []SessionSnapshot
}

func (r *recordingObserver) SessionTransition(_ context.Context, s SessionSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, s)
}

func (r *recordingObserver) statuses() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Status, 0, len(r.snapshots))
	for _, s := range r.snapshots {
		out = append(out, s.Status)
	}
	return out
}

type recordingReplier struct {
	mu      sync.Mutex
	replies []string
	err     error
}

func (r *recordingReplier) Reply(_ context.Context, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, content)
	return r.err
}

func (r *recordingReplier) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.replies) == 0 {
		return ""
	}
	return r.replies[len(r.replies)-1]
}

var errBoom = errors.New("boom")

func fixedClock() func() time.Time {
	at := time.Date(2024, time.March, 9, 18, 4, 5, 0, time.UTC)
	return func() time.Time { return at }
}

func leader() MemberInfo {
	return MemberInfo{UserID: "leader-1", Username: "alice", DisplayName: "Alice", Nickname: "Ally", Presence: "online"}
}
