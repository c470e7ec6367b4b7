package eventping

import (
	"errors"
	"testing"
)

func TestRoleAssignmentOrder(t *testing.T) {
	a, err := NewRoleAssignment([]string{"Healer", "DPS", " ", "Tank", "DPS", "Default"})
	if err != nil {
		t.Fatalf("NewRoleAssignment: %v", err)
	}
	if got := a.Labels(); len(got) != 4 || got[0] != "Healer" || got[3] != "Default" {
		t.Fatalf("unexpected labels %v", got)
	}

	for _, id := range []string{"c", "a", "b"} {
		if err := a.Assign("Default", Recipient{UserID: id}); err != nil {
			t.Fatalf("Assign: %v", err)
		}
	}
	if err := a.Assign("Tank", Recipient{UserID: "t"}); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	members := a.Members("Default")
	if len(members) != 3 || members[0].UserID != "c" || members[2].UserID != "b" {
		t.Fatalf("insertion order lost: %+v", members)
	}

	var visited []string
	a.Each(func(label string, r Recipient) { visited = append(visited, label+":"+r.UserID) })
	want := []string{"Tank:t", "Default:c", "Default:a", "Default:b"}
	if len(visited) != len(want) {
		t.Fatalf("unexpected visit %v", visited)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Fatalf("visit[%d] = %s, want %s", i, visited[i], want[i])
		}
	}
	if a.Len() != 4 {
		t.Fatalf("expected 4 assignments, got %d", a.Len())
	}
}

func TestRoleAssignmentRejectsUnknownLabel(t *testing.T) {
	a, _ := NewRoleAssignment([]string{"Default"})
	if err := a.Assign("Bard", Recipient{UserID: "x"}); !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
	if _, err := NewRoleAssignment(nil); err == nil {
		t.Fatal("expected error for empty label set")
	}
}
