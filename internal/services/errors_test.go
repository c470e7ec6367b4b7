package services_test

import (
	"errors"
	"strings"
	"testing"

	"valier/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrPermission, "discord", "create channel", "missing manage channels", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrPermission) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"discord", "create channel", "missing manage channels"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{services.Wrap(services.ErrNotFound, "discord", "channel", "", nil), "not_found"},
		{services.Wrap(services.ErrPermission, "discord", "nickname", "", nil), "permission"},
		{services.Wrap(services.ErrTimeout, "discord", "occupancy", "", nil), "timeout"},
		{services.Wrap(services.ErrRateLimited, "discord", "dm", "", nil), "rate_limited"},
		{errors.New("plain"), "transient"},
	}
	for _, tc := range tests {
		if got := services.Kind(tc.err); got != tc.want {
			t.Errorf("Kind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("plain"), false},
		{services.Wrap(services.ErrNotFound, "discord", "channel", "", nil), false},
		{services.Wrap(services.ErrPermission, "discord", "kick", "", nil), false},
		{services.Wrap(services.ErrRateLimited, "discord", "dm", "", nil), true},
		{services.Wrap(services.ErrTimeout, "discord", "occupancy", "", nil), true},
		{services.Wrap(nil, "ntfy", "send", "", nil), true},
	}
	for _, tc := range tests {
		if got := services.Retryable(tc.err); got != tc.want {
			t.Errorf("Retryable(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestWrapExposesFields(t *testing.T) {
	err := services.Wrap(services.ErrNotFound, "discord", "member", "", nil)
	var svcErr *services.Error
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected *services.Error, got %T", err)
	}
	if svcErr.Component != "discord" || svcErr.Operation != "member" {
		t.Fatalf("unexpected fields %+v", svcErr)
	}
	if got := err.Error(); got != "not found: discord: member" {
		t.Fatalf("Error() = %q", got)
	}
}

func TestHasAnyRole(t *testing.T) {
	allowed := []string{"King", "Lord of the House"}
	if !services.HasAnyRole([]string{"Member", "Lord of the House"}, allowed) {
		t.Fatal("expected lord to be authorized")
	}
	if services.HasAnyRole([]string{"king"}, allowed) {
		t.Fatal("expected role matching to be case sensitive")
	}
	if services.HasAnyRole([]string{"King"}, nil) {
		t.Fatal("expected empty allow list to deny")
	}
}
