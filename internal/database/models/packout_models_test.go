package models

import "testing"

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to PackoutStatus
		allowed  bool
	}{
		{StatusPendingInstaller, StatusConfirmed, true},
		{StatusPendingInstaller, StatusCompleted, true},
		{StatusConfirmed, StatusConfirmed, true},
		{StatusConfirmed, StatusCompleted, true},
		{StatusCompleted, StatusConfirmed, false},
		{StatusCompleted, StatusCompleted, false},
		{StatusCompleted, StatusPendingInstaller, false},
		{StatusConfirmed, StatusPendingInstaller, false},
		{StatusPendingInstaller, StatusPendingInstaller, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.allowed {
			t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.allowed)
		}
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []PackoutStatus{StatusPendingInstaller, StatusConfirmed, StatusCompleted} {
		if !s.Valid() {
			t.Errorf("Valid(%s) = false, want true", s)
		}
	}
	for _, s := range []PackoutStatus{"", "done", "PENDING_INSTALLER"} {
		if s.Valid() {
			t.Errorf("Valid(%q) = true, want false", s)
		}
	}
}
