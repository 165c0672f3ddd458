package session

import (
	"testing"
	"time"
)

func TestManager_TouchIsOnline(t *testing.T) {
	m := New(2 * time.Second)
	now := time.Now()
	if m.IsOnline("RC-102-000001", now) {
		t.Fatalf("expected offline initially")
	}
	m.Touch("RC-102-000001", now)
	if !m.IsOnline("RC-102-000001", now) {
		t.Fatalf("expected online after sample")
	}
	if m.IsOnline("RC-102-000002", now) {
		t.Fatalf("other instrument should be offline")
	}
}

func TestManager_Timeout(t *testing.T) {
	m := New(500 * time.Millisecond)
	ts := time.Now()
	m.Touch("X", ts)
	if !m.IsOnline("X", ts.Add(400*time.Millisecond)) {
		t.Fatalf("should still be online before timeout")
	}
	if m.IsOnline("X", ts.Add(600*time.Millisecond)) {
		t.Fatalf("should be offline after timeout")
	}
	if got := m.OnlineCount(ts.Add(600 * time.Millisecond)); got != 0 {
		t.Fatalf("OnlineCount = %d, want 0", got)
	}
}

func TestManager_RegisterKeepsLastSeen(t *testing.T) {
	m := New(time.Minute)
	now := time.Now()
	m.Touch("A", now)
	m.Register("A", "4.9 (Feb 02 2024)")

	d, ok := m.Get("A")
	if !ok {
		t.Fatalf("instrument missing after register")
	}
	if d.Firmware != "4.9 (Feb 02 2024)" {
		t.Fatalf("Firmware = %q", d.Firmware)
	}
	if !d.LastSeen.Equal(now) {
		t.Fatalf("LastSeen reset by register")
	}
	if len(m.List()) != 1 {
		t.Fatalf("List len = %d", len(m.List()))
	}
}
