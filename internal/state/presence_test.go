package state

import (
	"testing"
	"time"
)

// fakeClock is a manually advanced time source.
type fakeClock struct{ at time.Time }

func (f *fakeClock) Now() time.Time          { return f.at }
func (f *fakeClock) Advance(d time.Duration) { f.at = f.at.Add(d) }

func TestPresenceEvictsAfterStaleWindow(t *testing.T) {
	clock := &fakeClock{at: time.Unix(1000, 0)}
	p := NewPresence()
	p.SetClock(clock.Now)

	seenAt := p.Upsert("u1", "Alice", 10, 20)
	clock.Advance(CursorStaleAfter + time.Millisecond)
	if !p.EvictIfStale("u1", seenAt) {
		t.Fatal("stale cursor not evicted")
	}
	if len(p.Cursors()) != 0 {
		t.Fatal("cursor still visible after eviction")
	}
}

func TestPresenceRefreshDefersEviction(t *testing.T) {
	clock := &fakeClock{at: time.Unix(1000, 0)}
	p := NewPresence()
	p.SetClock(clock.Now)

	firstSeen := p.Upsert("u1", "Alice", 10, 20)
	clock.Advance(4 * time.Second)
	secondSeen := p.Upsert("u1", "Alice", 30, 40)

	// The check scheduled by the first update fires after 5s; the
	// refresh at 4s must keep the cursor alive.
	clock.Advance(CursorStaleAfter - 4*time.Second + time.Millisecond)
	if p.EvictIfStale("u1", firstSeen) {
		t.Fatal("refreshed cursor was evicted by the stale first check")
	}
	if len(p.Cursors()) != 1 {
		t.Fatal("cursor missing after deferred check")
	}

	// The second update's own check eventually evicts it.
	clock.Advance(4 * time.Second)
	if !p.EvictIfStale("u1", secondSeen) {
		t.Fatal("cursor not evicted once genuinely stale")
	}
}

func TestPresenceUpsertUpdatesPosition(t *testing.T) {
	p := NewPresence()
	p.Upsert("u1", "Alice", 1, 2)
	p.Upsert("u1", "Alice", 3, 4)
	cursors := p.Cursors()
	if len(cursors) != 1 {
		t.Fatalf("len(Cursors) = %d, want 1", len(cursors))
	}
	if cursors[0].X != 3 || cursors[0].Y != 4 {
		t.Fatalf("cursor at (%v,%v), want (3,4)", cursors[0].X, cursors[0].Y)
	}
}

func TestPresenceEvictUnknownUser(t *testing.T) {
	p := NewPresence()
	if p.EvictIfStale("ghost", time.Now()) {
		t.Fatal("evicted a cursor that was never tracked")
	}
}

func TestPresenceRemoveAndClear(t *testing.T) {
	p := NewPresence()
	p.Upsert("u1", "Alice", 0, 0)
	p.Upsert("u2", "Bob", 0, 0)
	p.Remove("u1")
	if len(p.Cursors()) != 1 {
		t.Fatal("Remove did not drop the cursor")
	}
	p.Clear()
	if len(p.Cursors()) != 0 {
		t.Fatal("Clear left cursors behind")
	}
}

func TestCursorColorIsStable(t *testing.T) {
	a := CursorColor("user-abc")
	if b := CursorColor("user-abc"); a != b {
		t.Fatalf("color not stable: %v vs %v", a, b)
	}
}
