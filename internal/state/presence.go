package state

import (
	"hash/fnv"
	"sync"
	"time"
)

// CursorStaleAfter is how long a remote cursor survives without a
// fresh update before it is evicted from presence.
const CursorStaleAfter = 5 * time.Second

// cursorPalette colors remote cursors. The wire protocol carries no
// cursor color, so each peer gets a stable one derived from its id.
var cursorPalette = []ARGB{
	RGBA(231, 76, 60, 255),  // red
	RGBA(46, 204, 113, 255), // green
	RGBA(52, 152, 219, 255), // blue
	RGBA(155, 89, 182, 255), // purple
	RGBA(241, 196, 15, 255), // yellow
	RGBA(230, 126, 34, 255), // orange
	RGBA(26, 188, 156, 255), // teal
}

// CursorColor returns the stable presence color for a user id.
func CursorColor(userID string) ARGB {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return cursorPalette[h.Sum32()%uint32(len(cursorPalette))]
}

// Presence tracks remote peer cursors with freshness-based eviction.
// The clock is injectable so staleness can be tested without sleeping.
type Presence struct {
	mu      sync.RWMutex
	cursors map[string]*CursorInfo
	now     func() time.Time
}

// NewPresence creates an empty presence set on the wall clock.
func NewPresence() *Presence {
	return &Presence{cursors: make(map[string]*CursorInfo), now: time.Now}
}

// SetClock overrides the time source, for tests.
func (p *Presence) SetClock(now func() time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = now
}

// Upsert records a cursor position for a peer and returns the update
// timestamp, which the caller passes back to EvictIfStale when its
// deferred staleness check fires.
func (p *Presence) Upsert(userID, displayName string, x, y float64) time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	c, ok := p.cursors[userID]
	if !ok {
		c = &CursorInfo{UserID: userID, Color: CursorColor(userID)}
		p.cursors[userID] = c
	}
	c.DisplayName = displayName
	c.X, c.Y = x, y
	c.LastUpdate = now
	return now
}

// EvictIfStale removes a cursor only if no newer update arrived after
// seenAt. A deferred check scheduled at update time must not evict a
// cursor that has since been refreshed.
func (p *Presence) EvictIfStale(userID string, seenAt time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.cursors[userID]
	if !ok {
		return false
	}
	if c.LastUpdate.After(seenAt) {
		return false
	}
	delete(p.cursors, userID)
	return true
}

// Remove drops a peer's cursor immediately (user_left).
func (p *Presence) Remove(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.cursors, userID)
}

// Cursors returns a copy of all currently visible remote cursors.
func (p *Presence) Cursors() []CursorInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]CursorInfo, 0, len(p.cursors))
	for _, c := range p.cursors {
		out = append(out, *c)
	}
	return out
}

// Clear drops all cursors (board switch or disconnect).
func (p *Presence) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cursors = make(map[string]*CursorInfo)
}
