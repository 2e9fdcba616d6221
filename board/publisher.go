package board

import "sync/atomic"

type versioned struct {
	board   *Board
	version uint64
}

// Publisher hands completed boards from the single refresh writer to any
// number of concurrent readers. Readers always see a complete board,
// never a partially updated one.
type Publisher struct {
	current atomic.Pointer[versioned]
}

// NewPublisher returns a publisher with no board yet; Load reports
// version zero until the first Publish.
func NewPublisher() *Publisher {
	p := &Publisher{}
	p.current.Store(&versioned{})
	return p
}

// Publish installs b as the current board. The version advances only
// when the board's content actually changed, so readers can skip
// redraws for no-op refresh cycles.
func (p *Publisher) Publish(b *Board) {
	cur := p.current.Load()
	if cur.board != nil && sameContent(cur.board, b) {
		p.current.Store(&versioned{board: b, version: cur.version})
		return
	}
	p.current.Store(&versioned{board: b, version: cur.version + 1})
}

// Load returns the current board and its version. The board is nil
// before the first Publish.
func (p *Publisher) Load() (*Board, uint64) {
	cur := p.current.Load()
	return cur.board, cur.version
}

// sameContent ignores GeneratedAt: a recomputed but identical board is
// not a new version.
func sameContent(a, b *Board) bool {
	if a.Health != b.Health || !a.FeedTimestamp.Equal(b.FeedTimestamp) {
		return false
	}
	if len(a.Entries) != len(b.Entries) {
		return false
	}
	for i := range a.Entries {
		x, y := a.Entries[i], b.Entries[i]
		if x.TripID != y.TripID || x.StopID != y.StopID ||
			x.Status != y.Status || x.Realtime != y.Realtime ||
			x.Delay != y.Delay ||
			!x.Scheduled.Equal(y.Scheduled) || !x.Effective.Equal(y.Effective) {
			return false
		}
	}
	return true
}
