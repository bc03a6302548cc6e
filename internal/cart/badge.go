package cart

import "sync"

// maxTrackedSessions caps the badge table. Counts are derived from storage,
// so dropping them only costs a re-read.
const maxTrackedSessions = 100_000

// Badges is the per-session cart counter shown in the header: the number of
// distinct lines, not total units. Only Service writes it.
type Badges struct {
	mu     sync.RWMutex
	counts map[string]int
}

func NewBadges() *Badges {
	return &Badges{counts: make(map[string]int)}
}

func (b *Badges) Count(session string) (int, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n, ok := b.counts[session]
	return n, ok
}

func (b *Badges) set(session string, n int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.counts[session]; !ok && len(b.counts) >= maxTrackedSessions {
		clear(b.counts)
	}
	b.counts[session] = n
}
