package service

import (
	"sync"

	"github.com/stemsi/interview-sim/internal/model"
)

// Broadcaster fans candidate snapshots out to live subscribers. Each
// subscriber holds at most one pending snapshot; a slow reader only ever sees
// the latest state.
type Broadcaster struct {
	mu   sync.RWMutex
	subs map[string]map[chan *model.Candidate]struct{}
}

// NewBroadcaster creates a new Broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[string]map[chan *model.Candidate]struct{})}
}

// Subscribe registers for snapshots of one candidate. The returned func
// unsubscribes and closes the channel.
func (b *Broadcaster) Subscribe(candidateID string) (<-chan *model.Candidate, func()) {
	ch := make(chan *model.Candidate, 1)

	b.mu.Lock()
	if b.subs[candidateID] == nil {
		b.subs[candidateID] = make(map[chan *model.Candidate]struct{})
	}
	b.subs[candidateID][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[candidateID], ch)
			if len(b.subs[candidateID]) == 0 {
				delete(b.subs, candidateID)
			}
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers c to every subscriber of c.ID without blocking.
func (b *Broadcaster) Publish(c *model.Candidate) {
	if b == nil || c == nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subs[c.ID] {
		snapshot := c.Clone()
		select {
		case ch <- snapshot:
			continue
		default:
		}
		// Replace the stale pending snapshot.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snapshot:
		default:
		}
	}
}

// Subscribers returns the number of live subscribers for a candidate.
func (b *Broadcaster) Subscribers(candidateID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[candidateID])
}
