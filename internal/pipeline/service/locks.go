package service

import (
	"sync"

	"github.com/google/uuid"
)

// cardLocks serializes mutations per pipeline card. Distribution, stage
// transitions, attempt recording, and the overdue sweep all acquire the same
// card lock, so a card is never mid-transition while being redistributed.
type cardLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*cardLock
}

type cardLock struct {
	mu   sync.Mutex
	refs int
}

func newCardLocks() *cardLocks {
	return &cardLocks{locks: make(map[uuid.UUID]*cardLock)}
}

// lock acquires the mutex for the given card and returns its unlock func.
// Entries are reference-counted and removed once the last holder releases,
// so the map does not grow with the card population.
func (c *cardLocks) lock(id uuid.UUID) func() {
	c.mu.Lock()
	l, ok := c.locks[id]
	if !ok {
		l = &cardLock{}
		c.locks[id] = l
	}
	l.refs++
	c.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()
		c.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(c.locks, id)
		}
		c.mu.Unlock()
	}
}
