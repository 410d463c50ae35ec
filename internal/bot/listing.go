package bot

import "sync"

// pendingListing remembers, per reviewer chat, the message id of the
// last rendered pending-requests listing so a decision can replace it.
// Created on first render, overwritten on refresh, never persisted.
type pendingListing struct {
	mu   sync.Mutex
	last map[int64]int
}

func newPendingListing() *pendingListing {
	return &pendingListing{last: make(map[int64]int)}
}

func (p *pendingListing) Remember(chatID int64, messageID int) {
	p.mu.Lock()
	p.last[chatID] = messageID
	p.mu.Unlock()
}

// Take removes and returns the remembered message id, if any.
func (p *pendingListing) Take(chatID int64) (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id, ok := p.last[chatID]
	if ok {
		delete(p.last, chatID)
	}
	return id, ok
}
