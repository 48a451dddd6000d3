// Package latest guards results of superseded requests. Each request takes a
// token; a response is applied only while its token is still the newest.
package latest

import "sync"

// Token identifies one issued request.
type Token uint64

// Guard issues monotonically increasing tokens.
type Guard struct {
	mu  sync.Mutex
	cur Token
}

// Next issues a new token, superseding every earlier one.
func (g *Guard) Next() Token {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cur++
	return g.cur
}

// Current reports whether t is the latest issued token.
func (g *Guard) Current(t Token) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return t == g.cur
}

// Apply runs fn while holding the guard if t is still current. Stale tokens
// are dropped silently.
func (g *Guard) Apply(t Token, fn func()) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if t != g.cur {
		return false
	}
	fn()
	return true
}
