package fetch

import "sync/atomic"

// Gate stamps requests with the current generation and rejects responses
// whose generation has been superseded.
type Gate struct {
	gen atomic.Uint64
}

// Stamp returns the current generation. It never increments.
func (g *Gate) Stamp() uint64 {
	return g.gen.Load()
}

// IsCurrent reports whether gen is still the live generation.
func (g *Gate) IsCurrent(gen uint64) bool {
	return g.gen.Load() == gen
}

// Advance increments and returns the new generation, invalidating every
// request stamped before the call.
func (g *Gate) Advance() uint64 {
	return g.gen.Add(1)
}
