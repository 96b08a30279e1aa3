package sources

import (
	"sync/atomic"
)

// defaultUserAgents is the built-in browser identity pool, used when the
// configuration provides none. Uncoordinated bursts under one identity
// trigger source-side blocking, so scrape-backed adapters rotate these.
var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36 Edg/119.0.2151.97",
}

// IdentityPool rotates client identity strings round-robin across all
// adapters. The rotation counter is atomic so two concurrent tasks never
// reuse the same identity for simultaneous requests.
type IdentityPool struct {
	identities []string
	next       atomic.Uint64
}

// NewIdentityPool creates a pool over the given identity strings. An empty
// slice falls back to the built-in browser pool.
func NewIdentityPool(identities []string) *IdentityPool {
	if len(identities) == 0 {
		identities = defaultUserAgents
	}
	pool := make([]string, len(identities))
	copy(pool, identities)
	return &IdentityPool{identities: pool}
}

// Next returns the next identity in round-robin order. Safe for concurrent use.
func (p *IdentityPool) Next() string {
	n := p.next.Add(1) - 1
	return p.identities[n%uint64(len(p.identities))]
}

// Size returns the number of identities in the pool.
func (p *IdentityPool) Size() int {
	return len(p.identities)
}
