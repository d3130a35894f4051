package peer

import (
	"sync/atomic"
	"time"
)

// idAllocator generates hop-by-hop and end-to-end identifiers. Per
// RFC 6733 §3, End-to-End-Id's top 12 bits are seeded from the
// low-order bits of the current time in seconds when the allocator is
// created (once per peer connection, in New), with the remaining 20
// bits a monotonic counter; this makes ids
// generated across process restarts collision-resistant without
// needing persisted state.
type idAllocator struct {
	endToEnd  uint32
	hopByHop  uint32
}

func newIDAllocator(now time.Time) *idAllocator {
	seed := (uint32(now.Unix()) & 0xFFF) << 20
	return &idAllocator{endToEnd: seed, hopByHop: 0}
}

func (a *idAllocator) nextEndToEnd() uint32 {
	return atomic.AddUint32(&a.endToEnd, 1)
}

func (a *idAllocator) nextHopByHop() uint32 {
	return atomic.AddUint32(&a.hopByHop, 1)
}
