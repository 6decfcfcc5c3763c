package comm

import "sync/atomic"

// Accepts decides whether a frame addressed to dest is for the local node.
// Broadcast is always accepted, otherwise the bits selected by mask must
// match localID.
func Accepts(dest, localID, mask, broadcast byte) bool {
	return dest == broadcast || dest&mask == localID&mask
}

// Identity holds the local node ID and the Local Acceptance Mask (LAM).
// Both live in one atomic word so a concurrent SetLAM never tears a read.
type Identity struct {
	word atomic.Uint32
}

// NewIdentity creates an Identity.
func NewIdentity(nodeID, lam byte) *Identity {
	id := &Identity{}
	id.Set(nodeID, lam)
	return id
}

// Set replaces both node ID and LAM.
func (id *Identity) Set(nodeID, lam byte) {
	id.word.Store(uint32(nodeID)<<8 | uint32(lam))
}

// SetNodeID replaces the node ID, keeping the LAM.
func (id *Identity) SetNodeID(nodeID byte) {
	for {
		old := id.word.Load()
		if id.word.CompareAndSwap(old, uint32(nodeID)<<8|old&0xff) {
			return
		}
	}
}

// SetLAM replaces the LAM, keeping the node ID.
func (id *Identity) SetLAM(lam byte) {
	for {
		old := id.word.Load()
		if id.word.CompareAndSwap(old, old&0xff00|uint32(lam)) {
			return
		}
	}
}

// Get returns node ID and LAM.
func (id *Identity) Get() (nodeID, lam byte) {
	w := id.word.Load()
	return byte(w >> 8), byte(w)
}

// NodeID returns the local node ID.
func (id *Identity) NodeID() byte {
	nodeID, _ := id.Get()
	return nodeID
}

// LAM returns the Local Acceptance Mask.
func (id *Identity) LAM() byte {
	_, lam := id.Get()
	return lam
}

// Accepts applies Accepts with this identity and BroadcastID.
func (id *Identity) Accepts(dest byte) bool {
	nodeID, lam := id.Get()
	return Accepts(dest, nodeID, lam, BroadcastID)
}
