package registry

import (
	"sync/atomic"
)

// Holder publishes snapshots to concurrent readers. A reader that called
// Load keeps its snapshot for the rest of its request.
type Holder struct {
	current  atomic.Pointer[Snapshot]
	degraded atomic.Bool
}

func NewHolder(initial *Snapshot) *Holder {
	h := &Holder{}
	if initial == nil {
		initial = Empty()
	}
	h.current.Store(initial)
	return h
}

func (h *Holder) Load() *Snapshot {
	return h.current.Load()
}

// Publish swaps in snap and clears the degraded flag.
func (h *Holder) Publish(snap *Snapshot) {
	h.current.Store(snap)
	h.degraded.Store(false)
}

// MarkDegraded records that the registry could not be loaded. The current
// snapshot keeps serving.
func (h *Holder) MarkDegraded() {
	h.degraded.Store(true)
}

func (h *Holder) Degraded() bool {
	return h.degraded.Load()
}
