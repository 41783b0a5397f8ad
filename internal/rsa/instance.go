// Package rsa holds the occupancy model shared by every routing
// component: the physical topology, its spectrum occupancy, and the pool
// of demands competing for it.
package rsa

// Instance is the full occupancy model: topology plus demand pool. Node
// and link identifiers are dense, zero-based indices; CSV boundaries
// translate to/from the 1-based convention used on disk.
type Instance struct {
	NumNodes          int
	Links             []PhysicalLink
	Demands           []Demand
	NumInitialDemands int // demands already routed by the initial mapping
}

// NewInstance constructs an empty Instance ready to be populated by the
// CSV readers.
func NewInstance() *Instance {
	return &Instance{}
}

// LinkByID returns a pointer to the link with the given id, or nil.
func (in *Instance) LinkByID(id int) *PhysicalLink {
	if id < 0 || id >= len(in.Links) {
		return nil
	}
	return &in.Links[id]
}

// DemandByID returns a pointer to the demand with the given id, or nil.
func (in *Instance) DemandByID(id int) *Demand {
	for i := range in.Demands {
		if in.Demands[i].ID == id {
			return &in.Demands[i]
		}
	}
	return nil
}

// HasLink reports whether nodes u and v are joined by some physical link,
// in either orientation, and returns its index.
func (in *Instance) HasLink(u, v int) (int, bool) {
	for i := range in.Links {
		if in.Links[i].ConnectsNodes(u, v) {
			return i, true
		}
	}
	return -1, false
}

// LinkBetween returns the link joining u and v, or nil.
func (in *Instance) LinkBetween(u, v int) *PhysicalLink {
	if idx, ok := in.HasLink(u, v); ok {
		return &in.Links[idx]
	}
	return nil
}

// NbRoutedDemands returns the number of demands currently marked routed.
func (in *Instance) NbRoutedDemands() int {
	count := 0
	for _, d := range in.Demands {
		if d.Routed {
			count++
		}
	}
	return count
}

// PendingDemandIndices returns, in pool order, the indices into Demands of
// every demand not yet routed.
func (in *Instance) PendingDemandIndices() []int {
	indices := make([]int, 0, len(in.Demands))
	for i, d := range in.Demands {
		if !d.Routed {
			indices = append(indices, i)
		}
	}
	return indices
}

// NextBatch returns up to n pending demand indices, in pool order, for the
// next routing batch.
func (in *Instance) NextBatch(n int) []int {
	pending := in.PendingDemandIndices()
	if n < len(pending) {
		pending = pending[:n]
	}
	return pending
}

// AssignSlicesOfLink commits the window ending at slice s on link linkID
// to demand demandIdx: it marks the spectrum, and marks the demand as
// routed with that slice recorded as its allocation. Callers must have
// already verified HasEnoughSpace; this call performs no feasibility
// checks itself. It commits a single link; the Solution Writer does its
// own multi-link commit and does not go through this method.
func (in *Instance) AssignSlicesOfLink(linkID, s, demandIdx int) {
	d := &in.Demands[demandIdx]
	in.Links[linkID].AssignSlices(d.ID, d.Load, s)
	d.Routed = true
	d.SliceAllocation = s
}
