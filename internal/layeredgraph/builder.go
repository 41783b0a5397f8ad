package layeredgraph

import "rsa/internal/rsa"

// Build constructs the extended routing graph for demand d: for every
// physical link and every currently free slice of that link, two arcs
// are added (one per direction), each labeled with the link, the slice,
// and the link's physical length. Node creation is lazy and idempotent
// per (label, slice).
func Build(inst *rsa.Instance, d rsa.Demand) *Graph {
	g := New()
	for i := range inst.Links {
		link := &inst.Links[i]
		for s := 0; s < link.NbSlices(); s++ {
			if link.Spectrum[s].IsUsed() {
				continue
			}
			g.AddArc(link.ID, link.Source, link.Target, s, link.Length)
			g.AddArc(link.ID, link.Target, link.Source, s, link.Length)
		}
	}
	_ = d // demand identity is used by the preprocessor and solvers, not the builder
	return g
}

// BuildBatch constructs one extended graph per pending demand in the
// batch, in the same order as demandIndices.
func BuildBatch(inst *rsa.Instance, demandIndices []int) []*Graph {
	graphs := make([]*Graph, len(demandIndices))
	for i, idx := range demandIndices {
		graphs[i] = Build(inst, inst.Demands[idx])
	}
	return graphs
}
