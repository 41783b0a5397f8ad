package milp

import (
	"rsa/internal/layeredgraph"
	"rsa/internal/rsa"
)

// addNonOverlapConstraints forbids two demands from occupying overlapping
// slice windows on the same physical link. For every unordered pair of
// demands {d1, d2} and every (link, slice) at which d1 has an arc, it
// bounds d1's occupancy of that cell plus d2's occupancy of the slice
// range d1's load window would collide with, to at most one unit.
//
// The reference formulation emits this once per ordered pair, which
// double-counts every unordered pair; emitting it once per unordered pair
// covers the same feasible region at half the constraint count.
func (p *Problem) addNonOverlapConstraints(graphs []*layeredgraph.Graph, demands []rsa.Demand) {
	for i := 0; i < len(graphs); i++ {
		for j := i + 1; j < len(graphs); j++ {
			p.addNonOverlapPair(graphs, demands, i, j)
		}
	}
}

func (p *Problem) addNonOverlapPair(graphs []*layeredgraph.Graph, demands []rsa.Demand, i, j int) {
	g1 := graphs[i]
	d1, d2 := demands[i], demands[j]

	seen := make(map[[2]int]bool) // (linkID, slice) already emitted for this pair
	for _, a1 := range g1.AllArcs() {
		key := [2]int{a1.LinkID, a1.Slice}
		if seen[key] {
			continue
		}
		seen[key] = true

		lo := a1.Slice - d1.Load + 1
		hi := a1.Slice + d2.Load - 1

		var terms []Term
		for _, a := range g1.ArcsAt(a1.LinkID, a1.Slice) {
			terms = append(terms, Term{VarIndex: p.VarIndex(i, a), Coeff: 1})
		}
		for s := lo; s <= hi; s++ {
			for _, a2 := range graphs[j].ArcsAt(a1.LinkID, s) {
				terms = append(terms, Term{VarIndex: p.VarIndex(j, a2), Coeff: 1})
			}
		}
		if len(terms) <= 1 {
			continue // only d1's own cell present: nothing to collide with
		}
		p.Constraints = append(p.Constraints, Constraint{Name: "NonOverlap", Terms: terms, Sense: LE, RHS: 1})
	}
}
