// Package writer commits a solved batch's chosen paths into the shared
// occupancy model. It is the only component allowed to mutate an
// Instance between solver runs.
package writer

import (
	"rsa/internal/apperr"
	"rsa/internal/layeredgraph"
	"rsa/internal/milp"
	"rsa/internal/rsa"
)

// CommitMILP writes every routed demand of a solved batch into inst.
// demandIndices[i] is the index into inst.Demands that batch position i
// (p.Demands[i], p.Graphs[i]) corresponds to. It returns the number of
// demands committed.
//
// Each demand is validated in full — a complete, contiguous, same-slice
// path from its source to its target, still fitting its slice window —
// before anything is written for it: a demand whose path extraction is
// incomplete leaves no partial trace in inst.
func CommitMILP(inst *rsa.Instance, p *milp.Problem, sol *milp.Solution, demandIndices []int) (int, error) {
	committed := 0
	for di, instIdx := range demandIndices {
		d := p.Demands[di]
		g := p.Graphs[di]
		arcs := sol.PathArcs(p, g, di)
		if len(arcs) == 0 {
			continue
		}
		if err := commitPath(inst, d, g, arcs, instIdx); err != nil {
			return committed, err
		}
		committed++
	}
	return committed, nil
}

// CommitSubgradient writes the single demand solved by a subgradient
// Solver into inst.
func CommitSubgradient(inst *rsa.Instance, g *layeredgraph.Graph, d rsa.Demand, arcs []*layeredgraph.Arc, instIdx int) error {
	if len(arcs) == 0 {
		return apperr.NewWithField(apperr.CodeNoPath, "no path to commit", "demand").WithDetails("demandId", d.ID)
	}
	return commitPath(inst, d, g, arcs, instIdx)
}

func commitPath(inst *rsa.Instance, d rsa.Demand, g *layeredgraph.Graph, arcs []*layeredgraph.Arc, instIdx int) error {
	if err := validatePath(g, d, arcs); err != nil {
		return err
	}

	slice := arcs[0].Slice
	for _, a := range arcs {
		link := inst.LinkByID(a.LinkID)
		if link == nil {
			return apperr.NewWithField(apperr.CodeInvalidGraph, "path references an unknown link", "demand").WithDetails("demandId", d.ID).WithDetails("linkId", a.LinkID)
		}
		if !link.HasEnoughSpace(slice, d.Load) {
			return apperr.NewWithField(apperr.CodeCapacityOverflow, "committed path no longer fits its slice window", "demand").WithDetails("demandId", d.ID)
		}
	}

	for _, a := range arcs {
		inst.Links[a.LinkID].AssignSlices(d.ID, d.Load, slice)
	}
	inst.Demands[instIdx].Routed = true
	inst.Demands[instIdx].SliceAllocation = slice
	return nil
}

// validatePath checks that arcs form one unbroken, single-slice path
// from d.Source to d.Target.
func validatePath(g *layeredgraph.Graph, d rsa.Demand, arcs []*layeredgraph.Arc) error {
	if g.Label(arcs[0].From) != d.Source {
		return apperr.NewWithField(apperr.CodeNoPath, "path does not start at the demand's source", "demand").WithDetails("demandId", d.ID)
	}
	if g.Label(arcs[len(arcs)-1].To) != d.Target {
		return apperr.NewWithField(apperr.CodeNoPath, "path does not end at the demand's target", "demand").WithDetails("demandId", d.ID)
	}
	slice := arcs[0].Slice
	for i, a := range arcs {
		if a.Slice != slice {
			return apperr.NewWithField(apperr.CodeInvalidGraph, "path crosses slice planes", "demand").WithDetails("demandId", d.ID)
		}
		if i > 0 && a.From != arcs[i-1].To {
			return apperr.NewWithField(apperr.CodeNoPath, "path is not contiguous", "demand").WithDetails("demandId", d.ID)
		}
	}
	return nil
}
