// Package preprocess removes arcs from an extended graph that cannot
// appear in any feasible routing, at three progressively stronger levels.
package preprocess

import (
	"context"

	"rsa/internal/layeredgraph"
	"rsa/internal/rsa"
)

// Level selects how aggressively the extended graph is pruned before
// optimization runs.
type Level int

const (
	// LevelNone only removes arcs that cannot fit the demand's load, plus
	// arcs structurally forbidden at the source/target endpoints.
	LevelNone Level = iota
	// LevelPartial additionally runs one pass of length-based pruning.
	LevelPartial
	// LevelFull repeats the length-based pass to a fixed point.
	LevelFull
)

// Run prunes g in place for demand d at the requested level. It returns
// the number of arcs erased.
func Run(ctx context.Context, g *layeredgraph.Graph, inst *rsa.Instance, d rsa.Demand, level Level) int {
	erased := eraseNonRoutableArcs(g, inst, d)

	if level < LevelPartial {
		return erased
	}

	n, keepGoing := lengthPreprocessing(ctx, g, d)
	erased += n

	if level >= LevelFull {
		for keepGoing {
			n, keepGoing = lengthPreprocessing(ctx, g, d)
			erased += n
		}
	}

	return erased
}

// eraseNonRoutableArcs removes arcs that cannot fit the demand's load
// window on their physical link, arcs that leave the demand's target, and
// arcs that enter the demand's source. This enforces "source has no
// in-arc, target has no out-arc" structurally.
func eraseNonRoutableArcs(g *layeredgraph.Graph, inst *rsa.Instance, d rsa.Demand) int {
	erased := 0
	for _, a := range g.AllArcs() {
		link := inst.LinkByID(a.LinkID)
		uLabel := g.Label(a.From)
		vLabel := g.Label(a.To)

		if !link.HasEnoughSpace(a.Slice, d.Load) || uLabel == d.Target || vLabel == d.Source {
			g.EraseArc(a)
			erased++
		}
	}
	return erased
}

// lengthPreprocessing removes arcs that cannot be part of any s-t path of
// total physical length at most d.MaxLength (plus Epsilon tolerance). It
// returns the number of arcs erased and whether at least one was removed
// (the fixed-point signal for LevelFull).
//
// It computes, once per slice, the distance from the demand's source
// across that slice plane, and the distance from each arc head to the
// demand's target. The graph is not symmetric at this point
// (eraseNonRoutableArcs removed the arcs leaving the target and entering
// the source), so distance-to-target comes from a forward search rooted at
// each distinct arc head rather than from a search rooted at the target.
func lengthPreprocessing(ctx context.Context, g *layeredgraph.Graph, d rsa.Demand) (int, bool) {
	erased := 0

	bySlice := make(map[int][]*layeredgraph.Arc)
	for _, a := range g.AllArcs() {
		bySlice[a.Slice] = append(bySlice[a.Slice], a)
	}

	for slice, arcs := range bySlice {
		sourceNode, hasSource := g.FindNode(d.Source, slice)
		targetNode, hasTarget := g.FindNode(d.Target, slice)

		if !hasSource || !hasTarget {
			for _, a := range arcs {
				g.EraseArc(a)
				erased++
			}
			continue
		}

		distFromSource, _ := ShortestPaths(ctx, g, sourceNode)
		distToTarget := make(map[layeredgraph.NodeID]float64)
		for _, a := range arcs {
			if _, done := distToTarget[a.To]; !done {
				fromHead, _ := ShortestPaths(ctx, g, a.To)
				distToTarget[a.To] = Distance(fromHead, targetNode)
			}
		}

		for _, a := range arcs {
			total := Distance(distFromSource, a.From) + a.Length + distToTarget[a.To]
			if total >= d.MaxLength+Epsilon {
				g.EraseArc(a)
				erased++
			}
		}
	}

	return erased, erased >= 1
}
