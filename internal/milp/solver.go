package milp

import (
	"container/heap"
	"context"
	"math"

	"rsa/internal/layeredgraph"
	"rsa/internal/rsa"
)

// Status is the outcome of solving a Problem.
type Status int

const (
	StatusOptimal Status = iota
	StatusInfeasible
	StatusUnknown
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	default:
		return "unknown"
	}
}

// Solution is the result of solving a Problem: one value per Variable.
type Solution struct {
	Status Status
	X      []float64
}

// OnPath reports whether the variable for (demand, a) was selected, using
// the same 0.9 threshold the original LP-relaxation rounding used.
func (s *Solution) OnPath(p *Problem, demand int, a *layeredgraph.Arc) bool {
	idx := p.VarIndex(demand, a)
	if idx < 0 || idx >= len(s.X) {
		return false
	}
	return s.X[idx] >= 0.9
}

// PathArcs returns the arcs selected for demand in path order starting at
// its source, or nil if the demand was not routed.
func (s *Solution) PathArcs(p *Problem, g *layeredgraph.Graph, demand int) []*layeredgraph.Arc {
	selected := make(map[layeredgraph.NodeID]*layeredgraph.Arc)
	for i, v := range p.Variables {
		if v.Demand == demand && s.X[i] >= 0.9 {
			selected[v.Arc.From] = v.Arc
		}
	}
	d := p.Demands[demand]
	var ordered []*layeredgraph.Arc
	cur, ok := g.FindNode(d.Source, arcSliceOf(selected))
	if !ok {
		return nil
	}
	for {
		a, ok := selected[cur]
		if !ok {
			break
		}
		ordered = append(ordered, a)
		cur = a.To
	}
	return ordered
}

// arcSliceOf returns the slice plane of any one selected arc; every
// selected arc of a routed demand shares the same slice, since arcs never
// cross slice planes.
func arcSliceOf(selected map[layeredgraph.NodeID]*layeredgraph.Arc) int {
	for _, a := range selected {
		return a.Slice
	}
	return 0
}

// Solver solves a Problem, the seam where an external MILP engine would
// be plugged in.
type Solver interface {
	Solve(ctx context.Context, p *Problem) (*Solution, error)
}

// SequentialSolver routes demands of a batch one at a time, in batch
// order, committing each winner's slice window to a shadow spectrum
// occupancy before solving the next demand. Each demand's candidate
// routes are confined to disjoint slice planes (arcs never cross
// slices), so within one demand the search reduces to an ordinary
// non-negative-weight shortest path per plane; what the sequential
// ordering sacrifices, relative to a true joint batch optimum, is
// cross-demand load balancing across the batch — a later demand can
// never bump an earlier one out of a slice it already claimed.
type SequentialSolver struct {
	Instance *rsa.Instance
}

// Solve implements Solver.
func (s *SequentialSolver) Solve(ctx context.Context, p *Problem) (*Solution, error) {
	sol := &Solution{Status: StatusOptimal, X: make([]float64, len(p.Variables))}

	occ := make(map[int][]bool, len(s.Instance.Links))
	for i := range s.Instance.Links {
		link := &s.Instance.Links[i]
		row := make([]bool, link.NbSlices())
		for k := range row {
			row[k] = link.Spectrum[k].IsUsed()
		}
		occ[link.ID] = row
	}

	for di := range p.Demands {
		d := p.Demands[di]
		g := p.Graphs[di]

		path, ok := bestPath(ctx, g, p, di, occ, d)
		if !ok {
			sol.Status = StatusInfeasible
			continue
		}
		for _, a := range path {
			idx := p.VarIndex(di, a)
			if idx >= 0 {
				sol.X[idx] = 1
			}
			reserve(occ[a.LinkID], a.Slice, d.Load)
		}
	}

	return sol, nil
}

func hasSpace(occ []bool, s, load int) bool {
	first := s - load + 1
	if first < 0 || s >= len(occ) {
		return false
	}
	for k := first; k <= s; k++ {
		if occ[k] {
			return false
		}
	}
	return true
}

func reserve(occ []bool, s, load int) {
	first := s - load + 1
	for k := first; k <= s; k++ {
		occ[k] = true
	}
}

// bestPath finds the minimum-coefficient-sum simple path from d.Source to
// d.Target across every slice plane of g, honoring both the formulation's
// per-variable upper bounds and the solver's own running occupancy.
func bestPath(ctx context.Context, g *layeredgraph.Graph, p *Problem, di int, occ map[int][]bool, d rsa.Demand) ([]*layeredgraph.Arc, bool) {
	var bestArcs []*layeredgraph.Arc
	bestCost := math.Inf(1)

	allowed := func(a *layeredgraph.Arc) bool {
		idx := p.VarIndex(di, a)
		if idx < 0 || p.Variables[idx].UpperBound == 0 {
			return false
		}
		return hasSpace(occ[a.LinkID], a.Slice, d.Load)
	}
	weight := func(a *layeredgraph.Arc) float64 {
		idx := p.VarIndex(di, a)
		if idx < 0 {
			return math.Inf(1)
		}
		return p.Variables[idx].Coeff
	}

	for _, src := range g.NodesWithLabel(d.Source) {
		dist, prev := dijkstraFiltered(ctx, g, src, d.MaxLength, allowed, weight)
		for _, tgt := range g.NodesWithLabel(d.Target) {
			if g.Slice(tgt) != g.Slice(src) {
				continue
			}
			cost, ok := dist[tgt]
			if !ok || cost >= bestCost {
				continue
			}
			bestCost = cost
			bestArcs = reconstructPath(tgt, prev)
		}
	}

	return bestArcs, bestArcs != nil
}

func reconstructPath(target layeredgraph.NodeID, prev map[layeredgraph.NodeID]*layeredgraph.Arc) []*layeredgraph.Arc {
	var rev []*layeredgraph.Arc
	cur := target
	for {
		a, ok := prev[cur]
		if !ok {
			break
		}
		rev = append(rev, a)
		cur = a.From
	}
	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	return rev
}

type dijkstraItem struct {
	node     layeredgraph.NodeID
	distance float64
	index    int
}

type dijkstraQueue []*dijkstraItem

func (q dijkstraQueue) Len() int { return len(q) }
func (q dijkstraQueue) Less(i, j int) bool {
	if q[i].distance != q[j].distance {
		return q[i].distance < q[j].distance
	}
	return q[i].node < q[j].node
}
func (q dijkstraQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index, q[j].index = i, j
}
func (q *dijkstraQueue) Push(x any) {
	item := x.(*dijkstraItem)
	item.index = len(*q)
	*q = append(*q, item)
}
func (q *dijkstraQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

const checkInterval = 100

// epsilon tolerates floating-point noise in distance comparisons, same
// tolerance used by internal/preprocess's shortest-path sweeps.
const epsilon = 1e-4

// dijkstraFiltered runs Dijkstra from source over only the arcs allowed
// permits, weighted by weight, checking ctx for cancellation periodically.
// Alongside the cost label it tracks the physical length accumulated by
// the cheapest-cost path reaching each node, and refuses to relax an arc
// that would push that length past maxLength — enforcing the
// formulation's own Length constraint (problem.go's addLengthConstraint)
// on the one path the solver actually returns, not just on the
// individual arcs preprocessing already pruned.
func dijkstraFiltered(
	ctx context.Context,
	g *layeredgraph.Graph,
	source layeredgraph.NodeID,
	maxLength float64,
	allowed func(*layeredgraph.Arc) bool,
	weight func(*layeredgraph.Arc) float64,
) (map[layeredgraph.NodeID]float64, map[layeredgraph.NodeID]*layeredgraph.Arc) {
	dist := map[layeredgraph.NodeID]float64{source: 0}
	length := map[layeredgraph.NodeID]float64{source: 0}
	prev := make(map[layeredgraph.NodeID]*layeredgraph.Arc)

	pq := &dijkstraQueue{{node: source, distance: 0}}
	heap.Init(pq)

	iterations := 0
	for pq.Len() > 0 {
		iterations++
		if iterations%checkInterval == 0 {
			select {
			case <-ctx.Done():
				return dist, prev
			default:
			}
		}

		current := heap.Pop(pq).(*dijkstraItem)
		if current.distance > dist[current.node]+epsilon {
			continue
		}

		for _, a := range g.OutArcs(current.node) {
			if !allowed(a) {
				continue
			}
			newLength := length[current.node] + a.Length
			if newLength > maxLength+epsilon {
				continue
			}
			next := current.distance + weight(a)
			if d, ok := dist[a.To]; !ok || next < d {
				dist[a.To] = next
				length[a.To] = newLength
				prev[a.To] = a
				heap.Push(pq, &dijkstraItem{node: a.To, distance: next})
			}
		}
	}

	return dist, prev
}
