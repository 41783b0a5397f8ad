// Package subgradient solves a single demand's constrained shortest path
// (minimum objective cost subject to a maximum physical length) with
// Lagrangian relaxation, as an alternative to handing the whole batch to
// a MILP engine: it relaxes the length constraint into the objective with
// a multiplier, and adjusts that multiplier by subgradient ascent until
// the relaxed lower bound meets the best feasible path found.
package subgradient

import (
	"context"
	"math"

	"rsa/internal/apperr"
	"rsa/internal/layeredgraph"
	"rsa/internal/milp"
	"rsa/internal/rsa"
)

// State is the terminal or in-progress status of a Solver.
type State int

const (
	StateInit State = iota
	StateRunning
	StateOptimal
	StateInfeasible
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateRunning:
		return "running"
	case StateOptimal:
		return "optimal"
	case StateInfeasible:
		return "infeasible"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// sentinelBound stands in for the original's +/-DBL_MAX seed: large
// enough to never accidentally satisfy a bound comparison before a real
// bound is known, but finite, so arithmetic against it never produces
// Inf or NaN.
const sentinelBound = math.MaxFloat64 / 2

// minDenominator floors the step-size formula's ||slack||^2 denominator,
// which would otherwise divide by zero whenever a found path lands
// exactly on the length budget.
const minDenominator = 1e-6

// Solver runs the subgradient method for one demand's constrained
// shortest path over an already-built (and typically preprocessed)
// extended graph.
type Solver struct {
	inst   *rsa.Instance
	graph  *layeredgraph.Graph
	demand rsa.Demand
	metric milp.ObjectiveMetric

	maxItWithoutImprovement int
	maxIterations           int

	source, target layeredgraph.NodeID

	iteration            int
	itWithoutImprovement  int
	lb, ub                float64
	currentCost           float64
	isFeasible            bool
	isOptimal             bool
	state                 State

	lagrangianMultiplier []float64
	slack                []float64
	stepSize             []float64
	lambda               []float64

	cost   map[*layeredgraph.Arc]float64
	onPath map[*layeredgraph.Arc]bool
}

// New builds a Solver for demand d over g, which must already contain
// only arcs the preprocessor judged potentially routable for d.
// initialMultiplier and initialLambda seed the relaxation; the two
// iteration limits bound, respectively, how long the step-size damping
// lambda is held before being halved, and how long the whole method runs.
//
// New contracts every slice-copy of d.Source (and of d.Target) in g into
// a single super-node: the method treats "pick a slice" and "pick a
// route" as one combined shortest-path decision, so the search must be
// free to land on any slice at the source rather than being pinned to
// one plane in advance.
func New(
	inst *rsa.Instance,
	g *layeredgraph.Graph,
	d rsa.Demand,
	metric milp.ObjectiveMetric,
	initialMultiplier, initialLambda float64,
	maxItWithoutImprovement, maxIterations int,
) *Solver {
	s := &Solver{
		inst:                    inst,
		graph:                   g,
		demand:                  d,
		metric:                  metric,
		maxItWithoutImprovement: maxItWithoutImprovement,
		maxIterations:           maxIterations,
		lb:                      -sentinelBound,
		ub:                      sentinelBound,
		state:                   StateInit,
		lagrangianMultiplier:    []float64{initialMultiplier},
		lambda:                  []float64{initialLambda},
		cost:                    make(map[*layeredgraph.Arc]float64),
		onPath:                  make(map[*layeredgraph.Arc]bool),
	}

	s.source = g.ContractLabel(d.Source)
	s.target = g.ContractLabel(d.Target)
	s.updateCosts()

	return s
}

// State returns the solver's current status.
func (s *Solver) State() State { return s.state }

// LB returns the best Lagrangian lower bound found so far.
func (s *Solver) LB() float64 { return s.lb }

// UB returns the best feasible path cost found so far.
func (s *Solver) UB() float64 { return s.ub }

// IsOptimal reports whether the lower and upper bounds have met.
func (s *Solver) IsOptimal() bool { return s.isOptimal }

// Iteration returns the number of completed subgradient iterations.
func (s *Solver) Iteration() int { return s.iteration }

// OnPath reports whether arc a belongs to the best feasible path found.
func (s *Solver) OnPath(a *layeredgraph.Arc) bool { return s.onPath[a] }

// PathArcs reconstructs the best feasible path found, in source-to-target
// order, or nil if no feasible path was ever recorded.
func (s *Solver) PathArcs() []*layeredgraph.Arc {
	next := make(map[layeredgraph.NodeID]*layeredgraph.Arc, len(s.onPath))
	for a := range s.onPath {
		next[a.From] = a
	}
	var ordered []*layeredgraph.Arc
	cur := s.source
	for {
		a, ok := next[cur]
		if !ok {
			break
		}
		ordered = append(ordered, a)
		cur = a.To
	}
	return ordered
}

func (s *Solver) lastMultiplier() float64 {
	return s.lagrangianMultiplier[len(s.lagrangianMultiplier)-1]
}
func (s *Solver) multiplierAt(k int) float64 {
	if k < len(s.lagrangianMultiplier) {
		return s.lagrangianMultiplier[k]
	}
	return s.lastMultiplier()
}
func (s *Solver) lastLambda() float64 { return s.lambda[len(s.lambda)-1] }
func (s *Solver) lambdaAt(k int) float64 {
	if k < len(s.lambda) {
		return s.lambda[k]
	}
	return s.lastLambda()
}
func (s *Solver) lastSlack() float64 { return s.slack[len(s.slack)-1] }
func (s *Solver) slackAt(k int) float64 {
	if k < len(s.slack) {
		return s.slack[k]
	}
	return s.lastSlack()
}
func (s *Solver) lastStepSize() float64 { return s.stepSize[len(s.stepSize)-1] }

// updateCosts reprices every arc as its objective coefficient plus the
// current multiplier times the arc's physical length: cost = c + u*length.
func (s *Solver) updateCosts() {
	for _, a := range s.graph.AllArcs() {
		s.cost[a] = milp.Coeff(s.metric, s.inst, s.graph, a, s.demand) + s.lastMultiplier()*a.Length
	}
}

// setLengthCost reprices every arc to its physical length alone, used by
// testFeasibility's pure shortest-length search.
func (s *Solver) setLengthCost() {
	for _, a := range s.graph.AllArcs() {
		s.cost[a] = a.Length
	}
}

func (s *Solver) pathLength(arcs []*layeredgraph.Arc) float64 {
	total := 0.0
	for _, a := range arcs {
		total += a.Length
	}
	return total
}

func (s *Solver) pathCost(arcs []*layeredgraph.Arc) float64 {
	total := 0.0
	for _, a := range arcs {
		total += milp.Coeff(s.metric, s.inst, s.graph, a, s.demand)
	}
	return total
}

func (s *Solver) markOnPath(arcs []*layeredgraph.Arc) {
	for a := range s.onPath {
		delete(s.onPath, a)
	}
	for _, a := range arcs {
		s.onPath[a] = true
	}
}

func (s *Solver) updateLB(bound float64) {
	if bound > s.lb {
		s.lb = bound
		s.itWithoutImprovement = 0
	} else {
		s.itWithoutImprovement++
	}
}

func (s *Solver) updateUB(bound float64) {
	if bound < s.ub {
		s.ub = bound
	}
}

func (s *Solver) updateMultiplier() {
	violation := -s.lastSlack()
	next := s.lastMultiplier() + s.lastStepSize()*violation
	if next < 0 {
		next = 0
	}
	s.lagrangianMultiplier = append(s.lagrangianMultiplier, next)
}

func (s *Solver) updateStepSize() {
	k := s.iteration
	numerator := s.lambdaAt(k) * (s.ub - s.currentCost)
	denominator := s.slackAt(k) * s.slackAt(k)
	if denominator < minDenominator {
		denominator = minDenominator
	}
	s.stepSize = append(s.stepSize, numerator/denominator)
}

func (s *Solver) updateLambda() {
	next := s.lastLambda()
	if s.itWithoutImprovement >= s.maxItWithoutImprovement {
		s.itWithoutImprovement = 0
		next = next / 2
	}
	s.lambda = append(s.lambda, next)
}

func (s *Solver) updateSlack(pathLength float64) {
	s.slack = append(s.slack, s.demand.MaxLength-pathLength)
}

// testFeasibility searches for the physically shortest path, ignoring
// cost entirely, to decide whether the demand can be routed at all under
// its length budget. Unlike the original, which records this path's cost
// as the upper bound without marking it on-path, this records both: an
// upper bound with no corresponding path would leave isFeasible true and
// PathArcs empty.
func (s *Solver) testFeasibility(ctx context.Context) bool {
	s.setLengthCost()
	_, prev := shortestPath(ctx, s.graph, s.source, s.cost)
	arcs := pathArcs(s.source, s.target, prev)
	if s.pathLength(arcs) >= s.demand.MaxLength+epsilon {
		return false
	}
	s.updateUB(s.pathCost(arcs))
	s.markOnPath(arcs)
	return true
}

// Run executes the subgradient method to a terminal state: StateOptimal
// when the bounds meet, StateExhausted when the iteration budget runs out
// first with a feasible path still in hand, or an error wrapping
// apperr.CodeInfeasible when no path respects the length budget at all.
func (s *Solver) Run(ctx context.Context) (State, error) {
	s.state = StateRunning

	dist, prev := shortestPath(ctx, s.graph, s.source, s.cost)
	d, reached := dist[s.target]
	if !reached {
		s.state = StateInfeasible
		return s.state, apperr.NewWithField(apperr.CodeInfeasible, "no path exists in the extended graph", "demand").WithDetails("demandId", s.demand.ID)
	}

	arcs := pathArcs(s.source, s.target, prev)
	s.currentCost = d - s.demand.MaxLength*s.multiplierAt(s.iteration)
	s.updateLB(s.currentCost)
	length := s.pathLength(arcs)
	s.updateSlack(length)

	if length >= s.demand.MaxLength+epsilon {
		if !s.testFeasibility(ctx) {
			s.isFeasible = false
			s.state = StateInfeasible
			return s.state, apperr.NewWithField(apperr.CodeInfeasible, "constrained shortest path is infeasible", "demand").WithDetails("demandId", s.demand.ID)
		}
	} else {
		s.updateUB(s.pathCost(arcs))
		s.isFeasible = true
		s.markOnPath(arcs)
	}

	stop := false
	if s.lb >= s.ub-epsilon {
		s.isOptimal = true
		stop = true
	}
	s.updateStepSize()

	for !stop {
		select {
		case <-ctx.Done():
			stop = true
			continue
		default:
		}

		s.updateMultiplier()
		s.iteration++

		s.updateCosts()
		dist, prev = shortestPath(ctx, s.graph, s.source, s.cost)
		d, reached = dist[s.target]
		if !reached {
			s.state = StateInfeasible
			return s.state, apperr.NewWithField(apperr.CodeInfeasible, "graph became disconnected mid-run", "demand").WithDetails("demandId", s.demand.ID)
		}
		arcs = pathArcs(s.source, s.target, prev)

		s.currentCost = d - s.demand.MaxLength*s.multiplierAt(s.iteration)
		length = s.pathLength(arcs)
		s.updateSlack(length)
		s.updateLB(s.currentCost)

		newPathCost := s.pathCost(arcs)
		if s.slackAt(s.iteration) >= -epsilon && newPathCost < s.ub {
			s.updateUB(newPathCost)
			s.markOnPath(arcs)
		}
		s.updateLambda()
		s.updateStepSize()

		if s.lb >= s.ub-epsilon {
			s.isOptimal = true
			stop = true
		}
		if s.iteration >= s.maxIterations {
			stop = true
		}
	}

	if s.isOptimal {
		s.state = StateOptimal
	} else {
		s.state = StateExhausted
	}
	return s.state, nil
}
