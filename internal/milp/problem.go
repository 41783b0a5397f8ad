// Package milp builds the 0/1 flow formulation of multi-demand routing
// and spectrum assignment, and exposes a narrow Solver interface so the
// formulation can be handed to an external MILP engine.
package milp

import (
	"rsa/internal/layeredgraph"
	"rsa/internal/rsa"
)

// Sense is the relational operator of a linear constraint.
type Sense int

const (
	LE Sense = iota
	EQ
	GE
)

// Term is one coefficient*variable contribution to a constraint or the
// objective.
type Term struct {
	VarIndex int
	Coeff    float64
}

// Constraint is one linear constraint of the formulation.
type Constraint struct {
	Name  string
	Terms []Term
	Sense Sense
	RHS   float64
}

// Variable is one x[d,a] decision variable.
type Variable struct {
	Demand     int // index into Problem.Demands / Problem.Graphs
	Arc        *layeredgraph.Arc
	Coeff      float64
	UpperBound float64 // 0 forces the variable off: the arc cannot fit the load
}

// Problem is the complete 0/1 flow formulation for one batch of pending
// demands.
type Problem struct {
	Metric      ObjectiveMetric
	Demands     []rsa.Demand
	Graphs      []*layeredgraph.Graph
	Variables   []Variable
	Constraints []Constraint

	varIndex []map[*layeredgraph.Arc]int // per-demand arc -> global variable index
}

// VarIndex returns the global variable index of (demand, arc), or -1 if
// no such variable exists (the arc was pruned before the formulation was
// built).
func (p *Problem) VarIndex(demand int, a *layeredgraph.Arc) int {
	if demand < 0 || demand >= len(p.varIndex) {
		return -1
	}
	if idx, ok := p.varIndex[demand][a]; ok {
		return idx
	}
	return -1
}

// Build constructs the formulation for the given batch: one graph per
// demand, already pruned by the preprocessor.
func Build(inst *rsa.Instance, demands []rsa.Demand, graphs []*layeredgraph.Graph, metric ObjectiveMetric) *Problem {
	p := &Problem{
		Metric:   metric,
		Demands:  demands,
		Graphs:   graphs,
		varIndex: make([]map[*layeredgraph.Arc]int, len(demands)),
	}

	for di, g := range graphs {
		p.varIndex[di] = make(map[*layeredgraph.Arc]int)
		d := demands[di]
		for _, a := range g.AllArcs() {
			link := inst.LinkByID(a.LinkID)
			ub := 1.0
			if !link.HasEnoughSpace(a.Slice, d.Load) {
				ub = 0
			}
			idx := len(p.Variables)
			p.Variables = append(p.Variables, Variable{
				Demand:     di,
				Arc:        a,
				Coeff:      Coeff(metric, inst, g, a, d),
				UpperBound: ub,
			})
			p.varIndex[di][a] = idx
		}
	}

	for di, g := range graphs {
		p.addSourceConstraints(inst, g, di)
		p.addFlowConservationConstraints(g, di)
		p.addTargetConstraint(g, di)
		p.addLengthConstraint(g, di)
	}
	p.addNonOverlapConstraints(graphs, demands)

	return p
}

// addSourceConstraints emits, for every physical label i, a constraint on
// the sum of out-arcs from every (i,*) vertex of demand di's graph: =1 if
// i is the demand's source, =0 if its target, <=1 otherwise.
func (p *Problem) addSourceConstraints(inst *rsa.Instance, g *layeredgraph.Graph, di int) {
	d := p.Demands[di]
	for label := 0; label < inst.NumNodes; label++ {
		var terms []Term
		for _, n := range g.NodesWithLabel(label) {
			for _, a := range g.OutArcs(n) {
				terms = append(terms, Term{VarIndex: p.VarIndex(di, a), Coeff: 1})
			}
		}
		if len(terms) == 0 && label != d.Source && label != d.Target {
			continue
		}

		switch {
		case label == d.Source:
			p.Constraints = append(p.Constraints, Constraint{
				Name: "Source", Terms: terms, Sense: EQ, RHS: 1,
			})
		case label == d.Target:
			p.Constraints = append(p.Constraints, Constraint{
				Name: "Source", Terms: terms, Sense: EQ, RHS: 0,
			})
		default:
			p.Constraints = append(p.Constraints, Constraint{
				Name: "Source", Terms: terms, Sense: LE, RHS: 1,
			})
		}
	}
}

// addFlowConservationConstraints requires, for every vertex whose label
// is neither the demand's source nor its target, that in-flow equal
// out-flow.
func (p *Problem) addFlowConservationConstraints(g *layeredgraph.Graph, di int) {
	d := p.Demands[di]
	for _, n := range g.Nodes() {
		label := g.Label(n)
		if label == d.Source || label == d.Target {
			continue
		}

		var terms []Term
		for _, a := range g.OutArcs(n) {
			terms = append(terms, Term{VarIndex: p.VarIndex(di, a), Coeff: 1})
		}
		for _, a := range g.InArcs(n) {
			terms = append(terms, Term{VarIndex: p.VarIndex(di, a), Coeff: -1})
		}
		if len(terms) == 0 {
			continue
		}
		p.Constraints = append(p.Constraints, Constraint{Name: "Flow", Terms: terms, Sense: EQ, RHS: 0})
	}
}

// addTargetConstraint requires exactly one unit of flow to enter the
// demand's target, summed over every (target,*) vertex.
func (p *Problem) addTargetConstraint(g *layeredgraph.Graph, di int) {
	d := p.Demands[di]
	var terms []Term
	for _, n := range g.NodesWithLabel(d.Target) {
		for _, a := range g.InArcs(n) {
			terms = append(terms, Term{VarIndex: p.VarIndex(di, a), Coeff: 1})
		}
	}
	p.Constraints = append(p.Constraints, Constraint{Name: "Target", Terms: terms, Sense: EQ, RHS: 1})
}

// addLengthConstraint bounds the total physical length of the path by
// the demand's maxLength.
func (p *Problem) addLengthConstraint(g *layeredgraph.Graph, di int) {
	d := p.Demands[di]
	var terms []Term
	for _, a := range g.AllArcs() {
		terms = append(terms, Term{VarIndex: p.VarIndex(di, a), Coeff: a.Length})
	}
	p.Constraints = append(p.Constraints, Constraint{Name: "Length", Terms: terms, Sense: LE, RHS: d.MaxLength})
}
