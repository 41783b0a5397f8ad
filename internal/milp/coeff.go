package milp

import (
	"rsa/internal/layeredgraph"
	"rsa/internal/rsa"
)

// ObjectiveMetric selects which quantity the formulation minimizes.
type ObjectiveMetric string

const (
	Metric1  ObjectiveMetric = "1"
	Metric1p ObjectiveMetric = "1p"
	Metric2  ObjectiveMetric = "2"
	Metric4  ObjectiveMetric = "4"
	Metric8  ObjectiveMetric = "8"
)

// Coeff returns the per-arc objective coefficient for arc a of demand d's
// graph g, under the given metric.
func Coeff(metric ObjectiveMetric, inst *rsa.Instance, g *layeredgraph.Graph, a *layeredgraph.Arc, d rsa.Demand) float64 {
	switch metric {
	case Metric1:
		return coeffObj1(g, a, d)
	case Metric1p:
		return coeffObj1p(inst, a)
	case Metric2:
		return coeffObj2()
	case Metric4:
		return coeffObj4(a)
	case Metric8:
		return coeffObj8(inst, g, a, d)
	default:
		return coeffObj1p(inst, a)
	}
}

// coeffObj1 charges (arcSlice+1) on arcs leaving the demand's source, 1
// elsewhere: it favors low slice indices at the path's first hop.
func coeffObj1(g *layeredgraph.Graph, a *layeredgraph.Arc, d rsa.Demand) float64 {
	if g.Label(a.From) == d.Source {
		return float64(a.Slice + 1)
	}
	return 1
}

// coeffObj1p charges the higher of the arc's own slice and the current
// max-used-slice of its physical link, pushing new routes to reuse
// already-opened slice positions rather than fragmenting the spectrum.
func coeffObj1p(inst *rsa.Instance, a *layeredgraph.Arc) float64 {
	maxUsed := inst.LinkByID(a.LinkID).MaxUsedSlicePosition()
	if a.Slice <= maxUsed {
		return float64(maxUsed)
	}
	return float64(a.Slice)
}

// coeffObj2 counts hops.
func coeffObj2() float64 {
	return 1
}

// coeffObj4 charges the arc's physical length.
func coeffObj4(a *layeredgraph.Arc) float64 {
	return a.Length
}

// coeffObj8 is the network-wide variant of coeffObj1: it compares against
// the highest used slice across every link, not just the arc's own link.
func coeffObj8(inst *rsa.Instance, g *layeredgraph.Graph, a *layeredgraph.Arc, d rsa.Demand) float64 {
	maxUsed := 0
	for i := range inst.Links {
		if m := inst.Links[i].MaxUsedSlicePosition(); m > maxUsed {
			maxUsed = m
		}
	}
	if g.Label(a.From) != d.Source {
		return 1
	}
	if a.Slice <= maxUsed {
		return float64(maxUsed + 1)
	}
	return float64(a.Slice + 1)
}
