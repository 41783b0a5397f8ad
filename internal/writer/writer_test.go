package writer

import (
	"context"
	"testing"

	"rsa/internal/layeredgraph"
	"rsa/internal/milp"
	"rsa/internal/preprocess"
	"rsa/internal/rsa"
)

func triangle() *rsa.Instance {
	in := rsa.NewInstance()
	in.NumNodes = 3
	in.Links = []rsa.PhysicalLink{
		rsa.NewPhysicalLink(0, 0, 1, 100, 1, 4),
		rsa.NewPhysicalLink(1, 1, 2, 100, 1, 4),
		rsa.NewPhysicalLink(2, 0, 2, 100, 1, 4),
	}
	return in
}

func TestCommitMILPWritesSliceWindowAndMetadata(t *testing.T) {
	in := triangle()
	d := rsa.NewDemand(0, 0, 2, 1, 150)
	in.Demands = []rsa.Demand{d}

	g := layeredgraph.Build(in, d)
	preprocess.Run(context.Background(), g, in, d, preprocess.LevelFull)
	p := milp.Build(in, in.Demands, []*layeredgraph.Graph{g}, milp.Metric2)
	solver := &milp.SequentialSolver{Instance: in}
	sol, err := solver.Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}

	committed, err := CommitMILP(in, p, sol, []int{0})
	if err != nil {
		t.Fatalf("CommitMILP: %v", err)
	}
	if committed != 1 {
		t.Fatalf("committed = %d, want 1", committed)
	}
	if !in.Demands[0].Routed {
		t.Error("demand should be marked routed")
	}
	if !in.Links[2].Contains(0) {
		t.Error("direct link should carry the demand's occupancy")
	}
	if in.Links[0].Contains(0) || in.Links[1].Contains(0) {
		t.Error("the two-hop links should be untouched")
	}
}

func TestCommitMILPSkipsUnroutedDemands(t *testing.T) {
	in := rsa.NewInstance()
	in.NumNodes = 2
	in.Links = []rsa.PhysicalLink{rsa.NewPhysicalLink(0, 0, 1, 100, 1, 1)}
	d := rsa.NewDemand(0, 0, 1, 2, 150)
	in.Demands = []rsa.Demand{d}

	g := layeredgraph.Build(in, d)
	preprocess.Run(context.Background(), g, in, d, preprocess.LevelFull)
	p := milp.Build(in, in.Demands, []*layeredgraph.Graph{g}, milp.Metric2)
	solver := &milp.SequentialSolver{Instance: in}
	sol, err := solver.Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}

	committed, err := CommitMILP(in, p, sol, []int{0})
	if err != nil {
		t.Fatalf("CommitMILP: %v", err)
	}
	if committed != 0 {
		t.Fatalf("committed = %d, want 0", committed)
	}
	if in.Demands[0].Routed {
		t.Error("an infeasible demand must not be marked routed")
	}
}

func TestCommitSubgradientRejectsBrokenPath(t *testing.T) {
	in := triangle()
	d := rsa.NewDemand(0, 0, 2, 1, 150)
	in.Demands = []rsa.Demand{d}
	g := layeredgraph.Build(in, d)

	source, ok := g.FindNode(0, 0)
	if !ok {
		t.Fatal("expected a node for (label 0, slice 0)")
	}
	mid, ok := g.FindNode(1, 0)
	if !ok {
		t.Fatal("expected a node for (label 1, slice 0)")
	}
	var broken *layeredgraph.Arc
	for _, a := range g.OutArcs(source) {
		if a.To == mid {
			broken = a
			break
		}
	}
	if broken == nil {
		t.Fatal("expected an arc from source to the intermediate node on slice 0")
	}

	if err := CommitSubgradient(in, g, d, []*layeredgraph.Arc{broken}, 0); err == nil {
		t.Fatal("expected an error for a path that does not reach the target")
	}
	if in.Demands[0].Routed {
		t.Error("a rejected path must not leave a partial write")
	}
	if in.Links[0].Contains(0) {
		t.Error("a rejected path must not touch link occupancy")
	}
}
