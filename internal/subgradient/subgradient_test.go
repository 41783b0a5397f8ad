package subgradient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func TestRunFindsOptimalDirectPath(t *testing.T) {
	in := triangle()
	d := rsa.NewDemand(0, 0, 2, 1, 150)
	in.Demands = []rsa.Demand{d}

	g := layeredgraph.Build(in, d)
	preprocess.Run(context.Background(), g, in, d, preprocess.LevelFull)

	s := New(in, g, d, milp.Metric2, 0, 2, 5, 100)
	state, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateOptimal, state)

	path := s.PathArcs()
	require.Len(t, path, 1)
	assert.Equal(t, 2, path[0].LinkID)
}

func TestRunReportsInfeasibleWhenLengthUnreachable(t *testing.T) {
	in := rsa.NewInstance()
	in.NumNodes = 4
	in.Links = []rsa.PhysicalLink{
		rsa.NewPhysicalLink(0, 0, 1, 1000, 1, 2),
		rsa.NewPhysicalLink(1, 1, 2, 1000, 1, 2),
		rsa.NewPhysicalLink(2, 2, 3, 1000, 1, 2),
	}
	d := rsa.NewDemand(0, 0, 3, 1, 1500) // shortest path costs 3000 > 1500
	in.Demands = []rsa.Demand{d}

	g := layeredgraph.Build(in, d)

	s := New(in, g, d, milp.Metric4, 0, 2, 5, 50)
	state, err := s.Run(context.Background())
	assert.Error(t, err, "expected an infeasibility error")
	assert.Equal(t, StateInfeasible, state)
}

func TestRunStopsAtIterationLimit(t *testing.T) {
	in := triangle()
	d := rsa.NewDemand(0, 0, 2, 1, 150)
	in.Demands = []rsa.Demand{d}

	g := layeredgraph.Build(in, d)
	preprocess.Run(context.Background(), g, in, d, preprocess.LevelFull)

	s := New(in, g, d, milp.Metric2, 0, 2, 1000000, 0)
	state, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, []State{StateOptimal, StateExhausted}, state)
}
