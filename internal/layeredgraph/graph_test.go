package layeredgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rsa/internal/rsa"
)

func triangleInstance() *rsa.Instance {
	in := rsa.NewInstance()
	in.NumNodes = 3
	in.Links = []rsa.PhysicalLink{
		rsa.NewPhysicalLink(0, 0, 1, 100, 1, 4),
		rsa.NewPhysicalLink(1, 1, 2, 100, 1, 4),
		rsa.NewPhysicalLink(2, 0, 2, 100, 1, 4),
	}
	in.Demands = []rsa.Demand{rsa.NewDemand(0, 0, 2, 2, 150)}
	return in
}

func TestBuildCreatesBidirectionalArcsPerFreeSlice(t *testing.T) {
	in := triangleInstance()
	g := Build(in, in.Demands[0])

	// 3 links * 4 slices * 2 directions
	require.Equal(t, 3*4*2, g.NbArcs())

	n0, ok := g.FindNode(0, 0)
	require.True(t, ok, "node (label 0, slice 0) should exist")
	out := g.OutArcs(n0)
	assert.Len(t, out, 2, "OutArcs(0,0) should reach node 1 and node 2 at slice 0")
}

func TestBuildSkipsUsedSlices(t *testing.T) {
	in := triangleInstance()
	in.Links[2].AssignSlices(5, 1, 0) // occupy slice 0 of link 0-2

	g := Build(in, in.Demands[0])

	assert.Empty(t, g.ArcsAt(2, 0), "slice 0 is used, no arcs should remain")
	assert.Len(t, g.ArcsAt(2, 1), 2, "slice 1 is free")
}

func TestContractLabelMergesAllSlicePlanes(t *testing.T) {
	in := triangleInstance()
	g := Build(in, in.Demands[0])

	super := g.ContractLabel(0) // demand source label
	nodesWithLabel0 := g.NodesWithLabel(0)
	require.Len(t, nodesWithLabel0, 1, "exactly one node should carry label 0 after contraction")
	assert.Equal(t, super, nodesWithLabel0[0])

	// All out-arcs from every slice plane's source copy must now leave the
	// super-node: 2 physical links touch node 0 (link 0-1, link 0-2), each
	// with 4 free slices, so 8 out-arcs should survive.
	assert.Len(t, g.OutArcs(super), 2*4)
}

func TestEraseArcRemovesFromAllIndexes(t *testing.T) {
	in := triangleInstance()
	g := Build(in, in.Demands[0])

	arcs := g.ArcsAt(0, 0)
	require.NotEmpty(t, arcs)
	target := arcs[0]
	g.EraseArc(target)

	assert.NotContains(t, g.ArcsAt(0, 0), target, "erased arc still present in ArcsAt index")
	assert.NotContains(t, g.OutArcs(target.From), target, "erased arc still present in OutArcs index")
}
