package subgradient

import (
	"container/heap"
	"context"
	"math"

	"rsa/internal/layeredgraph"
)

// epsilon tolerates floating-point noise in length and bound comparisons,
// matching the tolerance used throughout the routing packages.
const epsilon = 1e-4

type pqItem struct {
	node     layeredgraph.NodeID
	distance float64
	index    int
}

type priorityQueue []*pqItem

func (q priorityQueue) Len() int { return len(q) }
func (q priorityQueue) Less(i, j int) bool {
	if q[i].distance != q[j].distance {
		return q[i].distance < q[j].distance
	}
	return q[i].node < q[j].node
}
func (q priorityQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index, q[j].index = i, j
}
func (q *priorityQueue) Push(x any) {
	item := x.(*pqItem)
	item.index = len(*q)
	*q = append(*q, item)
}
func (q *priorityQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

const checkInterval = 100

// shortestPath runs Dijkstra over g with per-arc weights given by cost,
// from source, checking ctx periodically. It returns the distance to
// every reached node and the predecessor arc on its shortest path.
func shortestPath(
	ctx context.Context,
	g *layeredgraph.Graph,
	source layeredgraph.NodeID,
	cost map[*layeredgraph.Arc]float64,
) (map[layeredgraph.NodeID]float64, map[layeredgraph.NodeID]*layeredgraph.Arc) {
	dist := map[layeredgraph.NodeID]float64{source: 0}
	prev := make(map[layeredgraph.NodeID]*layeredgraph.Arc)

	pq := &priorityQueue{{node: source, distance: 0}}
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

		current := heap.Pop(pq).(*pqItem)
		if current.distance > dist[current.node]+epsilon {
			continue
		}

		for _, a := range g.OutArcs(current.node) {
			w, ok := cost[a]
			if !ok {
				w = math.Inf(1)
			}
			next := current.distance + w
			if d, ok := dist[a.To]; !ok || next < d {
				dist[a.To] = next
				prev[a.To] = a
				heap.Push(pq, &pqItem{node: a.To, distance: next})
			}
		}
	}

	return dist, prev
}

// pathArcs walks prev from target back to source, returning the arcs in
// source-to-target order.
func pathArcs(source, target layeredgraph.NodeID, prev map[layeredgraph.NodeID]*layeredgraph.Arc) []*layeredgraph.Arc {
	var rev []*layeredgraph.Arc
	n := target
	for n != source {
		a, ok := prev[n]
		if !ok {
			return nil
		}
		rev = append(rev, a)
		n = a.From
	}
	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	return rev
}
