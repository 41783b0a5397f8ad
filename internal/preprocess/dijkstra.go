package preprocess

import (
	"container/heap"
	"context"
	"math"

	"rsa/internal/layeredgraph"
)

// Epsilon tolerates floating-point noise in length comparisons, matching
// the additive tolerance used throughout the length-constrained routing
// computations.
const Epsilon = 1e-4

// priorityQueueItem is one entry of the Dijkstra frontier.
type priorityQueueItem struct {
	node     layeredgraph.NodeID
	distance float64
	index    int
}

// priorityQueue is a min-heap over distance, tie-broken by node id so
// that runs over the same graph are reproducible.
type priorityQueue []*priorityQueueItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].distance != pq[j].distance {
		return pq[i].distance < pq[j].distance
	}
	return pq[i].node < pq[j].node
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x any) {
	item := x.(*priorityQueueItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}

// ShortestPaths runs Dijkstra from source over the arc lengths of g.
// Physical lengths are always non-negative, so no negative-edge fallback
// is needed here. Returns the distance to every reachable node; an
// unreachable node is simply absent from the map. Canceled reports
// whether ctx was done before the search completed.
func ShortestPaths(ctx context.Context, g *layeredgraph.Graph, source layeredgraph.NodeID) (dist map[layeredgraph.NodeID]float64, canceled bool) {
	dist = make(map[layeredgraph.NodeID]float64)
	dist[source] = 0

	pq := make(priorityQueue, 0, len(g.Nodes()))
	heap.Init(&pq)
	heap.Push(&pq, &priorityQueueItem{node: source, distance: 0})

	const checkInterval = 100
	iterations := 0

	for pq.Len() > 0 {
		if iterations%checkInterval == 0 {
			select {
			case <-ctx.Done():
				return dist, true
			default:
			}
		}
		iterations++

		current := heap.Pop(&pq).(*priorityQueueItem)
		u := current.node

		if best, ok := dist[u]; ok && current.distance > best+Epsilon {
			continue
		}

		for _, a := range g.OutArcs(u) {
			newDist := dist[u] + a.Length
			if best, ok := dist[a.To]; !ok || newDist < best-Epsilon {
				dist[a.To] = newDist
				heap.Push(&pq, &priorityQueueItem{node: a.To, distance: newDist})
			}
		}
	}

	return dist, false
}

// Distance returns the shortest distance from source to target in dist,
// or +Inf if target is unreachable.
func Distance(dist map[layeredgraph.NodeID]float64, target layeredgraph.NodeID) float64 {
	if d, ok := dist[target]; ok {
		return d
	}
	return math.Inf(1)
}
