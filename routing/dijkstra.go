package routing

import (
	"container/heap"
	"math"

	"github.com/signalsfoundry/mesh-energy-router/core"
)

type weightFunc func(core.Edge) float64

// nodeItem is a heap entry; stale entries are skipped on pop instead of
// being decreased in place.
type nodeItem struct {
	id   core.NodeID
	dist float64
}

// nodePQ orders by distance, then by node id so equal-cost frontiers are
// settled in a fixed order.
type nodePQ []nodeItem

func (pq nodePQ) Len() int { return len(pq) }

func (pq nodePQ) Less(i, j int) bool {
	if pq[i].dist != pq[j].dist {
		return pq[i].dist < pq[j].dist
	}
	return pq[i].id < pq[j].id
}

func (pq nodePQ) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }

func (pq *nodePQ) Push(x any) { *pq = append(*pq, x.(nodeItem)) }

func (pq *nodePQ) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

// runner holds the state of one single-source search over an alive view.
type runner struct {
	g       *core.Subgraph
	weight  weightFunc
	dist    []float64
	prev    []core.NodeID
	visited []bool
	pq      nodePQ
}

func newRunner(g *core.Subgraph, w weightFunc) *runner {
	n := g.Size()
	r := &runner{
		g:       g,
		weight:  w,
		dist:    make([]float64, n),
		prev:    make([]core.NodeID, n),
		visited: make([]bool, n),
		pq:      make(nodePQ, 0, n),
	}
	for i := range r.dist {
		r.dist[i] = math.Inf(1)
		r.prev[i] = core.NoNode
	}
	return r
}

// run settles nodes outward from src until dst is settled or the frontier is
// exhausted.
func (r *runner) run(src, dst core.NodeID) {
	r.dist[src] = 0
	heap.Push(&r.pq, nodeItem{id: src, dist: 0})

	for r.pq.Len() > 0 {
		item := heap.Pop(&r.pq).(nodeItem)
		u := item.id
		if r.visited[u] {
			continue
		}
		r.visited[u] = true
		if u == dst {
			return
		}
		r.relax(u)
	}
}

func (r *runner) relax(u core.NodeID) {
	for _, e := range r.g.Incident(u) {
		v := e.Other(u)
		if r.visited[v] {
			continue
		}
		w := r.weight(e)
		if w < 0 || math.IsNaN(w) {
			continue
		}
		nd := r.dist[u] + w
		// Strictly better only; the first predecessor found at a given
		// distance is kept.
		if nd >= r.dist[v] {
			continue
		}
		r.dist[v] = nd
		r.prev[v] = u
		heap.Push(&r.pq, nodeItem{id: v, dist: nd})
	}
}

func (r *runner) path(src, dst core.NodeID) core.Path {
	var rev core.Path
	for v := dst; v != core.NoNode; v = r.prev[v] {
		rev = append(rev, v)
		if v == src {
			break
		}
	}
	out := make(core.Path, len(rev))
	for i, id := range rev {
		out[len(rev)-1-i] = id
	}
	return out
}

// shortestPath runs Dijkstra over g. It is the single implementation behind
// both objectives.
func shortestPath(g *core.Subgraph, obj Objective, src, dst core.NodeID) (core.Path, error) {
	w, err := obj.weight()
	if err != nil {
		return nil, err
	}
	if !g.Has(src) {
		return nil, &NoRouteError{Objective: obj, Source: src, Target: dst, Reason: ReasonSourceNotAlive}
	}
	if !g.Has(dst) {
		return nil, &NoRouteError{Objective: obj, Source: src, Target: dst, Reason: ReasonTargetNotAlive}
	}
	if src == dst {
		return core.Path{src}, nil
	}

	r := newRunner(g, w)
	r.run(src, dst)
	if math.IsInf(r.dist[dst], 1) {
		return nil, &NoRouteError{Objective: obj, Source: src, Target: dst, Reason: ReasonDisconnected}
	}
	return r.path(src, dst), nil
}
