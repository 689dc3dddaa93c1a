package mapf

import (
	"math"
	"sort"
)

const defaultDetectEps = 1e-9

// Conflict names the first detected collision between two agents. For a
// swap conflict, E is the direction Agent1 travels; Agent2 uses the
// anti-parallel edge.
type Conflict struct {
	Vertex int
	E      Edge
	Agent1 int
	Agent2 int
	Swap   bool
}

const (
	evEnter = 0
	evLeave = 1
)

type occEvent struct {
	t     float64
	kind  int
	agent int
}

// occupancy turns an agent's timed path into per-point intervals. The
// dwell at a vertex ends when the outgoing edge is entered; the last
// vertex is held forever. Zero-length dwells are skipped.
func vertexIntervals(pathsV [][]TimedVertex, pathsE [][]TimedEdge, eps float64) map[int][]occEvent {
	events := make(map[int][]occEvent)
	for a := range pathsV {
		for k, tv := range pathsV[a] {
			enter := tv.T
			leave := math.Inf(1)
			if k < len(pathsE[a]) {
				leave = pathsE[a][k].T - eps
			}
			if leave <= enter {
				continue
			}
			events[tv.V] = append(events[tv.V],
				occEvent{t: enter, kind: evEnter, agent: a},
				occEvent{t: leave, kind: evLeave, agent: a})
		}
	}
	return events
}

// DetectVertexConflict reports the first pair of agents whose dwell
// intervals at some vertex overlap, or nil. Agents entering and leaving a
// vertex must strictly alternate in time; two adjacent events of the same
// kind break that order.
func DetectVertexConflict(pathsV [][]TimedVertex, pathsE [][]TimedEdge, eps float64) *Conflict {
	if eps <= 0 {
		eps = defaultDetectEps
	}
	for v, evs := range vertexIntervals(pathsV, pathsE, eps) {
		if a1, a2, ok := scanEvents(evs); ok {
			return &Conflict{Vertex: v, Agent1: a1, Agent2: a2}
		}
	}
	return nil
}

type edgeKey struct {
	u, v int
}

type edgeOcc struct {
	occEvent
	inverted bool
}

// DetectEdgeConflict mirrors the vertex scan on edge traversal intervals.
// With detectSwap set, anti-parallel edges share one event list keyed by
// ascending endpoints; a conflict between two agents that disagree on the
// direction flag is a swap.
func DetectEdgeConflict(pathsV [][]TimedVertex, pathsE [][]TimedEdge, detectSwap bool, eps float64) *Conflict {
	if eps <= 0 {
		eps = defaultDetectEps
	}
	events := make(map[edgeKey][]edgeOcc)
	for a := range pathsE {
		for k, te := range pathsE[a] {
			if k+1 >= len(pathsV[a]) {
				continue
			}
			enter := te.T
			leave := pathsV[a][k+1].T - eps
			if leave <= enter {
				continue
			}
			key := edgeKey{u: te.E.U, v: te.E.V}
			inverted := false
			if detectSwap && key.u > key.v {
				key.u, key.v = key.v, key.u
				inverted = true
			}
			events[key] = append(events[key],
				edgeOcc{occEvent{t: enter, kind: evEnter, agent: a}, inverted},
				edgeOcc{occEvent{t: leave, kind: evLeave, agent: a}, inverted})
		}
	}
	for key, evs := range events {
		plain := make([]occEvent, len(evs))
		for i, e := range evs {
			plain[i] = e.occEvent
		}
		a1, a2, ok := scanEvents(plain)
		if !ok {
			continue
		}
		inv1, inv2 := directionOf(evs, a1), directionOf(evs, a2)
		c := &Conflict{Agent1: a1, Agent2: a2, Swap: inv1 != inv2}
		c.E = Edge{U: key.u, V: key.v}
		if inv1 {
			c.E = Edge{U: key.v, V: key.u}
		}
		return c
	}
	return nil
}

func directionOf(evs []edgeOcc, agent int) bool {
	for _, e := range evs {
		if e.agent == agent {
			return e.inverted
		}
	}
	return false
}

// scanEvents sorts an event list by time and walks adjacent pairs; two
// consecutive events of the same kind from different agents violate the
// alternating enter/leave order and pin down the colliding pair.
func scanEvents(evs []occEvent) (int, int, bool) {
	sort.SliceStable(evs, func(i, j int) bool {
		if evs[i].t != evs[j].t {
			return evs[i].t < evs[j].t
		}
		return evs[i].kind > evs[j].kind
	})
	for i := 1; i < len(evs); i++ {
		if evs[i].kind == evs[i-1].kind && evs[i].agent != evs[i-1].agent {
			return evs[i-1].agent, evs[i].agent, true
		}
	}
	return 0, 0, false
}
