package mapf

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

func errBadEdgeRow(i, n int) error {
	return fmt.Errorf("edge row %d has %d entries, want 2", i, n)
}

// FindDuplicates maps every value that occurs more than once to the list
// of positions holding it.
func FindDuplicates(vals []int) map[int][]int {
	pos := make(map[int][]int)
	for i, v := range vals {
		pos[v] = append(pos[v], i)
	}
	dups := make(map[int][]int)
	for v, idx := range pos {
		if len(idx) > 1 {
			dups[v] = idx
		}
	}
	return dups
}

// CheckOverlap reports whether vals contains any duplicate. With
// raiseAssertion set, an overlap is returned as an error naming every
// colliding vertex and the agents involved.
func CheckOverlap(vals []int, raiseAssertion bool) (bool, error) {
	dups := FindDuplicates(vals)
	if len(dups) == 0 {
		return false, nil
	}
	if !raiseAssertion {
		return true, nil
	}
	keys := make([]int, 0, len(dups))
	for v := range dups {
		keys = append(keys, v)
	}
	sort.Ints(keys)
	var parts []string
	for _, v := range keys {
		parts = append(parts, fmt.Sprintf("vertex %d used by agents %v", v, dups[v]))
	}
	return true, fmt.Errorf("overlapping assignment: %s", strings.Join(parts, "; "))
}

// ValidateConfig runs all input checks that must fail before any model is
// built.
func ValidateConfig(cfg *MAPFConfig) error {
	a := cfg.AgentCount()
	if a == 0 {
		return fmt.Errorf("no agents given")
	}
	if len(cfg.Targets) != a {
		return fmt.Errorf("got %d sources but %d targets", a, len(cfg.Targets))
	}
	if cfg.Departures != nil && len(cfg.Departures) != a {
		return fmt.Errorf("got %d departures for %d agents", len(cfg.Departures), a)
	}
	for i, s := range cfg.Sources {
		if !cfg.Net.HasVertex(s) {
			return fmt.Errorf("source %d of agent %d is not a vertex", s, i)
		}
	}
	for i, t := range cfg.Targets {
		if !cfg.Net.HasVertex(t) {
			return fmt.Errorf("target %d of agent %d is not a vertex", t, i)
		}
	}
	if _, err := CheckOverlap(cfg.Sources, true); err != nil {
		return fmt.Errorf("sources: %s", err.Error())
	}
	if _, err := CheckOverlap(cfg.Targets, true); err != nil {
		return fmt.Errorf("targets: %s", err.Error())
	}
	for i, d := range cfg.Departures {
		if d < 0 {
			return fmt.Errorf("departure of agent %d is negative: %f", i, d)
		}
	}
	n := cfg.Net.N
	if err := cfg.VertexCost.Validate(a, n); err != nil {
		return fmt.Errorf("vertex cost: %s", err.Error())
	}
	if err := cfg.VertexWait.Validate(a, n); err != nil {
		return fmt.Errorf("vertex wait: %s", err.Error())
	}
	if err := cfg.EdgeCost.Validate(a, n); err != nil {
		return fmt.Errorf("edge cost: %s", err.Error())
	}
	if err := cfg.EdgeWait.Validate(a, n); err != nil {
		return fmt.Errorf("edge wait: %s", err.Error())
	}
	if cfg.BigM < 0 {
		return fmt.Errorf("big-M must not be negative, got %f", cfg.BigM)
	}
	return nil
}

// CheckSolutionValidity independently re-verifies a parsed solution: path
// contiguity and endpoints, timing monotonicity and conflict-freeness.
// Mirrors what the solver CLI reports after every solve.
func CheckSolutionValidity(cfg *MAPFConfig, sol *MAPFSolution, discrete bool) (bool, string) {
	if discrete {
		for a := 0; a < cfg.AgentCount(); a++ {
			if ok, msg := checkDiscretePath(cfg, sol, a); !ok {
				return false, msg
			}
		}
		return checkDiscreteConflicts(cfg, sol)
	}
	const tol = 1e-6
	for a := 0; a < cfg.AgentCount(); a++ {
		pv := sol.PathsVertices[a]
		pe := sol.PathsEdges[a]
		if len(pv) == 0 {
			return false, fmt.Sprintf("agent %d has an empty path", a)
		}
		if pv[0].V != cfg.Sources[a] {
			return false, fmt.Sprintf("agent %d starts at %d instead of its source %d", a, pv[0].V, cfg.Sources[a])
		}
		if pv[len(pv)-1].V != cfg.Targets[a] {
			return false, fmt.Sprintf("agent %d ends at %d instead of its target %d", a, pv[len(pv)-1].V, cfg.Targets[a])
		}
		if len(pe) != len(pv)-1 {
			return false, fmt.Sprintf("agent %d visits %d vertices but uses %d edges", a, len(pv), len(pe))
		}
		for k, te := range pe {
			if te.E.U != pv[k].V || te.E.V != pv[k+1].V {
				return false, fmt.Sprintf("agent %d: edge (%d,%d) does not connect %d and %d", a, te.E.U, te.E.V, pv[k].V, pv[k+1].V)
			}
			gap := cfg.VertexWait.At(a, pv[k].V)
			if te.T < pv[k].T+gap-tol {
				return false, fmt.Sprintf("agent %d leaves %d at %f before its dwell of %f is over", a, pv[k].V, te.T, gap)
			}
			travel := cfg.EdgeWait.At(a, te.E.U, te.E.V)
			if pv[k+1].T < te.T+travel-tol {
				return false, fmt.Sprintf("agent %d arrives at %d at %f before traversing (%d,%d) for %f", a, pv[k+1].V, pv[k+1].T, te.E.U, te.E.V, travel)
			}
		}
	}
	eps := cfg.DetectEps
	if eps <= 0 {
		eps = defaultDetectEps
	}
	if c := DetectVertexConflict(sol.PathsVertices, sol.PathsEdges, eps); c != nil {
		return false, fmt.Sprintf("agents %d and %d overlap at vertex %d", c.Agent1, c.Agent2, c.Vertex)
	}
	if c := DetectEdgeConflict(sol.PathsVertices, sol.PathsEdges, cfg.SwapConstraint, eps); c != nil {
		kind := "edge"
		if c.Swap {
			kind = "swap"
		}
		return false, fmt.Sprintf("agents %d and %d have a %s conflict on (%d,%d)", c.Agent1, c.Agent2, kind, c.E.U, c.E.V)
	}
	return true, ""
}

// checkDiscretePath replays an agent's step occupancy. From departure to
// arrival the agent holds exactly one cell per step, and consecutive
// cells must form a dwell or an edge move. A pass-through vertex shows up
// as two edge cells in a row.
func checkDiscretePath(cfg *MAPFConfig, sol *MAPFSolution, a int) (bool, string) {
	type cell struct {
		v int // >0 while dwelling
		e Edge
	}
	occ := make(map[int]cell)
	last := -1
	for _, tv := range sol.PathsVertices[a] {
		t := int(math.Round(tv.T))
		if _, ok := occ[t]; ok {
			return false, fmt.Sprintf("agent %d holds two cells at step %d", a, t)
		}
		occ[t] = cell{v: tv.V}
		if t > last {
			last = t
		}
	}
	for _, te := range sol.PathsEdges[a] {
		t := int(math.Round(te.T))
		if _, ok := occ[t]; ok {
			return false, fmt.Sprintf("agent %d holds two cells at step %d", a, t)
		}
		occ[t] = cell{e: te.E}
		if t > last {
			last = t
		}
	}
	if last < 0 {
		return false, fmt.Sprintf("agent %d has an empty itinerary", a)
	}
	dep := 0
	if cfg.Departures != nil {
		dep = int(math.Round(cfg.Departures[a]))
	}
	first := last
	for t := range occ {
		if t < first {
			first = t
		}
	}
	if first < dep {
		return false, fmt.Sprintf("agent %d moves at step %d before its departure %d", a, first, dep)
	}
	// strict coupling lets the agent appear directly on the edge leaving
	// its source and vanish once the target is reached
	if fc := occ[first]; fc.v != cfg.Sources[a] && fc.e.U != cfg.Sources[a] {
		return false, fmt.Sprintf("agent %d does not start at its source %d", a, cfg.Sources[a])
	}
	if end := occ[last]; end.v != cfg.Targets[a] && end.e.V != cfg.Targets[a] {
		return false, fmt.Sprintf("agent %d does not end at its target %d", a, cfg.Targets[a])
	}
	for t := first; t < last; t++ {
		cur, ok := occ[t]
		if !ok {
			return false, fmt.Sprintf("agent %d holds no cell at step %d", a, t)
		}
		next, ok := occ[t+1]
		if !ok {
			return false, fmt.Sprintf("agent %d holds no cell at step %d", a, t+1)
		}
		switch {
		case cur.v > 0 && next.v > 0:
			if cur.v != next.v {
				return false, fmt.Sprintf("agent %d jumps from %d to %d between steps %d and %d", a, cur.v, next.v, t, t+1)
			}
		case cur.v > 0:
			if next.e.U != cur.v {
				return false, fmt.Sprintf("agent %d leaves %d over edge (%d,%d) at step %d", a, cur.v, next.e.U, next.e.V, t+1)
			}
		case next.v > 0:
			if cur.e.V != next.v {
				return false, fmt.Sprintf("agent %d arrives at %d over edge (%d,%d) at step %d", a, next.v, cur.e.U, cur.e.V, t)
			}
		default:
			if next.e.U != cur.e.V {
				return false, fmt.Sprintf("agent %d jumps between edges at steps %d and %d", a, t, t+1)
			}
		}
	}
	return true, ""
}

func checkDiscreteConflicts(cfg *MAPFConfig, sol *MAPFSolution) (bool, string) {
	vertexAt := make(map[[2]int]int)
	edgeAt := make(map[[3]int]int)
	for a := 0; a < cfg.AgentCount(); a++ {
		for _, tv := range sol.PathsVertices[a] {
			key := [2]int{int(math.Round(tv.T)), tv.V}
			if prev, ok := vertexAt[key]; ok {
				return false, fmt.Sprintf("agents %d and %d share vertex %d at step %d", prev, a, tv.V, key[0])
			}
			vertexAt[key] = a
		}
		for _, te := range sol.PathsEdges[a] {
			t := int(math.Round(te.T))
			if prev, ok := edgeAt[[3]int{t, te.E.U, te.E.V}]; ok {
				return false, fmt.Sprintf("agents %d and %d share edge (%d,%d) at step %d", prev, a, te.E.U, te.E.V, t)
			}
			edgeAt[[3]int{t, te.E.U, te.E.V}] = a
			if cfg.SwapConstraint {
				if prev, ok := edgeAt[[3]int{t, te.E.V, te.E.U}]; ok {
					return false, fmt.Sprintf("agents %d and %d swap on edge (%d,%d) at step %d", prev, a, te.E.U, te.E.V, t)
				}
			}
			// an agent entering v at step t claims v's cell as well
			key := [2]int{t, te.E.V}
			if prev, ok := vertexAt[key]; ok && prev != a {
				return false, fmt.Sprintf("agents %d and %d share vertex %d at step %d", prev, a, te.E.V, t)
			}
			vertexAt[key] = a
		}
	}
	return true, ""
}
