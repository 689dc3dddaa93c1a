package mapf

import (
	"reflect"
	"testing"

	"git.solver4all.com/azaryc2s/gorobi/gurobi"
)

// The solve tests need a working Gurobi installation and license; without
// one they are skipped so the pure model tests still run everywhere.
func requireGurobi(t *testing.T) {
	t.Helper()
	env, err := gurobi.LoadEnv("mapf_gurobi_test.log")
	if err != nil {
		t.Skipf("Gurobi is not available: %s", err)
	}
	env.Free()
}

func vertexSeq(pv []TimedVertex) []int {
	seq := make([]int, len(pv))
	for k, tv := range pv {
		seq[k] = tv.V
	}
	return seq
}

func arrivalSum(sol *MAPFSolution) float64 {
	sum := 0.0
	for _, pv := range sol.PathsVertices {
		sum += pv[len(pv)-1].T
	}
	return sum
}

func checkMergePaths(t *testing.T, sol *MAPFSolution) {
	t.Helper()
	want := [][]int{
		{1, 2, 6, 7},
		{4, 2, 6, 8},
		{8, 6, 2, 3},
	}
	for a, seq := range want {
		if got := vertexSeq(sol.PathsVertices[a]); !reflect.DeepEqual(got, seq) {
			t.Fatalf("agent %d travels %v, want %v", a, got, seq)
		}
	}
	if sum := arrivalSum(sol); sum > 21+1e-6 {
		t.Fatalf("arrival times sum to %f, want at most 21", sum)
	}
}

func TestTwoBranchMergeContinuous(t *testing.T) {
	requireGurobi(t)
	cfg := mergeConfig(t)
	sol, err := SolveContinuousTime(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if ok, msg := CheckSolutionValidity(cfg, sol, false); !ok {
		t.Fatal(msg)
	}
	checkMergePaths(t, sol)

	// the LP relaxation bounds the integer optimum from below
	relaxed := mergeConfig(t)
	relaxed.Integer = false
	relSol, err := SolveContinuousTime(relaxed)
	if err != nil {
		t.Fatal(err)
	}
	if relSol.Obj > sol.Obj+1e-6 {
		t.Fatalf("relaxation objective %f exceeds the integer optimum %f", relSol.Obj, sol.Obj)
	}
}

func TestTwoBranchMergeDynamic(t *testing.T) {
	requireGurobi(t)
	cfg := mergeConfig(t)
	sol, err := SolveDynamicConflict(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if ok, msg := CheckSolutionValidity(cfg, sol, false); !ok {
		t.Fatal(msg)
	}
	checkMergePaths(t, sol)
	if sol.CutsVertex+sol.CutsEdge+sol.CutsSwap == 0 {
		t.Fatal("the shared corridor cannot be resolved without cuts")
	}
}

func TestParallelLinesDynamicNeedsNoCuts(t *testing.T) {
	requireGurobi(t)
	cfg, err := ParallelLinesInstance(4).ToConfig()
	if err != nil {
		t.Fatal(err)
	}
	sol, err := SolveDynamicConflict(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if sol.CutsVertex+sol.CutsEdge+sol.CutsSwap != 0 {
		t.Fatalf("disjoint lines produced %d/%d/%d cuts", sol.CutsVertex, sol.CutsEdge, sol.CutsSwap)
	}
	// cost-only objective: one edge and two unit vertices per agent
	if sol.Obj < 12-1e-6 || sol.Obj > 12+1e-6 {
		t.Fatalf("objective %f, want 12", sol.Obj)
	}
	if ok, msg := CheckSolutionValidity(cfg, sol, false); !ok {
		t.Fatal(msg)
	}

	// same config twice must price identically
	again, err := SolveDynamicConflict(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if again.Obj != sol.Obj {
		t.Fatalf("second solve found %f instead of %f", again.Obj, sol.Obj)
	}
}

func TestParallelLinesDiscrete(t *testing.T) {
	requireGurobi(t)
	cfg, err := ParallelLinesInstance(4).ToConfig()
	if err != nil {
		t.Fatal(err)
	}
	sol, err := SolveDiscreteTime(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if ok, msg := CheckSolutionValidity(cfg, sol, true); !ok {
		t.Fatal(msg)
	}
	// every agent occupies one unit-cost cell on each of the |E|=4 steps
	if sol.Obj < 16-1e-6 || sol.Obj > 16+1e-6 {
		t.Fatalf("objective %f, want 16", sol.Obj)
	}
}

func TestParallelLinesDiscreteBinding(t *testing.T) {
	requireGurobi(t)
	cfg, err := ParallelLinesInstance(4).ToConfig()
	if err != nil {
		t.Fatal(err)
	}
	cfg.VertexBinding = true
	sol, err := SolveDiscreteTime(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if ok, msg := CheckSolutionValidity(cfg, sol, true); !ok {
		t.Fatal(msg)
	}
	// strict coupling on a one-way line is fully determined: the agent can
	// neither dwell at its source nor delay the move, pays the target
	// dwell exactly once and vanishes afterwards
	if sol.Obj < 8-1e-6 || sol.Obj > 8+1e-6 {
		t.Fatalf("objective %f, want 8", sol.Obj)
	}
	for a := 0; a < 4; a++ {
		pe := sol.PathsEdges[a]
		pv := sol.PathsVertices[a]
		if len(pe) != 1 || pe[0].T != 0 {
			t.Fatalf("agent %d must move at step 0, got %+v", a, pe)
		}
		if len(pv) != 1 || pv[0].V != cfg.Targets[a] || pv[0].T != 1 {
			t.Fatalf("agent %d must dwell once at its target on step 1, got %+v", a, pv)
		}
	}
}

func TestDiscreteVertexVisitPolicies(t *testing.T) {
	requireGurobi(t)
	build := func(policy string) *MAPFConfig {
		net, _ := NewNetwork(3, []Edge{{1, 2}, {2, 3}}, true)
		cfg := NewConfig(net, []int{1}, []int{3})
		cfg.VertexCost = NewVertexParam([]float64{1, 10, 1})
		cfg.EdgeCost = UniformEdgeParam(net, 1)
		cfg.TimeDuration = 4
		cfg.VertexVisit = policy
		return cfg
	}

	// without the payment rows the agent rolls through vertex 2 and only
	// ever pays unit cells
	cfg := build(VERTEX_VISIT_NO)
	noSol, err := SolveDiscreteTime(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if ok, msg := CheckSolutionValidity(cfg, noSol, true); !ok {
		t.Fatal(msg)
	}
	if noSol.Obj < 4-1e-6 || noSol.Obj > 4+1e-6 {
		t.Fatalf("pass-through objective %f, want 4", noSol.Obj)
	}
	for _, tv := range noSol.PathsVertices[0] {
		if tv.V == 2 {
			t.Fatalf("agent must not dwell at the expensive vertex, got %+v", tv)
		}
	}

	cfg = build(VERTEX_VISIT_YES)
	yesSol, err := SolveDiscreteTime(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if ok, msg := CheckSolutionValidity(cfg, yesSol, true); !ok {
		t.Fatal(msg)
	}
	if yesSol.Obj < 13-1e-6 || yesSol.Obj > 13+1e-6 {
		t.Fatalf("forced-visit objective %f, want 13", yesSol.Obj)
	}
	visited := false
	for _, tv := range yesSol.PathsVertices[0] {
		if tv.V == 2 {
			visited = true
		}
	}
	if !visited {
		t.Fatal("forced visit policy must produce a dwell at vertex 2")
	}

	// the default derives the obligation from a positive vertex cost
	cfg = build(VERTEX_VISIT_AUTO)
	autoSol, err := SolveDiscreteTime(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if autoSol.Obj != yesSol.Obj {
		t.Fatalf("auto policy found %f, want the forced-visit optimum %f", autoSol.Obj, yesSol.Obj)
	}
}

func TestGridCrossDynamic(t *testing.T) {
	requireGurobi(t)
	cfg, err := GridCrossInstance().ToConfig()
	if err != nil {
		t.Fatal(err)
	}
	sol, err := SolveDynamicConflict(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if ok, msg := CheckSolutionValidity(cfg, sol, false); !ok {
		t.Fatal(msg)
	}
	if sol.CutsVertex < 1 {
		t.Fatalf("crossing agents need at least one vertex cut, got %d", sol.CutsVertex)
	}

	heur, err := GridCrossInstance().ToConfig()
	if err != nil {
		t.Fatal(err)
	}
	heur.HeuristicConflict = true
	heurSol, err := SolveDynamicConflict(heur)
	if err != nil {
		t.Fatal(err)
	}
	if ok, msg := CheckSolutionValidity(heur, heurSol, false); !ok {
		t.Fatal(msg)
	}
	// one-sided cuts stay feasible but may give up optimality
	if heurSol.Obj < sol.Obj-1e-6 {
		t.Fatalf("heuristic objective %f beats the exact one %f", heurSol.Obj, sol.Obj)
	}
}

func TestGridCrossCallbackStrategy(t *testing.T) {
	requireGurobi(t)
	cfg, err := GridCrossInstance().ToConfig()
	if err != nil {
		t.Fatal(err)
	}
	cfg.Strategy = STRAT_CB
	sol, err := SolveDynamicConflict(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if ok, msg := CheckSolutionValidity(cfg, sol, false); !ok {
		t.Fatal(msg)
	}
}

func TestWheelRotationDynamic(t *testing.T) {
	requireGurobi(t)
	cfg, err := WheelInstance(4, 1).ToConfig()
	if err != nil {
		t.Fatal(err)
	}
	sol, err := SolveDynamicConflict(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if ok, msg := CheckSolutionValidity(cfg, sol, false); !ok {
		t.Fatal(msg)
	}
}

func TestStarContinuousSerializesTheCenter(t *testing.T) {
	requireGurobi(t)
	cfg, err := StarInstance(3).ToConfig()
	if err != nil {
		t.Fatal(err)
	}
	sol, err := SolveContinuousTime(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if ok, msg := CheckSolutionValidity(cfg, sol, false); !ok {
		t.Fatal(msg)
	}
	// all three agents pass vertex 1; its dwell of 2 forces distinct slots
	var centerTimes []float64
	for _, pv := range sol.PathsVertices {
		for _, tv := range pv {
			if tv.V == 1 {
				centerTimes = append(centerTimes, tv.T)
			}
		}
	}
	if len(centerTimes) != 3 {
		t.Fatalf("every agent must route over the center, saw %d visits", len(centerTimes))
	}
}
