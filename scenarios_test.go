package mapf

import "testing"

func TestScenarioInstancesValidate(t *testing.T) {
	instances := []*MAPFInstance{
		ParallelLinesInstance(4),
		StarInstance(3),
		GridCrossInstance(),
		WheelInstance(4, 1),
		LadderInstance(4),
		TwoBranchMergeInstance(),
	}
	for _, inst := range instances {
		cfg, err := inst.ToConfig()
		if err != nil {
			t.Fatalf("%s: %s", inst.Name, err.Error())
		}
		if err := ValidateConfig(cfg); err != nil {
			t.Fatalf("%s: %s", inst.Name, err.Error())
		}
	}
}

func TestParallelLinesShape(t *testing.T) {
	cfg, err := ParallelLinesInstance(3).ToConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Net.N != 6 || cfg.Net.EdgeCount() != 3 {
		t.Fatalf("expected 6 vertices and 3 directed edges, got %d and %d", cfg.Net.N, cfg.Net.EdgeCount())
	}
	if len(cfg.Net.SwapPairs()) != 0 {
		t.Fatal("private one-way lines have no swap pairs")
	}
}

func TestGridCrossShape(t *testing.T) {
	cfg, err := GridCrossInstance().ToConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Net.N != 12 || cfg.Net.EdgeCount() != 24 {
		t.Fatalf("expected 12 vertices and 24 arcs, got %d and %d", cfg.Net.N, cfg.Net.EdgeCount())
	}
	if len(cfg.Net.SwapPairs()) != 12 {
		t.Fatalf("every undirected edge is a swap pair, got %d", len(cfg.Net.SwapPairs()))
	}
	// the two shared crossings sit on both a horizontal and a vertical route
	for _, v := range []int{1, 2, 3, 4} {
		if len(cfg.Net.OutEdges(v)) != 4 {
			t.Fatalf("crossing %d should have degree 4, got %d", v, len(cfg.Net.OutEdges(v)))
		}
	}
}

func TestWheelTargets(t *testing.T) {
	inst := WheelInstance(4, 1)
	wantSources := []int{2, 3, 4, 5}
	wantTargets := []int{5, 2, 3, 4}
	for i := range wantSources {
		if inst.Sources[i] != wantSources[i] || inst.Targets[i] != wantTargets[i] {
			t.Fatalf("agent %d: got %d->%d, want %d->%d",
				i, inst.Sources[i], inst.Targets[i], wantSources[i], wantTargets[i])
		}
	}
}

func TestTwoBranchMergeCosts(t *testing.T) {
	cfg, err := TwoBranchMergeInstance().ToConfig()
	if err != nil {
		t.Fatal(err)
	}
	if got := cfg.EdgeCost.At(0, 3, 6); got != 80 {
		t.Fatalf("detour edge (3,6) must cost 80, got %f", got)
	}
	if got := cfg.EdgeCost.At(0, 6, 3); got != 80 {
		t.Fatalf("edge costs are symmetric, got %f for (6,3)", got)
	}
	if got := cfg.EdgeCost.At(2, 2, 6); got != 2 {
		t.Fatalf("corridor edge (2,6) must cost 2, got %f", got)
	}
}
