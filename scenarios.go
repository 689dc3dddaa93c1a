package mapf

import "fmt"

// Benchmark instance families. Each returns a ready-to-solve instance
// with unit costs and waits unless the family calls for more.

func uniformVector(n int, val float64) []float64 {
	vec := make([]float64, n)
	for i := range vec {
		vec[i] = val
	}
	return vec
}

func uniformMatrix(n int, val float64) [][]float64 {
	mat := make([][]float64, n)
	for i := range mat {
		mat[i] = uniformVector(n, val)
	}
	return mat
}

func setSym(mat [][]float64, u, v int, val float64) {
	mat[u-1][v-1] = val
	mat[v-1][u-1] = val
}

// ParallelLinesInstance routes every agent over its private edge; the
// instance is conflict-free by construction.
func ParallelLinesInstance(a int) *MAPFInstance {
	n := 2 * a
	inst := &MAPFInstance{
		Name:        fmt.Sprintf("lines_%d", a),
		Type:        "MAPF",
		VertexCount: n,
		Directed:    true,
		VertexCost:  uniformVector(n, 1),
		VertexWait:  uniformVector(n, 1),
		EdgeCost:    uniformMatrix(n, 1),
		EdgeWait:    uniformMatrix(n, 1),
	}
	for i := 1; i <= a; i++ {
		inst.Edges = append(inst.Edges, []int{i, a + i})
		inst.Sources = append(inst.Sources, i)
		inst.Targets = append(inst.Targets, a+i)
	}
	return inst
}

// StarInstance funnels all agents through the central vertex 1, which
// carries a dwell of 2; agents have to linearize their visits.
func StarInstance(a int) *MAPFInstance {
	n := 2*a + 1
	inst := &MAPFInstance{
		Name:        fmt.Sprintf("star_%d", a),
		Type:        "MAPF",
		VertexCount: n,
		Directed:    true,
		VertexCost:  uniformVector(n, 1),
		VertexWait:  uniformVector(n, 1),
		EdgeCost:    uniformMatrix(n, 1),
		EdgeWait:    uniformMatrix(n, 1),
	}
	inst.VertexWait[0] = 2
	for i := 0; i < a; i++ {
		src := 2 + i
		tgt := a + 2 + i
		inst.Edges = append(inst.Edges, []int{src, 1}, []int{1, tgt})
		inst.Sources = append(inst.Sources, src)
		inst.Targets = append(inst.Targets, tgt)
	}
	return inst
}

// GridCrossInstance builds a 2x2 grid of crossings with two horizontal
// and two vertical agents crossing it.
func GridCrossInstance() *MAPFInstance {
	cross := func(r, c int) int { return (r-1)*2 + c }
	west := func(r int) int { return 4 + r }
	east := func(r int) int { return 6 + r }
	north := func(c int) int { return 8 + c }
	south := func(c int) int { return 10 + c }
	n := 12
	inst := &MAPFInstance{
		Name:        "grid_cross_2x2",
		Type:        "MAPF",
		VertexCount: n,
		Directed:    false,
		VertexCost:  uniformVector(n, 1),
		VertexWait:  uniformVector(n, 1),
		EdgeCost:    uniformMatrix(n, 1),
		EdgeWait:    uniformMatrix(n, 1),
	}
	for r := 1; r <= 2; r++ {
		inst.Edges = append(inst.Edges,
			[]int{west(r), cross(r, 1)},
			[]int{cross(r, 1), cross(r, 2)},
			[]int{cross(r, 2), east(r)})
		inst.Sources = append(inst.Sources, west(r))
		inst.Targets = append(inst.Targets, east(r))
	}
	for c := 1; c <= 2; c++ {
		inst.Edges = append(inst.Edges,
			[]int{north(c), cross(1, c)},
			[]int{cross(1, c), cross(2, c)},
			[]int{cross(2, c), south(c)})
		inst.Sources = append(inst.Sources, north(c))
		inst.Targets = append(inst.Targets, south(c))
	}
	return inst
}

// WheelInstance places a agents on the outer cycle, each targeting the
// position shift places behind, with undirected spokes to the hub.
func WheelInstance(a, shift int) *MAPFInstance {
	n := a + 1
	inst := &MAPFInstance{
		Name:        fmt.Sprintf("wheel_%d_%d", a, shift),
		Type:        "MAPF",
		VertexCount: n,
		Directed:    true,
		VertexCost:  uniformVector(n, 1),
		VertexWait:  uniformVector(n, 1),
		EdgeCost:    uniformMatrix(n, 1),
		EdgeWait:    uniformMatrix(n, 1),
	}
	outer := func(i int) int { return 2 + i }
	for i := 0; i < a; i++ {
		inst.Edges = append(inst.Edges,
			[]int{outer(i), outer((i + 1) % a)},
			[]int{outer(i), 1},
			[]int{1, outer(i)})
		inst.Sources = append(inst.Sources, outer(i))
		inst.Targets = append(inst.Targets, outer((i-shift+a)%a))
	}
	return inst
}

// LadderInstance runs two agents in opposite directions along the rails
// of a ladder with the given number of rungs.
func LadderInstance(rungs int) *MAPFInstance {
	n := 2 * rungs
	top := func(i int) int { return i }
	bottom := func(i int) int { return rungs + i }
	inst := &MAPFInstance{
		Name:        fmt.Sprintf("ladder_%d", rungs),
		Type:        "MAPF",
		VertexCount: n,
		Directed:    false,
		VertexCost:  uniformVector(n, 1),
		VertexWait:  uniformVector(n, 1),
		EdgeCost:    uniformMatrix(n, 1),
		EdgeWait:    uniformMatrix(n, 1),
	}
	for i := 1; i <= rungs; i++ {
		if i < rungs {
			inst.Edges = append(inst.Edges,
				[]int{top(i), top(i + 1)},
				[]int{bottom(i), bottom(i + 1)})
		}
		inst.Edges = append(inst.Edges, []int{top(i), bottom(i)})
	}
	inst.Sources = []int{top(1), bottom(rungs)}
	inst.Targets = []int{top(rungs), bottom(1)}
	return inst
}

// TwoBranchMergeInstance is the two-branch merge graph: three agents meet
// around the 2-6 corridor and the cheap branch must be shared in time.
func TwoBranchMergeInstance() *MAPFInstance {
	n := 8
	edgeCost := uniformMatrix(n, 0)
	setSym(edgeCost, 1, 2, 1)
	setSym(edgeCost, 2, 3, 1)
	setSym(edgeCost, 2, 4, 1)
	setSym(edgeCost, 2, 6, 2)
	setSym(edgeCost, 3, 6, 80)
	setSym(edgeCost, 4, 5, 20)
	setSym(edgeCost, 5, 6, 10)
	setSym(edgeCost, 6, 7, 1)
	setSym(edgeCost, 6, 8, 1)
	return &MAPFInstance{
		Name:        "two_branch_merge",
		Type:        "MAPF",
		VertexCount: n,
		Directed:    false,
		Edges: [][]int{
			{1, 2}, {2, 3}, {2, 4}, {2, 6}, {3, 6},
			{4, 5}, {5, 6}, {6, 7}, {6, 8},
		},
		Sources:    []int{1, 4, 8},
		Targets:    []int{7, 8, 3},
		VertexCost: uniformVector(n, 1),
		VertexWait: uniformVector(n, 1),
		EdgeCost:   edgeCost,
		EdgeWait:   uniformMatrix(n, 1),
	}
}
