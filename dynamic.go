package mapf

import (
	"fmt"
	"time"

	"git.solver4all.com/azaryc2s/gorobi/gurobi"
)

// cutRow is one ordering inequality, kept solver-agnostic so the same
// builders feed both AddConstr in the explicit loop and CbLazy in the
// callback strategy.
type cutRow struct {
	ind  []int32
	val  []float64
	rhs  float64
	name string
}

func cutEpsilon(cfg *MAPFConfig) float64 {
	if cfg.Epsilon > 0 {
		return cfg.Epsilon
	}
	min := MinNonZeroWait(cfg.VertexWait, cfg.EdgeWait, cfg.Net, cfg.AgentCount())
	if min == 0 {
		min = 1.0
	}
	return 1e-4 * min
}

// ParallelPathTimes prices each agent's selected path independently:
// departure anchor, then dwell and travel along the walk. This is the
// exact timing of a conflict-free selection and the warm-start timing for
// the cut loop.
func ParallelPathTimes(cfg *MAPFConfig, vertices, edges [][]int) ([][]TimedVertex, [][]TimedEdge) {
	pathsV := make([][]TimedVertex, len(vertices))
	pathsE := make([][]TimedEdge, len(vertices))
	for a := range vertices {
		t := 0.0
		if cfg.Departures != nil {
			t = cfg.Departures[a]
		}
		for k, v := range vertices[a] {
			pathsV[a] = append(pathsV[a], TimedVertex{T: t, V: v})
			if k >= len(edges[a]) {
				break
			}
			t += cfg.VertexWait.At(a, v)
			edge := cfg.Net.Edges[edges[a][k]]
			pathsE[a] = append(pathsE[a], TimedEdge{T: t, E: edge})
			t += cfg.EdgeWait.At(a, edge.U, edge.V)
		}
	}
	return pathsV, pathsE
}

func selectionsOverlap(vertices, edges [][]int) bool {
	seenV := make(map[int]int)
	seenE := make(map[int]int)
	for a := range vertices {
		for _, v := range vertices[a] {
			if prev, ok := seenV[v]; ok && prev != a {
				return true
			}
			seenV[v] = a
		}
		for _, e := range edges[a] {
			if prev, ok := seenE[e]; ok && prev != a {
				return true
			}
			seenE[e] = a
		}
	}
	return false
}

// SolveDynamicConflict is the cutting-plane driver: a cost-only solve
// first, then, only if paths overlap, the timing model with lazily
// generated pairwise ordering constraints until the detector is silent.
func SolveDynamicConflict(cfg *MAPFConfig) (*MAPFSolution, error) {
	CutsVertexCount = 0
	CutsEdgeCount = 0
	CutsSwapCount = 0

	env, err := NewEnv(cfg)
	if err != nil {
		return nil, err
	}
	defer env.Free()

	startTime := time.Now()
	relaxed, err := CreateContinuousModel(env, cfg, false, CONFLICTS_NONE)
	if err != nil {
		return nil, err
	}
	if err := optimizeToOptimal(relaxed.GModel); err != nil {
		return nil, err
	}
	relSol, err := solutionValues(relaxed)
	if err != nil {
		return nil, err
	}
	vertices, edges := ExtractSelections(relaxed, relSol)

	if !selectionsOverlap(vertices, edges) {
		Log(2, "Paths are disjoint, pricing them as parallel shortest paths")
		objval, err := relaxed.GModel.GetDblAttr(gurobi.DBL_ATTR_OBJVAL)
		if err != nil {
			Log(1, err.Error())
			return nil, err
		}
		sol := &MAPFSolution{Obj: objval, Optimal: true, Time: time.Since(startTime).String()}
		sol.PathsVertices, sol.PathsEdges = ParallelPathTimes(cfg, vertices, edges)
		return sol, nil
	}

	Log(2, "Paths overlap, entering the conflict cut loop")
	m, err := CreateContinuousModel(env, cfg, true, CONFLICTS_LAZY)
	if err != nil {
		return nil, err
	}
	if err := warmStartFromSelections(m, relSol, vertices, edges); err != nil {
		return nil, err
	}

	if cfg.Strategy == STRAT_CB {
		err = m.GModel.SetIntParam(gurobi.INT_PAR_LAZYCONSTRAINTS, 1)
		if err != nil {
			Log(1, err.Error())
			return nil, err
		}
		err = m.GModel.SetCallbackFuncGo(DynamicConflictCallback, m)
		if err != nil {
			Log(1, err.Error())
			return nil, err
		}
	}

	eps := cutEpsilon(cfg)
	detEps := cfg.DetectEps
	if detEps <= 0 {
		detEps = defaultDetectEps
	}
	maxIter := 2*m.PairCount()*(m.N+m.E) + 10
	for iter := 0; ; iter++ {
		if iter >= maxIter {
			return nil, fmt.Errorf("conflict cut loop did not settle after %d iterations", iter)
		}
		if err := optimizeToOptimal(m.GModel); err != nil {
			return nil, err
		}
		// lazy rows injected by the callback only live for one optimize
		// call; pin them into the model before going on
		for _, row := range m.cbRows {
			err = m.GModel.AddConstr(row.ind, row.val, gurobi.GREATER_EQUAL, row.rhs, row.name)
			if err != nil {
				Log(1, "Error pinning callback cut %s: %s", row.name, err.Error())
				return nil, err
			}
		}
		m.cbRows = nil
		solA, err := solutionValues(m)
		if err != nil {
			return nil, err
		}
		pathsV, pathsE := ExtractTimedPaths(m, solA)

		var rows []cutRow
		if vc := DetectVertexConflict(pathsV, pathsE, detEps); vc != nil {
			Log(3, "Vertex conflict at %d between agents %d and %d", vc.Vertex, vc.Agent1, vc.Agent2)
			rows, err = m.buildVertexOrderingCut(vc, solA, eps)
		} else if ec := DetectEdgeConflict(pathsV, pathsE, cfg.SwapConstraint, detEps); ec != nil {
			Log(3, "Edge conflict on (%d,%d) between agents %d and %d (swap: %v)", ec.E.U, ec.E.V, ec.Agent1, ec.Agent2, ec.Swap)
			rows, err = m.buildEdgeOrderingCut(ec, solA, eps)
		}
		if err != nil {
			return nil, err
		}
		if rows == nil {
			break
		}
		for _, row := range rows {
			err = m.GModel.AddConstr(row.ind, row.val, gurobi.GREATER_EQUAL, row.rhs, row.name)
			if err != nil {
				Log(1, "Error adding cut %s: %s", row.name, err.Error())
				return nil, err
			}
		}
		if err := setWarmStart(m, solA); err != nil {
			return nil, err
		}
	}
	Log(2, "---CONFLICT LOOP DONE--- %d vertex, %d edge, %d swap cuts", CutsVertexCount, CutsEdgeCount, CutsSwapCount)

	sol, err := captureContinuousSolution(m)
	if err != nil {
		return nil, err
	}
	sol.Time = time.Since(startTime).String()
	sol.CutsVertex = CutsVertexCount
	sol.CutsEdge = CutsEdgeCount
	sol.CutsSwap = CutsSwapCount
	return sol, nil
}

// warmStartFromSelections seeds the timing model with the relaxed
// selection and its parallel-path times.
func warmStartFromSelections(m *MAPFModel, relSol []float64, vertices, edges [][]int) error {
	start := make([]float64, m.VarCount)
	copy(start, relSol[:m.A*(m.E+m.N)])
	pathsV, pathsE := ParallelPathTimes(m.Cfg, vertices, edges)
	for a := 0; a < m.A; a++ {
		for _, tv := range pathsV[a] {
			start[m.TVIdx(a, tv.V)] = tv.T
		}
		for _, te := range pathsE[a] {
			e, _ := m.Cfg.Net.EdgeIndex(te.E.U, te.E.V)
			start[m.TEIdx(a, e)] = te.T
		}
	}
	return setWarmStart(m, start)
}

func setWarmStart(m *MAPFModel, values []float64) error {
	err := m.GModel.SetDblAttrArray(gurobi.DBL_ATTR_START, 0, values)
	if err != nil {
		Log(1, "Error setting warm start: %s", err.Error())
	}
	return err
}

func (m *MAPFModel) selectedOutEdge(solA []float64, a, v int) int {
	for _, e := range m.Cfg.Net.OutEdges(v) {
		if solA[m.XIdx(a, e)] > 0.5 {
			return e
		}
	}
	return -1
}

// buildVertexOrderingCut turns one detected vertex conflict into ordering
// rows: a row pair on the pair's pool disjunction in the exact mode, a
// single one-sided cut in heuristic mode, or an unconditional ordering
// when one agent parks at the vertex.
func (m *MAPFModel) buildVertexOrderingCut(c *Conflict, solA []float64, eps float64) ([]cutRow, error) {
	i, j, v := c.Agent1, c.Agent2, c.Vertex
	if i > j {
		i, j = j, i
	}
	ei := m.selectedOutEdge(solA, i, v)
	ej := m.selectedOutEdge(solA, j, v)
	M := m.BigM

	CutsVertexCount++
	if ei < 0 && ej < 0 {
		return nil, fmt.Errorf("agents %d and %d both end at vertex %d", i, j, v)
	}
	if ei < 0 {
		// i parks at v and must arrive after j has left
		return []cutRow{{
			ind:  []int32{int32(m.TVIdx(i, v)), int32(m.TEIdx(j, ej))},
			val:  []float64{1.0, -1.0},
			rhs:  eps,
			name: fmt.Sprintf("lcV%d_%d_%d_%d", CutsVertexCount, i, j, v),
		}}, nil
	}
	if ej < 0 {
		return []cutRow{{
			ind:  []int32{int32(m.TVIdx(j, v)), int32(m.TEIdx(i, ei))},
			val:  []float64{1.0, -1.0},
			rhs:  eps,
			name: fmt.Sprintf("lcV%d_%d_%d_%d", CutsVertexCount, i, j, v),
		}}, nil
	}

	key := fmt.Sprintf("V_%d_%d_%d", i, j, v)
	if m.Cfg.HeuristicConflict && !m.addedCuts[key] {
		m.addedCuts[key] = true
		// keep the branch the current solution is closer to satisfying
		slackI := solA[m.TVIdx(i, v)] - solA[m.TEIdx(j, ej)]
		slackJ := solA[m.TVIdx(j, v)] - solA[m.TEIdx(i, ei)]
		if slackJ > slackI {
			i, j = j, i
			ej = ei
		}
		return []cutRow{{
			ind:  []int32{int32(m.TVIdx(i, v)), int32(m.TEIdx(j, ej))},
			val:  []float64{1.0, -1.0},
			rhs:  eps,
			name: fmt.Sprintf("lcV%d_%d_%d_%d", CutsVertexCount, i, j, v),
		}}, nil
	}

	// the pointer is shared across re-visits of this (pair, vertex): a
	// reroute over a different leave edge re-triggers the detector here
	// and gets fresh rows against the same direction choice
	d := m.DVIdx(m.PairIdx(i, j), v)
	return []cutRow{
		{
			ind:  []int32{int32(m.TVIdx(i, v)), int32(m.TEIdx(j, ej)), int32(d)},
			val:  []float64{1.0, -1.0, M},
			rhs:  eps,
			name: fmt.Sprintf("lcV%d_a_%d_%d_%d", CutsVertexCount, i, j, v),
		},
		{
			ind:  []int32{int32(m.TVIdx(j, v)), int32(m.TEIdx(i, ei)), int32(d)},
			val:  []float64{1.0, -1.0, -M},
			rhs:  eps - M,
			name: fmt.Sprintf("lcV%d_b_%d_%d_%d", CutsVertexCount, i, j, v),
		},
	}, nil
}

// buildEdgeOrderingCut is the edge and swap counterpart: orderings are
// built on edge-entry moments against the other agent's arrival at the
// respective head vertex.
func (m *MAPFModel) buildEdgeOrderingCut(c *Conflict, solA []float64, eps float64) ([]cutRow, error) {
	i, j := c.Agent1, c.Agent2
	edgeI := c.E
	edgeJ := c.E
	if c.Swap {
		edgeJ = Edge{U: c.E.V, V: c.E.U}
	}
	if i > j {
		i, j = j, i
		edgeI, edgeJ = edgeJ, edgeI
	}
	net := m.Cfg.Net
	eI, ok := net.EdgeIndex(edgeI.U, edgeI.V)
	if !ok {
		return nil, fmt.Errorf("conflict on unknown edge (%d,%d)", edgeI.U, edgeI.V)
	}
	eJ, _ := net.EdgeIndex(edgeJ.U, edgeJ.V)
	M := m.BigM
	p := m.PairIdx(i, j)

	var (
		d   int
		key string
	)
	if c.Swap {
		CutsSwapCount++
		k := m.swapPairIndex(eI)
		if k < 0 {
			return nil, fmt.Errorf("no swap pair for edge (%d,%d)", edgeI.U, edgeI.V)
		}
		d = m.DSwIdx(p, k)
		key = fmt.Sprintf("S_%d_%d_%d", i, j, k)
	} else {
		CutsEdgeCount++
		d = m.DEIdx(p, eI)
		key = fmt.Sprintf("E_%d_%d_%d", i, j, eI)
	}

	count := CutsEdgeCount + CutsSwapCount
	if m.Cfg.HeuristicConflict && !m.addedCuts[key] {
		m.addedCuts[key] = true
		slackI := solA[m.TEIdx(i, eI)] - solA[m.TVIdx(j, edgeJ.V)]
		slackJ := solA[m.TEIdx(j, eJ)] - solA[m.TVIdx(i, edgeI.V)]
		if slackJ > slackI {
			i, j = j, i
			eI = eJ
			edgeI, edgeJ = edgeJ, edgeI
		}
		return []cutRow{{
			ind:  []int32{int32(m.TEIdx(i, eI)), int32(m.TVIdx(j, edgeJ.V))},
			val:  []float64{1.0, -1.0},
			rhs:  eps,
			name: fmt.Sprintf("lcE%d_%d_%d", count, i, j),
		}}, nil
	}

	return []cutRow{
		{
			ind:  []int32{int32(m.TEIdx(i, eI)), int32(m.TVIdx(j, edgeJ.V)), int32(d)},
			val:  []float64{1.0, -1.0, M},
			rhs:  eps,
			name: fmt.Sprintf("lcE%d_a_%d_%d", count, i, j),
		},
		{
			ind:  []int32{int32(m.TEIdx(j, eJ)), int32(m.TVIdx(i, edgeI.V)), int32(d)},
			val:  []float64{1.0, -1.0, -M},
			rhs:  eps - M,
			name: fmt.Sprintf("lcE%d_b_%d_%d", count, i, j),
		},
	}, nil
}

func (m *MAPFModel) swapPairIndex(e int) int {
	r := m.Cfg.Net.ReverseEdge(e)
	for k, sw := range m.Swaps {
		if (sw[0] == e && sw[1] == r) || (sw[0] == r && sw[1] == e) {
			return k
		}
	}
	return -1
}

// DynamicConflictCallback injects ordering cuts the moment the solver
// reports an integer incumbent, so conflicted incumbents never survive a
// single optimize call. Registered when Strategy is CB.
func DynamicConflictCallback(model *gurobi.Model, cbdata gurobi.CPVoid, where int32, usrdata interface{}) int32 {
	m := usrdata.(*MAPFModel)
	if where != gurobi.CB_MIPSOL {
		return 0
	}
	solA, err := gurobi.CbGetDblArray(cbdata, where, gurobi.CB_MIPSOL_SOL, m.VarCount)
	if err != nil {
		Log(1, err.Error())
		return 0
	}
	detEps := m.Cfg.DetectEps
	if detEps <= 0 {
		detEps = defaultDetectEps
	}
	pathsV, pathsE := ExtractTimedPaths(m, solA)

	var rows []cutRow
	if vc := DetectVertexConflict(pathsV, pathsE, detEps); vc != nil {
		rows, err = m.buildVertexOrderingCut(vc, solA, cutEpsilon(m.Cfg))
	} else if ec := DetectEdgeConflict(pathsV, pathsE, m.Cfg.SwapConstraint, detEps); ec != nil {
		rows, err = m.buildEdgeOrderingCut(ec, solA, cutEpsilon(m.Cfg))
	}
	if err != nil {
		Log(1, err.Error())
		return 0
	}
	for _, row := range rows {
		err = gurobi.CbLazy(cbdata, len(row.ind), row.ind, row.val, gurobi.GREATER_EQUAL, row.rhs)
		if err != nil {
			Log(1, err.Error())
		}
	}
	m.cbRows = append(m.cbRows, rows...)
	return 0
}
