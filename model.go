package mapf

import (
	"fmt"
	"git.solver4all.com/azaryc2s/gorobi/gurobi"
)

var (
	CutsVertexCount int
	CutsEdgeCount   int
	CutsSwapCount   int
)

// modelLayout maps the structured variables of the continuous formulation
// onto one flat Gurobi variable array: the selection block (X, Y), the
// timing block (TV, TE) and the disjunction-pointer pool (DV, DE, DSw).
type modelLayout struct {
	A, N, E int
	Swaps   [][2]int

	XStart   int
	YStart   int
	TVStart  int
	TEStart  int
	DVStart  int
	DEStart  int
	DSwStart int
	VarCount int

	VarNames []string
	VarTypes []int8
	ObjFun   []float64
	UBounds  []float64
}

func (l *modelLayout) XIdx(a, e int) int {
	return l.XStart + a*l.E + e
}

func (l *modelLayout) YIdx(a, v int) int {
	return l.YStart + a*l.N + v - 1
}

func (l *modelLayout) TVIdx(a, v int) int {
	return l.TVStart + a*l.N + v - 1
}

func (l *modelLayout) TEIdx(a, e int) int {
	return l.TEStart + a*l.E + e
}

// PairIdx enumerates agent pairs i<j lexicographically.
func (l *modelLayout) PairIdx(i, j int) int {
	return i*(2*l.A-i-1)/2 + j - i - 1
}

func (l *modelLayout) PairCount() int {
	return l.A * (l.A - 1) / 2
}

func (l *modelLayout) DVIdx(p, v int) int {
	return l.DVStart + p*l.N + v - 1
}

func (l *modelLayout) DEIdx(p, e int) int {
	return l.DEStart + p*l.E + e
}

func (l *modelLayout) DSwIdx(p, k int) int {
	return l.DSwStart + p*len(l.Swaps) + k
}

func newContinuousLayout(cfg *MAPFConfig, withTiming bool, conflictMode string) *modelLayout {
	net := cfg.Net
	l := &modelLayout{A: cfg.AgentCount(), N: net.N, E: net.EdgeCount()}
	if cfg.SwapConstraint {
		l.Swaps = net.SwapPairs()
	}

	selType := gurobi.CONTINUOUS
	if cfg.Integer {
		selType = gurobi.BINARY
	}

	l.XStart = 0
	l.YStart = l.XStart + l.A*l.E
	next := l.YStart + l.A*l.N
	if withTiming {
		l.TVStart = next
		l.TEStart = l.TVStart + l.A*l.N
		next = l.TEStart + l.A*l.E
	} else {
		l.TVStart = -1
		l.TEStart = -1
	}
	if conflictMode != CONFLICTS_NONE {
		p := l.PairCount()
		l.DVStart = next
		l.DEStart = l.DVStart + p*l.N
		l.DSwStart = l.DEStart + p*l.E
		next = l.DSwStart + p*len(l.Swaps)
	} else {
		l.DVStart = -1
		l.DEStart = -1
		l.DSwStart = -1
	}
	l.VarCount = next

	l.VarNames = make([]string, l.VarCount)
	l.VarTypes = make([]int8, l.VarCount)
	l.ObjFun = make([]float64, l.VarCount)
	l.UBounds = make([]float64, l.VarCount)

	for a := 0; a < l.A; a++ {
		for e, edge := range net.Edges {
			idx := l.XIdx(a, e)
			l.VarNames[idx] = fmt.Sprintf("X_%d_%d_%d", a, edge.U, edge.V)
			l.VarTypes[idx] = selType
			l.UBounds[idx] = 1.0
			l.ObjFun[idx] = cfg.EdgeCost.At(a, edge.U, edge.V)
		}
		for v := 1; v <= l.N; v++ {
			idx := l.YIdx(a, v)
			l.VarNames[idx] = fmt.Sprintf("Y_%d_%d", a, v)
			l.VarTypes[idx] = selType
			l.UBounds[idx] = 1.0
			l.ObjFun[idx] = cfg.VertexCost.At(a, v)
		}
	}
	if withTiming {
		for a := 0; a < l.A; a++ {
			for v := 1; v <= l.N; v++ {
				idx := l.TVIdx(a, v)
				l.VarNames[idx] = fmt.Sprintf("TV_%d_%d", a, v)
				l.VarTypes[idx] = gurobi.CONTINUOUS
				l.UBounds[idx] = gurobi.INFINITY
			}
			for e, edge := range net.Edges {
				idx := l.TEIdx(a, e)
				l.VarNames[idx] = fmt.Sprintf("TE_%d_%d_%d", a, edge.U, edge.V)
				l.VarTypes[idx] = gurobi.CONTINUOUS
				l.UBounds[idx] = gurobi.INFINITY
			}
			// sum of target arrival times; the timing-free objective is
			// plain travel and dwell cost
			l.ObjFun[l.TVIdx(a, cfg.Targets[a])] += 1.0
		}
	}
	if conflictMode != CONFLICTS_NONE {
		for i := 0; i < l.A; i++ {
			for j := i + 1; j < l.A; j++ {
				p := l.PairIdx(i, j)
				for v := 1; v <= l.N; v++ {
					idx := l.DVIdx(p, v)
					l.VarNames[idx] = fmt.Sprintf("DV_%d_%d_%d", i, j, v)
					l.VarTypes[idx] = selType
					l.UBounds[idx] = 1.0
				}
				for e, edge := range net.Edges {
					idx := l.DEIdx(p, e)
					l.VarNames[idx] = fmt.Sprintf("DE_%d_%d_%d_%d", i, j, edge.U, edge.V)
					l.VarTypes[idx] = selType
					l.UBounds[idx] = 1.0
				}
				for k, sw := range l.Swaps {
					edge := net.Edges[sw[0]]
					idx := l.DSwIdx(p, k)
					l.VarNames[idx] = fmt.Sprintf("DS_%d_%d_%d_%d", i, j, edge.U, edge.V)
					l.VarTypes[idx] = selType
					l.UBounds[idx] = 1.0
				}
			}
		}
	}
	return l
}

// DefaultBigM derives the time-horizon constant from the inputs:
// A*(|E|*max(edge_wait) + |V|*max(vertex_wait)) + max(departure). It
// upper-bounds any arrival time of fully serialized simple paths;
// undersizing it cuts off feasible solutions.
func DefaultBigM(cfg *MAPFConfig) float64 {
	a := cfg.AgentCount()
	maxEdge := MaxEdgeParam(cfg.EdgeWait, cfg.Net, a)
	maxVertex := 0.0
	for i := 0; i < a; i++ {
		for v := 1; v <= cfg.Net.N; v++ {
			if w := cfg.VertexWait.At(i, v); w > maxVertex {
				maxVertex = w
			}
		}
	}
	maxDep := 0.0
	for _, d := range cfg.Departures {
		if d > maxDep {
			maxDep = d
		}
	}
	m := float64(a)*(float64(cfg.Net.EdgeCount())*maxEdge+float64(cfg.Net.N)*maxVertex) + maxDep
	if m <= 0 {
		m = 1.0
	}
	return m
}

// CreateContinuousModel installs variables, connectivity, optional timing
// and optional static conflict constraints into a fresh Gurobi model.
func CreateContinuousModel(env *gurobi.Env, cfg *MAPFConfig, withTiming bool, conflictMode string) (*MAPFModel, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	layout := newContinuousLayout(cfg, withTiming, conflictMode)

	bigM := cfg.BigM
	def := DefaultBigM(cfg)
	if bigM == 0 {
		bigM = def
	} else if bigM < def {
		Log(2, "Big-M %f is below the derived horizon %f and may cut off feasible arrivals", bigM, def)
	}

	model, err := env.NewModel("mapf", int32(layout.VarCount), layout.ObjFun, nil, layout.UBounds, layout.VarTypes, layout.VarNames)
	if err != nil {
		Log(1, err.Error())
		return nil, err
	}
	err = model.SetIntAttr(gurobi.INT_ATTR_MODELSENSE, gurobi.MINIMIZE)
	if err != nil {
		Log(1, err.Error())
		return nil, err
	}

	m := &MAPFModel{
		GModel:       model,
		GEnv:         env,
		Cfg:          cfg,
		modelLayout:  *layout,
		ConflictMode: conflictMode,
		WithTiming:   withTiming,
		BigM:         bigM,
		addedCuts:    make(map[string]bool),
	}

	if err := m.addConnectivityConstraints(); err != nil {
		return nil, err
	}
	if withTiming {
		if err := m.addTimingConstraints(); err != nil {
			return nil, err
		}
	}
	if conflictMode == CONFLICTS_STATIC {
		if err := m.addStaticConflictConstraints(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// addConnectivityConstraints pins both endpoints and conserves flow. The
// endpoint equations use the unambiguous split form: outflow 1 / inflow 0
// at the source, inflow 1 / outflow 0 at the target.
func (m *MAPFModel) addConnectivityConstraints() error {
	net := m.Cfg.Net
	Log(2, "Creating endpoint and flow-conservation constraints")
	for a := 0; a < m.A; a++ {
		src := m.Cfg.Sources[a]
		tgt := m.Cfg.Targets[a]

		for _, fixed := range []struct {
			v    int
			name string
		}{{src, "src"}, {tgt, "tgt"}} {
			err := m.GModel.AddConstr([]int32{int32(m.YIdx(a, fixed.v))}, []float64{1.0}, gurobi.EQUAL, 1.0, fmt.Sprintf("end_%s_%d", fixed.name, a))
			if err != nil {
				Log(1, "Error pinning %s of agent %d: %s", fixed.name, a, err.Error())
				return err
			}
		}

		if err := m.addDegreeConstr(a, net.OutEdges(src), 1.0, fmt.Sprintf("srcOut_%d", a)); err != nil {
			return err
		}
		if err := m.addDegreeConstr(a, net.InEdges(src), 0.0, fmt.Sprintf("srcIn_%d", a)); err != nil {
			return err
		}
		if err := m.addDegreeConstr(a, net.InEdges(tgt), 1.0, fmt.Sprintf("tgtIn_%d", a)); err != nil {
			return err
		}
		if err := m.addDegreeConstr(a, net.OutEdges(tgt), 0.0, fmt.Sprintf("tgtOut_%d", a)); err != nil {
			return err
		}

		for v := 1; v <= m.N; v++ {
			if v == src || v == tgt {
				continue
			}
			var (
				ind []int32
				val []float64
			)
			for _, e := range net.OutEdges(v) {
				ind = append(ind, int32(m.XIdx(a, e)))
				val = append(val, 1.0)
			}
			for _, e := range net.InEdges(v) {
				ind = append(ind, int32(m.XIdx(a, e)))
				val = append(val, -1.0)
			}
			if ind == nil {
				continue
			}
			err := m.GModel.AddConstr(ind, val, gurobi.EQUAL, 0.0, fmt.Sprintf("flow_%d_%d", a, v))
			if err != nil {
				Log(1, "Error adding flow conservation at agent %d vertex %d: %s", a, v, err.Error())
				return err
			}
		}

		// Y must follow from the selected inbound edges everywhere but
		// the source, which has none.
		for v := 1; v <= m.N; v++ {
			if v == src {
				continue
			}
			ind := []int32{int32(m.YIdx(a, v))}
			val := []float64{1.0}
			for _, e := range net.InEdges(v) {
				ind = append(ind, int32(m.XIdx(a, e)))
				val = append(val, -1.0)
			}
			err := m.GModel.AddConstr(ind, val, gurobi.EQUAL, 0.0, fmt.Sprintf("link_%d_%d", a, v))
			if err != nil {
				Log(1, "Error linking Y to X at agent %d vertex %d: %s", a, v, err.Error())
				return err
			}
		}
	}
	return nil
}

func (m *MAPFModel) addDegreeConstr(a int, edges []int, rhs float64, name string) error {
	ind := make([]int32, 0, len(edges))
	val := make([]float64, 0, len(edges))
	for _, e := range edges {
		ind = append(ind, int32(m.XIdx(a, e)))
		val = append(val, 1.0)
	}
	if len(ind) == 0 {
		if rhs != 0 {
			return fmt.Errorf("agent %d has no edges to satisfy %s = %f", a, name, rhs)
		}
		return nil
	}
	err := m.GModel.AddConstr(ind, val, gurobi.EQUAL, rhs, name)
	if err != nil {
		Log(1, "Error adding %s: %s", name, err.Error())
	}
	return err
}

// addTimingConstraints anchors every departure and propagates arrival
// times along selected vertices and edges via big-M implications.
func (m *MAPFModel) addTimingConstraints() error {
	net := m.Cfg.Net
	M := m.BigM
	Log(2, "Creating big-M arrival-time propagation constraints")
	for a := 0; a < m.A; a++ {
		src := m.Cfg.Sources[a]
		dep := 0.0
		if m.Cfg.Departures != nil {
			dep = m.Cfg.Departures[a]
		}
		err := m.GModel.AddConstr([]int32{int32(m.TVIdx(a, src))}, []float64{1.0}, gurobi.EQUAL, dep, fmt.Sprintf("dep_%d", a))
		if err != nil {
			Log(1, "Error anchoring departure of agent %d: %s", a, err.Error())
			return err
		}

		// TE >= TV + wait when the vertex is visited
		for v := 1; v <= m.N; v++ {
			wait := m.Cfg.VertexWait.At(a, v)
			for _, e := range net.OutEdges(v) {
				ind := []int32{int32(m.TEIdx(a, e)), int32(m.TVIdx(a, v)), int32(m.YIdx(a, v))}
				val := []float64{1.0, -1.0, -(wait + M)}
				err := m.GModel.AddConstr(ind, val, gurobi.GREATER_EQUAL, -M, fmt.Sprintf("tE_%d_%d", a, e))
				if err != nil {
					Log(1, "Error adding edge-start timing at agent %d edge %d: %s", a, e, err.Error())
					return err
				}
			}
		}

		// TV >= TE + travel when the edge is traversed
		for e, edge := range net.Edges {
			travel := m.Cfg.EdgeWait.At(a, edge.U, edge.V)
			ind := []int32{int32(m.TVIdx(a, edge.V)), int32(m.TEIdx(a, e)), int32(m.XIdx(a, e))}
			val := []float64{1.0, -1.0, -(travel + M)}
			err := m.GModel.AddConstr(ind, val, gurobi.GREATER_EQUAL, -M, fmt.Sprintf("tV_%d_%d", a, e))
			if err != nil {
				Log(1, "Error adding edge-end timing at agent %d edge %d: %s", a, e, err.Error())
				return err
			}
		}
	}
	return nil
}

// addStaticConflictConstraints installs the full pairwise disjunctions up
// front: for every agent pair and every vertex, edge and anti-parallel
// edge pair, one pointer binary selects which agent goes first.
func (m *MAPFModel) addStaticConflictConstraints() error {
	net := m.Cfg.Net
	M := m.BigM
	Log(2, "Creating pairwise ordering disjunctions for %d agent pairs", m.PairCount())
	for i := 0; i < m.A; i++ {
		for j := i + 1; j < m.A; j++ {
			p := m.PairIdx(i, j)

			for v := 1; v <= m.N; v++ {
				d := int32(m.DVIdx(p, v))
				for _, e := range net.OutEdges(v) {
					// either i enters v after j has left via any edge, or
					// the other way around
					err := m.GModel.AddConstr(
						[]int32{int32(m.TVIdx(i, v)), int32(m.TEIdx(j, e)), d},
						[]float64{1.0, -1.0, M},
						gurobi.GREATER_EQUAL, 0.0, fmt.Sprintf("cV1_%d_%d_%d_%d", i, j, v, e))
					if err != nil {
						Log(1, "Error adding vertex disjunction (%d,%d) at %d: %s", i, j, v, err.Error())
						return err
					}
					err = m.GModel.AddConstr(
						[]int32{int32(m.TVIdx(j, v)), int32(m.TEIdx(i, e)), d},
						[]float64{1.0, -1.0, -M},
						gurobi.GREATER_EQUAL, -M, fmt.Sprintf("cV2_%d_%d_%d_%d", i, j, v, e))
					if err != nil {
						Log(1, "Error adding vertex disjunction (%d,%d) at %d: %s", i, j, v, err.Error())
						return err
					}
				}
			}

			for e, edge := range net.Edges {
				d := int32(m.DEIdx(p, e))
				err := m.GModel.AddConstr(
					[]int32{int32(m.TEIdx(i, e)), int32(m.TVIdx(j, edge.V)), d},
					[]float64{1.0, -1.0, M},
					gurobi.GREATER_EQUAL, 0.0, fmt.Sprintf("cE1_%d_%d_%d", i, j, e))
				if err != nil {
					Log(1, "Error adding edge disjunction (%d,%d) at %d: %s", i, j, e, err.Error())
					return err
				}
				err = m.GModel.AddConstr(
					[]int32{int32(m.TEIdx(j, e)), int32(m.TVIdx(i, edge.V)), d},
					[]float64{1.0, -1.0, -M},
					gurobi.GREATER_EQUAL, -M, fmt.Sprintf("cE2_%d_%d_%d", i, j, e))
				if err != nil {
					Log(1, "Error adding edge disjunction (%d,%d) at %d: %s", i, j, e, err.Error())
					return err
				}
			}

			for k, sw := range m.Swaps {
				fwd, bwd := sw[0], sw[1]
				edge := net.Edges[fwd]
				d := int32(m.DSwIdx(p, k))
				err := m.GModel.AddConstr(
					[]int32{int32(m.TEIdx(i, fwd)), int32(m.TVIdx(j, edge.U)), d},
					[]float64{1.0, -1.0, M},
					gurobi.GREATER_EQUAL, 0.0, fmt.Sprintf("cS1_%d_%d_%d", i, j, k))
				if err != nil {
					Log(1, "Error adding swap disjunction (%d,%d) at %d: %s", i, j, k, err.Error())
					return err
				}
				err = m.GModel.AddConstr(
					[]int32{int32(m.TEIdx(j, bwd)), int32(m.TVIdx(i, edge.V)), d},
					[]float64{1.0, -1.0, -M},
					gurobi.GREATER_EQUAL, -M, fmt.Sprintf("cS2_%d_%d_%d", i, j, k))
				if err != nil {
					Log(1, "Error adding swap disjunction (%d,%d) at %d: %s", i, j, k, err.Error())
					return err
				}
			}
		}
	}
	return nil
}
