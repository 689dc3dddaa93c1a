package mapf

import (
	"fmt"
	"math"
	"time"

	"git.solver4all.com/azaryc2s/gorobi/gurobi"
)

// DiscreteModel is the time-expanded formulation: every selection
// variable carries a step index below the horizon T.
type DiscreteModel struct {
	GModel *gurobi.Model
	GEnv   *gurobi.Env
	Cfg    *MAPFConfig

	A, N, E, T int
	Deps       []int

	XStart   int
	YStart   int
	VarCount int
	VarNames []string
}

func (m *DiscreteModel) XIdx(a, e, t int) int {
	return m.XStart + (a*m.T+t)*m.E + e
}

func (m *DiscreteModel) YIdx(a, v, t int) int {
	return m.YStart + (a*m.T+t)*m.N + v - 1
}

func discreteDepartures(cfg *MAPFConfig) ([]int, error) {
	deps := make([]int, cfg.AgentCount())
	for a, d := range cfg.Departures {
		if d != math.Trunc(d) {
			return nil, fmt.Errorf("departure of agent %d is not an integer step: %f", a, d)
		}
		deps[a] = int(d)
	}
	return deps, nil
}

// CreateDiscreteModel unrolls the horizon and installs the step-indexed
// flow, exclusivity and one-occupant conflict constraints.
func CreateDiscreteModel(env *gurobi.Env, cfg *MAPFConfig) (*DiscreteModel, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	deps, err := discreteDepartures(cfg)
	if err != nil {
		return nil, err
	}
	net := cfg.Net
	T := cfg.TimeDuration
	if T <= 0 {
		T = net.EdgeCount()
	}
	m := &DiscreteModel{Cfg: cfg, GEnv: env, A: cfg.AgentCount(), N: net.N, E: net.EdgeCount(), T: T, Deps: deps}
	for a, dep := range deps {
		if dep >= T {
			return nil, fmt.Errorf("departure %d of agent %d is beyond the horizon %d", dep, a, T)
		}
	}

	selType := gurobi.CONTINUOUS
	if cfg.Integer {
		selType = gurobi.BINARY
	}
	m.XStart = 0
	m.YStart = m.XStart + m.A*T*m.E
	m.VarCount = m.YStart + m.A*T*m.N

	m.VarNames = make([]string, m.VarCount)
	varTypes := make([]int8, m.VarCount)
	objFun := make([]float64, m.VarCount)
	ub := make([]float64, m.VarCount)
	for a := 0; a < m.A; a++ {
		for t := 0; t < T; t++ {
			// the agent does not exist before its departure step
			active := 1.0
			if t < deps[a] {
				active = 0.0
			}
			for e, edge := range net.Edges {
				idx := m.XIdx(a, e, t)
				m.VarNames[idx] = fmt.Sprintf("X_%d_%d_%d_%d", a, edge.U, edge.V, t)
				varTypes[idx] = selType
				ub[idx] = active
				objFun[idx] = cfg.EdgeCost.At(a, edge.U, edge.V)
			}
			for v := 1; v <= m.N; v++ {
				idx := m.YIdx(a, v, t)
				m.VarNames[idx] = fmt.Sprintf("Y_%d_%d_%d", a, v, t)
				varTypes[idx] = selType
				ub[idx] = active
				objFun[idx] = cfg.VertexCost.At(a, v)
			}
		}
	}

	model, err := env.NewModel("mapf_disc", int32(m.VarCount), objFun, nil, ub, varTypes, m.VarNames)
	if err != nil {
		Log(1, err.Error())
		return nil, err
	}
	m.GModel = model
	err = model.SetIntAttr(gurobi.INT_ATTR_MODELSENSE, gurobi.MINIMIZE)
	if err != nil {
		Log(1, err.Error())
		return nil, err
	}

	if err := m.addAgentConstraints(); err != nil {
		return nil, err
	}
	if err := m.addStepConflictConstraints(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *DiscreteModel) addAgentConstraints() error {
	net := m.Cfg.Net
	T := m.T
	Log(2, "Creating step-indexed flow constraints over horizon %d", T)
	for a := 0; a < m.A; a++ {
		src := m.Cfg.Sources[a]
		tgt := m.Cfg.Targets[a]
		dep := m.Deps[a]

		// net outflow from the source sums to one over all steps
		var (
			ind []int32
			val []float64
		)
		for t := dep; t < T; t++ {
			for _, e := range net.OutEdges(src) {
				ind = append(ind, int32(m.XIdx(a, e, t)))
				val = append(val, 1.0)
			}
			for _, e := range net.InEdges(src) {
				ind = append(ind, int32(m.XIdx(a, e, t)))
				val = append(val, -1.0)
			}
		}
		err := m.GModel.AddConstr(ind, val, gurobi.EQUAL, 1.0, fmt.Sprintf("srcLeave_%d", a))
		if err != nil {
			Log(1, "Error adding source departure of agent %d: %s", a, err.Error())
			return err
		}

		ind = nil
		val = nil
		for t := dep; t < T; t++ {
			for _, e := range net.InEdges(tgt) {
				ind = append(ind, int32(m.XIdx(a, e, t)))
				val = append(val, 1.0)
			}
			for _, e := range net.OutEdges(tgt) {
				ind = append(ind, int32(m.XIdx(a, e, t)))
				val = append(val, 1.0)
			}
		}
		err = m.GModel.AddConstr(ind, val, gurobi.EQUAL, 1.0, fmt.Sprintf("tgtReach_%d", a))
		if err != nil {
			Log(1, "Error adding target arrival of agent %d: %s", a, err.Error())
			return err
		}

		if m.Cfg.VertexBinding {
			if err := m.addBindingConstraints(a); err != nil {
				return err
			}
			continue
		}

		err = m.GModel.AddConstr([]int32{int32(m.YIdx(a, src, dep))}, []float64{1.0}, gurobi.EQUAL, 1.0, fmt.Sprintf("start_%d", a))
		if err != nil {
			Log(1, "Error anchoring start of agent %d: %s", a, err.Error())
			return err
		}

		// an agent at v either dwells or starts leaving next step
		for v := 1; v <= m.N; v++ {
			for t := dep; t < T-1; t++ {
				ind = []int32{int32(m.YIdx(a, v, t)), int32(m.YIdx(a, v, t+1))}
				val = []float64{1.0, -1.0}
				for _, e := range net.InEdges(v) {
					ind = append(ind, int32(m.XIdx(a, e, t)))
					val = append(val, 1.0)
				}
				for _, e := range net.OutEdges(v) {
					ind = append(ind, int32(m.XIdx(a, e, t+1)))
					val = append(val, -1.0)
				}
				err = m.GModel.AddConstr(ind, val, gurobi.EQUAL, 0.0, fmt.Sprintf("flow_%d_%d_%d", a, v, t))
				if err != nil {
					Log(1, "Error adding step flow at agent %d vertex %d step %d: %s", a, v, t, err.Error())
					return err
				}
			}
		}

		// exactly one place per step
		for t := dep; t < T; t++ {
			ind = nil
			val = nil
			for v := 1; v <= m.N; v++ {
				ind = append(ind, int32(m.YIdx(a, v, t)))
				val = append(val, 1.0)
			}
			for e := 0; e < m.E; e++ {
				ind = append(ind, int32(m.XIdx(a, e, t)))
				val = append(val, 1.0)
			}
			err = m.GModel.AddConstr(ind, val, gurobi.EQUAL, 1.0, fmt.Sprintf("one_%d_%d", a, t))
			if err != nil {
				Log(1, "Error adding exclusivity of agent %d step %d: %s", a, t, err.Error())
				return err
			}
		}

		// vertex-payment: entering v forces a paid dwell step
		for v := 1; v <= m.N; v++ {
			if !m.enforceVertexVisit(a, v) {
				continue
			}
			for t := dep; t < T-1; t++ {
				ind = []int32{int32(m.YIdx(a, v, t+1))}
				val = []float64{1.0}
				for _, e := range net.InEdges(v) {
					ind = append(ind, int32(m.XIdx(a, e, t)))
					val = append(val, -1.0)
				}
				err = m.GModel.AddConstr(ind, val, gurobi.GREATER_EQUAL, 0.0, fmt.Sprintf("pay_%d_%d_%d", a, v, t))
				if err != nil {
					Log(1, "Error adding vertex payment at agent %d vertex %d step %d: %s", a, v, t, err.Error())
					return err
				}
			}
		}
	}
	return nil
}

func (m *DiscreteModel) enforceVertexVisit(a, v int) bool {
	switch m.Cfg.VertexVisit {
	case VERTEX_VISIT_YES:
		return true
	case VERTEX_VISIT_NO:
		return false
	default:
		return m.Cfg.VertexCost.At(a, v) > 0
	}
}

// addBindingConstraints is the strict alternative coupling: a step is
// spent either fully on a vertex or fully on an edge, with the vertex
// step forced by the previous step's inbound edge. The target is exempt
// from the leave coupling so the agent can stop there.
func (m *DiscreteModel) addBindingConstraints(a int) error {
	net := m.Cfg.Net
	T := m.T
	dep := m.Deps[a]
	tgt := m.Cfg.Targets[a]
	for v := 1; v <= m.N; v++ {
		for t := dep + 1; t < T; t++ {
			ind := []int32{int32(m.YIdx(a, v, t))}
			val := []float64{1.0}
			for _, e := range net.InEdges(v) {
				ind = append(ind, int32(m.XIdx(a, e, t-1)))
				val = append(val, -1.0)
			}
			err := m.GModel.AddConstr(ind, val, gurobi.EQUAL, 0.0, fmt.Sprintf("bindY_%d_%d_%d", a, v, t))
			if err != nil {
				Log(1, "Error adding vertex binding at agent %d vertex %d step %d: %s", a, v, t, err.Error())
				return err
			}
			if v == tgt {
				continue
			}
			ind = nil
			val = nil
			for _, e := range net.OutEdges(v) {
				ind = append(ind, int32(m.XIdx(a, e, t)))
				val = append(val, 1.0)
			}
			for _, e := range net.InEdges(v) {
				ind = append(ind, int32(m.XIdx(a, e, t-1)))
				val = append(val, -1.0)
			}
			if ind == nil {
				continue
			}
			err = m.GModel.AddConstr(ind, val, gurobi.EQUAL, 0.0, fmt.Sprintf("bindX_%d_%d_%d", a, v, t))
			if err != nil {
				Log(1, "Error adding edge binding at agent %d vertex %d step %d: %s", a, v, t, err.Error())
				return err
			}
		}
	}
	for t := dep; t < T; t++ {
		var (
			ind []int32
			val []float64
		)
		for v := 1; v <= m.N; v++ {
			ind = append(ind, int32(m.YIdx(a, v, t)))
			val = append(val, 1.0)
		}
		err := m.GModel.AddConstr(ind, val, gurobi.LESS_EQUAL, 1.0, fmt.Sprintf("bindOne_%d_%d", a, t))
		if err != nil {
			Log(1, "Error adding vertex exclusivity of agent %d step %d: %s", a, t, err.Error())
			return err
		}
	}
	return nil
}

func (m *DiscreteModel) addStepConflictConstraints() error {
	net := m.Cfg.Net
	Log(2, "Creating one-occupant-per-cell conflict constraints")
	for t := 0; t < m.T; t++ {
		for v := 1; v <= m.N; v++ {
			var (
				ind []int32
				val []float64
			)
			for a := 0; a < m.A; a++ {
				ind = append(ind, int32(m.YIdx(a, v, t)))
				val = append(val, 1.0)
				for _, e := range net.InEdges(v) {
					ind = append(ind, int32(m.XIdx(a, e, t)))
					val = append(val, 1.0)
				}
			}
			err := m.GModel.AddConstr(ind, val, gurobi.LESS_EQUAL, 1.0, fmt.Sprintf("cV_%d_%d", v, t))
			if err != nil {
				Log(1, "Error adding vertex conflict at %d step %d: %s", v, t, err.Error())
				return err
			}
		}
		for e := 0; e < m.E; e++ {
			var (
				ind []int32
				val []float64
			)
			for a := 0; a < m.A; a++ {
				ind = append(ind, int32(m.XIdx(a, e, t)))
				val = append(val, 1.0)
			}
			err := m.GModel.AddConstr(ind, val, gurobi.LESS_EQUAL, 1.0, fmt.Sprintf("cE_%d_%d", e, t))
			if err != nil {
				Log(1, "Error adding edge conflict at %d step %d: %s", e, t, err.Error())
				return err
			}
		}
		if m.Cfg.SwapConstraint {
			for k, sw := range net.SwapPairs() {
				var (
					ind []int32
					val []float64
				)
				for a := 0; a < m.A; a++ {
					ind = append(ind, int32(m.XIdx(a, sw[0], t)), int32(m.XIdx(a, sw[1], t)))
					val = append(val, 1.0, 1.0)
				}
				err := m.GModel.AddConstr(ind, val, gurobi.LESS_EQUAL, 1.0, fmt.Sprintf("cS_%d_%d", k, t))
				if err != nil {
					Log(1, "Error adding swap conflict at %d step %d: %s", k, t, err.Error())
					return err
				}
			}
		}
	}
	return nil
}

// ExtractDiscretePaths reads the value array back into per-step
// itineraries, ascending by step index.
func ExtractDiscretePaths(m *DiscreteModel, solA []float64) ([][]TimedVertex, [][]TimedEdge) {
	pathsV := make([][]TimedVertex, m.A)
	pathsE := make([][]TimedEdge, m.A)
	for a := 0; a < m.A; a++ {
		for t := 0; t < m.T; t++ {
			for v := 1; v <= m.N; v++ {
				if solA[m.YIdx(a, v, t)] > 0.5 {
					pathsV[a] = append(pathsV[a], TimedVertex{T: float64(t), V: v})
				}
			}
			for e, edge := range m.Cfg.Net.Edges {
				if solA[m.XIdx(a, e, t)] > 0.5 {
					pathsE[a] = append(pathsE[a], TimedEdge{T: float64(t), E: edge})
				}
			}
		}
	}
	return pathsV, pathsE
}

// SolveDiscreteTime solves the time-expanded formulation over the
// configured horizon (default |E| steps).
func SolveDiscreteTime(cfg *MAPFConfig) (*MAPFSolution, error) {
	env, err := NewEnv(cfg)
	if err != nil {
		return nil, err
	}
	defer env.Free()

	model, err := CreateDiscreteModel(env, cfg)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()
	if err := optimizeToOptimal(model.GModel); err != nil {
		return nil, err
	}
	Log(2, "---OPTIMIZATION DONE---")

	solA, err := model.GModel.GetDblAttrArray(gurobi.DBL_ATTR_X, 0, int32(model.VarCount))
	if err != nil {
		Log(1, err.Error())
		return nil, err
	}
	objval, err := model.GModel.GetDblAttr(gurobi.DBL_ATTR_OBJVAL)
	if err != nil {
		Log(1, err.Error())
		return nil, err
	}
	sol := &MAPFSolution{Obj: objval, Optimal: true, Time: time.Since(startTime).String()}
	sol.PathsVertices, sol.PathsEdges = ExtractDiscretePaths(model, solA)
	Log(2, "Found step-indexed paths with objective %f", sol.Obj)
	return sol, nil
}
