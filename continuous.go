package mapf

import (
	"fmt"
	"time"

	"git.solver4all.com/azaryc2s/gorobi/gurobi"
)

// NewEnv creates the Gurobi environment one solve runs in. The timeout is
// installed once here; the solver enforces it during every optimize call.
func NewEnv(cfg *MAPFConfig) (*gurobi.Env, error) {
	env, err := gurobi.LoadEnv("mapf_gurobi.log")
	if err != nil {
		Log(1, err.Error())
		return nil, err
	}
	env.SetIntParam("LogToConsole", int32(0))
	if cfg.Timeout >= 0 {
		err = env.SetDblParam(gurobi.DBL_PAR_TIMELIMIT, cfg.Timeout)
		if err != nil {
			Log(1, err.Error())
			env.Free()
			return nil, err
		}
	}
	return env, nil
}

func optimizeToOptimal(model *gurobi.Model) error {
	err := model.Optimize()
	if err != nil {
		Log(1, err.Error())
		return err
	}
	status, err := model.GetIntAttr(gurobi.INT_ATTR_STATUS)
	if err != nil {
		Log(1, err.Error())
		return err
	}
	switch status {
	case gurobi.OPTIMAL:
		return nil
	case gurobi.INF_OR_UNBD:
		return fmt.Errorf("model is infeasible or unbounded (status %d); check the big-M horizon", status)
	case gurobi.TIME_LIMIT:
		return fmt.Errorf("time limit reached before an optimal solution (status %d)", status)
	default:
		return fmt.Errorf("optimization stopped with non-optimal status %d", status)
	}
}

// SolveContinuousTime solves the static continuous-time formulation: all
// pairwise ordering disjunctions are part of the model from the start.
func SolveContinuousTime(cfg *MAPFConfig) (*MAPFSolution, error) {
	env, err := NewEnv(cfg)
	if err != nil {
		return nil, err
	}
	defer env.Free()

	model, err := CreateContinuousModel(env, cfg, true, CONFLICTS_STATIC)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()
	if err := optimizeToOptimal(model.GModel); err != nil {
		return nil, err
	}
	Log(2, "---OPTIMIZATION DONE---")

	sol, err := captureContinuousSolution(model)
	if err != nil {
		return nil, err
	}
	sol.Time = time.Since(startTime).String()
	return sol, nil
}

func captureContinuousSolution(m *MAPFModel) (*MAPFSolution, error) {
	solA, err := solutionValues(m)
	if err != nil {
		return nil, err
	}
	objval, err := m.GModel.GetDblAttr(gurobi.DBL_ATTR_OBJVAL)
	if err != nil {
		Log(1, err.Error())
		return nil, err
	}
	sol := &MAPFSolution{Obj: objval, Optimal: true}
	lb, err := m.GModel.GetDblAttr(gurobi.DBL_ATTR_OBJBOUND)
	if err == nil {
		sol.LBound = lb
	}
	sol.PathsVertices, sol.PathsEdges = ExtractTimedPaths(m, solA)
	Log(2, "Found paths with objective %f", sol.Obj)
	return sol, nil
}
