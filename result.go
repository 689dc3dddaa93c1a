package mapf

import (
	"sort"

	"git.solver4all.com/azaryc2s/gorobi/gurobi"
)

// solutionValues pulls the full variable value array of the current
// solution out of the model.
func solutionValues(m *MAPFModel) ([]float64, error) {
	solA, err := m.GModel.GetDblAttrArray(gurobi.DBL_ATTR_X, 0, int32(m.VarCount))
	if err != nil {
		Log(1, err.Error())
		return nil, err
	}
	return solA, nil
}

// ExtractTimedPaths converts the solver's value array into per-agent
// itineraries: every visited vertex paired with its arrival time, every
// traversed edge with its entry moment, both ascending in time.
func ExtractTimedPaths(m *MAPFModel, solA []float64) ([][]TimedVertex, [][]TimedEdge) {
	pathsV := make([][]TimedVertex, m.A)
	pathsE := make([][]TimedEdge, m.A)
	for a := 0; a < m.A; a++ {
		for v := 1; v <= m.N; v++ {
			if solA[m.YIdx(a, v)] > 0.5 {
				pathsV[a] = append(pathsV[a], TimedVertex{T: solA[m.TVIdx(a, v)], V: v})
			}
		}
		for e, edge := range m.Cfg.Net.Edges {
			if solA[m.XIdx(a, e)] > 0.5 {
				pathsE[a] = append(pathsE[a], TimedEdge{T: solA[m.TEIdx(a, e)], E: edge})
			}
		}
		sort.SliceStable(pathsV[a], func(i, j int) bool { return pathsV[a][i].T < pathsV[a][j].T })
		sort.SliceStable(pathsE[a], func(i, j int) bool { return pathsE[a][i].T < pathsE[a][j].T })
	}
	return pathsV, pathsE
}

// ExtractSelections walks each agent's selected edges from its source and
// returns the ordered vertex and edge-index sequences. Used when the
// model carries no timing block.
func ExtractSelections(m *MAPFModel, solA []float64) ([][]int, [][]int) {
	vertices := make([][]int, m.A)
	edges := make([][]int, m.A)
	for a := 0; a < m.A; a++ {
		cur := m.Cfg.Sources[a]
		vertices[a] = append(vertices[a], cur)
		for steps := 0; steps <= m.E; steps++ {
			next := -1
			for _, e := range m.Cfg.Net.OutEdges(cur) {
				if solA[m.XIdx(a, e)] > 0.5 {
					next = e
					break
				}
			}
			if next < 0 {
				break
			}
			edges[a] = append(edges[a], next)
			cur = m.Cfg.Net.Edges[next].V
			vertices[a] = append(vertices[a], cur)
			if cur == m.Cfg.Targets[a] {
				break
			}
		}
	}
	return vertices, edges
}
