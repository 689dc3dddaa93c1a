package mapf

import "git.solver4all.com/azaryc2s/gorobi/gurobi"

const (
	MODE_CONTINUOUS = "CONT"
	MODE_DYNAMIC    = "DYN"
	MODE_DISCRETE   = "DISC"

	STRAT_LOOP = "LOOP"
	STRAT_CB   = "CB"

	CONFLICTS_NONE   = "NONE"
	CONFLICTS_STATIC = "STATIC"
	CONFLICTS_LAZY   = "LAZY"

	VERTEX_VISIT_AUTO = "AUTO"
	VERTEX_VISIT_YES  = "YES"
	VERTEX_VISIT_NO   = "NO"
)

// MAPFInstance is the on-disk problem description. Cost and wait tensors
// come in a shared form (per vertex/edge) or a per-agent form; exactly one
// of each pair may be set.
type MAPFInstance struct {
	Name    string `json:"name"`
	Comment string `json:"comment"`
	Type    string `json:"type"`

	VertexCount int     `json:"vertex_count"`
	Directed    bool    `json:"directed"`
	Edges       [][]int `json:"edges"`

	Sources    []int     `json:"sources"`
	Targets    []int     `json:"targets"`
	Departures []float64 `json:"departures,omitempty"`

	VertexCost      []float64   `json:"vertex_cost,omitempty"`
	AgentVertexCost [][]float64 `json:"agent_vertex_cost,omitempty"`
	VertexWait      []float64   `json:"vertex_wait,omitempty"`
	AgentVertexWait [][]float64 `json:"agent_vertex_wait,omitempty"`

	EdgeCost      [][]float64   `json:"edge_cost,omitempty"`
	AgentEdgeCost [][][]float64 `json:"agent_edge_cost,omitempty"`
	EdgeWait      [][]float64   `json:"edge_wait,omitempty"`
	AgentEdgeWait [][][]float64 `json:"agent_edge_wait,omitempty"`

	Solution *MAPFSolution `json:"solution,omitempty"`
}

// TimedVertex is one stop of an agent's itinerary: the agent arrives at V
// at time T (step index in discrete mode).
type TimedVertex struct {
	T float64 `json:"t"`
	V int     `json:"v"`
}

// TimedEdge records the moment T at which an agent enters edge E.
type TimedEdge struct {
	T float64 `json:"t"`
	E Edge    `json:"e"`
}

type MAPFSolution struct {
	Obj     float64 `json:"obj"`
	LBound  float64 `json:"lbound"`
	Optimal bool    `json:"optimal"`

	PathsVertices [][]TimedVertex `json:"paths_vertices"`
	PathsEdges    [][]TimedEdge   `json:"paths_edges"`

	CutsVertex int `json:"cuts_vertex,omitempty"`
	CutsEdge   int `json:"cuts_edge,omitempty"`
	CutsSwap   int `json:"cuts_swap,omitempty"`

	Time    string  `json:"time"`
	System  SysInfo `json:"system"`
	Comment string  `json:"comment"`
}

// SysInfo saves the basic system information
type SysInfo struct {
	Platform string
	CPU      string
	RAM      string
}

// MAPFConfig bundles everything one solve needs. Zero values of the knobs
// mean "use the default" (see NewConfig).
type MAPFConfig struct {
	Net        *Network
	Sources    []int
	Targets    []int
	Departures []float64

	VertexCost *VertexParam
	EdgeCost   *EdgeParam
	VertexWait *VertexParam
	EdgeWait   *EdgeParam

	Integer        bool
	SwapConstraint bool
	BigM           float64 // 0 = derive via DefaultBigM
	Timeout        float64 // seconds, -1 = unlimited

	// discrete mode
	TimeDuration  int // horizon T, 0 = |E|
	VertexBinding bool
	VertexVisit   string

	// dynamic mode
	Strategy          string
	HeuristicConflict bool
	Epsilon           float64 // cut safety gap, 0 = derive
	DetectEps         float64 // detector tolerance, 0 = 1e-9
}

func NewConfig(net *Network, sources, targets []int) *MAPFConfig {
	a := len(sources)
	return &MAPFConfig{
		Net:        net,
		Sources:    sources,
		Targets:    targets,
		Departures: make([]float64, a),
		VertexCost: UniformVertexParam(net.N, 0),
		EdgeCost:   UniformEdgeParam(net, 0),
		VertexWait: UniformVertexParam(net.N, 0),
		EdgeWait:   UniformEdgeParam(net, 0),

		Integer:        true,
		SwapConstraint: true,
		Timeout:        -1,
		VertexVisit:    VERTEX_VISIT_AUTO,
		Strategy:       STRAT_LOOP,
	}
}

func (cfg *MAPFConfig) AgentCount() int {
	return len(cfg.Sources)
}

// ToConfig translates an instance record into a solve configuration.
func (inst *MAPFInstance) ToConfig() (*MAPFConfig, error) {
	edges := make([]Edge, len(inst.Edges))
	for i, e := range inst.Edges {
		if len(e) != 2 {
			return nil, errBadEdgeRow(i, len(e))
		}
		edges[i] = Edge{U: e[0], V: e[1]}
	}
	net, err := NewNetwork(inst.VertexCount, edges, inst.Directed)
	if err != nil {
		return nil, err
	}
	cfg := NewConfig(net, inst.Sources, inst.Targets)
	if inst.Departures != nil {
		cfg.Departures = inst.Departures
	}
	if inst.AgentVertexCost != nil {
		cfg.VertexCost = NewAgentVertexParam(inst.AgentVertexCost)
	} else if inst.VertexCost != nil {
		cfg.VertexCost = NewVertexParam(inst.VertexCost)
	}
	if inst.AgentVertexWait != nil {
		cfg.VertexWait = NewAgentVertexParam(inst.AgentVertexWait)
	} else if inst.VertexWait != nil {
		cfg.VertexWait = NewVertexParam(inst.VertexWait)
	}
	if inst.AgentEdgeCost != nil {
		cfg.EdgeCost = NewAgentEdgeParam(inst.AgentEdgeCost)
	} else if inst.EdgeCost != nil {
		cfg.EdgeCost = NewEdgeParam(inst.EdgeCost)
	}
	if inst.AgentEdgeWait != nil {
		cfg.EdgeWait = NewAgentEdgeParam(inst.AgentEdgeWait)
	} else if inst.EdgeWait != nil {
		cfg.EdgeWait = NewEdgeParam(inst.EdgeWait)
	}
	return cfg, nil
}

// MAPFModel holds the Gurobi model of one continuous formulation together
// with the flat variable layout needed to address it.
type MAPFModel struct {
	GModel *gurobi.Model
	GEnv   *gurobi.Env
	Cfg    *MAPFConfig

	modelLayout

	ConflictMode string
	WithTiming   bool
	BigM         float64

	addedCuts map[string]bool
	cbRows    []cutRow
}
