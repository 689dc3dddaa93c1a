package mapf

import "fmt"

// VertexParam resolves a per-vertex parameter for a given agent. It wraps
// either a shared array indexed by vertex or a per-agent matrix; the
// accessor right-aligns the (agent, vertex) pair against whichever rank is
// present, so builders never branch on the input shape.
type VertexParam struct {
	shared   []float64
	perAgent [][]float64
}

func NewVertexParam(shared []float64) *VertexParam {
	return &VertexParam{shared: shared}
}

func NewAgentVertexParam(perAgent [][]float64) *VertexParam {
	return &VertexParam{perAgent: perAgent}
}

func UniformVertexParam(n int, value float64) *VertexParam {
	shared := make([]float64, n)
	for i := range shared {
		shared[i] = value
	}
	return &VertexParam{shared: shared}
}

func (p *VertexParam) At(a, v int) float64 {
	if p.perAgent != nil {
		return p.perAgent[a][v-1]
	}
	return p.shared[v-1]
}

func (p *VertexParam) Validate(a, n int) error {
	if p.perAgent != nil {
		if len(p.perAgent) != a {
			return fmt.Errorf("per-agent vertex array has %d rows, want %d", len(p.perAgent), a)
		}
		for i, row := range p.perAgent {
			if len(row) != n {
				return fmt.Errorf("per-agent vertex array row %d has %d entries, want %d", i, len(row), n)
			}
			if err := checkNonNegative(row); err != nil {
				return err
			}
		}
		return nil
	}
	if len(p.shared) != n {
		return fmt.Errorf("vertex array has %d entries, want %d", len(p.shared), n)
	}
	return checkNonNegative(p.shared)
}

// EdgeParam is the edge-indexed counterpart of VertexParam. The matrix is
// dense over vertex pairs; entries of non-edges are ignored.
type EdgeParam struct {
	shared   [][]float64
	perAgent [][][]float64
}

func NewEdgeParam(shared [][]float64) *EdgeParam {
	return &EdgeParam{shared: shared}
}

func NewAgentEdgeParam(perAgent [][][]float64) *EdgeParam {
	return &EdgeParam{perAgent: perAgent}
}

func UniformEdgeParam(net *Network, value float64) *EdgeParam {
	shared := make([][]float64, net.N)
	for i := range shared {
		shared[i] = make([]float64, net.N)
		for j := range shared[i] {
			shared[i][j] = value
		}
	}
	return &EdgeParam{shared: shared}
}

func (p *EdgeParam) At(a, u, v int) float64 {
	if p.perAgent != nil {
		return p.perAgent[a][u-1][v-1]
	}
	return p.shared[u-1][v-1]
}

func (p *EdgeParam) Validate(a, n int) error {
	if p.perAgent != nil {
		if len(p.perAgent) != a {
			return fmt.Errorf("per-agent edge array has %d matrices, want %d", len(p.perAgent), a)
		}
		for i, mat := range p.perAgent {
			if err := checkMatrix(mat, n); err != nil {
				return fmt.Errorf("per-agent edge array %d: %s", i, err.Error())
			}
		}
		return nil
	}
	return checkMatrix(p.shared, n)
}

// MaxEdgeParam returns the largest value the accessor can yield on an
// actual edge of the network, over all agents.
func MaxEdgeParam(p *EdgeParam, net *Network, agents int) float64 {
	max := 0.0
	for a := 0; a < agents; a++ {
		for _, e := range net.Edges {
			if v := p.At(a, e.U, e.V); v > max {
				max = v
			}
		}
		if p.perAgent == nil {
			break
		}
	}
	return max
}

// MinNonZeroWait finds the smallest strictly positive wait among both
// tensors; 0 if everything is zero.
func MinNonZeroWait(vertexWait *VertexParam, edgeWait *EdgeParam, net *Network, agents int) float64 {
	min := 0.0
	consider := func(w float64) {
		if w > 0 && (min == 0 || w < min) {
			min = w
		}
	}
	for a := 0; a < agents; a++ {
		for v := 1; v <= net.N; v++ {
			consider(vertexWait.At(a, v))
		}
		for _, e := range net.Edges {
			consider(edgeWait.At(a, e.U, e.V))
		}
	}
	return min
}

func checkNonNegative(vals []float64) error {
	for i, v := range vals {
		if v < 0 {
			return fmt.Errorf("negative value %f at index %d", v, i)
		}
	}
	return nil
}

func checkMatrix(mat [][]float64, n int) error {
	if len(mat) != n {
		return fmt.Errorf("edge matrix has %d rows, want %d", len(mat), n)
	}
	for i, row := range mat {
		if len(row) != n {
			return fmt.Errorf("edge matrix row %d has %d entries, want %d", i, len(row), n)
		}
		if err := checkNonNegative(row); err != nil {
			return err
		}
	}
	return nil
}
