package mapf

import "fmt"

// Edge is a directed edge between two vertices from 1..N.
type Edge struct {
	U int `json:"u"`
	V int `json:"v"`
}

// Network is the graph a problem is solved on. Vertices are 1..N, edges
// are kept in insertion order and addressed by their index, which is what
// the MILP variable layout is built on. Undirected input is canonicalized
// into both directions at construction.
type Network struct {
	N     int
	Edges []Edge

	edgeIdx map[Edge]int
	out     [][]int
	in      [][]int
	rev     []int
}

func NewNetwork(n int, edges []Edge, directed bool) (*Network, error) {
	if n < 1 {
		return nil, fmt.Errorf("network needs at least one vertex, got %d", n)
	}
	net := &Network{
		N:       n,
		edgeIdx: make(map[Edge]int),
		out:     make([][]int, n+1),
		in:      make([][]int, n+1),
	}
	for _, e := range edges {
		if err := net.addEdge(e); err != nil {
			return nil, err
		}
		if !directed {
			if err := net.addEdge(Edge{U: e.V, V: e.U}); err != nil {
				return nil, err
			}
		}
	}
	net.rev = make([]int, len(net.Edges))
	for i, e := range net.Edges {
		if r, ok := net.edgeIdx[Edge{U: e.V, V: e.U}]; ok {
			net.rev[i] = r
		} else {
			net.rev[i] = -1
		}
	}
	return net, nil
}

func (net *Network) addEdge(e Edge) error {
	if e.U < 1 || e.U > net.N || e.V < 1 || e.V > net.N {
		return fmt.Errorf("edge (%d,%d) out of vertex range 1..%d", e.U, e.V, net.N)
	}
	if _, ok := net.edgeIdx[e]; ok {
		return nil
	}
	idx := len(net.Edges)
	net.Edges = append(net.Edges, e)
	net.edgeIdx[e] = idx
	net.out[e.U] = append(net.out[e.U], idx)
	net.in[e.V] = append(net.in[e.V], idx)
	return nil
}

func (net *Network) EdgeCount() int {
	return len(net.Edges)
}

// OutEdges returns the indices of all edges leaving v.
func (net *Network) OutEdges(v int) []int {
	return net.out[v]
}

// InEdges returns the indices of all edges entering v.
func (net *Network) InEdges(v int) []int {
	return net.in[v]
}

func (net *Network) EdgeIndex(u, v int) (int, bool) {
	idx, ok := net.edgeIdx[Edge{U: u, V: v}]
	return idx, ok
}

// ReverseEdge returns the index of the anti-parallel edge of e, or -1.
func (net *Network) ReverseEdge(e int) int {
	return net.rev[e]
}

func (net *Network) HasVertex(v int) bool {
	return v >= 1 && v <= net.N
}

// SwapPairs lists every pair (e, e') of anti-parallel edges once, with the
// ascending-endpoint direction first.
func (net *Network) SwapPairs() [][2]int {
	var pairs [][2]int
	for i, e := range net.Edges {
		if e.U < e.V && net.rev[i] >= 0 {
			pairs = append(pairs, [2]int{i, net.rev[i]})
		}
	}
	return pairs
}
