package ownership

import (
	"fmt"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
)

// OwnershipEdge states that Child holds Share of Parent.
type OwnershipEdge struct {
	Parent string // canonical name of the owned entity
	Child  string // canonical name of the shareholder
	Share  Share
	Row    int // source row, 0 when built by hand

	ParentDisplay string
	ChildDisplay  string
}

func (e OwnershipEdge) String() string {
	return fmt.Sprintf("%s -> %s (%s)", e.Parent, e.Child, e.Share)
}

// Graph is a set of ownership edges, keyed by (parent, child).
// It accepts several parents for one child.
type Graph struct {
	owners   map[string][]string // parent -> shareholders in insertion order
	edges    map[[2]string]OwnershipEdge
	display  map[string]string
	order    []string // entities in order of appearance
	warnings []ConsistencyWarning
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		owners:  make(map[string][]string),
		edges:   make(map[[2]string]OwnershipEdge),
		display: make(map[string]string),
	}
}

func (g *Graph) see(key, display string) {
	if _, ok := g.display[key]; ok {
		return
	}
	if display == "" {
		display = key
	}
	g.display[key] = display
	g.order = append(g.order, key)
}

// Add inserts an edge. An edge declared twice with another share keeps the
// last share and records a warning.
func (g *Graph) Add(e OwnershipEdge) {
	g.see(e.Parent, e.ParentDisplay)
	g.see(e.Child, e.ChildDisplay)
	k := [2]string{e.Parent, e.Child}
	if old, ok := g.edges[k]; ok {
		if !old.Share.Equal(e.Share) {
			w := ConsistencyWarning{
				Kind:    WarnRedeclared,
				Entity:  e.Child,
				Message: fmt.Sprintf("holding in %s declared as %s (row %d) then %s (row %d)", e.Parent, old.Share, old.Row, e.Share, e.Row),
			}
			logger.Warn("edge redeclared", "parent", e.Parent, "child", e.Child, "old", old.Share, "new", e.Share)
			g.warnings = append(g.warnings, w)
		}
		g.edges[k] = e
		return
	}
	g.edges[k] = e
	g.owners[e.Parent] = append(g.owners[e.Parent], e.Child)
}

// Len returns the number of edges.
func (g *Graph) Len() int { return len(g.edges) }

// Edges returns all edges, grouped by parent in order of appearance.
func (g *Graph) Edges() []OwnershipEdge {
	res := make([]OwnershipEdge, 0, len(g.edges))
	for _, parent := range g.order {
		res = append(res, g.Shareholders(parent)...)
	}
	return res
}

// Shareholders returns the edges going out of 'parent'.
func (g *Graph) Shareholders(parent string) []OwnershipEdge {
	children := g.owners[parent]
	res := make([]OwnershipEdge, 0, len(children))
	for _, c := range children {
		res = append(res, g.edges[[2]string{parent, c}])
	}
	return res
}

// HasShareholders reports whether 'entity' has listed shareholders.
func (g *Graph) HasShareholders(entity string) bool { return len(g.owners[entity]) > 0 }

// Contains reports whether 'entity' appears in any edge.
func (g *Graph) Contains(entity string) bool {
	_, ok := g.display[entity]
	return ok
}

// Display returns the first spelling seen for a canonical name.
func (g *Graph) Display(entity string) string {
	if d, ok := g.display[entity]; ok {
		return d
	}
	return entity
}

// Entities returns all canonical names in order of appearance.
func (g *Graph) Entities() []string { return slices.Clone(g.order) }

// Roots returns the entities that have shareholders but are held by nobody,
// sorted by name.
func (g *Graph) Roots() []string {
	held := mapset.NewThreadUnsafeSet[string]()
	for k := range g.edges {
		held.Add(k[1])
	}
	var roots []string
	for parent := range g.owners {
		if !held.Contains(parent) {
			roots = append(roots, parent)
		}
	}
	slices.Sort(roots)
	return roots
}

// Warnings returns the warnings raised while building the graph.
func (g *Graph) Warnings() []ConsistencyWarning { return slices.Clone(g.warnings) }

// Validate checks that the shareholders of each entity do not hold more than
// 100% of it (1% of rounding slack).
func (g *Graph) Validate() []ConsistencyWarning {
	var res []ConsistencyWarning
	limit := P(101)
	for _, parent := range g.order {
		total := P(0)
		for _, e := range g.Shareholders(parent) {
			total = total.Add(e.Share.Percent())
		}
		if total.GreaterThan(limit) {
			res = append(res, ConsistencyWarning{
				Kind:    WarnOverAllocated,
				Entity:  parent,
				Message: fmt.Sprintf("shareholders hold %s", total),
			})
		}
	}
	return res
}

// GraphStats summarizes a graph.
type GraphStats struct {
	Entities         int `json:"entities"`
	WithShareholders int `json:"withShareholders"`
	Leaves           int `json:"leaves"`
	Edges            int `json:"edges"`
}

// Stats counts entities, entities with shareholders and leaves.
func (g *Graph) Stats() GraphStats {
	with := len(g.owners)
	return GraphStats{
		Entities:         len(g.order),
		WithShareholders: with,
		Leaves:           len(g.order) - with,
		Edges:            len(g.edges),
	}
}
