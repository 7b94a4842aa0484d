package ownership

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func edge(parent, child string, share float64) OwnershipEdge {
	return OwnershipEdge{Parent: parent, Child: child, Share: S(share)}
}

func TestGraph_MultipleParents(t *testing.T) {
	g := NewGraph()
	g.Add(edge("ROOT", "H1", 0.5))
	g.Add(edge("ROOT", "H2", 0.5))
	g.Add(edge("H1", "PERSON", 0.3))
	g.Add(edge("H2", "PERSON", 0.2))

	if got := g.Len(); got != 4 {
		t.Errorf("Len() = %d, want 4", got)
	}
	if got := g.Roots(); !cmp.Equal(got, []string{"ROOT"}) {
		t.Errorf("Roots() = %v, want [ROOT]", got)
	}
	want := GraphStats{Entities: 4, WithShareholders: 3, Leaves: 1, Edges: 4}
	if got := g.Stats(); got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}
	if !g.Contains("PERSON") || g.Contains("NOBODY") {
		t.Errorf("Contains() is inconsistent")
	}
	if got := g.Entities(); !cmp.Equal(got, []string{"ROOT", "H1", "H2", "PERSON"}) {
		t.Errorf("Entities() = %v", got)
	}
}

func TestGraph_Redeclared(t *testing.T) {
	g := NewGraph()
	g.Add(edge("ROOT", "A", 0.5))
	g.Add(edge("ROOT", "A", 0.5))
	if w := g.Warnings(); len(w) != 0 {
		t.Errorf("identical edge raised %v", w)
	}
	g.Add(edge("ROOT", "A", 0.4))
	w := g.Warnings()
	if len(w) != 1 || w[0].Kind != WarnRedeclared {
		t.Fatalf("Warnings() = %v, want one redeclared warning", w)
	}
	if got := g.Shareholders("ROOT"); len(got) != 1 || !got[0].Share.Equal(S(0.4)) {
		t.Errorf("Shareholders() = %v, want the last share", got)
	}
}

func TestGraph_Validate(t *testing.T) {
	g := NewGraph()
	g.Add(edge("ROOT", "A", 0.6))
	g.Add(edge("ROOT", "B", 0.405)) // 100.5% is within the slack
	g.Add(edge("OVER", "C", 0.8))
	g.Add(edge("OVER", "D", 0.3))

	w := g.Validate()
	if len(w) != 1 {
		t.Fatalf("Validate() = %v, want one warning", w)
	}
	if w[0].Kind != WarnOverAllocated || w[0].Entity != "OVER" {
		t.Errorf("Validate() = %v, want over-allocated OVER", w[0])
	}
	if got := g.Roots(); !cmp.Equal(got, []string{"OVER", "ROOT"}) {
		t.Errorf("Roots() = %v, want [OVER ROOT]", got)
	}
}
