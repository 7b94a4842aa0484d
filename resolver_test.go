package ownership

import (
	"context"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// redCowBeneficiaries is the expected outcome for the RED COW INC fixture.
var redCowBeneficiaries = []BeneficiaryRecord{
	{Root: "RED COW INC", Beneficiary: "Ana Sofia Guerrero Martinez", Key: "ANA SOFIA GUERRERO MARTINEZ", Percent: P(15.88)},
	{Root: "RED COW INC", Beneficiary: "Alexandra Diaz Rodriguez", Key: "ALEXANDRA DIAZ RODRIGUEZ", Percent: P(14.54)},
	{Root: "RED COW INC", Beneficiary: "EFRAIN RESTREPO", Key: "EFRAIN RESTREPO", Percent: P(13.29)},
	{Root: "RED COW INC", Beneficiary: "Carlos Eduardo Mendez Gutierrez", Key: "CARLOS EDUARDO MENDEZ GUTIERREZ", Percent: P(12.94)},
	{Root: "RED COW INC", Beneficiary: "Jose Antonio Ramirez Silva", Key: "JOSE ANTONIO RAMIREZ SILVA", Percent: P(11.76)},
	{Root: "RED COW INC", Beneficiary: "Maria Teresa Velasquez Moreno", Key: "MARIA TERESA VELASQUEZ MORENO", Percent: P(9.53)},
	{Root: "RED COW INC", Beneficiary: "Luis Fernando Lozano Rodriguez", Key: "LUIS FERNANDO LOZANO RODRIGUEZ", Percent: P(8.76)},
	{Root: "RED COW INC", Beneficiary: "Luz Stella Contreras", Key: "LUZ STELLA CONTRERAS", Percent: P(7.97)},
	{Root: "RED COW INC", Beneficiary: "INVERSIONES MADCOM", Key: "INVERSIONES MADCOM", Percent: P(5.32)},
}

var ignorePaths = cmpopts.IgnoreFields(BeneficiaryRecord{}, "Paths")

func kinds(ws []ConsistencyWarning) []WarningKind {
	var res []WarningKind
	for _, w := range ws {
		res = append(res, w.Kind)
	}
	return res
}

func TestResolveGraph_RedCow(t *testing.T) {
	rows, c := redCow(t)
	res, err := Parse(rows, redCowOptions(c))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	rep := NewResolver(c, DefaultTolerance).ResolveGraph(res.Graph, "red cow inc")

	if diff := cmp.Diff(redCowBeneficiaries, rep.Records, decimalCmp, ignorePaths); diff != "" {
		t.Errorf("ResolveGraph() mismatch (-want +got):\n%s", diff)
	}
	if !rep.Total.Equal(P(100)) {
		t.Errorf("Total = %s, want 100.00%%", rep.Total)
	}
	if !rep.Consistent() {
		t.Errorf("Warnings = %v, want none", rep.Warnings)
	}
	if rep.Mode != ModeGraph || rep.ID == "" || rep.Root != "RED COW INC" {
		t.Errorf("report header = %q %q %q", rep.ID, rep.Root, rep.Mode)
	}

	wantPaths := []string{"RED COW INC → DRA BLUE GOW → Alexandra Diaz Rodriguez"}
	if diff := cmp.Diff(wantPaths, rep.Records[1].Paths); diff != "" {
		t.Errorf("Paths mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveFinalColumn_RedCow(t *testing.T) {
	rows, c := redCow(t)
	rep := NewResolver(c, DefaultTolerance).ResolveFinalColumn(rows, "RED COW INC", redCowOptions(c))

	if diff := cmp.Diff(redCowBeneficiaries, rep.Records, decimalCmp, ignorePaths); diff != "" {
		t.Errorf("ResolveFinalColumn() mismatch (-want +got):\n%s", diff)
	}
	if !rep.Consistent() {
		t.Errorf("Warnings = %v, want none", rep.Warnings)
	}
	if len(rep.Diagnostics) != 1 {
		t.Errorf("Diagnostics = %v, want the column titles only", rep.Diagnostics)
	}
}

// Scenario D: the same beneficiary reached through two holdings, one of them
// contributing nothing.
func TestResolve_ScenarioD(t *testing.T) {
	c := NewClassifier(DefaultRules())

	t.Run("graph", func(t *testing.T) {
		g := NewGraph()
		g.Add(edge("ROOT", "HOLDING ONE SAS", 0.5))
		g.Add(edge("ROOT", "HOLDING TWO SAS", 0.5))
		g.Add(edge("HOLDING ONE SAS", "MARIA LOPEZ", 0.253))
		g.Add(edge("HOLDING ONE SAS", "JUAN PEREZ", 0.747))
		g.Add(edge("HOLDING TWO SAS", "MARIA LOPEZ", 0))
		g.Add(edge("HOLDING TWO SAS", "JUAN PEREZ", 1))
		rep := NewResolver(c, DefaultTolerance).ResolveGraph(g, "ROOT")
		want := []BeneficiaryRecord{
			{Root: "ROOT", Beneficiary: "JUAN PEREZ", Key: "JUAN PEREZ", Percent: P(87.35)},
			{Root: "ROOT", Beneficiary: "MARIA LOPEZ", Key: "MARIA LOPEZ", Percent: P(12.65)},
		}
		if diff := cmp.Diff(want, rep.Records, decimalCmp, ignorePaths); diff != "" {
			t.Errorf("ResolveGraph() mismatch (-want +got):\n%s", diff)
		}
		if got := len(rep.Records[1].Paths); got != 2 {
			t.Errorf("MARIA LOPEZ paths = %d, want 2", got)
		}
	})

	t.Run("final column", func(t *testing.T) {
		rows := table(
			[3]string{"ROOT", "", ""},
			[3]string{"HOLDING ONE SAS", "0,5", "0,5"},
			[3]string{"HOLDING TWO SAS", "0,5", "0,5"},
			[3]string{"HOLDING ONE SAS", "", ""},
			[3]string{"MARIA LOPEZ", "0,253", "0,1265"},
			[3]string{"HOLDING TWO SAS", "", ""},
			[3]string{"Maria  López", "0", ""},
		)
		rep := NewResolver(c, DefaultTolerance).ResolveFinalColumn(rows, "ROOT", DefaultParserOptions())
		if len(rep.Records) != 1 || !rep.Records[0].Percent.Equal(P(12.65)) {
			t.Errorf("ResolveFinalColumn() = %v, want MARIA LOPEZ 12.65%%", rep.Records)
		}
	})
}

// Scenario E: a complete dataset sums to 100%, an incomplete one warns.
func TestResolveGraph_ScenarioE(t *testing.T) {
	rows, c := redCow(t)
	r := NewResolver(c, DefaultTolerance)

	var incomplete []Row
	for _, row := range rows {
		if row.Name != "Luz Stella Contreras" {
			incomplete = append(incomplete, row)
		}
	}
	res, err := Parse(incomplete, redCowOptions(c))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	rep := r.ResolveGraph(res.Graph, "RED COW INC")
	if !rep.Total.Equal(P(92.03)) {
		t.Errorf("Total = %s, want 92.03%%", rep.Total)
	}
	if diff := cmp.Diff([]WarningKind{WarnTotal}, kinds(rep.Warnings)); diff != "" {
		t.Errorf("Warnings mismatch (-want +got):\n%s", diff)
	}

	// a wider tolerance accepts the gap.
	if rep := NewResolver(c, P(10)).ResolveGraph(res.Graph, "RED COW INC"); !rep.Consistent() {
		t.Errorf("Warnings = %v with a 10%% tolerance", rep.Warnings)
	}
}

func TestResolveGraph_Unresolved(t *testing.T) {
	rows, c := redCow(t)
	var cut []Row
	for _, row := range rows {
		if row.Index < 27 { // drop the shareholders of TIERRA ARCO IRIS
			cut = append(cut, row)
		}
	}
	res, err := Parse(cut, redCowOptions(c))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	rep := NewResolver(c, DefaultTolerance).ResolveGraph(res.Graph, "RED COW INC")
	if diff := cmp.Diff([]WarningKind{WarnUnresolved, WarnTotal}, kinds(rep.Warnings)); diff != "" {
		t.Fatalf("Warnings mismatch (-want +got):\n%s", diff)
	}
	if rep.Warnings[0].Entity != "TIERRA ARCO IRIS" {
		t.Errorf("unresolved entity = %q", rep.Warnings[0].Entity)
	}
	if !rep.Total.Equal(P(86.71)) {
		t.Errorf("Total = %s, want 86.71%%", rep.Total)
	}
}

func TestResolveGraph_Cycle(t *testing.T) {
	g := NewGraph()
	g.Add(edge("ALPHA SAS", "BETA SAS", 0.5))
	g.Add(edge("ALPHA SAS", "ANA GOMEZ", 0.5))
	g.Add(edge("BETA SAS", "ALPHA SAS", 0.5))
	g.Add(edge("BETA SAS", "LUIS GOMEZ", 0.5))

	rep := NewResolver(NewClassifier(DefaultRules()), DefaultTolerance).ResolveGraph(g, "ALPHA SAS")
	want := []BeneficiaryRecord{
		{Root: "ALPHA SAS", Beneficiary: "ANA GOMEZ", Key: "ANA GOMEZ", Percent: P(50)},
		{Root: "ALPHA SAS", Beneficiary: "LUIS GOMEZ", Key: "LUIS GOMEZ", Percent: P(25)},
	}
	if diff := cmp.Diff(want, rep.Records, decimalCmp, ignorePaths); diff != "" {
		t.Errorf("ResolveGraph() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]WarningKind{WarnCycle, WarnTotal}, kinds(rep.Warnings)); diff != "" {
		t.Errorf("Warnings mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveGraph_RootWithoutShareholders(t *testing.T) {
	g := NewGraph()
	g.Add(edge("ROOT", "ANA GOMEZ", 1))
	rep := NewResolver(NewClassifier(DefaultRules()), DefaultTolerance).ResolveGraph(g, "Ana Gomez")
	if rep.Records == nil || len(rep.Records) != 0 {
		t.Errorf("Records = %v, want an empty set", rep.Records)
	}
	if !rep.Consistent() {
		t.Errorf("Warnings = %v, want none", rep.Warnings)
	}
}

func TestResolve_UnknownRoot(t *testing.T) {
	rows := table(
		[3]string{"ROOT", "", ""},
		[3]string{"MARIA LOPEZ", "0.6", "0.6"},
		[3]string{"JUAN PEREZ", "0.4", "0.4"},
	)
	res, err := Parse(rows, DefaultParserOptions())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	r := NewResolver(NewClassifier(DefaultRules()), DefaultTolerance)

	for _, rep := range []*Report{
		r.ResolveGraph(res.Graph, " R00T "),
		r.ResolveFinalColumn(rows, " R00T ", DefaultParserOptions()),
	} {
		t.Run(string(rep.Mode), func(t *testing.T) {
			if rep.Root != "R00T" {
				t.Errorf("Root = %q, want R00T", rep.Root)
			}
			if len(rep.Records) != 0 {
				t.Errorf("Records = %v, want none", rep.Records)
			}
			if diff := cmp.Diff([]WarningKind{WarnUnknownRoot}, kinds(rep.Warnings)); diff != "" {
				t.Errorf("Warnings mismatch (-want +got):\n%s", diff)
			}
		})
	}

	// a known root is not reported in final-column mode
	rep := r.ResolveFinalColumn(rows, "root", DefaultParserOptions())
	if !rep.Consistent() || len(rep.Records) != 2 {
		t.Errorf("ResolveFinalColumn(root) = %v, %v", rep.Records, rep.Warnings)
	}
}

func TestResolveGraph_OrderIndependent(t *testing.T) {
	rows, c := redCow(t)
	res, err := Parse(rows, redCowOptions(c))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	r := NewResolver(c, DefaultTolerance)
	want := r.ResolveGraph(res.Graph, "RED COW INC").Records

	edges := res.Graph.Edges()
	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 5; i++ {
		rnd.Shuffle(len(edges), func(i, j int) { edges[i], edges[j] = edges[j], edges[i] })
		g := NewGraph()
		for _, e := range edges {
			g.Add(e)
		}
		got := r.ResolveGraph(g, "RED COW INC").Records
		if diff := cmp.Diff(want, got, decimalCmp, ignorePaths); diff != "" {
			t.Errorf("shuffle %d mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestResolveAll(t *testing.T) {
	g := NewGraph()
	g.Add(edge("ZETA SAS", "ANA GOMEZ", 1))
	g.Add(edge("ALPHA SAS", "HOLDCO SAS", 1))
	g.Add(edge("HOLDCO SAS", "LUIS GOMEZ", 0.5))
	g.Add(edge("HOLDCO SAS", "ANA GOMEZ", 0.5))

	reports, err := NewResolver(NewClassifier(DefaultRules()), DefaultTolerance).ResolveAll(context.Background(), g)
	if err != nil {
		t.Fatalf("ResolveAll() error = %v", err)
	}
	if len(reports) != 2 || reports[0].Root != "ALPHA SAS" || reports[1].Root != "ZETA SAS" {
		t.Fatalf("ResolveAll() roots = %v", reports)
	}
	if got := len(reports[0].Records); got != 2 {
		t.Errorf("ALPHA SAS beneficiaries = %d, want 2", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewResolver(NewClassifier(DefaultRules()), DefaultTolerance).ResolveAll(ctx, g); err == nil {
		t.Errorf("ResolveAll() with a canceled context expected an error")
	}
}

// The standard relationships table of the RED COW dataset lacks most of the
// shareholders of BLACK LAB INC.
func TestResolveGraph_StandardRelationships(t *testing.T) {
	records, err := ReadRecords("testdata/standard_relationships.csv")
	if err != nil {
		t.Fatalf("ReadRecords() error = %v", err)
	}
	_, c := redCow(t)
	canon := c.Canonicalizer()
	g := NewGraph()
	for _, r := range records {
		g.Add(OwnershipEdge{
			Parent:        canon.Canonical(r.Root),
			Child:         canon.Canonical(r.Beneficiary),
			Share:         r.Percent.Share(),
			ParentDisplay: r.Root,
			ChildDisplay:  r.Beneficiary,
		})
	}
	rep := NewResolver(c, DefaultTolerance).ResolveGraph(g, "RED COW INC")
	if len(rep.Records) != 7 {
		t.Errorf("Records = %d, want 7", len(rep.Records))
	}
	if !rep.Total.Equal(P(74.02)) {
		t.Errorf("Total = %s, want 74.02%%", rep.Total)
	}
	if diff := cmp.Diff([]WarningKind{WarnTotal}, kinds(rep.Warnings)); diff != "" {
		t.Errorf("Warnings mismatch (-want +got):\n%s", diff)
	}
}
