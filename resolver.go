package ownership

import (
	"context"
	"fmt"
	"slices"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DefaultTolerance is the slack allowed around 100% before the beneficiaries
// of a root are reported as inconsistent.
var DefaultTolerance = P(0.5)

// Mode tells which data a report was computed from.
type Mode string

const (
	// ModeGraph walks the ownership edges reconstructed by the parser.
	ModeGraph Mode = "graph"
	// ModeFinalColumn sums the cached final participation column.
	ModeFinalColumn Mode = "final-column"
)

// Resolver computes beneficiaries. It is safe for concurrent use.
type Resolver struct {
	classifier *Classifier
	tolerance  Percent
}

// NewResolver creates a resolver. A zero tolerance uses DefaultTolerance.
func NewResolver(c *Classifier, tolerance Percent) *Resolver {
	if tolerance.IsZero() {
		tolerance = DefaultTolerance
	}
	return &Resolver{classifier: c, tolerance: tolerance}
}

// Classifier returns the classifier used by the resolver.
func (r *Resolver) Classifier() *Classifier { return r.classifier }

// accumulator sums the contributions of one beneficiary.
type accumulator struct {
	display string
	total   Percent
	paths   []string
}

type aggregation struct {
	acc map[string]*accumulator
}

func (a *aggregation) add(key, display string, p Percent, path string) {
	if a.acc == nil {
		a.acc = make(map[string]*accumulator)
	}
	x, ok := a.acc[key]
	if !ok {
		x = &accumulator{display: display}
		a.acc[key] = x
	}
	x.total = x.total.Add(p)
	if path != "" {
		x.paths = append(x.paths, path)
	}
}

// records emits one record per beneficiary, rounded to 2 decimals, sorted by
// decreasing percentage then by name. It also returns the unrounded total.
func (a *aggregation) records(root string) ([]BeneficiaryRecord, Percent) {
	total := P(0)
	res := make([]BeneficiaryRecord, 0, len(a.acc))
	for key, x := range a.acc {
		total = total.Add(x.total)
		res = append(res, BeneficiaryRecord{
			Root:        root,
			Beneficiary: x.display,
			Key:         key,
			Percent:     x.total.Round(2),
			Paths:       x.paths,
		})
	}
	SortRecords(res)
	return res, total
}

// SortRecords sorts by decreasing percentage, ties broken by canonical name.
func SortRecords(records []BeneficiaryRecord) {
	slices.SortFunc(records, func(a, b BeneficiaryRecord) int {
		if c := b.Percent.Cmp(a.Percent); c != 0 {
			return c
		}
		return strings.Compare(a.Key, b.Key)
	})
}

func unknownRoot(root string) ConsistencyWarning {
	return ConsistencyWarning{
		Kind:    WarnUnknownRoot,
		Entity:  root,
		Message: "root entity not found in the table",
	}
}

func (r *Resolver) checkTotal(rep *Report, total Percent) {
	rep.Total = total.Round(2)
	if total.Sub(P(100)).Abs().GreaterThan(r.tolerance) {
		msg := "beneficiaries hold less than 100%, the dataset looks incomplete"
		if total.GreaterThan(P(100)) {
			msg = "beneficiaries hold more than 100%, the dataset is inconsistent"
		}
		rep.Warnings = append(rep.Warnings, ConsistencyWarning{
			Kind:    WarnTotal,
			Entity:  rep.Root,
			Message: fmt.Sprintf("%s (total %s, tolerance %s)", msg, rep.Total, r.tolerance),
		})
	}
}

// ResolveGraph walks the graph from 'root' and returns its beneficiaries.
//
// Shares are multiplied along each ownership chain. Terminal entities stop
// the walk and collect the contribution; other entities pass it on to their
// own shareholders and are never reported. A pass-through entity without
// shareholders, or a chain looping back on itself, is reported as a
// consistency warning and its contribution is left unattributed.
// A root without shareholders yields an empty report, and so does a root
// that is not in the graph, with an unknown-root warning.
func (r *Resolver) ResolveGraph(g *Graph, root string) *Report {
	key := r.classifier.Canonicalizer().Canonical(root)
	rep := &Report{
		ID:    uuid.NewString(),
		Root:  g.Display(key),
		Mode:  ModeGraph,
		Stats: g.Stats(),
	}
	rep.Warnings = append(rep.Warnings, g.Warnings()...)
	rep.Warnings = append(rep.Warnings, g.Validate()...)

	if !g.Contains(key) {
		logger.Warn("root not found", "root", root)
		rep.Root = strings.TrimSpace(root)
		rep.Warnings = append(rep.Warnings, unknownRoot(rep.Root))
		rep.Records = []BeneficiaryRecord{}
		return rep
	}
	if !g.HasShareholders(key) {
		logger.Info("root has no shareholders", "root", root)
		rep.Records = []BeneficiaryRecord{}
		return rep
	}

	var agg aggregation
	unresolved := make(map[string]Percent)
	var unresolvedOrder []string

	var visit func(node string, share Share, path []string, onPath mapset.Set[string])
	visit = func(node string, share Share, path []string, onPath mapset.Set[string]) {
		for _, e := range g.Shareholders(node) {
			contribution := share.Mul(e.Share)
			chain := append(slices.Clone(path), g.Display(e.Child))
			switch {
			case onPath.Contains(e.Child):
				logger.Warn("ownership cycle", "path", strings.Join(chain, " → "))
				rep.Warnings = append(rep.Warnings, ConsistencyWarning{
					Kind:    WarnCycle,
					Entity:  e.Child,
					Message: fmt.Sprintf("cycle %s, %s left unattributed", strings.Join(chain, " → "), contribution.Percent().Round(2)),
				})
			case r.classifier.IsTerminal(e.Child):
				agg.add(e.Child, g.Display(e.Child), contribution.Percent(), strings.Join(chain, " → "))
			case g.HasShareholders(e.Child):
				next := onPath.Clone()
				next.Add(e.Child)
				visit(e.Child, contribution, chain, next)
			default:
				if _, ok := unresolved[e.Child]; !ok {
					unresolvedOrder = append(unresolvedOrder, e.Child)
				}
				unresolved[e.Child] = unresolved[e.Child].Add(contribution.Percent())
			}
		}
	}
	visit(key, S(1), []string{g.Display(key)}, mapset.NewThreadUnsafeSet(key))

	for _, e := range unresolvedOrder {
		rep.Warnings = append(rep.Warnings, ConsistencyWarning{
			Kind:    WarnUnresolved,
			Entity:  e,
			Message: fmt.Sprintf("pass-through entity has no shareholder rows, %s left unattributed", unresolved[e].Round(2)),
		})
	}

	var total Percent
	rep.Records, total = agg.records(rep.Root)
	r.checkTotal(rep, total)
	logger.Info("resolved beneficiaries", "root", rep.Root, "beneficiaries", len(rep.Records), "total", rep.Total, "warnings", len(rep.Warnings))
	return rep
}

// ResolveFinalColumn sums the cached final participation column: every row
// naming a terminal entity with a positive final participation contributes
// to that entity. Rows of one beneficiary are merged by canonical name.
// A root named by no row yields an empty report with an unknown-root warning.
func (r *Resolver) ResolveFinalColumn(rows []Row, root string, opts ParserOptions) *Report {
	canon := r.classifier.Canonicalizer()
	rootKey := canon.Canonical(root)
	rep := &Report{
		ID:   uuid.NewString(),
		Root: strings.TrimSpace(root),
		Mode: ModeFinalColumn,
	}
	p := NewParser(opts)
	var agg aggregation
	seen, found := false, false
	for _, row := range rows {
		name := strings.TrimSpace(row.Name)
		if p.placeholder(name) {
			continue
		}
		if canon.Canonical(name) == rootKey {
			found = true
		}
		if blank(row.Final) {
			continue
		}
		c, err := parseCell(row.Final)
		if err != nil {
			err := &UnparseableParticipationError{Row: row.Index, Cell: row.Final}
			logger.Warn("final participation skipped", "row", row.Index, "name", name, "err", err)
			rep.Diagnostics = append(rep.Diagnostics, Diagnostic{Row: row.Index, Name: row.Name, Err: err})
			continue
		}
		if !c.value.IsPositive() {
			continue
		}
		seen = true
		key := canon.Canonical(name)
		if key == rootKey || !r.classifier.IsTerminal(key) {
			continue
		}
		share, _ := c.share(opts.Scale)
		agg.add(key, name, share.Percent(), "")
	}

	if !found {
		logger.Warn("root not found", "root", root)
		rep.Warnings = append(rep.Warnings, unknownRoot(rep.Root))
		rep.Records = []BeneficiaryRecord{}
		return rep
	}
	if !seen {
		rep.Records = []BeneficiaryRecord{}
		return rep
	}
	var total Percent
	rep.Records, total = agg.records(rep.Root)
	r.checkTotal(rep, total)
	return rep
}

// ResolveAll resolves every root of the graph concurrently. Reports are
// returned in root name order.
func (r *Resolver) ResolveAll(ctx context.Context, g *Graph) ([]*Report, error) {
	roots := g.Roots()
	reports := make([]*Report, len(roots))
	eg, ctx := errgroup.WithContext(ctx)
	for i, root := range roots {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			reports[i] = r.ResolveGraph(g, root)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
