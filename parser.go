package ownership

import (
	"errors"
	"fmt"
	"strings"
)

// State is a state of the hierarchy parser.
type State int

const (
	// Idle: no parent entity is known yet.
	Idle State = iota
	// ParentPending: a holding entity was just opened, its first shareholder is expected.
	ParentPending
	// RootEstablished: a parent is known, following rows are its shareholders.
	RootEstablished
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case ParentPending:
		return "ParentPending"
	case RootEstablished:
		return "RootEstablished"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Policy decides what happens to rows that cannot be placed in the hierarchy.
type Policy int

const (
	// Lenient logs and skips malformed rows.
	Lenient Policy = iota
	// Strict aborts the parse on the first malformed row.
	Strict
)

func (p Policy) String() string {
	if p == Strict {
		return "strict"
	}
	return "lenient"
}

// Rule identifies the transition applied to a row.
type Rule int

const (
	RuleSkipPlaceholder Rule = iota + 1
	RuleOpenParent
	RuleSkipUnparseable
	RuleFirstChild
	RuleNewRoot
	RuleSibling
	RuleMalformed
)

var ruleNames = map[Rule]string{
	RuleSkipPlaceholder: "skip-placeholder",
	RuleOpenParent:      "open-parent",
	RuleSkipUnparseable: "skip-unparseable",
	RuleFirstChild:      "first-child",
	RuleNewRoot:         "new-root",
	RuleSibling:         "sibling",
	RuleMalformed:       "malformed",
}

func (r Rule) String() string {
	if n, ok := ruleNames[r]; ok {
		return n
	}
	return fmt.Sprintf("Rule(%d)", int(r))
}

// ParserOptions configures a parse.
type ParserOptions struct {
	Scale  Scale
	Policy Policy
	// ZeroOpensParent makes a zero participation open a parent like an empty cell.
	ZeroOpensParent bool
	// Placeholders are folded names meaning "no entity".
	Placeholders []string
	// HeaderKeywords mark descriptive rows (titles, totals) when found in a folded name.
	HeaderKeywords []string
	Canonicalizer  *Canonicalizer
}

// DefaultParserOptions returns the options matching the usual exports:
// automatic scale, lenient policy and the usual descriptive headers.
func DefaultParserOptions() ParserOptions {
	return ParserOptions{
		Scale:           ScaleAuto,
		Policy:          Lenient,
		ZeroOpensParent: true,
		Placeholders:    []string{"X", "-", "NAN", "NONE", "NULL"},
		HeaderKeywords:  []string{"COMPOSICION", "ACCIONARIA", "DESGLOSE", "TOTAL"},
	}
}

// Transition describes what the parser did with one row.
type Transition struct {
	Row      int
	Rule     Rule
	From, To State
	Edge     *OwnershipEdge
	Err      error
}

// Diagnostic is a row excluded from the parse.
type Diagnostic struct {
	Row  int
	Name string
	Err  error
}

func (d Diagnostic) String() string { return d.Err.Error() }

// Parser converts ordered rows into ownership edges. A Parser carries the
// state of one pass and must not be shared.
type Parser struct {
	opts          ParserOptions
	state         State
	parent        string // canonical key of the current parent
	parentDisplay string
}

// NewParser creates a parser in the Idle state.
func NewParser(opts ParserOptions) *Parser {
	if opts.Scale == "" {
		opts.Scale = ScaleAuto
	}
	return &Parser{opts: opts}
}

// State returns the current state.
func (p *Parser) State() State { return p.state }

// Parent returns the canonical name of the current parent, "" when Idle.
func (p *Parser) Parent() string { return p.parent }

func (p *Parser) canonical(name string) string { return p.opts.Canonicalizer.Canonical(name) }

// placeholder reports rows that carry no entity.
func (p *Parser) placeholder(name string) bool {
	folded := Fold(name)
	if folded == "" {
		return true
	}
	for _, ph := range p.opts.Placeholders {
		if folded == Fold(ph) {
			return true
		}
	}
	for _, kw := range p.opts.HeaderKeywords {
		if kw != "" && strings.Contains(folded, Fold(kw)) {
			return true
		}
	}
	return false
}

// Step applies the transition table to one row.
// The returned transition carries the emitted edge if any. Malformed and
// unparseable rows are reported in Transition.Err; Step itself never fails.
func (p *Parser) Step(row Row) (t Transition) {
	t = Transition{Row: row.Index, From: p.state}
	defer func() { t.To = p.state }()
	name := strings.TrimSpace(row.Name)

	// 1. placeholder rows are skipped.
	if p.placeholder(name) {
		t.Rule = RuleSkipPlaceholder
		return t
	}

	// 2. a name without participation opens a parent.
	if blank(row.Direct) {
		p.open(name)
		t.Rule = RuleOpenParent
		return t
	}
	c, err := parseCell(row.Direct)
	if err != nil {
		t.Rule = RuleSkipUnparseable
		t.Err = &UnparseableParticipationError{Row: row.Index, Cell: row.Direct}
		return t
	}
	if c.value.IsZero() && p.opts.ZeroOpensParent {
		p.open(name)
		t.Rule = RuleOpenParent
		return t
	}

	share, rescaled := c.share(p.opts.Scale)
	if rescaled {
		logger.Warn("participation above 100 divided by 100", "row", row.Index, "name", name, "cell", row.Direct, "share", share)
	}
	if !share.IsPositive() || share.GreaterThan(S(1)) {
		t.Rule = RuleMalformed
		t.Err = &MalformedHierarchyError{Row: row.Index, Name: name, Reason: fmt.Sprintf("participation %s out of range", share)}
		return t
	}

	child := p.canonical(name)
	switch {
	// 3. first shareholder after a parent header.
	case p.state == ParentPending:
		if err := p.selfOwned(row, name, child); err != nil {
			t.Rule, t.Err = RuleMalformed, err
			return t
		}
		t.Rule = RuleFirstChild
		t.Edge = p.edge(row, name, child, share)
		p.state = RootEstablished

	// 4. a whole participation outside a parent header starts a new tree.
	case share.IsWhole():
		p.parent, p.parentDisplay = child, name
		p.state = RootEstablished
		t.Rule = RuleNewRoot

	// 5. further shareholders of the current parent.
	case p.parent != "":
		if err := p.selfOwned(row, name, child); err != nil {
			t.Rule, t.Err = RuleMalformed, err
			return t
		}
		t.Rule = RuleSibling
		t.Edge = p.edge(row, name, child, share)

	default:
		t.Rule = RuleMalformed
		t.Err = &MalformedHierarchyError{Row: row.Index, Name: name, Reason: "participation without a parent entity"}
	}
	return t
}

func (p *Parser) open(name string) {
	p.parent, p.parentDisplay = p.canonical(name), name
	p.state = ParentPending
}

func (p *Parser) selfOwned(row Row, name, child string) error {
	if child == p.parent {
		return &MalformedHierarchyError{Row: row.Index, Name: name, Reason: "entity listed as its own shareholder"}
	}
	return nil
}

func (p *Parser) edge(row Row, name, child string, share Share) *OwnershipEdge {
	return &OwnershipEdge{
		Parent:        p.parent,
		Child:         child,
		Share:         share,
		Row:           row.Index,
		ParentDisplay: p.parentDisplay,
		ChildDisplay:  name,
	}
}

// ParseResult is the outcome of a parse.
type ParseResult struct {
	Graph       *Graph
	Diagnostics []Diagnostic
	Rows        int // rows read, including skipped ones
}

// Parse runs the parser over all rows and builds the ownership graph.
// Rows the parser cannot use are collected as diagnostics. Under the Strict
// policy the first malformed row aborts the parse with a
// MalformedHierarchyError. Unparseable participations are never fatal.
func Parse(rows []Row, opts ParserOptions) (*ParseResult, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyInput
	}
	logger.Debug("parsing rows", "rows", len(rows), "policy", opts.Policy, "scale", opts.Scale)

	p := NewParser(opts)
	res := &ParseResult{Graph: NewGraph(), Rows: len(rows)}
	for _, row := range rows {
		t := p.Step(row)
		logger.Debug("transition", "row", t.Row, "rule", t.Rule, "from", t.From, "to", t.To)
		if t.Err != nil {
			if opts.Policy == Strict && errors.Is(t.Err, ErrMalformedHierarchy) {
				return nil, t.Err
			}
			logger.Warn("row skipped", "row", row.Index, "name", row.Name, "err", t.Err)
			res.Diagnostics = append(res.Diagnostics, Diagnostic{Row: row.Index, Name: row.Name, Err: t.Err})
			continue
		}
		if t.Edge != nil {
			res.Graph.Add(*t.Edge)
		}
	}
	logger.Info("parsed hierarchy", "rows", res.Rows, "edges", res.Graph.Len(), "skipped", len(res.Diagnostics))
	return res, nil
}
