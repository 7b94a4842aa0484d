package ownership

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	mapset "github.com/deckarep/golang-set/v2"
	"gopkg.in/yaml.v3"
)

//go:embed default_rules.json
var defaultRulesJSON []byte

// Rules is the configuration of beneficiary classification and name
// canonicalization. It is data: each dataset ships its own rules file.
//
// A nil table inherits the default when rules are layered with WithDefaults;
// an empty table explicitly clears it.
type Rules struct {
	// NonTerminal lists entities that are pass-through vehicles even if their
	// name looks like a person's. Matched on the whole canonical name.
	NonTerminal []string `json:"nonTerminal" yaml:"nonTerminal"`
	// Terminal lists fragments (surnames, whitelisted operating companies)
	// that make any name containing them a beneficiary.
	Terminal []string `json:"terminal" yaml:"terminal"`
	// CorporateSuffixes are tokens revealing a legal entity.
	CorporateSuffixes []string `json:"corporateSuffixes" yaml:"corporateSuffixes"`
	// Aliases maps alternative spellings to the canonical name.
	Aliases map[string]string `json:"aliases" yaml:"aliases"`
}

// DefaultRules returns the built-in rules: generic corporate suffixes and no
// dataset-specific names.
func DefaultRules() Rules {
	var r Rules
	if err := json.Unmarshal(defaultRulesJSON, &r); err != nil {
		panic(fmt.Sprintf("invalid embedded default rules: %v", err))
	}
	return r
}

// WithDefaults fills every nil table of 'r' from the default rules.
func (r Rules) WithDefaults() Rules {
	d := DefaultRules()
	if r.NonTerminal == nil {
		r.NonTerminal = d.NonTerminal
	}
	if r.Terminal == nil {
		r.Terminal = d.Terminal
	}
	if r.CorporateSuffixes == nil {
		r.CorporateSuffixes = d.CorporateSuffixes
	}
	if r.Aliases == nil {
		r.Aliases = d.Aliases
	}
	return r
}

// DecodeRules reads rules from JSON or YAML ('format' is "json" or "yaml").
// When 'selector' is not empty it is a JSONPath expression locating the rules
// object inside a larger document, for instance "$.datasets.redcow".
func DecodeRules(r io.Reader, format, selector string) (Rules, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Rules{}, fmt.Errorf("could not read rules: %w", err)
	}

	var doc any
	switch strings.ToLower(format) {
	case "json":
		err = json.Unmarshal(data, &doc)
	case "yaml", "yml":
		err = yaml.Unmarshal(data, &doc)
	default:
		return Rules{}, fmt.Errorf("rules format %q: %w", format, ErrUnknownFormat)
	}
	if err != nil {
		return Rules{}, fmt.Errorf("could not decode %s rules: %w", format, err)
	}

	if selector != "" {
		doc, err = jsonpath.Get(selector, doc)
		if err != nil {
			return Rules{}, fmt.Errorf("could not select rules with %q: %w", selector, err)
		}
		// jsonpath returns a list for wildcard and filter expressions; keep the first match.
		if list, ok := doc.([]any); ok {
			if len(list) == 0 {
				return Rules{}, fmt.Errorf("selector %q matched nothing", selector)
			}
			doc = list[0]
		}
	}

	// round trip through JSON so that both formats share the struct tags.
	raw, err := json.Marshal(doc)
	if err != nil {
		return Rules{}, fmt.Errorf("could not normalize rules: %w", err)
	}
	var rules Rules
	if err := json.Unmarshal(raw, &rules); err != nil {
		return Rules{}, fmt.Errorf("invalid rules: %w", err)
	}
	return rules, nil
}

// LoadRules reads a rules file, the format is given by its extension.
// An empty path returns the default rules.
func LoadRules(path, selector string) (Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Rules{}, &InputNotFoundError{Path: path, Err: err}
		}
		return Rules{}, fmt.Errorf("could not open rules file %q: %w", path, err)
	}
	defer f.Close()

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	rules, err := DecodeRules(f, format, selector)
	if err != nil {
		return Rules{}, fmt.Errorf("rules file %q: %w", path, err)
	}
	return rules.WithDefaults(), nil
}

// Classifier decides whether an entity is a terminal beneficiary. It holds no
// mutable state: the verdict depends only on the name and the rules.
type Classifier struct {
	canon       *Canonicalizer
	nonTerminal mapset.Set[string]
	terminal    []string // folded fragments, sorted
	suffixes    mapset.Set[string]
}

// NewClassifier compiles rules into a classifier.
func NewClassifier(r Rules) *Classifier {
	c := &Classifier{
		canon:       NewCanonicalizer(r.Aliases),
		nonTerminal: mapset.NewSet[string](),
		suffixes:    mapset.NewSet[string](),
	}
	for _, n := range r.NonTerminal {
		if k := c.canon.Canonical(n); k != "" {
			c.nonTerminal.Add(k)
		}
	}
	fragments := mapset.NewThreadUnsafeSet[string]()
	for _, f := range r.Terminal {
		if k := Fold(f); k != "" {
			fragments.Add(k)
		}
	}
	c.terminal = fragments.ToSlice()
	slices.Sort(c.terminal)
	for _, s := range r.CorporateSuffixes {
		for _, tok := range tokens(Fold(s)) {
			c.suffixes.Add(tok)
		}
	}
	return c
}

// Canonicalizer returns the canonicalizer built from the rules aliases.
func (c *Classifier) Canonicalizer() *Canonicalizer { return c.canon }

// Tier is the rule tier that decided a classification.
type Tier int

const (
	TierNonTerminal Tier = 1
	TierTerminal    Tier = 2
	TierHeuristic   Tier = 3
)

// Verdict explains a classification.
type Verdict struct {
	Name      string `json:"name"`
	Canonical string `json:"canonical"`
	Terminal  bool   `json:"terminal"`
	Tier      Tier   `json:"tier"`
	Match     string `json:"match,omitempty"` // the list entry or token that decided
	Reason    string `json:"reason"`
}

// IsTerminal reports whether 'name' is an end owner.
func (c *Classifier) IsTerminal(name string) bool { return c.Explain(name).Terminal }

// Explain classifies 'name' and tells which rule decided.
// Tiers are evaluated in order, the first that matches decides:
//  1. the canonical name is in the non-terminal list: not terminal;
//  2. the canonical name contains a terminal fragment: terminal;
//  3. the name has at least two words and none is a corporate suffix: terminal.
func (c *Classifier) Explain(name string) Verdict {
	key := c.canon.Canonical(name)
	v := Verdict{Name: name, Canonical: key}

	if c.nonTerminal.Contains(key) {
		v.Tier, v.Match, v.Reason = TierNonTerminal, key, "listed as non-terminal"
		return v
	}

	for _, f := range c.terminal {
		if strings.Contains(key, f) {
			v.Terminal = true
			v.Tier, v.Match, v.Reason = TierTerminal, f, "contains a terminal fragment"
			return v
		}
	}

	v.Tier = TierHeuristic
	words := tokens(key)
	if len(words) < 2 {
		v.Reason = "single word name"
		return v
	}
	for _, w := range words {
		if c.suffixes.Contains(w) {
			v.Match, v.Reason = w, "corporate suffix"
			return v
		}
	}
	v.Terminal = true
	v.Reason = "personal full name"
	return v
}
