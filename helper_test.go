package ownership

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// decimalCmp compares percentages and shares with the Percent precision.
var decimalCmp = cmp.Options{
	cmp.Comparer(func(a, b Percent) bool { return a.Equal(b) }),
	cmp.Comparer(func(a, b Share) bool { return a.Percent().Equal(b.Percent()) }),
}

// table builds rows from (name, direct, final) triples, indexed from 1.
func table(cells ...[3]string) []Row {
	rows := make([]Row, len(cells))
	for i, c := range cells {
		rows[i] = NewRow(i+1, c[0], c[1], c[2])
	}
	return rows
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// redCow loads the RED COW INC fixture and its rules.
func redCow(t *testing.T) ([]Row, *Classifier) {
	t.Helper()
	rows, err := ReadRows("testdata/redcow.csv")
	if err != nil {
		t.Fatalf("ReadRows() error = %v", err)
	}
	rules, err := LoadRules("testdata/redcow_rules.yaml", "")
	if err != nil {
		t.Fatalf("LoadRules() error = %v", err)
	}
	return rows, NewClassifier(rules)
}

// redCowOptions returns parser options using the classifier aliases.
func redCowOptions(c *Classifier) ParserOptions {
	opts := DefaultParserOptions()
	opts.Canonicalizer = c.Canonicalizer()
	return opts
}
