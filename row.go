package ownership

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Row is one record of a source table. Cells are kept as read; the parser
// interprets them. Row order is significant: it encodes the hierarchy.
type Row struct {
	Index  int    // 1-based position in the source table
	Name   string // column A: entity name
	Direct string // column B: participation in the current parent
	Final  string // column C: cached participation in the ultimate root, optional
}

// NewRow is a convenience for tests and fixtures.
func NewRow(index int, name, direct, final string) Row {
	return Row{Index: index, Name: name, Direct: direct, Final: final}
}

// Scale is the unit convention of participation cells.
type Scale string

const (
	// ScaleAuto reads values up to 1 as fractions, values up to 100 as
	// percentages and treats larger values as percentages written without
	// their decimal separator, dividing them by 100.
	ScaleAuto Scale = "auto"
	// ScaleFraction reads every value as a fraction between 0 and 1.
	ScaleFraction Scale = "fraction"
	// ScalePercent reads every value as a percentage between 0 and 100.
	ScalePercent Scale = "percent"
)

// ParseScale validates a scale name.
func ParseScale(s string) (Scale, error) {
	switch Scale(strings.ToLower(strings.TrimSpace(s))) {
	case ScaleAuto, "":
		return ScaleAuto, nil
	case ScaleFraction:
		return ScaleFraction, nil
	case ScalePercent:
		return ScalePercent, nil
	}
	return "", fmt.Errorf("unknown scale %q, want one of auto, fraction, percent", s)
}

// cell is a parsed numeric cell.
type cell struct {
	value   decimal.Decimal
	percent bool // the cell carried an explicit '%'
}

// blank reports whether a raw cell holds no value. Spreadsheet exports write
// missing numbers as NaN.
func blank(raw string) bool {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "", "NAN", "NONE", "NULL":
		return true
	}
	return false
}

// parseCell converts a participation cell to a number: blanks are removed,
// a '%' is remembered and a decimal comma becomes a dot.
func parseCell(raw string) (cell, error) {
	s := strings.TrimSpace(raw)
	var c cell
	if strings.Contains(s, "%") {
		c.percent = true
		s = strings.ReplaceAll(s, "%", "")
	}
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.ReplaceAll(s, ",", ".")
	v, err := decimal.NewFromString(s)
	if err != nil {
		return cell{}, err
	}
	c.value = v
	return c, nil
}

// share converts a parsed cell to a fraction according to the scale.
// 'rescaled' reports the use of the >100 heuristic.
func (c cell) share(scale Scale) (s Share, rescaled bool) {
	v := c.value
	if c.percent {
		return Share{value: v.Div(hundred)}, false
	}
	switch scale {
	case ScaleFraction:
		return Share{value: v}, false
	case ScalePercent:
		return Share{value: v.Div(hundred)}, false
	}
	switch {
	case v.LessThanOrEqual(one):
		return Share{value: v}, false
	case v.LessThanOrEqual(hundred):
		return Share{value: v.Div(hundred)}, false
	default:
		return Share{value: v.Div(hundred).Div(hundred)}, true
	}
}
