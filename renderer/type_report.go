package renderer

import (
	ownership "github.com/EfrainRestreto-SB/composici-n-accionaria"
)

// Report is the json friendly view of a resolution pass.
// Percentages keep their decimal type so that templates print them with
// their own String method.
type Report struct {
	// ID of the run.
	ID string `json:"id"`
	// Root is the display name of the resolved entity.
	Root string `json:"root"`
	// Mode is "graph" or "final-column".
	Mode string `json:"mode"`
	// Input is the source table, if any.
	Input string `json:"input,omitempty"`
	// Total is the sum of all beneficiaries.
	Total ownership.Percent `json:"total"`
	// Stats is only set when the report was computed from the graph.
	Stats *ownership.GraphStats `json:"stats,omitempty"`

	Beneficiaries []Beneficiary `json:"beneficiaries"`
	Warnings      []Warning     `json:"warnings"`
	Diagnostics   []Diagnostic  `json:"diagnostics"`
}

// Beneficiary is one line of the beneficiaries table.
type Beneficiary struct {
	Rank    int               `json:"rank"`
	Name    string            `json:"name"`
	Percent ownership.Percent `json:"percent"`
}

// Warning is a consistency warning.
type Warning struct {
	Kind    string `json:"kind"`
	Entity  string `json:"entity,omitempty"`
	Message string `json:"message"`
}

// Diagnostic is a source row excluded from the pass.
type Diagnostic struct {
	Row     int    `json:"row"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// NewReport creates the view of 'r'. 'input' is the source table name.
func NewReport(r *ownership.Report, input string) *Report {
	v := &Report{
		ID:            r.ID,
		Root:          r.Root,
		Mode:          string(r.Mode),
		Input:         input,
		Total:         r.Total,
		Beneficiaries: make([]Beneficiary, 0, len(r.Records)),
		Warnings:      make([]Warning, 0, len(r.Warnings)),
		Diagnostics:   make([]Diagnostic, 0, len(r.Diagnostics)),
	}
	if r.Mode == ownership.ModeGraph {
		stats := r.Stats
		v.Stats = &stats
	}
	for i, rec := range r.Records {
		v.Beneficiaries = append(v.Beneficiaries, Beneficiary{Rank: i + 1, Name: rec.Beneficiary, Percent: rec.Percent})
	}
	for _, w := range r.Warnings {
		v.Warnings = append(v.Warnings, Warning{Kind: string(w.Kind), Entity: w.Entity, Message: w.Message})
	}
	for _, d := range r.Diagnostics {
		v.Diagnostics = append(v.Diagnostics, Diagnostic{Row: d.Row, Name: d.Name, Message: d.Err.Error()})
	}
	return v
}
