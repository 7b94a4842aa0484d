package ownership

import "encoding/json"

// BeneficiaryRecord is the aggregated holding of one beneficiary in a root.
type BeneficiaryRecord struct {
	Root        string
	Beneficiary string // display name
	Key         string // canonical name
	Percent     Percent
	Paths       []string // ownership chains that reached the beneficiary
}

// MarshalJSON writes the record with the column names of output tables.
func (r BeneficiaryRecord) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("Entidad", r.Root).
		Append("Accionista", r.Beneficiary).
		Append("Participacion", json.Number(r.Percent.Fixed())).
		Optional("paths", r.Paths)
	return w.MarshalJSON()
}

// Report is the result of one resolution pass for a root entity.
type Report struct {
	ID          string
	Root        string
	Mode        Mode
	Records     []BeneficiaryRecord
	Total       Percent
	Warnings    []ConsistencyWarning
	Stats       GraphStats
	Diagnostics []Diagnostic
}

// Consistent reports whether the pass raised no warning.
func (r *Report) Consistent() bool { return len(r.Warnings) == 0 }

// MarshalJSON writes the report with a stable field order.
func (r *Report) MarshalJSON() ([]byte, error) {
	var diagnostics []string
	for _, d := range r.Diagnostics {
		diagnostics = append(diagnostics, d.String())
	}
	records := r.Records
	if records == nil {
		records = []BeneficiaryRecord{}
	}

	var w jsonObjectWriter
	w.Append("id", r.ID).
		Append("root", r.Root).
		Append("mode", r.Mode).
		Append("total", r.Total).
		Append("records", records)
	if r.Mode == ModeGraph {
		w.EmbedFrom(r.Stats)
	}
	w.Optional("warnings", r.Warnings).
		Optional("diagnostics", diagnostics)
	return w.MarshalJSON()
}
