// Package metrics counts what a run of the resolver saw and writes it in the
// Prometheus text format, for the node exporter textfile collector.
package metrics

import (
	"errors"

	ownership "github.com/EfrainRestreto-SB/composici-n-accionaria"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds the metrics of the run, apart from the default Go collectors.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	RowsRead = factory.NewCounter(prometheus.CounterOpts{
		Name: "ubo_rows_read_total",
		Help: "Number of source rows read",
	})

	RowsSkipped = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ubo_rows_skipped_total",
			Help: "Number of source rows skipped by the parser",
		},
		[]string{"reason"},
	)

	Edges = factory.NewGauge(prometheus.GaugeOpts{
		Name: "ubo_edges",
		Help: "Number of ownership links in the graph",
	})

	Beneficiaries = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ubo_beneficiaries",
			Help: "Number of beneficiaries found for a root entity",
		},
		[]string{"root", "mode"},
	)

	Total = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ubo_total_percent",
			Help: "Sum of the beneficiaries participation for a root entity",
		},
		[]string{"root", "mode"},
	)

	Warnings = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ubo_warnings_total",
			Help: "Number of consistency warnings",
		},
		[]string{"kind"},
	)
)

// reason labels a skipped row.
func reason(err error) string {
	switch {
	case errors.Is(err, ownership.ErrUnparseableParticipation):
		return "unparseable"
	case errors.Is(err, ownership.ErrMalformedHierarchy):
		return "malformed"
	}
	return "other"
}

// ObserveParse records the outcome of a parse.
func ObserveParse(res *ownership.ParseResult) {
	RowsRead.Add(float64(res.Rows))
	for _, d := range res.Diagnostics {
		RowsSkipped.WithLabelValues(reason(d.Err)).Inc()
	}
	Edges.Set(float64(res.Graph.Len()))
}

// ObserveReport records the outcome of a resolution pass. Skipped rows are
// counted by ObserveParse only.
func ObserveReport(r *ownership.Report) {
	Beneficiaries.WithLabelValues(r.Root, string(r.Mode)).Set(float64(len(r.Records)))
	Total.WithLabelValues(r.Root, string(r.Mode)).Set(r.Total.Float64())
	for _, w := range r.Warnings {
		Warnings.WithLabelValues(string(w.Kind)).Inc()
	}
}

// WriteToTextfile writes every metric of the registry to 'path'.
func WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
