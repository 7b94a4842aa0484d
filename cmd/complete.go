package cmd

import (
	"github.com/EfrainRestreto-SB/composici-n-accionaria/docs"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Completion describes the command line for shell completion.
func Completion() *complete.Command {
	tables := files("*.csv", "*.txt", "*.xlsx", "*.xlsm")
	outputs := files("*.csv", "*.xlsx", "*.jsonl")
	topics, _ := docs.GetAllTopics()

	return &complete.Command{
		Sub: map[string]*complete.Command{
			"resolve": {
				Flags: map[string]complete.Predictor{
					"o":     outputs,
					"n":     predict.Nothing,
					"mode":  predict.Set{"graph", "final"},
					"all":   predict.Nothing,
					"plain": predict.Nothing,
					"json":  predict.Nothing,
				},
				Args: tables,
			},
			"edges": {
				Flags: map[string]complete.Predictor{
					"o":     outputs,
					"plain": predict.Nothing,
				},
				Args: tables,
			},
			"classify": {
				Flags: map[string]complete.Predictor{
					"table": tables,
					"plain": predict.Nothing,
					"json":  predict.Nothing,
				},
				Args: predict.Something,
			},
			"rules": {
				Flags: map[string]complete.Predictor{"yaml": predict.Nothing},
			},
			"topic": {
				Flags: map[string]complete.Predictor{"plain": predict.Nothing},
				Args:  predict.Set(append(topics, "readme")),
			},
		},
		Flags: map[string]complete.Predictor{
			"rules":             files("*.yaml", "*.yml", "*.json"),
			"rules-select":      predict.Something,
			"root":              predict.Something,
			"scale":             predict.Set{"auto", "fraction", "percent"},
			"strict":            predict.Nothing,
			"zero-opens-parent": predict.Nothing,
			"layout":            predict.Set{layoutHierarchy, layoutFlat},
			"tolerance":         predict.Something,
			"metrics-file":      predict.Files("*.prom"),
			"v":                 predict.Nothing,
		},
		Args: tables,
	}
}

func files(patterns ...string) complete.Predictor {
	p := make([]complete.Predictor, len(patterns))
	for i, pattern := range patterns {
		p[i] = predict.Files(pattern)
	}
	return predict.Or(p...)
}
