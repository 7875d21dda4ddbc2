// Package simulation runs a configured experiment end to end: it resolves
// the topology generator, runs every realization on the worker pool and
// persists the results of each one into the output directory.
//
// An output directory ends up holding:
//
//	config.yaml        resolved configuration
//	results.db         SQLite catalog of realizations and batches
//	corrs.csv          degree correlations per batch
//	events.jsonl       phase trace (debug and trace log levels only)
//	<seed>/*.arrow     per-realization arrays
//
// Usage:
//
//	cfg, _ := config.Load("experiment.yaml")
//	res, err := simulation.Run(ctx, cfg, logger)
//	// res is non-nil even when some realizations failed
package simulation
