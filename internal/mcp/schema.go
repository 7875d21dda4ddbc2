package mcp

import (
	"github.com/nvandessel/arcprune/internal/report"
	"github.com/nvandessel/arcprune/internal/store"
)

// RunInput defines the input for the arcprune_run tool.
type RunInput struct {
	Config       string `json:"config,omitempty" jsonschema:"Path to a YAML config file, relative to the server root"`
	Topology     string `json:"top,omitempty" jsonschema:"Override the topology (la, er, ba, ws, gr, sb)"`
	NumVertices  int    `json:"nvertices,omitempty" jsonschema:"Override the number of vertices"`
	Realizations int    `json:"nrealizations,omitempty" jsonschema:"Override the number of realizations"`
	Seed         int64  `json:"seed,omitempty" jsonschema:"Override the base seed"`
	Workers      int    `json:"workers,omitempty" jsonschema:"Override how many realizations run concurrently"`
	OutDir       string `json:"outdir,omitempty" jsonschema:"Override the output directory, relative to the server root"`
}

// RunOutput defines the output for the arcprune_run tool.
type RunOutput struct {
	OutDir    string       `json:"outdir" jsonschema:"Directory holding the artifacts and catalog"`
	CSVPath   string       `json:"csv_path" jsonschema:"Path of the correlations table"`
	Succeeded int          `json:"succeeded" jsonschema:"Number of realizations that finished"`
	Failed    int          `json:"failed" jsonschema:"Number of realizations that failed"`
	Failures  []string     `json:"failures,omitempty" jsonschema:"One message per failed realization"`
	Rows      []report.Row `json:"rows" jsonschema:"Degree correlations per realization and batch"`
	Message   string       `json:"message" jsonschema:"Human-readable result message"`
}

// ResultsInput defines the input for the arcprune_results tool.
type ResultsInput struct {
	OutDir string `json:"outdir" jsonschema:"Output directory of a previous run, relative to the server root"`
	Seed   *int64 `json:"seed,omitempty" jsonschema:"Seed whose batches to include"`
}

// ResultsOutput defines the output for the arcprune_results tool.
type ResultsOutput struct {
	Summary      store.Summary        `json:"summary" jsonschema:"Realization and batch counts"`
	Realizations []RealizationSummary `json:"realizations" jsonschema:"Every recorded realization"`
	Batches      []store.BatchRecord  `json:"batches,omitempty" jsonschema:"Batches of the requested seed"`
}

// CheckInput defines the input for the arcprune_check tool.
type CheckInput struct {
	Config string `json:"config,omitempty" jsonschema:"Path to a YAML config file, relative to the server root"`
}

// CheckOutput defines the output for the arcprune_check tool.
type CheckOutput struct {
	Valid              bool   `json:"valid" jsonschema:"Whether the first realization can start"`
	Seed               int64  `json:"seed" jsonschema:"Seed of the checked realization"`
	Vertices           int    `json:"vertices" jsonschema:"Vertices of the generated graph"`
	Edges              int    `json:"edges" jsonschema:"Arcs of the generated graph"`
	GenerationAttempts int    `json:"generation_attempts" jsonschema:"Graphs drawn until one was strongly connected"`
	Removals           int    `json:"removals" jsonschema:"Arcs the batch schedule removes"`
	Error              string `json:"error,omitempty" jsonschema:"Why the configuration cannot run"`
}

// RealizationSummary is a catalog row with its timestamps in RFC 3339.
type RealizationSummary struct {
	Seed               int64  `json:"seed"`
	Topology           string `json:"topology"`
	Vertices           int    `json:"vertices"`
	Edges              int    `json:"edges"`
	GenerationAttempts int    `json:"generation_attempts"`
	Status             string `json:"status"`
	Phase              string `json:"phase,omitempty"`
	Error              string `json:"error,omitempty"`
	StartedAt          string `json:"started_at"`
	FinishedAt         string `json:"finished_at"`
}
