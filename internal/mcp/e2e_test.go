package mcp

import (
	"context"
	"testing"

	"github.com/nvandessel/arcprune/internal/report"
)

// TestE2E_FullPipeline runs check, run and results in sequence against
// one server root.
func TestE2E_FullPipeline(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E test in short mode")
	}

	server, _ := setupTestServer(t)
	ctx := context.Background()

	t.Run("Stage1_Check", func(t *testing.T) {
		_, out, err := server.handleCheck(ctx, nil, CheckInput{Config: "config.yaml"})
		if err != nil {
			t.Fatalf("check failed: %v", err)
		}
		if !out.Valid {
			t.Fatalf("config rejected: %s", out.Error)
		}
	})

	var rows []report.Row
	t.Run("Stage2_Run", func(t *testing.T) {
		_, out, err := server.handleRun(ctx, nil, RunInput{Config: "config.yaml"})
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
		rows = out.Rows
	})

	t.Run("Stage3_Results", func(t *testing.T) {
		_, out, err := server.handleResults(ctx, nil, ResultsInput{OutDir: "out"})
		if err != nil {
			t.Fatalf("results failed: %v", err)
		}
		if out.Summary.Batches != len(rows) {
			t.Errorf("catalog has %d batches, run reported %d rows", out.Summary.Batches, len(rows))
		}
		for _, r := range out.Realizations {
			if r.Vertices != 16 || r.Edges != 48 {
				t.Errorf("seed %d: %d vertices, %d edges", r.Seed, r.Vertices, r.Edges)
			}
		}
	})
}
