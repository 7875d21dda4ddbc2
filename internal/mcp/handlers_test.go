package mcp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvandessel/arcprune/internal/ratelimit"
	"github.com/nvandessel/arcprune/internal/simulation"
)

const smallConfig = `top: la
nvertices: 16
avgdegree: 4
nbatches: 2
batchsz: 2
nrealizations: 2
wepochs: 100
fepochs: 40
eepochs: 40
outdir: out
workers: 2
`

func setupTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "config.yaml"), []byte(smallConfig), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	server, err := NewServer(&Config{Name: "test-server", Version: "v1.0.0", Root: tmpDir})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	t.Cleanup(func() { server.Close() })
	return server, tmpDir
}

func TestHandleRun(t *testing.T) {
	server, tmpDir := setupTestServer(t)
	ctx := context.Background()

	result, out, err := server.handleRun(ctx, nil, RunInput{Config: "config.yaml"})
	if err != nil {
		t.Fatalf("handleRun error = %v", err)
	}
	if result != nil {
		t.Error("expected nil CallToolResult for structured output")
	}
	if out.Succeeded != 2 || out.Failed != 0 {
		t.Errorf("succeeded/failed = %d/%d, want 2/0", out.Succeeded, out.Failed)
	}
	if want := filepath.Join(tmpDir, "out"); out.OutDir != want {
		t.Errorf("OutDir = %q, want %q", out.OutDir, want)
	}
	if len(out.Rows) != 6 {
		t.Errorf("len(Rows) = %d, want 6", len(out.Rows))
	}
	if _, err := os.Stat(filepath.Join(out.OutDir, simulation.CorrsFile)); err != nil {
		t.Errorf("missing correlations table: %v", err)
	}
}

func TestHandleRun_Overrides(t *testing.T) {
	server, tmpDir := setupTestServer(t)

	_, out, err := server.handleRun(context.Background(), nil, RunInput{
		Config:       "config.yaml",
		Realizations: 1,
		Seed:         7,
		OutDir:       "other",
	})
	if err != nil {
		t.Fatalf("handleRun error = %v", err)
	}
	if out.OutDir != filepath.Join(tmpDir, "other") {
		t.Errorf("OutDir = %q", out.OutDir)
	}
	if out.Succeeded != 1 || len(out.Rows) != 3 || out.Rows[0].Seed != 7 {
		t.Errorf("unexpected output: %+v", out)
	}
}

func TestHandleRun_RejectsOutDirOutsideRoot(t *testing.T) {
	server, _ := setupTestServer(t)
	outside := filepath.Join(string(os.PathSeparator), "etc", "arcprune")

	_, _, err := server.handleRun(context.Background(), nil, RunInput{Config: "config.yaml", OutDir: outside})
	if err == nil || !strings.Contains(err.Error(), "invalid outdir") {
		t.Errorf("expected invalid outdir error, got %v", err)
	}
}

func TestHandleRun_ReportsFailures(t *testing.T) {
	server, tmpDir := setupTestServer(t)
	// A 4-vertex lattice has 8 arcs; removing 40 must fail every realization.
	cfg := strings.Replace(smallConfig, "nvertices: 16", "nvertices: 4", 1)
	cfg = strings.Replace(cfg, "batchsz: 2", "batchsz: 20", 1)
	if err := os.WriteFile(filepath.Join(tmpDir, "bad.yaml"), []byte(cfg), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	_, out, err := server.handleRun(context.Background(), nil, RunInput{Config: "bad.yaml"})
	if err != nil {
		t.Fatalf("handleRun error = %v", err)
	}
	if out.Failed != 2 || len(out.Failures) != 2 {
		t.Errorf("failed = %d, failures = %v", out.Failed, out.Failures)
	}
}

func TestHandleRun_RateLimited(t *testing.T) {
	server, _ := setupTestServer(t)
	server.toolLimiters = ratelimit.ToolLimiters{ToolRun: ratelimit.NewLimiter(0, 0)}

	_, _, err := server.handleRun(context.Background(), nil, RunInput{Config: "config.yaml"})
	if !errors.Is(err, ratelimit.ErrLimited) {
		t.Errorf("expected ErrLimited, got %v", err)
	}
}

func TestHandleRun_MissingConfig(t *testing.T) {
	server, _ := setupTestServer(t)
	if _, _, err := server.handleRun(context.Background(), nil, RunInput{Config: "nope.yaml"}); err == nil {
		t.Error("expected error for missing config")
	}
}

func TestHandleResults(t *testing.T) {
	server, _ := setupTestServer(t)
	ctx := context.Background()
	if _, _, err := server.handleRun(ctx, nil, RunInput{Config: "config.yaml"}); err != nil {
		t.Fatalf("handleRun error = %v", err)
	}

	_, out, err := server.handleResults(ctx, nil, ResultsInput{OutDir: "out"})
	if err != nil {
		t.Fatalf("handleResults error = %v", err)
	}
	if out.Summary.Realizations != 2 || out.Summary.OK != 2 {
		t.Errorf("summary = %+v", out.Summary)
	}
	if len(out.Realizations) != 2 || out.Realizations[0].Status != "ok" {
		t.Errorf("realizations = %+v", out.Realizations)
	}
	if out.Batches != nil {
		t.Errorf("batches should be omitted without a seed, got %v", out.Batches)
	}

	seed := out.Realizations[0].Seed
	_, out, err = server.handleResults(ctx, nil, ResultsInput{OutDir: "out", Seed: &seed})
	if err != nil {
		t.Fatalf("handleResults(seed) error = %v", err)
	}
	if len(out.Batches) != 3 {
		t.Errorf("len(Batches) = %d, want 3", len(out.Batches))
	}
}

func TestHandleResults_Errors(t *testing.T) {
	server, _ := setupTestServer(t)
	ctx := context.Background()

	if _, _, err := server.handleResults(ctx, nil, ResultsInput{}); err == nil {
		t.Error("expected error for empty outdir")
	}
	if _, _, err := server.handleResults(ctx, nil, ResultsInput{OutDir: "never-ran"}); err == nil {
		t.Error("expected error for missing catalog")
	}
}

func TestHandleCheck(t *testing.T) {
	server, _ := setupTestServer(t)

	_, out, err := server.handleCheck(context.Background(), nil, CheckInput{Config: "config.yaml"})
	if err != nil {
		t.Fatalf("handleCheck error = %v", err)
	}
	if !out.Valid || out.Vertices != 16 || out.Edges != 48 || out.Removals != 4 {
		t.Errorf("unexpected check output: %+v", out)
	}
}

func TestHandleCheck_Invalid(t *testing.T) {
	server, tmpDir := setupTestServer(t)
	cfg := strings.Replace(smallConfig, "top: la", "top: xx", 1)
	if err := os.WriteFile(filepath.Join(tmpDir, "bad.yaml"), []byte(cfg), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	_, out, err := server.handleCheck(context.Background(), nil, CheckInput{Config: "bad.yaml"})
	if err != nil {
		t.Fatalf("handleCheck error = %v", err)
	}
	if out.Valid || !strings.Contains(out.Error, "unknown topology") {
		t.Errorf("expected invalid output, got %+v", out)
	}
}
