package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvandessel/arcprune/internal/config"
	"github.com/nvandessel/arcprune/internal/simulation"
	"github.com/nvandessel/arcprune/internal/store"
)

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	rootCmd := newRootCmd()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// writeConfig writes a small lattice experiment into a temp dir and
// returns the config path and its output directory.
func writeConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	outdir := filepath.Join(dir, "out")
	cfg := `top: la
nvertices: 16
avgdegree: 4
nbatches: 2
batchsz: 2
nrealizations: 2
wepochs: 100
fepochs: 40
eepochs: 40
outdir: ` + outdir + "\n"
	path := filepath.Join(dir, "exp.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path, outdir
}

func TestNewRootCmd_Subcommands(t *testing.T) {
	rootCmd := newRootCmd()
	for _, name := range []string{"version", "run", "check", "config", "results", "graph", "mcp-server"} {
		if c, _, err := rootCmd.Find([]string{name}); err != nil || c.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	for _, flag := range []string{"json", "config", "log-level"} {
		if rootCmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing --%s flag", flag)
		}
	}
}

func TestNewRunCmd(t *testing.T) {
	cmd := newRunCmd()
	if cmd.Use != "run" {
		t.Errorf("Use = %q, want %q", cmd.Use, "run")
	}
	for _, flag := range []string{"workers", "outdir", "seed", "nrealizations"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("missing --%s flag", flag)
		}
	}
}

func TestVersionCmd_JSON(t *testing.T) {
	out, err := execute(t, "version", "--json")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("bad JSON %q: %v", out, err)
	}
	if got["version"] != version {
		t.Errorf("version = %q, want %q", got["version"], version)
	}
}

func TestRunCmd(t *testing.T) {
	path, outdir := writeConfig(t)

	out, err := execute(t, "run", "--config", path, "--workers", "2")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(out, "Finished 2 of 2 realizations") {
		t.Errorf("unexpected output:\n%s", out)
	}
	for _, name := range []string{config.FileName, store.DBFile, simulation.CorrsFile} {
		if _, err := os.Stat(filepath.Join(outdir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}

func TestRunCmd_FlagOverrides(t *testing.T) {
	path, _ := writeConfig(t)
	outdir := filepath.Join(t.TempDir(), "override")

	out, err := execute(t, "run", "--config", path, "--outdir", outdir, "--nrealizations", "1", "--seed", "5", "--json")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	var got map[string]interface{}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("bad JSON %q: %v", out, err)
	}
	if got["outdir"] != outdir || got["succeeded"] != float64(1) {
		t.Errorf("unexpected result: %v", got)
	}
	if _, err := os.Stat(filepath.Join(outdir, "05")); err != nil {
		t.Errorf("missing artifacts of seed 5: %v", err)
	}
}

func TestRunCmd_FailuresExitNonZero(t *testing.T) {
	// 8 arcs cannot absorb 40 removals.
	path, _ := writeConfig(t)
	path = rewrite(t, path, "nvertices: 16", "nvertices: 4")
	path = rewrite(t, path, "batchsz: 2", "batchsz: 20")

	out, err := execute(t, "run", "--config", path)
	if err == nil || !strings.Contains(err.Error(), "2 of 2 realizations failed") {
		t.Fatalf("expected failure error, got %v", err)
	}
	if !strings.Contains(out, "failed: seed 0") {
		t.Errorf("failures not listed:\n%s", out)
	}
}

// rewrite replaces the first old with repl in the file at path.
func rewrite(t *testing.T, path, old, repl string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(strings.Replace(string(data), old, repl, 1)), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

func TestCheckCmd(t *testing.T) {
	path, outdir := writeConfig(t)

	out, err := execute(t, "check", "--config", path)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !strings.Contains(out, "16 vertices, 48 arcs") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if _, err := os.Stat(outdir); !os.IsNotExist(err) {
		t.Error("check should not create the output directory")
	}
}

func TestCheckCmd_Invalid(t *testing.T) {
	path, _ := writeConfig(t)
	path = rewrite(t, path, "top: la", "top: xx")

	if _, err := execute(t, "check", "--config", path); err == nil {
		t.Error("expected error for unknown topology")
	}
}

func TestConfigInitAndShow(t *testing.T) {
	dir := t.TempDir()

	if _, err := execute(t, "config", "init", dir); err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if _, err := execute(t, "config", "init", dir); err == nil {
		t.Error("second init without --force should fail")
	}
	if _, err := execute(t, "config", "init", dir, "--force"); err != nil {
		t.Errorf("init --force failed: %v", err)
	}

	out, err := execute(t, "config", "show", "--config", filepath.Join(dir, config.FileName), "--json")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	var cfg config.Config
	if err := json.Unmarshal([]byte(out), &cfg); err != nil {
		t.Fatalf("bad JSON %q: %v", out, err)
	}
	if cfg.Topology != config.Default().Topology || cfg.NumVertices != config.Default().NumVertices {
		t.Errorf("shown config = %+v, want defaults", cfg)
	}
}

func TestConfigShow_LogLevelOverride(t *testing.T) {
	out, err := execute(t, "config", "show", "--log-level", "debug")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	if !strings.Contains(out, "level: debug") {
		t.Errorf("override not applied:\n%s", out)
	}
}

func TestResultsCmd(t *testing.T) {
	path, outdir := writeConfig(t)
	if _, err := execute(t, "run", "--config", path); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	out, err := execute(t, "results", outdir)
	if err != nil {
		t.Fatalf("results failed: %v", err)
	}
	if !strings.Contains(out, "2 realizations (2 ok, 0 failed), 6 batches") {
		t.Errorf("unexpected summary:\n%s", out)
	}

	out, err = execute(t, "results", outdir, "--seed", "1", "--json")
	if err != nil {
		t.Fatalf("results --seed failed: %v", err)
	}
	var got struct {
		Batches []store.BatchRecord `json:"batches"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("bad JSON %q: %v", out, err)
	}
	if len(got.Batches) != 3 {
		t.Errorf("len(batches) = %d, want 3", len(got.Batches))
	}

	if _, err := execute(t, "results", outdir, "--seed", "99"); err == nil {
		t.Error("expected error for unknown seed")
	}
}

func TestResultsCmd_NoCatalog(t *testing.T) {
	if _, err := execute(t, "results", t.TempDir()); err == nil {
		t.Error("expected error without a catalog")
	}
}

func TestGraphCmd(t *testing.T) {
	path, _ := writeConfig(t)

	out, err := execute(t, "graph", "--config", path)
	if err != nil {
		t.Fatalf("graph failed: %v", err)
	}
	if !strings.HasPrefix(out, `digraph "la-0" {`) || strings.Count(out, "->") != 48 {
		t.Errorf("unexpected DOT:\n%s", out)
	}

	file := filepath.Join(t.TempDir(), "g.json")
	if _, err := execute(t, "graph", "--config", path, "--format", "json", "--output", file); err != nil {
		t.Fatalf("graph --format json failed: %v", err)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	var got struct {
		NodeCount int `json:"node_count"`
		EdgeCount int `json:"edge_count"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if got.NodeCount != 16 || got.EdgeCount != 48 {
		t.Errorf("counts = %d/%d, want 16/48", got.NodeCount, got.EdgeCount)
	}

	if _, err := execute(t, "graph", "--config", path, "--format", "html"); err == nil {
		t.Error("expected error for unknown format")
	}
}
