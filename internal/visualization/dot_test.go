package visualization

import (
	"strings"
	"testing"

	"github.com/nvandessel/arcprune/internal/graph"
)

func TestRenderDOT(t *testing.T) {
	g := graph.Cycle(3)
	dot, err := RenderDOT(g, "cycle", nil)
	if err != nil {
		t.Fatalf("RenderDOT() error = %v", err)
	}
	if !strings.HasPrefix(dot, "digraph \"cycle\" {") || !strings.HasSuffix(dot, "}\n") {
		t.Errorf("malformed DOT:\n%s", dot)
	}
	for _, arc := range []string{"0 -> 1;", "1 -> 2;", "2 -> 0;"} {
		if !strings.Contains(dot, arc) {
			t.Errorf("DOT missing %q", arc)
		}
	}
}

func TestRenderDOT_Weights(t *testing.T) {
	g := graph.Cycle(3)
	dot, err := RenderDOT(g, "w", []int64{0, 5, 10})
	if err != nil {
		t.Fatalf("RenderDOT() error = %v", err)
	}
	if !strings.Contains(dot, `2 [fillcolor="`+palette[len(palette)-1]+`", tooltip="weight=10"]`) {
		t.Errorf("heaviest vertex not shaded darkest:\n%s", dot)
	}
	if !strings.Contains(dot, `0 [fillcolor="`+palette[0]+`"`) {
		t.Errorf("lightest vertex not shaded lightest:\n%s", dot)
	}

	if _, err := RenderDOT(g, "w", []int64{1}); err == nil {
		t.Error("expected error for mismatched weights")
	}
}

func TestRenderJSON(t *testing.T) {
	g, err := graph.FromUndirected(3, []graph.Edge{{From: 0, To: 1}, {From: 1, To: 2}})
	if err != nil {
		t.Fatalf("FromUndirected: %v", err)
	}
	out, err := RenderJSON(g, g.Degrees(graph.DegreeOut))
	if err != nil {
		t.Fatalf("RenderJSON() error = %v", err)
	}
	if out["node_count"] != 3 || out["edge_count"] != 4 {
		t.Errorf("counts = %v/%v, want 3/4", out["node_count"], out["edge_count"])
	}
	nodes := out["nodes"].([]map[string]interface{})
	if nodes[1]["out_degree"] != 2 || nodes[1]["weight"] != int64(2) {
		t.Errorf("middle vertex = %v", nodes[1])
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"dot", "json"} {
		if f, err := ParseFormat(s); err != nil || string(f) != s {
			t.Errorf("ParseFormat(%q) = %q, %v", s, f, err)
		}
	}
	if _, err := ParseFormat("html"); err == nil {
		t.Error("expected error for html")
	}
}
