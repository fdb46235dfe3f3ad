package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"topoview/internal/domain"
)

const officeTopology = `{
  "id": "office",
  "name": "Office",
  "nodes": [
    {"id": "gw", "label": "Gateway", "severity": "ok"},
    {"id": "sw", "label": "Switch", "severity": "minor"},
    {"id": "pc", "label": "Desktop", "severity": "critical"}
  ],
  "edges": [
    {"from": "gw", "to": "sw"},
    {"from": "sw", "to": "pc"},
    {"from": "pc", "to": "printer"}
  ]
}`

// run executes the CLI with an isolated config search path
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	color.NoColor = true

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("TOPOVIEW_CONFIG", "")

	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLayoutTable(t *testing.T) {
	path := writeFile(t, "office.json", officeTopology)

	out, errOut, err := run(t, "layout", path)
	if err != nil {
		t.Fatalf("layout failed: %v", err)
	}
	for _, want := range []string{"NODE", "Gateway", "● Critical", "3 nodes, 3 edges, 100 iterations"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(errOut, "missing node") {
		t.Errorf("expected dangling edge warning, got %q", errOut)
	}
}

func TestLayoutJSONWithOverrides(t *testing.T) {
	path := writeFile(t, "office.json", officeTopology)

	out, _, err := run(t, "layout", path, "-o", "json", "--iterations", "0", "--radius", "200")
	if err != nil {
		t.Fatalf("layout failed: %v", err)
	}

	var result domain.LayoutResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if result.Params.Iterations != 0 || result.Params.Radius != 200 {
		t.Errorf("flags not applied: %+v", result.Params)
	}
	if result.Params.Repulsion != 5000 {
		t.Errorf("unset flags should keep defaults, got repulsion %g", result.Params.Repulsion)
	}
	if len(result.Positions) != 3 {
		t.Fatalf("expected 3 positions, got %d", len(result.Positions))
	}
	// Zero iterations leaves the circle seed: the first node sits at (radius, 0)
	first := result.Positions[0]
	if first.NodeID != "gw" || first.X != 200 || first.Y != 0 {
		t.Errorf("unexpected seed position %+v", first)
	}
}

func TestLayoutYAMLAndCanvas(t *testing.T) {
	path := writeFile(t, "office.json", officeTopology)

	out, _, err := run(t, "layout", path, "-o", "yaml")
	if err != nil {
		t.Fatalf("yaml output failed: %v", err)
	}
	if !strings.Contains(out, "nodeid: gw") && !strings.Contains(out, "node_id: gw") {
		t.Errorf("yaml output missing gw position:\n%s", out)
	}

	out, _, err = run(t, "layout", path, "-o", "canvas", "--width", "30", "--height", "8")
	if err != nil {
		t.Fatalf("canvas output failed: %v", err)
	}
	if strings.Count(out, "●") != 3 {
		t.Errorf("expected 3 nodes on the canvas:\n%s", out)
	}
}

func TestLayoutErrors(t *testing.T) {
	path := writeFile(t, "office.json", officeTopology)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"invalid damping", []string{"layout", path, "--damping", "2"}, "Damping"},
		{"negative iterations", []string{"layout", path, "--iterations", "-1"}, "Iterations"},
		{"unknown format", []string{"layout", path, "--format", "xml"}, "unsupported format"},
		{"missing file", []string{"layout", filepath.Join(t.TempDir(), "absent.json")}, "open topology"},
		{"unknown output", []string{"layout", path, "-o", "svg"}, "unknown output"},
		{"no args", []string{"layout"}, "accepts 1 arg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should contain %q", err, tt.want)
			}
		})
	}
}

func TestScenarios(t *testing.T) {
	out, _, err := run(t, "scenarios")
	if err != nil {
		t.Fatalf("scenarios failed: %v", err)
	}
	for _, name := range []string{"star", "ring", "mesh", "tree", "datacenter", "disconnected"} {
		if !strings.Contains(out, name) {
			t.Errorf("scenario list missing %s", name)
		}
	}
}

func TestScenarioCommand(t *testing.T) {
	out, _, err := run(t, "scenario", "star", "-o", "canvas")
	if err != nil {
		t.Fatalf("scenario failed: %v", err)
	}
	if !strings.Contains(out, "Star") {
		t.Errorf("expected scenario title:\n%s", out)
	}
	if strings.Count(out, "●") != 7 {
		t.Errorf("expected 7 nodes on the canvas:\n%s", out)
	}

	_, _, err = run(t, "scenario", "moebius")
	if err == nil || !strings.Contains(err.Error(), "unknown scenario") {
		t.Errorf("expected unknown scenario error, got %v", err)
	}
}

func TestLegend(t *testing.T) {
	out, _, err := run(t, "legend")
	if err != nil {
		t.Fatalf("legend failed: %v", err)
	}
	for _, e := range domain.Legend() {
		if !strings.Contains(out, e.Label) || !strings.Contains(out, e.Color) {
			t.Errorf("legend missing %s (%s)", e.Label, e.Color)
		}
	}
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "topoview.yaml")

	out, _, err := run(t, "config", "init", path)
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(out, path) {
		t.Errorf("expected path in output, got %q", out)
	}

	if _, _, err := run(t, "config", "init", path); err == nil {
		t.Error("second init without --force should fail")
	}
	if _, _, err := run(t, "config", "init", path, "--force"); err != nil {
		t.Errorf("init --force failed: %v", err)
	}

	custom := writeFile(t, "custom.yaml", "layout:\n  iterations: 42\n")
	out, _, err = run(t, "--config", custom, "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	if !strings.Contains(out, "iterations=42") {
		t.Errorf("expected configured iterations in summary:\n%s", out)
	}
}

func TestConfigDrivesLayout(t *testing.T) {
	topo := writeFile(t, "office.json", officeTopology)
	custom := writeFile(t, "custom.yaml", "layout:\n  iterations: 7\n")

	out, _, err := run(t, "--config", custom, "layout", topo)
	if err != nil {
		t.Fatalf("layout failed: %v", err)
	}
	if !strings.Contains(out, "7 iterations") {
		t.Errorf("config iterations not applied:\n%s", out)
	}

	// Flags still win over the file
	out, _, err = run(t, "--config", custom, "layout", topo, "--iterations", "3")
	if err != nil {
		t.Fatalf("layout failed: %v", err)
	}
	if !strings.Contains(out, "3 iterations") {
		t.Errorf("flag should override config:\n%s", out)
	}
}

func TestProgressPrinter(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	p := progressPrinter{w: &buf}
	p.PublishDiscoveryEvent("discovery_started", map[string]any{"message": "Starting nmap scan of 1 targets"})
	p.PublishDiscoveryEvent("discovery_complete", "not a map")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", buf.String())
	}
	if lines[0] != "  [started] Starting nmap scan of 1 targets" {
		t.Errorf("unexpected line %q", lines[0])
	}
	if lines[1] != "  [complete] " {
		t.Errorf("unexpected line %q", lines[1])
	}
}

func TestDrawerScenarios(t *testing.T) {
	color.NoColor = true
	path := writeFile(t, "office.json", officeTopology)

	var stderr bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetErr(&stderr)

	reg, err := drawerScenarios(cmd, path, "")
	if err != nil {
		t.Fatalf("loading dataset failed: %v", err)
	}
	if reg.Len() != 1 {
		t.Fatalf("expected only the dataset, got %v", reg.Names())
	}
	sc := reg.First()
	if sc.Name != "office" || sc.Title != "Office" || len(sc.Nodes) != 3 {
		t.Errorf("unexpected dataset entry %+v", sc)
	}
	if !strings.Contains(stderr.String(), "missing node") {
		t.Errorf("expected dangling edge warning, got %q", stderr.String())
	}

	builtin, err := drawerScenarios(cmd, "", "")
	if err != nil {
		t.Fatalf("builtin scenarios failed: %v", err)
	}
	if builtin.Len() < 6 {
		t.Errorf("expected the built-in scenarios, got %v", builtin.Names())
	}

	yamlPath := writeFile(t, "office.txt", "id: lab\nname: Lab\nnodes:\n  - id: a\n  - id: b\nedges:\n  - from: a\n    to: b\n")
	reg, err = drawerScenarios(cmd, yamlPath, "yaml")
	if err != nil {
		t.Fatalf("explicit format failed: %v", err)
	}
	if reg.First().Name != "lab" {
		t.Errorf("expected lab, got %s", reg.First().Name)
	}

	if _, err := drawerScenarios(cmd, filepath.Join(t.TempDir(), "absent.json"), ""); err == nil {
		t.Error("expected an error for a missing file")
	}
}
