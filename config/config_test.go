package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/flexkraft/esmod/model"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const scenarioJSON = `{
  "name": "mini",
  "horizon": 3,
  "parameters": {"co2_price": 25},
  "timeseries": [
    {"name": "power_price", "file": "prices.csv", "column": "power"}
  ],
  "blocks": [
    {"name": "grid", "type": "electrical_grid",
     "params": {"inputs": 1},
     "series": {"power_price": "power_price"}}
  ],
  "arcs": [],
  "boundary": ["grid.power_in_1", "grid.power_out"],
  "solver": {"name": "simplex", "mipGap": 0.001}
}`

func TestReadAndResolve(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "prices.csv", "power\n50\n60\n55\n")
	path := writeFile(t, dir, "mini.json", scenarioJSON)

	scenario, err := Read(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if scenario.Name != "mini" || scenario.Horizon != 3 {
		t.Fatalf("scenario = %+v", scenario)
	}
	if scenario.Solver.MIPGap != 0.001 {
		t.Fatalf("mip gap = %g", scenario.Solver.MIPGap)
	}

	set, err := scenario.LoadSeries()
	if err != nil {
		t.Fatalf("load series: %v", err)
	}
	top, err := scenario.Topology(set)
	if err != nil {
		t.Fatalf("topology: %v", err)
	}

	if len(top.Blocks) != 1 {
		t.Fatalf("blocks = %d", len(top.Blocks))
	}
	blk := top.Blocks[0]
	// global parameters are merged into the block's own
	if blk.Params["co2_price"] != 25 || blk.Params["inputs"] != 1 {
		t.Fatalf("params = %v", blk.Params)
	}
	series := blk.Series["power_price"]
	if len(series) != 3 || series[1] != 60 {
		t.Fatalf("series = %v", series)
	}
	if len(top.Boundary) != 2 {
		t.Fatalf("boundary = %v", top.Boundary)
	}
}

func TestBlockParamsOverrideGlobals(t *testing.T) {
	s := Scenario{
		Name: "x", Horizon: 1,
		Parameters: map[string]float64{"co2_price": 25},
		Blocks: []BlockConfig{
			{Name: "a", Type: "t", Params: map[string]float64{"co2_price": 30}},
		},
	}
	top, err := s.Topology(nil)
	if err != nil {
		t.Fatalf("topology: %v", err)
	}
	if top.Blocks[0].Params["co2_price"] != 30 {
		t.Fatalf("params = %v, want block override to win", top.Blocks[0].Params)
	}
}

func TestTopologyRejectsUnknownSeries(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "prices.csv", "power\n50\n60\n55\n")
	path := writeFile(t, dir, "mini.json", scenarioJSON)

	scenario, err := Read(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	scenario.Blocks[0].Series["power_price"] = "no_such_series"

	set, err := scenario.LoadSeries()
	if err != nil {
		t.Fatalf("load series: %v", err)
	}
	_, err = scenario.Topology(set)
	var cfgErr *model.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("got %v, want ConfigError", err)
	}
}

func TestReadRejectsBrokenScenarios(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"no name":        `{"horizon": 3, "blocks": [{"name": "a", "type": "t"}]}`,
		"no horizon":     `{"name": "x", "blocks": [{"name": "a", "type": "t"}]}`,
		"no blocks":      `{"name": "x", "horizon": 3, "blocks": []}`,
		"duplicate name": `{"name": "x", "horizon": 3, "blocks": [{"name": "a", "type": "t"}, {"name": "a", "type": "t"}]}`,
	}
	for label, content := range cases {
		path := writeFile(t, dir, "bad.json", content)
		if _, err := Read(path); err == nil {
			t.Fatalf("%s: accepted", label)
		}
	}
}
