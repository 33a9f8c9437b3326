// Package config reads scenario files: the JSON description of which blocks
// exist, how they are wired, which CSV series feed them, and how to solve.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/flexkraft/esmod/model"
	"github.com/flexkraft/esmod/timeseries"
)

type BlockConfig struct {
	Name   string             `json:"name"`
	Type   string             `json:"type"`
	Params map[string]float64 `json:"params,omitempty"`
	// Series binds the block's series slots to scenario series names,
	// e.g. {"demand": "heat_demand_2022"}.
	Series map[string]string `json:"series,omitempty"`
}

type ArcConfig struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type SolverConfig struct {
	Name          string  `json:"name"`
	TimeLimitSecs float64 `json:"timeLimitSecs,omitempty"`
	MIPGap        float64 `json:"mipGap,omitempty"`
	HighsBin      string  `json:"highsBin,omitempty"`
}

type OutputConfig struct {
	Dir             string     `json:"dir,omitempty"`
	IncludeArcFlows bool       `json:"includeArcFlows,omitempty"`
	Plots           [][]string `json:"plots,omitempty"`
}

type Scenario struct {
	Name    string `json:"name"`
	Horizon int    `json:"horizon"`
	// Parameters are merged into every block's params; block-level values
	// win on conflict.
	Parameters map[string]float64 `json:"parameters,omitempty"`
	Timeseries []timeseries.Ref   `json:"timeseries,omitempty"`
	Blocks     []BlockConfig      `json:"blocks"`
	Arcs       []ArcConfig        `json:"arcs"`
	Boundary   []string           `json:"boundary,omitempty"`
	Solver     SolverConfig       `json:"solver"`
	Output     OutputConfig       `json:"output,omitempty"`

	// dir the scenario file was read from; timeseries files resolve
	// relative to it
	baseDir string
}

func Read(path string) (Scenario, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read scenario file: %w", err)
	}

	var scenario Scenario
	err = json.Unmarshal(content, &scenario)
	if err != nil {
		return Scenario{}, fmt.Errorf("unmarshal scenario: %w", err)
	}
	scenario.baseDir = filepath.Dir(path)

	if err := scenario.validate(); err != nil {
		return Scenario{}, err
	}
	return scenario, nil
}

func (s Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario has no name")
	}
	if s.Horizon <= 0 {
		return fmt.Errorf("scenario %q: horizon must be positive, got %d", s.Name, s.Horizon)
	}
	if len(s.Blocks) == 0 {
		return fmt.Errorf("scenario %q: no blocks declared", s.Name)
	}
	seen := map[string]bool{}
	for _, b := range s.Blocks {
		if b.Name == "" || b.Type == "" {
			return fmt.Errorf("scenario %q: block needs both name and type", s.Name)
		}
		if seen[b.Name] {
			return fmt.Errorf("scenario %q: duplicate block name %q", s.Name, b.Name)
		}
		seen[b.Name] = true
	}
	return nil
}

// LoadSeries resolves the scenario's timeseries declarations from CSV files
// next to the scenario file.
func (s Scenario) LoadSeries() (*timeseries.Set, error) {
	return timeseries.Load(s.baseDir, s.Timeseries, s.Horizon)
}

// Topology translates the scenario into the declarative system description,
// merging global parameters into each block and resolving its series
// bindings against the loaded set.
func (s Scenario) Topology(set *timeseries.Set) (model.Topology, error) {
	top := model.Topology{Boundary: s.Boundary}

	for _, b := range s.Blocks {
		params := model.Params{}
		for k, v := range s.Parameters {
			params[k] = v
		}
		for k, v := range b.Params {
			params[k] = v
		}

		series := model.Series{}
		for slot, name := range b.Series {
			values, ok := set.Get(name)
			if !ok {
				return model.Topology{}, &model.ConfigError{Block: b.Name, Field: slot,
					Reason: fmt.Sprintf("references undeclared series %q", name)}
			}
			series[slot] = values
		}

		top.Blocks = append(top.Blocks, model.BlockSpec{
			Name:   b.Name,
			Type:   b.Type,
			Params: params,
			Series: series,
		})
	}

	for _, a := range s.Arcs {
		top.Arcs = append(top.Arcs, model.ArcSpec{From: a.From, To: a.To})
	}

	return top, nil
}
