// Package timeseries resolves the hourly input series a scenario declares
// from CSV files into flat float slices over the model horizon.
package timeseries

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-gota/gota/dataframe"
)

// Ref names one series and points at the CSV column backing it. Column is
// matched by header name when set, otherwise by position. Several refs may
// share a file.
type Ref struct {
	Name   string `json:"name"`
	File   string `json:"file"`
	Column string `json:"column,omitempty"`
	Index  int    `json:"index,omitempty"`
}

// Set holds the resolved series of one scenario, all of equal length.
type Set struct {
	n      int
	series map[string][]float64
}

// NewSet returns an empty set for the given horizon.
func NewSet(horizon int) *Set {
	return &Set{n: horizon, series: map[string][]float64{}}
}

// Add stores a series under name. The length must match the horizon.
func (s *Set) Add(name string, values []float64) error {
	if len(values) != s.n {
		return fmt.Errorf("series %q: got %d values, horizon is %d", name, len(values), s.n)
	}
	if _, ok := s.series[name]; ok {
		return fmt.Errorf("series %q declared twice", name)
	}
	s.series[name] = values
	return nil
}

// Get returns the series stored under name.
func (s *Set) Get(name string) ([]float64, bool) {
	v, ok := s.series[name]
	return v, ok
}

// Horizon returns the common series length.
func (s *Set) Horizon() int { return s.n }

// Names returns all series names in sorted order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.series))
	for k := range s.series {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Load resolves refs against CSV files under dir. Files are read once even
// when several refs point into them. A series shorter than the horizon is
// an error; longer ones are truncated.
func Load(dir string, refs []Ref, horizon int) (*Set, error) {
	set := NewSet(horizon)
	frames := map[string]dataframe.DataFrame{}

	for _, ref := range refs {
		if ref.Name == "" {
			return nil, fmt.Errorf("timeseries ref for file %q has no name", ref.File)
		}
		df, ok := frames[ref.File]
		if !ok {
			f, err := os.Open(filepath.Join(dir, ref.File))
			if err != nil {
				return nil, fmt.Errorf("timeseries %q: %w", ref.Name, err)
			}
			df = dataframe.ReadCSV(f)
			f.Close()
			if df.Error() != nil {
				return nil, fmt.Errorf("timeseries %q: reading %s: %w", ref.Name, ref.File, df.Error())
			}
			frames[ref.File] = df
		}

		col := ref.Column
		if col == "" {
			names := df.Names()
			if ref.Index < 0 || ref.Index >= len(names) {
				return nil, fmt.Errorf("timeseries %q: column index %d out of range in %s (%d columns)",
					ref.Name, ref.Index, ref.File, len(names))
			}
			col = names[ref.Index]
		}
		series := df.Col(col)
		if series.Err != nil {
			return nil, fmt.Errorf("timeseries %q: column %q in %s: %w", ref.Name, col, ref.File, series.Err)
		}

		values := series.Float()
		if len(values) < horizon {
			return nil, fmt.Errorf("timeseries %q: %s/%s has %d rows, horizon needs %d",
				ref.Name, ref.File, col, len(values), horizon)
		}
		values = values[:horizon]
		for t, v := range values {
			if math.IsNaN(v) {
				return nil, fmt.Errorf("timeseries %q: non-numeric value at row %d of %s/%s",
					ref.Name, t, ref.File, col)
			}
		}
		if err := set.Add(ref.Name, values); err != nil {
			return nil, err
		}
	}

	return set, nil
}
