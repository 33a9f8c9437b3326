// Package plot renders selected result columns as PNG timeseries charts.
package plot

import (
	"fmt"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Timeseries draws the named columns of the result table into one chart and
// writes it as PNG. The file name derives from the column list.
func Timeseries(df dataframe.DataFrame, columns []string, path string) error {
	if len(columns) == 0 {
		return fmt.Errorf("plot: no columns given")
	}

	p := plot.New()
	p.Title.Text = strings.Join(columns, ", ")
	p.X.Label.Text = "hour"
	p.Legend.Top = true

	var args []interface{}
	for _, col := range columns {
		s := df.Col(col)
		if s.Err != nil {
			return fmt.Errorf("plot: column %q: %w", col, s.Err)
		}
		values := s.Float()
		pts := make(plotter.XYs, len(values))
		for i, v := range values {
			pts[i].X = float64(i + 1)
			pts[i].Y = v
		}
		args = append(args, col, pts)
	}

	if err := plotutil.AddLinePoints(p, args...); err != nil {
		return fmt.Errorf("plot: %w", err)
	}
	if err := p.Save(24*vg.Centimeter, 12*vg.Centimeter, path); err != nil {
		return fmt.Errorf("plot: save %s: %w", path, err)
	}
	return nil
}

// FileName builds a stable PNG name for a column list.
func FileName(columns []string) string {
	name := strings.Join(columns, "_")
	name = strings.ReplaceAll(name, ".", "_")
	return name + ".png"
}
