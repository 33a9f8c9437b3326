// Package highs drives the external HiGHS binary: the compiled program is
// written as a CPLEX LP file, highs runs as a child process, and its
// solution file is read back. This is the production backend.
package highs

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/flexkraft/esmod/model"
	"github.com/flexkraft/esmod/solver"
)

type Highs struct {
	// Bin is the highs executable; "highs" from PATH when empty.
	Bin string
	// WorkDir receives the LP and solution files; a temp dir when empty.
	WorkDir string
}

func New(bin string) *Highs { return &Highs{Bin: bin} }

func (h *Highs) Name() string { return "highs" }

func (h *Highs) Solve(ctx context.Context, mip *model.MIP, opts solver.Options) (solver.Solution, error) {
	start := time.Now()

	dir := h.WorkDir
	if dir == "" {
		var err error
		dir, err = os.MkdirTemp("", "esmod-highs-")
		if err != nil {
			return solver.Solution{}, fmt.Errorf("highs workdir: %w", err)
		}
		defer os.RemoveAll(dir)
	}

	lpPath := filepath.Join(dir, "model.lp")
	solPath := filepath.Join(dir, "model.sol")
	if err := writeLP(lpPath, mip); err != nil {
		return solver.Solution{}, err
	}

	bin := h.Bin
	if bin == "" {
		bin = "highs"
	}
	args := []string{lpPath, "--solution_file", solPath}
	if opts.TimeLimit > 0 {
		args = append(args, "--time_limit", strconv.FormatFloat(opts.TimeLimit.Seconds(), 'f', -1, 64))
	}
	if opts.MIPGap > 0 {
		args = append(args, "--mip_rel_gap", strconv.FormatFloat(opts.MIPGap, 'f', -1, 64))
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return solver.Solution{}, &solver.SolveError{
			Solver: h.Name(), Status: solver.StatusError,
			Detail: fmt.Sprintf("%v: %s", err, tail(string(out), 2000)),
		}
	}

	sol, err := readSolution(solPath, mip)
	if err != nil {
		return solver.Solution{}, &solver.SolveError{
			Solver: h.Name(), Status: solver.StatusError,
			Detail: fmt.Sprintf("%v: %s", err, tail(string(out), 2000)),
		}
	}
	sol.Objective += mip.ObjConst
	sol.Stats.Duration = time.Since(start)

	if sol.Status != solver.StatusOptimal && sol.Status != solver.StatusTimeLimit {
		return sol, &solver.SolveError{Solver: h.Name(), Status: sol.Status}
	}
	return sol, nil
}

// writeLP emits the program in CPLEX LP syntax. Columns are named x<j> and
// rows c<i>, so the solution file maps back by index regardless of what
// characters the model's own names use.
func writeLP(path string, mip *model.MIP) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write lp: %w", err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	fmt.Fprintln(w, "Minimize")
	fmt.Fprint(w, " obj:")
	wrote := false
	for j, cj := range mip.Obj {
		if cj == 0 {
			continue
		}
		fmt.Fprintf(w, " %s x%d", signed(cj, !wrote), j)
		wrote = true
	}
	if !wrote {
		fmt.Fprint(w, " 0 x0")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Subject To")
	for i, row := range mip.Rows {
		fmt.Fprintf(w, " c%d:", i)
		for k, j := range row.Cols {
			fmt.Fprintf(w, " %s x%d", signed(row.Coeffs[k], k == 0), j)
		}
		fmt.Fprintf(w, " %s %s\n", senseLP(row.Sense), num(row.RHS))
	}

	fmt.Fprintln(w, "Bounds")
	for j := 0; j < mip.Cols; j++ {
		lb, ub := mip.LB[j], mip.UB[j]
		switch {
		case lb == ub:
			fmt.Fprintf(w, " x%d = %s\n", j, num(lb))
		case isNegInf(lb) && isPosInf(ub):
			fmt.Fprintf(w, " x%d free\n", j)
		case isNegInf(lb):
			fmt.Fprintf(w, " -infinity <= x%d <= %s\n", j, num(ub))
		case isPosInf(ub):
			fmt.Fprintf(w, " %s <= x%d\n", num(lb), j)
		default:
			fmt.Fprintf(w, " %s <= x%d <= %s\n", num(lb), j, num(ub))
		}
	}

	if mip.NumBinaries() > 0 {
		fmt.Fprintln(w, "Binary")
		for j := 0; j < mip.Cols; j++ {
			if mip.Integer[j] {
				fmt.Fprintf(w, " x%d\n", j)
			}
		}
	}

	fmt.Fprintln(w, "End")
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write lp: %w", err)
	}
	return nil
}

// readSolution parses the HiGHS raw solution file: a model status line,
// the objective, and one "name value" line per column.
func readSolution(path string, mip *model.MIP) (solver.Solution, error) {
	f, err := os.Open(path)
	if err != nil {
		return solver.Solution{}, fmt.Errorf("read solution: %w", err)
	}
	defer f.Close()

	sol := solver.Solution{Status: solver.StatusError}
	values := make([]float64, mip.Cols)
	haveValues := false

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	inColumns := false
	remaining := 0
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "Model status"):
			if sc.Scan() {
				sol.Status = mapStatus(strings.TrimSpace(sc.Text()))
			}
		case strings.HasPrefix(line, "Objective"):
			fields := strings.Fields(line)
			if len(fields) == 2 {
				v, err := strconv.ParseFloat(fields[1], 64)
				if err != nil {
					return solver.Solution{}, fmt.Errorf("read solution: objective %q: %w", fields[1], err)
				}
				sol.Objective = v
			}
		case strings.HasPrefix(line, "# Columns"):
			fields := strings.Fields(line)
			n, err := strconv.Atoi(fields[len(fields)-1])
			if err != nil {
				return solver.Solution{}, fmt.Errorf("read solution: column count: %w", err)
			}
			inColumns = true
			remaining = n
		case inColumns && remaining > 0:
			fields := strings.Fields(line)
			if len(fields) != 2 || !strings.HasPrefix(fields[0], "x") {
				return solver.Solution{}, fmt.Errorf("read solution: bad column line %q", line)
			}
			j, err := strconv.Atoi(fields[0][1:])
			if err != nil || j < 0 || j >= mip.Cols {
				return solver.Solution{}, fmt.Errorf("read solution: bad column name %q", fields[0])
			}
			v, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return solver.Solution{}, fmt.Errorf("read solution: value for %s: %w", fields[0], err)
			}
			values[j] = v
			haveValues = true
			remaining--
			if remaining == 0 {
				inColumns = false
			}
		}
	}
	if err := sc.Err(); err != nil {
		return solver.Solution{}, fmt.Errorf("read solution: %w", err)
	}

	if haveValues {
		sol.Values = values
	}
	return sol, nil
}

func mapStatus(s string) solver.Status {
	switch strings.ToLower(s) {
	case "optimal":
		return solver.StatusOptimal
	case "infeasible":
		return solver.StatusInfeasible
	case "unbounded":
		return solver.StatusUnbounded
	case "time limit reached":
		return solver.StatusTimeLimit
	default:
		return solver.StatusError
	}
}

func senseLP(s model.Sense) string {
	switch s {
	case model.Le:
		return "<="
	case model.Ge:
		return ">="
	default:
		return "="
	}
}

func signed(v float64, first bool) string {
	if first {
		return num(v)
	}
	if v < 0 {
		return "- " + num(-v)
	}
	return "+ " + num(v)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func isPosInf(v float64) bool { return v > 1e29 }
func isNegInf(v float64) bool { return v < -1e29 }

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
