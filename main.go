package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	_ "github.com/flexkraft/esmod/blocks"
	"github.com/flexkraft/esmod/config"
	"github.com/flexkraft/esmod/model"
	"github.com/flexkraft/esmod/plot"
	"github.com/flexkraft/esmod/repository"
	"github.com/flexkraft/esmod/results"
	"github.com/flexkraft/esmod/solver"
	"github.com/flexkraft/esmod/solver/highs"
	"github.com/flexkraft/esmod/solver/simplex"
)

func main() {

	scenarioPath := flag.String("scenario", "", "path to the scenario JSON file")
	outDir := flag.String("out", "", "output directory (defaults to the scenario's output.dir or its own directory)")
	solverName := flag.String("solver", "", "override the scenario's solver (simplex|highs)")
	archivePath := flag.String("archive", "runs.sqlite", "sqlite run archive, empty to disable")
	listRuns := flag.Int("list", 0, "list the N most recent archived runs and exit")
	listScenario := flag.String("list-scenario", "", "restrict -list to one scenario name")
	doPlot := flag.Bool("plot", false, "render the scenario's configured plots")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if *listRuns > 0 {
		if err := listArchive(*archivePath, *listScenario, *listRuns); err != nil {
			slog.Error("List failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if *scenarioPath == "" {
		slog.Error("No scenario given, use -scenario")
		os.Exit(2)
	}

	// a ctrl-c interrupt cancels the solve and exits without outputs
	ctx, cancel := context.WithCancel(context.Background())
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt)
	go func() {
		<-signalChan
		slog.Info("Interrupted, cancelling solve")
		cancel()
	}()

	if err := run(ctx, *scenarioPath, *outDir, *solverName, *archivePath, *doPlot); err != nil {
		slog.Error("Run failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, scenarioPath, outDir, solverOverride, archivePath string, doPlot bool) error {
	started := time.Now()

	scenario, err := config.Read(scenarioPath)
	if err != nil {
		return err
	}
	slog.Info("Loaded scenario", "name", scenario.Name, "horizon", scenario.Horizon,
		"blocks", len(scenario.Blocks), "arcs", len(scenario.Arcs))

	set, err := scenario.LoadSeries()
	if err != nil {
		return err
	}
	top, err := scenario.Topology(set)
	if err != nil {
		return err
	}

	sys, err := model.Assemble(top, scenario.Horizon)
	if err != nil {
		return err
	}
	mip, err := sys.Compile()
	if err != nil {
		return err
	}
	slog.Info("Assembled model",
		"variables", humanize.Comma(int64(mip.Cols)),
		"binaries", humanize.Comma(int64(mip.NumBinaries())),
		"constraints", humanize.Comma(int64(len(mip.Rows))))

	backend, err := pickSolver(scenario.Solver, solverOverride)
	if err != nil {
		return err
	}
	opts := solver.Options{
		TimeLimit: time.Duration(scenario.Solver.TimeLimitSecs * float64(time.Second)),
		MIPGap:    scenario.Solver.MIPGap,
	}
	slog.Info("Solving", "solver", backend.Name(), "timeLimit", opts.TimeLimit, "mipGap", opts.MIPGap)

	sol, err := backend.Solve(ctx, mip, opts)
	if err != nil {
		return err
	}
	slog.Info("Solved", "status", sol.Status, "objective", sol.Objective,
		"nodes", sol.Stats.Nodes, "duration", sol.Stats.Duration)

	if outDir == "" {
		outDir = scenario.Output.Dir
	}
	if outDir == "" {
		outDir = filepath.Dir(scenarioPath)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	table := results.Table(sys, mip, sol, set, scenario.Output.IncludeArcFlows)
	if err := results.WriteTable(filepath.Join(outDir, scenario.Name+"_results.csv"), table); err != nil {
		return err
	}

	costs, err := results.Costs(sys, mip, sol)
	if err != nil {
		return err
	}
	if err := results.WriteJSON(filepath.Join(outDir, scenario.Name+"_costs.json"), costs); err != nil {
		return err
	}
	slog.Info("Cost breakdown", "costs", costs.Costs, "revenue", costs.Revenue, "net", costs.Net)

	meta := results.NewMetadata(scenario.Name, scenario.Parameters, sys, mip, backend.Name(), sol, started)
	if err := results.WriteJSON(filepath.Join(outDir, scenario.Name+"_meta.json"), meta); err != nil {
		return err
	}

	if archivePath != "" {
		repo, err := repository.New(archivePath)
		if err != nil {
			return err
		}
		if err := repo.AddRun(meta); err != nil {
			return err
		}
		slog.Debug("Archived run", "id", meta.RunID)
	}

	if doPlot {
		for _, columns := range scenario.Output.Plots {
			path := filepath.Join(outDir, plot.FileName(columns))
			if err := plot.Timeseries(table, columns, path); err != nil {
				return err
			}
			slog.Info("Wrote plot", "path", path)
		}
	}

	return nil
}

// listArchive prints the most recent archived runs, newest first.
func listArchive(archivePath, scenario string, limit int) error {
	if archivePath == "" {
		return fmt.Errorf("no archive configured, -archive is empty")
	}
	repo, err := repository.New(archivePath)
	if err != nil {
		return err
	}
	var runs []repository.StoredRun
	if scenario != "" {
		runs, err = repo.GetRunsForScenario(scenario, limit)
	} else {
		runs, err = repo.GetRuns(limit)
	}
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Printf("%s  %-24s %-12s %14g  %s\n",
			r.ID, r.Scenario, r.Status, r.Objective, humanize.Time(r.FinishedAt))
	}
	return nil
}

func pickSolver(cfg config.SolverConfig, override string) (solver.Solver, error) {
	name := cfg.Name
	if override != "" {
		name = override
	}
	switch name {
	case "", "simplex":
		return simplex.New(), nil
	case "highs":
		return highs.New(cfg.HighsBin), nil
	default:
		return nil, &model.ConfigError{Block: "solver", Field: "name",
			Reason: "unknown solver " + name}
	}
}
