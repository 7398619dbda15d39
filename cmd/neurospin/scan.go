package main

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/neurospin/internal/automation"
	"github.com/san-kum/neurospin/internal/export"
	"github.com/san-kum/neurospin/internal/logging"
	"github.com/san-kum/neurospin/internal/scanner"
	"github.com/san-kum/neurospin/internal/sim"
	"github.com/san-kum/neurospin/internal/spin"
	"github.com/san-kum/neurospin/internal/storage"
)

var (
	stepMs  float64
	sweep   bool
	noSave  bool
	jsonOut string
)

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "run a scan headlessly and record it",
		RunE:  runScan,
	}
	addSelectionFlags(cmd)
	cmd.Flags().Float64Var(&stepMs, "step", 1000.0/60, "frame interval in ms")
	cmd.Flags().BoolVar(&sweep, "sweep", false, "repeat the scan at every field strength")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	cmd.Flags().StringVar(&jsonOut, "json", "", "also export the run as json (- for stdout)")
	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := logging.Console(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	simCfg := sim.Config{
		Timing:    cfg.ScanTiming(),
		FrameStep: time.Duration(stepMs * float64(time.Millisecond)),
	}
	st := scanner.DefaultState()
	st.FieldStrength = cfg.FieldStrength
	sel := cfg.Selection()

	fields := []float64{cfg.FieldStrength}
	var results []*sim.Result
	if sweep {
		fields = scanner.FieldStrengths
		fc := spin.DefaultConfig()
		fc.Seed = cfg.Seed
		results, err = sim.NewSweep(fc, scanMetrics).Run(ctx, st, simCfg, fields)
	} else {
		s := sim.New(newField(cfg))
		for _, m := range scanMetrics() {
			s.AddMetric(m)
		}
		var res *sim.Result
		res, err = s.Run(ctx, st, simCfg)
		results = []*sim.Result{res}
	}
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	var store *storage.Store
	if !noSave {
		if store, err = newStore(cfg); err != nil {
			return err
		}
	}

	for i, res := range results {
		meta := storage.RunMetadata{
			Region:        string(sel.Region),
			Sequence:      string(sel.Sequence),
			FieldStrength: fields[i],
			DurationMs:    res.Final.ElapsedMs,
			Completed:     res.Final.Progress >= 100,
			Metrics:       res.Metrics,
		}
		fmt.Printf("scan: %s %s at %.1fT, %d frames\n", sel.Region, sel.Sequence, fields[i], len(res.Frames))
		if err := printMetrics(res.Metrics); err != nil {
			return err
		}

		if store != nil {
			id, err := store.SaveRun(meta, res.Frames)
			if err != nil {
				return err
			}
			meta.ID = id
			log.Info().Str("run", id).Msg("run saved")
			fmt.Printf("saved: %s\n", id)
		}
		if jsonOut != "" {
			path := jsonOut
			if len(results) > 1 && path != "-" {
				path = fmt.Sprintf("%s.%.1fT.json", jsonOut, fields[i])
			}
			if err := export.ExportJSON(path, export.NewRunData(meta, res.Frames)); err != nil {
				return err
			}
		}
		fmt.Println()
	}
	return nil
}

func printMetrics(m map[string]float64) error {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, k := range names {
		fmt.Fprintf(w, "  %s\t%.4f\n", k, m[k])
	}
	return w.Flush()
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		RunE:  listRuns,
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	runs, err := storage.New(cfg.DataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tREGION\tSEQ\tB0\tTIME\tDURATION\tDONE")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.1fT\t%s\t%.0fms\t%v\n",
			run.ID,
			run.Region,
			run.Sequence,
			run.FieldStrength,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.DurationMs,
			run.Completed,
		)
	}
	return w.Flush()
}

func newPlotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the net magnetization of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
}

func plotRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st := storage.New(cfg.DataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	frames, err := st.LoadFrames(args[0])
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("protocol: %s %s at %.1fT\n", meta.Region, meta.Sequence, meta.FieldStrength)
	fmt.Printf("samples: %d\n\n", len(frames))

	mxy := make([]float64, len(frames))
	mz := make([]float64, len(frames))
	for i, f := range frames {
		mxy[i], mz[i] = f.Mxy, f.Mz
	}
	for _, series := range []struct {
		data    []float64
		caption string
	}{
		{mxy, "transverse magnetization Mxy"},
		{mz, "longitudinal magnetization Mz"},
	} {
		graph := asciigraph.Plot(series.data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(series.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return printMetrics(meta.Metrics)
}

func newExportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			st := storage.New(cfg.DataDir)
			meta, err := st.Load(args[0])
			if err != nil {
				return err
			}
			frames, err := st.LoadFrames(args[0])
			if err != nil {
				return err
			}
			return export.ExportJSON(out, export.NewRunData(*meta, frames))
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output path (- for stdout)")
	return cmd
}

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session [scenario.yaml]",
		Short: "run a scripted sequence of scans",
		Args:  cobra.ExactArgs(1),
		RunE:  runSession,
	}
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the runs")
	return cmd
}

func runSession(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	fc := spin.DefaultConfig()
	fc.Seed = cfg.Seed
	r := &automation.Runner{
		Field:   fc,
		Timing:  cfg.ScanTiming(),
		Base:    cfg.Selection(),
		B0:      cfg.FieldStrength,
		Metrics: scanMetrics,
		Log:     logging.Console(cfg.LogLevel),
		OnStep: func(res automation.StepResult) {
			fmt.Printf("step %d: %s %s at %.1fT\n", res.Index+1, res.Selection.Region, res.Selection.Sequence, res.FieldStrength)
			if note := sc.Steps[res.Index].Note; note != "" {
				fmt.Printf("  %s\n", note)
			}
			_ = printMetrics(res.Result.Metrics)
		},
	}
	if !noSave {
		if r.Store, err = newStore(cfg); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	fmt.Printf("session: %s (%d steps)\n", sc.Name, len(sc.Steps))
	if sc.Description != "" {
		fmt.Println(sc.Description)
	}
	results, err := r.RunScenario(ctx, sc)
	fmt.Printf("\ncompleted %d/%d steps\n", len(results), len(sc.Steps))
	return err
}
