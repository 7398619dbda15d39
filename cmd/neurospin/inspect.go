package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/neurospin/internal/config"
	"github.com/san-kum/neurospin/internal/explain"
	"github.com/san-kum/neurospin/internal/export"
	"github.com/san-kum/neurospin/internal/kspace"
	"github.com/san-kum/neurospin/internal/logging"
	"github.com/san-kum/neurospin/internal/phantom"
	"github.com/san-kum/neurospin/internal/relax"
	"github.com/san-kum/neurospin/internal/scanner"
	"github.com/san-kum/neurospin/internal/spin"
	"github.com/san-kum/neurospin/internal/tissue"
	"github.com/san-kum/neurospin/internal/viz"
)

var (
	svgOut    string
	cursorMs  float64
	phaseName string
	wallTime  float64
	progress  float64
	width     int
)

func newCurvesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "curves",
		Short: "plot T1 recovery and T2 decay for a region",
		RunE:  runCurves,
	}
	addSelectionFlags(cmd)
	cmd.Flags().StringVar(&svgOut, "svg", "", "write the curves to an svg file")
	cmd.Flags().Float64Var(&cursorMs, "cursor", 0, "mark a time in ms")
	return cmd
}

func runCurves(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	r := tissue.Region(cfg.Region)
	curves := relax.ForRegion(r)

	if svgOut != "" {
		if err := export.WriteFile(svgOut, export.CurvesToSVG(curves, 800, 400, relax.Cursor(cursorMs))); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgOut)
		return nil
	}

	fmt.Printf("region: %s, window %.0fms\n\n", r, relax.DefaultWindowMs)
	for _, c := range curves {
		graph := asciigraph.PlotMany([][]float64{c.Mz, c.Mxy},
			asciigraph.Height(8),
			asciigraph.Width(70),
			asciigraph.LowerBound(0),
			asciigraph.UpperBound(1),
			asciigraph.SeriesColors(asciigraph.Green, asciigraph.Cyan),
			asciigraph.Caption(fmt.Sprintf("%s: Mz (T1 %.0fms) green, Mxy (T2 %.0fms) cyan", c.Tissue.Name, c.Tissue.T1, c.Tissue.T2)),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func newTissuesCmd() *cobra.Command {
	var regionFilter string
	cmd := &cobra.Command{
		Use:   "tissues",
		Short: "show the tissue table and contrast per sequence",
		RunE: func(cmd *cobra.Command, args []string) error {
			list := tissue.All()
			if regionFilter != "" {
				r, err := tissue.ParseRegion(regionFilter)
				if err != nil {
					return err
				}
				list = tissue.ForRegion(r)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprint(w, "ID\tNAME\tT1\tT2\tPD")
			for _, s := range tissue.Sequences {
				fmt.Fprintf(w, "\t%s", s.Short())
			}
			fmt.Fprintln(w)
			for _, t := range list {
				fmt.Fprintf(w, "%s\t%s\t%.0f\t%.0f\t%.2f", t.ID, t.Name, t.T1, t.T2, t.PD)
				for _, s := range tissue.Sequences {
					fmt.Fprintf(w, "\t%.0f", tissue.Brightness(t.ID, s))
				}
				fmt.Fprintln(w)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&regionFilter, "region", "", "only tissues of this region")
	return cmd
}

func newKSpaceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kspace",
		Short: "show how acquisition progress maps to image quality",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PROGRESS\tLINES\tCENTER\tBLUR\tOPACITY\tGY")
			for p := 0.0; p <= 100; p += 10 {
				rec := kspace.Reconstruct(p, p < 100)
				fmt.Fprintf(w, "%.0f%%\t%d/%d\t%v\t%.2f\t%.2f\t%+.2f\n",
					p, rec.LinesFilled, kspace.TotalLines, rec.CrossedCenter,
					rec.Blur, rec.Opacity, kspace.PhaseEncodeStep(rec.LinesFilled))
			}
			return w.Flush()
		},
	}
}

func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "render the spin field and the reconstruction at one instant",
		RunE:  runSnapshot,
	}
	addSelectionFlags(cmd)
	cmd.Flags().StringVar(&phaseName, "phase", "alignment", "phase (random, alignment, excitation, relaxation)")
	cmd.Flags().Float64Var(&wallTime, "time", 0, "wall time in seconds")
	cmd.Flags().Float64Var(&progress, "progress", 100, "scan progress in percent")
	cmd.Flags().StringVar(&svgOut, "svg", "", "write the spin field to an svg file")
	return cmd
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	st := scanner.DefaultState()
	st.FieldStrength = cfg.FieldStrength
	st.Phase = scanner.Phase(phaseName)
	switch st.Phase {
	case scanner.PhaseRandom:
		st.MagnetOn = false
	case scanner.PhaseAlignment:
	case scanner.PhaseExcitation, scanner.PhaseRelaxation:
		st.Scanning = true
		st.Progress = progress
		if st.Phase == scanner.PhaseRelaxation {
			st.SinceExcitationMs = wallTime * 1000
		}
	default:
		return fmt.Errorf("unknown phase: %s", phaseName)
	}

	f := newField(cfg)
	vectors := f.Frame(st, wallTime)
	if svgOut != "" {
		if err := export.WriteFile(svgOut, export.SpinsToSVG(vectors, 600, 400)); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgOut)
		return nil
	}

	view := viz.NewSpinView(f.Config(), f.Projection(), 40, 16)
	fmt.Print(view.Draw(vectors).String())
	mxy, mz := spin.NetMagnetization(vectors)
	fmt.Printf("\nphase: %s\nMxy %.3f  Mz %.3f\n\n", st.Phase.Label(), mxy, mz)

	sel := cfg.Selection()
	rec := kspace.Reconstruct(progress, progress < 100)
	fmt.Printf("%s %s at %.0f%% (%d lines, blur %.1f)\n", sel.Region, sel.Sequence, progress, rec.LinesFilled, rec.Blur)
	fmt.Println(phantom.String(phantom.Slice(sel.Region, sel.Sequence, rec, 48, 20)))
	return nil
}

func newExplainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explain",
		Short: "explain the contrast of a region and sequence",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log := logging.Console(cfg.LogLevel)
			sel := cfg.Selection()
			text := explain.Fetch(context.Background(), explain.Static{}, sel.Region, sel.Sequence, log)
			fmt.Println(explain.Render(text, width))
			return nil
		},
	}
	addSelectionFlags(cmd)
	cmd.Flags().IntVar(&width, "width", 80, "wrap width, 0 to disable")
	return cmd
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list protocol presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tREGION\tSEQ\tB0\tDESCRIPTION")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%s\t%s\t%.1fT\t%s\n", name, p.Region, p.Sequence.Short(), p.FieldStrength, p.Description)
			}
			return w.Flush()
		},
	}
}
