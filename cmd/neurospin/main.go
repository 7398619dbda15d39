package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/san-kum/neurospin/internal/config"
	"github.com/san-kum/neurospin/internal/license"
	"github.com/san-kum/neurospin/internal/logging"
	"github.com/san-kum/neurospin/internal/metrics"
	"github.com/san-kum/neurospin/internal/scanner"
	"github.com/san-kum/neurospin/internal/sim"
	"github.com/san-kum/neurospin/internal/spin"
	"github.com/san-kum/neurospin/internal/storage"
	"github.com/san-kum/neurospin/internal/tissue"
	"github.com/san-kum/neurospin/internal/update"
	"github.com/san-kum/neurospin/internal/viz"
)

var (
	configFile string
	dataDir    string
	logLevel   string
	region     string
	sequence   string
	b0         float64
	preset     string
	theme      string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "neurospin",
		Short:         "MRI physics simulator for the terminal",
		Version:       update.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runConsole,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "neurospin.yaml", "config file path (yaml)")
	pf.StringVar(&dataDir, "data", "", "data directory (overrides config)")
	pf.StringVar(&logLevel, "log-level", "", "log level: DEBUG, INFO, WARN, ERROR")

	addSelectionFlags(rootCmd)
	rootCmd.Flags().StringVar(&theme, "theme", "", fmt.Sprintf("color theme %v", viz.ThemeNames()))

	rootCmd.AddCommand(
		newScanCmd(),
		newSessionCmd(),
		newListCmd(),
		newPlotCmd(),
		newExportCmd(),
		newCurvesCmd(),
		newTissuesCmd(),
		newKSpaceCmd(),
		newSnapshotCmd(),
		newExplainCmd(),
		newPresetsCmd(),
		newLicenseCmd(),
		newUpdateCmd(),
		newConfigCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addSelectionFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&region, "region", "", "anatomical region (brain, spine, knee, abdomen)")
	cmd.Flags().StringVar(&sequence, "sequence", "", "pulse sequence (t1, t2, flair, pd)")
	cmd.Flags().Float64Var(&b0, "field", 0, "field strength in tesla (1.5 or 3)")
	cmd.Flags().StringVar(&preset, "preset", "", "protocol preset (see presets)")
}

// loadConfig resolves the config file and environment, then applies the
// preset and command line flags in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Resolve(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if theme != "" {
		cfg.Theme = theme
	}

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg.ApplyPreset(*p)
	}

	flags := cmd.Flags()
	if flags.Lookup("region") != nil && flags.Changed("region") {
		r, err := tissue.ParseRegion(region)
		if err != nil {
			return nil, err
		}
		cfg.Region = string(r)
	}
	if flags.Lookup("sequence") != nil && flags.Changed("sequence") {
		s, err := tissue.ParseSequence(sequence)
		if err != nil {
			return nil, err
		}
		cfg.Sequence = string(s)
	}
	if flags.Lookup("field") != nil && flags.Changed("field") {
		cfg.FieldStrength = b0
	}
	return cfg, cfg.Validate()
}

func newField(cfg *config.Config) *spin.Field {
	fc := spin.DefaultConfig()
	fc.Seed = cfg.Seed
	return spin.NewField(fc)
}

func newStore(cfg *config.Config) (*storage.Store, error) {
	st := storage.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st, nil
}

func newActivator(cfg *config.Config, st *storage.Store, log zerolog.Logger) *license.Activator {
	gw := license.NewGateway(cfg.License.URL, cfg.License.Timeout, log)
	return license.NewActivator(gw, st, log)
}

func scanMetrics() []sim.Metric {
	return []sim.Metric{
		metrics.NewPeakSignal(),
		metrics.NewMeanSignal(),
		metrics.NewRecovery(),
		metrics.NewExcitations(),
		metrics.NewCoverage(),
	}
}

// runConsole launches the interactive console. Logs go to a file in the
// data directory so they never draw over the UI.
func runConsole(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st, err := newStore(cfg)
	if err != nil {
		return err
	}
	log, closer, err := logging.File(filepath.Join(cfg.DataDir, "neurospin.log"), cfg.LogLevel)
	if err != nil {
		return err
	}
	defer closer.Close()

	status := newActivator(cfg, st, log).Status()
	if cfg.License.Require && !status.Active {
		return fmt.Errorf("license required (%s): run `neurospin license activate <key>`", status.Reason)
	}
	owner := ""
	if status.Active {
		owner = status.Record.Owner
	}

	// Frame is read only, the recorder and the console share one field
	spins := newField(cfg)
	recorder := sim.NewRecorder(spins, scanMetrics()...)
	feed := viz.NewSelectionFeed()

	var ctrl *scanner.Controller
	sel := cfg.Selection()
	ctrl = scanner.NewController(scanner.Options{
		Timing:    cfg.ScanTiming(),
		Logger:    log,
		Initial:   &scanner.State{FieldStrength: cfg.FieldStrength, MagnetOn: true},
		Selection: &sel,
		OnSelect:  feed.Notify,
		OnTick:    recorder.Record,
		OnComplete: func(final scanner.State) {
			s := ctrl.Selection()
			meta := storage.RunMetadata{
				Region:        string(s.Region),
				Sequence:      string(s.Sequence),
				FieldStrength: final.FieldStrength,
				DurationMs:    final.ElapsedMs,
				Completed:     true,
				Metrics:       recorder.Metrics(),
			}
			id, err := st.SaveRun(meta, recorder.Frames())
			if err != nil {
				log.Error().Err(err).Msg("failed to save run")
				return
			}
			log.Info().Str("run", id).Msg("run saved")
		},
	})
	defer ctrl.Close()

	var updates *update.Checker
	if cfg.Update.Enabled {
		updates = update.NewChecker(cfg.Update.URL, cfg.Update.Timeout, log)
	}

	model := viz.NewModel(viz.Options{
		Controller: ctrl,
		Field:      spins,
		Selections: feed.C(),
		Updates:    updates,
		Owner:      owner,
		Theme:      cfg.Theme,
		FPS:        cfg.FPS,
		Logger:     log,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("console: %w", err)
	}
	return nil
}
