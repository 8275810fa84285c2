package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/san-kum/orrery/internal/analysis"
	"github.com/san-kum/orrery/internal/celestial"
	"github.com/san-kum/orrery/internal/config"
	"github.com/san-kum/orrery/internal/metrics"
	"github.com/san-kum/orrery/internal/scene"
	"github.com/san-kum/orrery/internal/sim"
	"github.com/san-kum/orrery/internal/storage"
	"github.com/san-kum/orrery/internal/telemetry"
	"github.com/san-kum/orrery/internal/tui"
)

var (
	configFile string
	profile    string

	runTextfile  string
	liveTextfile string

	plotOpts     seriesFlags
	analyzeOpts  seriesFlags
	lyapunovOpts seriesFlags

	// live
	speed int

	// lyapunov / sweep
	perturbation float64
	sweepDts     []float64
	sweepTime    float64

	// bench
	benchWorkers []int
	ensembleRuns int

	exportOut string
	scenesOut string

	v      *viper.Viper
	cfg    *config.Config
	logger = log.NewNopLogger()
)

// seriesFlags select what a plotting command draws. Each command has its
// own copy.
type seriesFlags struct {
	body   string
	coord  string
	width  int
	height int
}

// flags whose names differ from their config key.
var flagKeys = map[string]string{
	"data":      config.KeyDataDir,
	"log-level": config.KeyLogLevel,
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "orrery",
		Short:             "celestial n-body simulation",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: loadConfig,
	}

	def := config.DefaultConfig()
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&profile, "profile", "", "named run profile ("+strings.Join(config.ListProfiles(), ", ")+")")
	pf.String("data", def.DataDir, "data directory")
	pf.String("log-level", def.LogLevel, "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [scene]",
		Short: "run a scene and store its trajectory",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addSimFlags(runCmd.Flags(), def)
	runCmd.Flags().StringVar(&runTextfile, "textfile", "", "write prometheus metrics to this file after the run")

	liveCmd := &cobra.Command{
		Use:   "live [scene]",
		Short: "run a scene with a live telemetry view",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addSimFlags(liveCmd.Flags(), def)
	liveCmd.Flags().IntVar(&speed, "speed", 1, "steps per frame")
	liveCmd.Flags().StringVar(&liveTextfile, "textfile", "", "write prometheus metrics to this file on exit")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a body's trajectory (latest run by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  plotRun,
	}
	plotOpts.register(plotCmd.Flags(), "r")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "orbital period, phase portrait and poincare section of a stored run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  analyzeRun,
	}
	analyzeOpts.register(analyzeCmd.Flags(), "x")

	lyapunovCmd := &cobra.Command{
		Use:   "lyapunov [scene]",
		Short: "estimate the largest lyapunov exponent of a scene",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLyapunov,
	}
	addSimFlags(lyapunovCmd.Flags(), def)
	lyapunovOpts.registerSize(lyapunovCmd.Flags())
	lyapunovCmd.Flags().Float64Var(&perturbation, "perturbation", 1e-6, "initial displacement of the first free body")

	sweepCmd := &cobra.Command{
		Use:   "sweep [scene]",
		Short: "energy drift across timesteps",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addSimFlags(sweepCmd.Flags(), def)
	sweepCmd.Flags().Float64SliceVar(&sweepDts, "dts", []float64{0.01, 0.05, 0.1, 0.5, 1}, "timesteps to compare")
	sweepCmd.Flags().Float64Var(&sweepTime, "time", 100, "simulated time per timestep")
	analyzeCmd.AddCommand(lyapunovCmd, sweepCmd)

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as json",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (stdout when empty)")

	scenesCmd := &cobra.Command{
		Use:   "scenes [name]",
		Short: "list preset scenes, or write one as yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listScenes,
	}
	scenesCmd.Flags().StringVarP(&scenesOut, "out", "o", "", "write the named scene to this yaml file")

	benchCmd := &cobra.Command{
		Use:   "bench [scene]",
		Short: "benchmark the stepper",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchScene,
	}
	addSimFlags(benchCmd.Flags(), def)
	benchCmd.Flags().IntSliceVar(&benchWorkers, "worker-counts", []int{1, 2, 4, 8}, "gravity worker counts to compare")
	benchCmd.Flags().IntVar(&ensembleRuns, "ensemble", 0, "also run this many seeds concurrently")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "manage configuration",
	}
	configInitCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write the default configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE:  initConfig,
	}
	configShowCmd := &cobra.Command{
		Use:   "show",
		Short: "print the resolved configuration",
		Args:  cobra.NoArgs,
		RunE:  showConfig,
	}
	configCmd.AddCommand(configInitCmd, configShowCmd)

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, analyzeCmd, exportCmd, scenesCmd, benchCmd, configCmd)
	return rootCmd
}

func addSimFlags(fs *pflag.FlagSet, def *config.Config) {
	fs.String("scene", def.Scene, "preset name or scene yaml file")
	fs.Float64("g", def.G, "gravitational constant")
	fs.Float64("dt", def.Dt, "timestep")
	fs.Int("steps", def.Steps, "number of steps")
	fs.Int64("seed", def.Seed, "random seed for belts and orbit phases")
	fs.String("scheme", def.Scheme, "integration scheme (kdk, verlet, euler)")
	fs.Float64("min-separation", def.MinSeparation, "pairwise separation clamp")
	fs.Int("workers", def.Workers, "gravity workers")
	fs.Int("sample-every", def.SampleEvery, "steps between stored samples")
	fs.Float64("steps-per-second", def.StepsPerSecond, "pace the run (0 = unpaced)")
}

func (o *seriesFlags) register(fs *pflag.FlagSet, defCoord string) {
	fs.StringVar(&o.body, "body", "", "body name (first free body when empty)")
	fs.StringVar(&o.coord, "coord", defCoord, "x, y, z, vx, vy, vz, spin or r")
	o.registerSize(fs)
}

func (o *seriesFlags) registerSize(fs *pflag.FlagSet) {
	fs.IntVar(&o.width, "width", 80, "plot width")
	fs.IntVar(&o.height, "height", 12, "plot height")
}

// loadConfig layers defaults, profile, config file, environment and the
// flags of the running command into cfg.
func loadConfig(cmd *cobra.Command, args []string) error {
	v = config.NewViper()
	if profile != "" {
		p := config.GetProfile(profile)
		if p == nil {
			return fmt.Errorf("unknown profile: %s (available: %s)", profile, strings.Join(config.ListProfiles(), ", "))
		}
		config.SetDefaults(v, p)
	}

	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok {
			key = strings.ReplaceAll(f.Name, "-", "_")
		}
		if !isConfigKey(key) {
			return
		}
		if err := v.BindPFlag(key, f); err != nil {
			bindErr = err
		}
	})
	if bindErr != nil {
		return bindErr
	}

	var err error
	cfg, err = config.FromViper(v, configFile)
	if err != nil {
		return err
	}
	logger = newLogger(os.Stderr, cfg.LogLevel)
	level.Debug(logger).Log("msg", "configuration loaded", "scene", cfg.Scene, "dt", cfg.Dt, "steps", cfg.Steps, "scheme", cfg.Scheme)
	return nil
}

func isConfigKey(key string) bool {
	switch key {
	case config.KeyScene, config.KeyG, config.KeyDt, config.KeySteps, config.KeySeed,
		config.KeyScheme, config.KeyMinSeparation, config.KeyWorkers, config.KeySampleEvery,
		config.KeyStepsPerSecond, config.KeyDataDir, config.KeyLogLevel:
		return true
	}
	return false
}

func newLogger(w io.Writer, lvl string) log.Logger {
	l := log.NewLogfmtLogger(log.NewSyncWriter(w))
	switch strings.ToLower(lvl) {
	case "debug":
		l = level.NewFilter(l, level.AllowDebug())
	case "warn":
		l = level.NewFilter(l, level.AllowWarn())
	case "error":
		l = level.NewFilter(l, level.AllowError())
	default:
		l = level.NewFilter(l, level.AllowInfo())
	}
	return log.With(l, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
}

func sceneRef(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfg.Scene
}

// buildSystem opens a scene and builds a ready-to-step registry from it.
func buildSystem(sc *scene.Scene, c *config.Config, seed int64) (*celestial.System, error) {
	sys := celestial.New(c.Options()...)
	if err := sc.Build(sys, rand.New(rand.NewSource(seed))); err != nil {
		return nil, fmt.Errorf("scene %s: %w", sc.Name, err)
	}
	return sys, nil
}

func simConfig(c *config.Config) sim.Config {
	return sim.Config{
		Dt:             c.Dt,
		Steps:          c.Steps,
		SampleEvery:    c.SampleEvery,
		ValidateState:  true,
		StepsPerSecond: c.StepsPerSecond,
	}
}

func runMetrics() []sim.Metric {
	return []sim.Metric{
		metrics.NewEnergy(),
		metrics.NewEnergyDrift(),
		metrics.NewMomentumDrift(),
		metrics.NewOrbitDeviation(),
		metrics.NewStability(1e4),
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	sc, err := scene.Open(sceneRef(args))
	if err != nil {
		return err
	}
	sys, err := buildSystem(sc, cfg, cfg.Seed)
	if err != nil {
		return err
	}

	runner := sim.New(sys, sim.WithLogger(logger))
	for _, m := range runMetrics() {
		runner.AddMetric(m)
	}
	collector := telemetry.NewCollector(sc.Name)
	collector.Attach(sys)
	runner.AddObserver(collector)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	level.Info(logger).Log("msg", "scene built", "scene", sc.Name, "bodies", sys.Len(), "scheme", cfg.Scheme, "workers", cfg.Workers)
	start := time.Now()
	result, runErr := runner.Run(ctx, simConfig(cfg))
	elapsed := time.Since(start)
	if result == nil {
		return runErr
	}

	st := storage.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(storage.RunInfo{
		Scene:  sc.Name,
		Seed:   cfg.Seed,
		G:      cfg.G,
		Dt:     cfg.Dt,
		Steps:  cfg.Steps,
		Scheme: cfg.Scheme,
	}, result)
	if err != nil {
		return err
	}
	level.Info(logger).Log("msg", "run stored", "id", runID, "steps", result.StepsTaken, "elapsed", elapsed)

	if runTextfile != "" {
		if err := collector.WriteTextfile(runTextfile); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run: %s\n", runID)
	fmt.Fprintf(out, "steps: %d  t=%.2f  elapsed: %v\n", result.StepsTaken, sys.Time(), elapsed.Round(time.Millisecond))
	fmt.Fprintf(out, "energy drift: %.3e\n", result.EnergyDrift)
	printMetrics(out, result.Metrics)
	return runErr
}

func printMetrics(out io.Writer, values map[string]float64) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %-16s %.6g\n", name, values[name])
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	sc, err := scene.Open(sceneRef(args))
	if err != nil {
		return err
	}
	sys, err := buildSystem(sc, cfg, cfg.Seed)
	if err != nil {
		return err
	}

	opts := []tui.Option{tui.WithSpeed(speed)}
	var collector *telemetry.Collector
	if liveTextfile != "" {
		collector = telemetry.NewCollector(sc.Name)
		collector.Attach(sys)
		opts = append(opts, tui.WithObserver(collector))
	}

	final, err := tui.Run(tui.NewModel(sys, sc.Name, cfg.Dt, opts...))
	if err != nil {
		return err
	}
	if collector != nil {
		if err := collector.WriteTextfile(liveTextfile); err != nil {
			return err
		}
	}
	return final.Err()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(cfg.DataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENE\tTIME\tSTEPS\tDT\tSCHEME\tDRIFT")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%g\t%s\t%.2e\n",
			run.ID,
			run.Scene,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.StepsTaken,
			run.Dt,
			run.Scheme,
			run.EnergyDrift,
		)
	}
	return w.Flush()
}

// loadRun resolves a run id, defaulting to the latest run.
func loadRun(st *storage.Store, args []string) (*storage.RunMetadata, *storage.Trajectory, error) {
	var (
		meta *storage.RunMetadata
		err  error
	)
	if len(args) == 0 || args[0] == "latest" {
		meta, err = st.Latest()
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, errors.New("no runs found")
		}
	} else {
		meta, err = st.Load(args[0])
	}
	if err != nil {
		return nil, nil, err
	}

	traj, err := st.LoadStates(meta.ID)
	if err != nil {
		return nil, nil, err
	}
	if len(traj.Times) == 0 {
		return nil, nil, fmt.Errorf("run %s has no samples", meta.ID)
	}
	return meta, traj, nil
}

// pickBody resolves --body, defaulting to the first body that moves.
func pickBody(traj *storage.Trajectory, name string) (int, error) {
	if name != "" {
		idx, ok := traj.Index(name)
		if !ok {
			return 0, fmt.Errorf("no body named %q", name)
		}
		return idx, nil
	}

	last := len(traj.Times) - 1
	for i := range traj.Names {
		if traj.Positions[0][i] != traj.Positions[last][i] {
			return i, nil
		}
	}
	return 0, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, traj, err := loadRun(storage.New(cfg.DataDir), args)
	if err != nil {
		return err
	}
	idx, err := pickBody(traj, plotOpts.body)
	if err != nil {
		return err
	}
	series, err := traj.Series(idx, plotOpts.coord)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run: %s\n", meta.ID)
	fmt.Fprintf(out, "scene: %s\n", meta.Scene)
	fmt.Fprintf(out, "samples: %d\n\n", len(series))

	graph := asciigraph.Plot(series,
		asciigraph.Height(plotOpts.height),
		asciigraph.Width(plotOpts.width),
		asciigraph.Caption(fmt.Sprintf("%s %s vs time", traj.Names[idx], plotOpts.coord)),
	)
	fmt.Fprintln(out, graph)
	return nil
}

// uniform drops a trailing off-grid sample so the series has one interval.
func uniform(traj *storage.Trajectory) (int, float64) {
	n := len(traj.Times)
	if n < 3 {
		return n, 0
	}
	interval := traj.Times[1] - traj.Times[0]
	if last := traj.Times[n-1] - traj.Times[n-2]; last < interval*0.999 {
		n--
	}
	return n, interval
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	o := analyzeOpts
	meta, traj, err := loadRun(storage.New(cfg.DataDir), args)
	if err != nil {
		return err
	}
	idx, err := pickBody(traj, o.body)
	if err != nil {
		return err
	}
	series, err := traj.Series(idx, o.coord)
	if err != nil {
		return err
	}
	xs, err := traj.Series(idx, "x")
	if err != nil {
		return err
	}
	zs, err := traj.Series(idx, "z")
	if err != nil {
		return err
	}
	vxs, err := traj.Series(idx, "vx")
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	name := traj.Names[idx]
	fmt.Fprintf(out, "run: %s  body: %s  samples: %d\n\n", meta.ID, name, len(series))

	n, interval := uniform(traj)
	if period, ok := analysis.DominantPeriod(series[:n], interval); ok {
		fmt.Fprintf(out, "dominant period of %s: %.2f (%.1f orbits sampled)\n", o.coord, period, traj.Times[n-1]/period)
	} else {
		fmt.Fprintf(out, "dominant period of %s: not found\n", o.coord)
	}

	spectrum := analysis.PowerSpectrum(series[:n])
	if len(spectrum) > 1 {
		fmt.Fprintln(out, asciigraph.Plot(spectrum[1:],
			asciigraph.Height(6),
			asciigraph.Width(o.width),
			asciigraph.Caption("power spectrum"),
		))
	}

	fmt.Fprintf(out, "\norbit trace (x vs z)\n")
	fmt.Fprint(out, analysis.PhasePortraitToASCII(analysis.GeneratePhasePortrait(xs, zs), o.width, o.height))

	fmt.Fprintf(out, "\npoincare section (z = 0 upward: x vs vx)\n")
	fmt.Fprintln(out, analysis.PoincareSectionToASCII(analysis.GeneratePoincareSection(zs, xs, vxs, 0), o.width, o.height))
	return nil
}

// perturb returns a copy of sc with the first free, unparented body moved
// by offset along x.
func perturb(sc *scene.Scene, offset float64) (*scene.Scene, error) {
	c := *sc
	c.Bodies = make([]scene.BodyDef, len(sc.Bodies))
	copy(c.Bodies, sc.Bodies)

	for i, b := range c.Bodies {
		if b.Fixed || b.Parent != "" {
			continue
		}
		if b.Position != nil {
			p := *b.Position
			p[0] += offset
			c.Bodies[i].Position = &p
		} else {
			c.Bodies[i].Distance += offset
		}
		return &c, nil
	}
	return nil, fmt.Errorf("scene %s has no free body to perturb", sc.Name)
}

func runLyapunov(cmd *cobra.Command, args []string) error {
	sc, err := scene.Open(sceneRef(args))
	if err != nil {
		return err
	}

	build := func(offset float64) (*celestial.System, error) {
		p, err := perturb(sc, offset)
		if err != nil {
			return nil, err
		}
		return buildSystem(p, cfg, cfg.Seed)
	}

	div, err := analysis.LyapunovExponent(build, perturbation, cfg.Dt, cfg.Steps)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "scene: %s  dt: %g  steps: %d\n", sc.Name, cfg.Dt, cfg.Steps)
	fmt.Fprintf(out, "largest lyapunov exponent: %.4e\n\n", div.Exponent)
	fmt.Fprintln(out, asciigraph.Plot(div.LogSeparation,
		asciigraph.Height(lyapunovOpts.height),
		asciigraph.Width(lyapunovOpts.width),
		asciigraph.Caption("ln(d/d0) vs time"),
	))
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	sc, err := scene.Open(sceneRef(args))
	if err != nil {
		return err
	}
	build := func() (*celestial.System, error) { return buildSystem(sc, cfg, cfg.Seed) }

	points, err := analysis.DriftSweep(build, sweepDts, sweepTime)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DT\tSTEPS\tDRIFT\tTIME\tSTATUS")
	for _, p := range points {
		status := "ok"
		if p.Diverged {
			status = "diverged"
		}
		fmt.Fprintf(w, "%g\t%d\t%.3e\t%v\t%s\n", p.Dt, p.Steps, p.EnergyDrift, p.Elapsed.Round(time.Microsecond), status)
	}
	return w.Flush()
}

func exportRun(cmd *cobra.Command, args []string) error {
	meta, traj, err := loadRun(storage.New(cfg.DataDir), args)
	if err != nil {
		return err
	}

	if exportOut == "" {
		return storage.WriteJSON(cmd.OutOrStdout(), storage.NewExportData(meta, traj))
	}
	if err := storage.ExportJSON(exportOut, meta, traj); err != nil {
		return err
	}
	level.Info(logger).Log("msg", "run exported", "id", meta.ID, "path", exportOut)
	return nil
}

func listScenes(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if len(args) == 1 {
		sc, err := scene.Get(args[0])
		if err != nil {
			return err
		}
		if scenesOut == "" {
			return errors.New("--out is required when naming a scene")
		}
		return scene.Save(scenesOut, sc)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCENE\tBODIES\tDESCRIPTION")
	for _, name := range scene.List() {
		sc, err := scene.Get(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\t%s\n", name, sc.Count(), sc.Description)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nprofiles: %s\n", strings.Join(config.ListProfiles(), ", "))
	return nil
}

func benchScene(cmd *cobra.Command, args []string) error {
	sc, err := scene.Open(sceneRef(args))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "benchmarking %s (%d steps)\n\n", sc.Name, cfg.Steps)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCHEME\tWORKERS\tBODIES\tTIME\tSTEPS/SEC")

	bench := sim.Config{Dt: cfg.Dt, Steps: cfg.Steps}
	for _, scheme := range []string{"kdk", "verlet", "euler"} {
		for _, workers := range benchWorkers {
			c := *cfg
			c.Scheme = scheme
			c.Workers = workers
			sys, err := buildSystem(sc, &c, cfg.Seed)
			if err != nil {
				return err
			}

			start := time.Now()
			if err := sim.New(sys).RunWithCallback(cmd.Context(), bench, func(*celestial.System) bool { return true }); err != nil {
				return err
			}
			elapsed := time.Since(start)

			fmt.Fprintf(w, "%s\t%d\t%d\t%v\t%.0f\n",
				scheme, workers, sys.Len(), elapsed.Round(time.Microsecond), float64(cfg.Steps)/elapsed.Seconds())
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if ensembleRuns <= 0 {
		return nil
	}

	build := func(seed int64) (*celestial.System, error) { return buildSystem(sc, cfg, seed) }
	start := time.Now()
	results, err := sim.NewEnsemble(build, ensembleRuns, cfg.Seed).
		WithMetrics(func() []sim.Metric { return []sim.Metric{metrics.NewEnergyDrift()} }).
		Run(cmd.Context(), bench)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\nensemble of %d seeds in %v\n", ensembleRuns, time.Since(start).Round(time.Millisecond))
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tSTEPS\tDRIFT")
	for i, r := range results {
		fmt.Fprintf(w, "%d\t%d\t%.3e\n", cfg.Seed+int64(i), r.StepsTaken, r.Metrics["energy_drift"])
	}
	return w.Flush()
}

func initConfig(cmd *cobra.Command, args []string) error {
	path := "orrery.yaml"
	if len(args) == 1 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := config.Save(path, config.DefaultConfig()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}

func showConfig(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	for _, key := range []string{
		config.KeyScene, config.KeyG, config.KeyDt, config.KeySteps, config.KeySeed,
		config.KeyScheme, config.KeyMinSeparation, config.KeyWorkers, config.KeySampleEvery,
		config.KeyStepsPerSecond, config.KeyDataDir, config.KeyLogLevel,
	} {
		fmt.Fprintf(w, "%s\t%v\n", key, v.Get(key))
	}
	return w.Flush()
}
