package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/astrokit/galmag/internal/analysis"
	"github.com/astrokit/galmag/internal/config"
	"github.com/astrokit/galmag/internal/covariance"
	"github.com/astrokit/galmag/internal/export"
	"github.com/astrokit/galmag/internal/fieldmap"
	"github.com/astrokit/galmag/internal/gmf"
	"github.com/astrokit/galmag/internal/sampler"
	"github.com/astrokit/galmag/internal/storage"
	"github.com/astrokit/galmag/internal/trace"
	"github.com/astrokit/galmag/internal/vec"
	"github.com/astrokit/galmag/internal/viz"
)

var (
	dataDir   string
	maxRadius float64
	samples   int
	seed      int64
	step      float64
	longitude float64
	latitude  float64
	sunX      float64
	live      bool
	// profile options
	profilePoints int
	profileLength float64
	// config file
	configFile string
	// trace options
	traceStep  float64
	traceSteps int
	backward   bool
	svgFile    string
	// map options
	mapExtent float64
	mapZ      float64
	mapPoints int
	// histogram options
	histBins int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "galmag",
		Short: "Galactic coherent magnetic field models and uncertainties",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".galmag", "data directory")

	fieldCmd := &cobra.Command{
		Use:   "field [model] [x] [y] [z]",
		Short: "evaluate the field at a galactocentric position (kpc)",
		Args:  cobra.ExactArgs(4),
		RunE:  evalField,
	}
	fieldCmd.Flags().Float64Var(&maxRadius, "max-radius", gmf.DefaultMaxRadiusKpc, "field cutoff radius (kpc)")

	sampleCmd := &cobra.Command{
		Use:   "sample [model]",
		Short: "Monte-Carlo propagation of parameter uncertainties to line-of-sight integrals",
		Args:  cobra.ExactArgs(1),
		RunE:  runSample,
	}
	sampleCmd.Flags().IntVar(&samples, "samples", config.DefaultSamples, "number of Monte-Carlo draws")
	sampleCmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "random seed")
	sampleCmd.Flags().Float64Var(&step, "dl", config.DefaultStep, "integration step (kpc)")
	sampleCmd.Flags().Float64Var(&longitude, "lon", 0, "Galactic longitude (degree)")
	sampleCmd.Flags().Float64Var(&latitude, "lat", 0, "Galactic latitude (degree)")
	sampleCmd.Flags().Float64Var(&sunX, "sun-x", config.DefaultSunX, "observer x position (kpc)")
	sampleCmd.Flags().BoolVar(&live, "live", false, "live progress view")
	sampleCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")

	profileCmd := &cobra.Command{
		Use:   "profile [model]",
		Short: "plot the field magnitude along a line of sight",
		Args:  cobra.ExactArgs(1),
		RunE:  plotProfile,
	}
	profileCmd.Flags().Float64Var(&longitude, "lon", 0, "Galactic longitude (degree)")
	profileCmd.Flags().Float64Var(&latitude, "lat", 0, "Galactic latitude (degree)")
	profileCmd.Flags().Float64Var(&sunX, "sun-x", config.DefaultSunX, "observer x position (kpc)")
	profileCmd.Flags().Float64Var(&profileLength, "length", 25, "profile length (kpc)")
	profileCmd.Flags().IntVar(&profilePoints, "points", 80, "number of profile points")
	profileCmd.Flags().StringVar(&svgFile, "svg", "", "write the profile as SVG to this file")

	traceCmd := &cobra.Command{
		Use:   "trace [model] [x] [y] [z]",
		Short: "trace a field line from a galactocentric position (kpc)",
		Args:  cobra.ExactArgs(4),
		RunE:  traceLine,
	}
	traceCmd.Flags().Float64Var(&traceStep, "step", 0.05, "integration step (kpc)")
	traceCmd.Flags().IntVar(&traceSteps, "steps", 2000, "maximum number of steps")
	traceCmd.Flags().BoolVar(&backward, "backward", false, "trace against the field direction")
	traceCmd.Flags().StringVar(&svgFile, "svg", "", "write the traced line as SVG to this file")

	mapCmd := &cobra.Command{
		Use:   "map [model]",
		Short: "render the field magnitude over a plane z = const",
		Args:  cobra.ExactArgs(1),
		RunE:  renderMap,
	}
	mapCmd.Flags().Float64Var(&mapExtent, "extent", 20, "half-width of the mapped square (kpc)")
	mapCmd.Flags().Float64Var(&mapZ, "z", 0, "height of the mapped plane (kpc)")
	mapCmd.Flags().IntVar(&mapPoints, "points", 60, "grid points per axis")
	mapCmd.Flags().StringVar(&svgFile, "svg", "", "write the map as SVG to this file")

	histCmd := &cobra.Command{
		Use:   "hist [run_id]",
		Short: "histogram of the parallel integrals of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotHistogram,
	}
	histCmd.Flags().IntVar(&histBins, "bins", 30, "number of histogram bins")

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list model variants",
		RunE: func(cmd *cobra.Command, args []string) error {
			covs := make(map[gmf.Variant]bool)
			for _, v := range covariance.Variants() {
				covs[v] = true
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "MODEL\tCOVARIANCE")
			for _, v := range gmf.Variants() {
				has := "-"
				if covs[v] {
					has = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\n", v, has)
			}
			return w.Flush()
		},
	}

	covCmd := &cobra.Command{
		Use:   "covariance [model]",
		Short: "print the parameter correlation matrix",
		Args:  cobra.ExactArgs(1),
		RunE:  printCovariance,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list sampling runs",
		RunE:  listRuns,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	rootCmd.AddCommand(fieldCmd, sampleCmd, profileCmd, traceCmd, mapCmd, histCmd, modelsCmd, covCmd, listCmd, exportCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func parsePosition(args []string) (vec.Vec3, error) {
	coords := make([]float64, 3)
	for i := 0; i < 3; i++ {
		val, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return vec.Vec3{}, fmt.Errorf("invalid coordinate %q: %w", args[i], err)
		}
		coords[i] = val
	}
	return vec.New(coords[0], coords[1], coords[2]), nil
}

func evalField(cmd *cobra.Command, args []string) error {
	variant, err := gmf.ParseVariant(args[0])
	if err != nil {
		return err
	}
	pos, err := parsePosition(args[1:])
	if err != nil {
		return err
	}

	model, err := gmf.New(variant, gmf.WithMaxRadius(maxRadius))
	if err != nil {
		return err
	}
	b, err := model.Field(pos)
	if err != nil {
		return err
	}

	fmt.Printf("(x,y,z)    = (%.4e, %.4e, %.4e) kpc\n", pos.X, pos.Y, pos.Z)
	fmt.Printf("(bx,by,bz) = (%.4e, %.4e, %.4e) microgauss\n", b.X, b.Y, b.Z)
	return nil
}

func runSample(cmd *cobra.Command, args []string) error {
	modelName := args[0]

	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		// CLI flags override config file values
		if !cmd.Flags().Changed("samples") {
			samples = cfg.Samples
		}
		if !cmd.Flags().Changed("seed") {
			seed = cfg.Seed
		}
		if !cmd.Flags().Changed("dl") {
			step = cfg.Step
		}
		if !cmd.Flags().Changed("lon") {
			longitude = cfg.LOS.Longitude
		}
		if !cmd.Flags().Changed("lat") {
			latitude = cfg.LOS.Latitude
		}
		if !cmd.Flags().Changed("sun-x") {
			sunX = cfg.Observer.X
		}
	}

	variant, err := gmf.ParseVariant(modelName)
	if err != nil {
		return err
	}
	model, err := gmf.New(variant)
	if err != nil {
		return err
	}
	engine, err := covariance.New(variant)
	if err != nil {
		return err
	}

	start := vec.New(sunX, cfg.Observer.Y, cfg.Observer.Z)
	dir := sampler.DirectionLB(longitude, latitude)
	smp := sampler.New(model, engine, seed)

	nominal, err := sampler.IntegrateLOS(model, start, dir, step)
	if err != nil {
		return err
	}
	fmt.Printf("line of sight: (l, b) = (%.2f, %.2f) degree\n", longitude, latitude)
	fmt.Printf("nominal: B_par = %.4e uG kpc, B_perp2 = %.4e uG^2 kpc\n",
		nominal.Parallel, nominal.Perp2)

	var stats sampler.Stats
	var results []sampler.LOSResult
	startTime := time.Now()

	if live {
		stats, results, err = runSampleLive(modelName, smp, start, dir)
	} else {
		stats, results, err = smp.Run(samples, start, dir, step, nil)
	}
	if err != nil {
		return err
	}
	elapsed := time.Since(startTime)

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(storage.RunMetadata{
		Model:        modelName,
		Seed:         seed,
		Samples:      stats.N,
		Step:         step,
		Longitude:    longitude,
		Latitude:     latitude,
		MeanParallel: stats.MeanParallel,
		StdParallel:  stats.StdParallel,
		MeanPerp2:    stats.MeanPerp2,
		StdPerp2:     stats.StdPerp2,
	}, results)
	if err != nil {
		return err
	}

	fmt.Printf("completed %d draws in %v\n", stats.N, elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("std:     B_par = %.4e uG kpc, B_perp2 = %.4e uG^2 kpc\n",
		stats.StdParallel, stats.StdPerp2)

	parallels := make([]float64, len(results))
	for i, res := range results {
		parallels[i] = res.Parallel
	}
	sum := analysis.Summarize(parallels)
	fmt.Printf("B_par quantiles: min %.4e | 16%% %.4e | median %.4e | 84%% %.4e | max %.4e\n",
		sum.Min, sum.Q16, sum.Median, sum.Q84, sum.Max)
	return nil
}

func runSampleLive(modelName string, smp *sampler.Sampler, start, dir vec.Vec3) (sampler.Stats, []sampler.LOSResult, error) {
	// buffered for the full run so the sampling goroutine never
	// blocks if the view quits early
	msgs := make(chan tea.Msg, samples+2)
	type outcome struct {
		stats   sampler.Stats
		results []sampler.LOSResult
		err     error
	}
	done := make(chan outcome, 1)

	go func() {
		stats, results, err := smp.Run(samples, start, dir, step, func(i int, res sampler.LOSResult) {
			msgs <- viz.SampleMsg{Index: i, Result: res}
		})
		if err != nil {
			msgs <- viz.ErrMsg{Err: err}
		} else {
			msgs <- viz.DoneMsg{Stats: stats}
		}
		done <- outcome{stats, results, err}
	}()

	p := tea.NewProgram(viz.NewModel(modelName, samples, msgs))
	if _, err := p.Run(); err != nil {
		return sampler.Stats{}, nil, err
	}
	out := <-done
	return out.stats, out.results, out.err
}

func plotProfile(cmd *cobra.Command, args []string) error {
	variant, err := gmf.ParseVariant(args[0])
	if err != nil {
		return err
	}
	model, err := gmf.New(variant)
	if err != nil {
		return err
	}

	start := vec.New(sunX, 0, 0)
	dir := sampler.DirectionLB(longitude, latitude)
	profile, err := sampler.RadialProfile(model, start, dir, profileLength, profilePoints)
	if err != nil {
		return err
	}

	caption := fmt.Sprintf("|B| (uG) along (l, b) = (%.1f, %.1f), %.1f kpc", longitude, latitude, profileLength)
	graph := asciigraph.Plot(profile,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption(caption),
	)
	fmt.Println(graph)

	if svgFile != "" {
		points := make([]export.Point, len(profile))
		dl := profileLength / float64(len(profile)-1)
		for i, v := range profile {
			points[i] = export.Point{X: float64(i) * dl, Y: v}
		}
		svg := export.PolylineSVG(points, 800, 400, "#00ff00")
		if err := os.WriteFile(svgFile, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgFile)
	}
	return nil
}

func traceLine(cmd *cobra.Command, args []string) error {
	variant, err := gmf.ParseVariant(args[0])
	if err != nil {
		return err
	}
	pos, err := parsePosition(args[1:])
	if err != nil {
		return err
	}
	model, err := gmf.New(variant)
	if err != nil {
		return err
	}

	tracer := trace.New(model, traceStep)
	line, err := tracer.Trace(pos, traceSteps, !backward)
	if err != nil {
		return err
	}

	min, max := trace.Bounds(line)
	last := line[len(line)-1]
	fmt.Printf("traced %d points, arc length %.3f kpc\n", len(line), trace.ArcLength(line))
	fmt.Printf("end    (%.3f, %.3f, %.3f) kpc\n", last.X, last.Y, last.Z)
	fmt.Printf("bounds x [%.2f, %.2f]  y [%.2f, %.2f]  z [%.2f, %.2f] kpc\n",
		min.X, max.X, min.Y, max.Y, min.Z, max.Z)

	if svgFile != "" {
		svg := export.FieldLineSVG(line, 800, 800, "#00ccff")
		if err := os.WriteFile(svgFile, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgFile)
	}
	return nil
}

// shadeRamp maps normalized magnitude to terminal shading.
var shadeRamp = []rune(" .:-=+*#%@")

func renderMap(cmd *cobra.Command, args []string) error {
	variant, err := gmf.ParseVariant(args[0])
	if err != nil {
		return err
	}
	model, err := gmf.New(variant)
	if err != nil {
		return err
	}

	grid, err := fieldmap.Evaluate(cmd.Context(), model, mapPoints, mapPoints,
		-mapExtent, mapExtent, -mapExtent, mapExtent, mapZ)
	if err != nil {
		return err
	}

	lo, hi := grid.Range()
	span := hi - lo
	if span == 0 {
		span = 1
	}
	var sb strings.Builder
	for iy := grid.NY - 1; iy >= 0; iy-- {
		for ix := 0; ix < grid.NX; ix++ {
			frac := (grid.At(ix, iy) - lo) / span
			idx := int(frac * float64(len(shadeRamp)-1))
			sb.WriteRune(shadeRamp[idx])
			sb.WriteRune(shadeRamp[idx])
		}
		sb.WriteByte('\n')
	}
	fmt.Print(sb.String())
	fmt.Printf("|B| at z = %.1f kpc, extent %.0f kpc: %.3e to %.3e uG\n", mapZ, mapExtent, lo, hi)

	if svgFile != "" {
		svg := export.HeatmapSVG(grid, 8, "#00ff00")
		if err := os.WriteFile(svgFile, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgFile)
	}
	return nil
}

func plotHistogram(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	results, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return fmt.Errorf("run %s has no samples", args[0])
	}

	parallels := make([]float64, len(results))
	for i, res := range results {
		parallels[i] = res.Parallel
	}
	hist := analysis.NewHistogram(parallels, histBins)
	fractions := hist.Normalized()

	caption := fmt.Sprintf("B_par (uG kpc) for %s: %.3e to %.3e, %d draws",
		meta.Model, hist.Edges[0], hist.Edges[len(hist.Edges)-1], len(parallels))
	graph := asciigraph.Plot(fractions,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption(caption),
	)
	fmt.Println(graph)

	sum := analysis.Summarize(parallels)
	fmt.Printf("median %.4e, 68%% interval [%.4e, %.4e]\n", sum.Median, sum.Q16, sum.Q84)
	return nil
}

func printCovariance(cmd *cobra.Command, args []string) error {
	variant, err := gmf.ParseVariant(args[0])
	if err != nil {
		return err
	}
	engine, err := covariance.New(variant)
	if err != nil {
		return err
	}

	indices := engine.ParameterIndices()
	rho := engine.CorrelationMatrix()
	cov := engine.CovarianceMatrix()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 1, ' ', tabwriter.AlignRight)
	header := []string{"PARAM", "SIGMA"}
	for i := range indices {
		header = append(header, strconv.Itoa(i))
	}
	fmt.Fprintln(w, strings.Join(header, "\t")+"\t")
	for i, id := range indices {
		row := []string{id.String(), fmt.Sprintf("%.3e", math.Sqrt(cov[i][i]))}
		for j := range indices {
			row = append(row, strconv.Itoa(int(math.Round(rho[i][j]*100))))
		}
		fmt.Fprintln(w, strings.Join(row, "\t")+"\t")
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Println("correlation in percent")
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tTIME\tSAMPLES\tSEED\tLON\tLAT\tMEAN_BPAR\tSTD_BPAR")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.1f\t%.1f\t%.3e\t%.3e\n",
			run.ID,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Samples,
			run.Seed,
			run.Longitude,
			run.Latitude,
			run.MeanParallel,
			run.StdParallel,
		)
	}
	return w.Flush()
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}
