package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/df07/go-uv-exposure/pkg/core"
	"github.com/df07/go-uv-exposure/pkg/lights"
	"github.com/df07/go-uv-exposure/pkg/sampler"
	"github.com/df07/go-uv-exposure/pkg/scene"
	"github.com/df07/go-uv-exposure/pkg/simulation"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/encoding/json"
)

type config struct {
	Scene                  string  `cli:"" env:"UVSIM_SCENE"                    help:"Built-in scene to simulate (see -list-scenes)."`
	ListScenes             bool    `cli:"" env:"-"                              help:"List built-in scenes and exit."`
	CrossSectionX          float64 `cli:"" env:"UVSIM_CROSS_SECTION_X"          help:"X coordinate of the cross section plane."`
	CrossSectionGrid       int     `cli:"" env:"UVSIM_CROSS_SECTION_GRID"       help:"Evaluate an NxN grid on the cross section plane instead of surface points, 0 disables."`
	LampData               string  `cli:"" env:"UVSIM_LAMP_DATA"                help:"Lamp intensity JSON file."`
	LampType               string  `cli:"" env:"UVSIM_LAMP_TYPE"                help:"Lamp profile id from the lamp data applied to every light, aimed down."`
	MaxBounces             int     `cli:"" env:"UVSIM_MAX_BOUNCES"              help:"Surface hits traced per photon."`
	GridCellSize           float64 `cli:"" env:"UVSIM_GRID_CELL_SIZE"           help:"Edge length of spatial grid cells."`
	PhotonsPerLight        int     `cli:"" env:"UVSIM_PHOTONS_PER_LIGHT"        help:"Photons emitted per light."`
	RouletteThreshold      float64 `cli:"" env:"UVSIM_ROULETTE_THRESHOLD"       help:"Flux below which low-energy roulette runs, in (0, 1]."`
	KernelRadius           float64 `cli:"" env:"UVSIM_KERNEL_RADIUS"            help:"Radius photon energy is spread over."`
	SurfaceOffset          float64 `cli:"" env:"UVSIM_SURFACE_OFFSET"           help:"Distance sample points sit off the surface."`
	NumSamplePoints        int     `cli:"" env:"UVSIM_NUM_SAMPLE_POINTS"        help:"Measurement points to place."`
	DistanceThreshold      float64 `cli:"" env:"UVSIM_DISTANCE_THRESHOLD"       help:"Minimum spacing between measurement points."`
	AttemptsMultiplier     int     `cli:"" env:"UVSIM_ATTEMPTS_MULTIPLIER"      help:"Candidate points generated per requested point."`
	NormalSimilarity       float64 `cli:"" env:"UVSIM_NORMAL_SIMILARITY"        help:"Only enforce spacing between points whose normals' dot product reaches this, 0 disables."`
	NoEnergyRoulette       bool    `cli:"" env:"UVSIM_NO_ENERGY_ROULETTE"       help:"Disable low-energy Russian roulette."`
	NoReflectivityRoulette bool    `cli:"" env:"UVSIM_NO_REFLECTIVITY_ROULETTE" help:"Disable low-reflectivity Russian roulette."`
	BounceOffset           float64 `cli:"" env:"UVSIM_BOUNCE_OFFSET"            help:"Distance scattered photons start off the surface."`
	Traversal              string  `cli:"" env:"UVSIM_TRAVERSAL"                help:"Grid traversal (dda|stepped)."`
	Workers                int     `cli:"" env:"UVSIM_WORKERS"                  help:"Goroutines per parallel stage."`
	Seed                   int64   `cli:"" env:"UVSIM_SEED"                     help:"Base random seed."`
	Output                 string  `cli:"" env:"UVSIM_OUTPUT"                   help:"Result file, stdout when empty."`
	MetricsFile            string  `cli:"" env:"UVSIM_METRICS_FILE"             help:"Write Prometheus metrics in text format to this file after the run."`
	LogLevel               string  `cli:"" env:"UVSIM_LOG_LEVEL"                help:"Log level (debug|info|warning|error)."`
	LogIndent              bool    `cli:"" env:"UVSIM_LOG_INDENT"               help:"Indent logs."`
	Help                   bool    `cli:"" env:"-"                              help:"Show help."`
}

func defaultConfig() config {
	sim := simulation.DefaultConfig()
	return config{
		Scene:              "simple-room",
		CrossSectionX:      5,
		MaxBounces:         sim.MaxBounces,
		GridCellSize:       sim.GridCellSize,
		PhotonsPerLight:    sim.PhotonsPerLight,
		RouletteThreshold:  sim.RouletteThreshold,
		KernelRadius:       sim.KernelRadius,
		SurfaceOffset:      sim.SurfaceOffset,
		NumSamplePoints:    sim.NumSamplePoints,
		DistanceThreshold:  sim.DistanceThreshold,
		AttemptsMultiplier: sim.AttemptsMultiplier,
		NormalSimilarity:   sim.NormalSimilarity,
		BounceOffset:       sim.BounceOffset,
		Traversal:          sim.Traversal,
		Workers:            sim.Workers,
		Seed:               sim.Seed,
		LogLevel:           logs.InfoLevel.String(),
	}
}

func main() {
	conf := defaultConfig()

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Estimates germicidal UV exposure across the surfaces of a built-in scene.").
		Options(&conf)
	cli.Load()

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}
	errors.Encoder = json.Marshal

	if conf.ListScenes {
		if err := writeJSON(os.Stdout, scene.List()); err != nil {
			logs.Fatal(err)
		}
		return
	}

	out := io.Writer(os.Stdout)
	if conf.Output != "" {
		f, err := os.Create(conf.Output)
		if err != nil {
			logs.Fatal(errors.New("creating output file failed").
				WithTag("path", conf.Output).
				Wrap(err))
		}
		defer f.Close()
		out = f
	}

	err := run(ctx, conf, out)
	if conf.MetricsFile != "" {
		if merr := prometheus.WriteToTextfile(conf.MetricsFile, prometheus.DefaultGatherer); merr != nil {
			logs.Warn(errors.New("writing metrics failed").
				WithTag("path", conf.MetricsFile).
				Wrap(merr))
		}
	}
	if err != nil {
		logs.Fatal(err)
	}
}

// run simulates the configured scene and writes the result as JSON. An
// under-sampled run still writes its partial result before failing.
func run(ctx context.Context, conf config, out io.Writer) error {
	s, err := createScene(conf)
	if err != nil {
		return err
	}
	simConf := simulationConfig(conf)

	var result *simulation.Result
	if conf.CrossSectionGrid > 0 {
		points, perr := sampler.CrossSection(s.Triangles, conf.CrossSectionX, conf.CrossSectionGrid)
		if perr != nil {
			return perr
		}
		result, err = simulation.RunPoints(ctx, s, points, simConf)
	} else {
		result, err = simulation.Run(ctx, s, simConf)
	}
	if result == nil {
		return err
	}

	if werr := writeJSON(out, result); werr != nil {
		return werr
	}
	return err
}

// createScene builds the named scene and applies the configured lamp profile
func createScene(conf config) (*scene.Scene, error) {
	s, err := scene.ByName(conf.Scene)
	if err != nil {
		return nil, err
	}
	if conf.LampType == "" {
		return s, nil
	}
	if conf.LampData == "" {
		return nil, core.ConfigError("lamp_data", conf.LampData, "a lamp type needs lamp data")
	}

	f, err := os.Open(conf.LampData)
	if err != nil {
		return nil, errors.New("opening lamp data failed").
			WithTag("path", conf.LampData).
			Wrap(err)
	}
	defer f.Close()

	profiles, err := lights.DecodeProfiles(f)
	if err != nil {
		return nil, err
	}
	if err := applyProfile(s, profiles, conf.LampType); err != nil {
		return nil, err
	}
	return s, nil
}

// applyProfile replaces every light with a downward-aimed light of the given lamp type
func applyProfile(s *scene.Scene, profiles *lights.ProfileSet, lampType string) error {
	profile, ok := profiles.Get(lampType)
	if !ok {
		return core.ConfigError("lamp_type", lampType, fmt.Sprintf("unknown lamp type, have %v", profiles.IDs()))
	}
	for i, l := range s.Lights {
		profiled, err := lights.NewWithProfile(l.Position, l.Intensity, core.NewVec3(0, -1, 0), profile)
		if err != nil {
			return err
		}
		s.Lights[i] = profiled
	}
	return nil
}

func simulationConfig(conf config) simulation.Config {
	sim := simulation.DefaultConfig()
	sim.MaxBounces = conf.MaxBounces
	sim.GridCellSize = conf.GridCellSize
	sim.PhotonsPerLight = conf.PhotonsPerLight
	sim.RouletteThreshold = conf.RouletteThreshold
	sim.KernelRadius = conf.KernelRadius
	sim.SurfaceOffset = conf.SurfaceOffset
	sim.NumSamplePoints = conf.NumSamplePoints
	sim.DistanceThreshold = conf.DistanceThreshold
	sim.AttemptsMultiplier = conf.AttemptsMultiplier
	sim.NormalSimilarity = conf.NormalSimilarity
	sim.EnergyRoulette = !conf.NoEnergyRoulette
	sim.ReflectivityRoulette = !conf.NoReflectivityRoulette
	sim.BounceOffset = conf.BounceOffset
	sim.Traversal = conf.Traversal
	sim.Workers = conf.Workers
	sim.Seed = conf.Seed
	return sim
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.New("encoding result failed").Wrap(err)
	}
	return nil
}
