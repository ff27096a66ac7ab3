// Command bench_sssp generates a random graph, solves it
// with every configured shortest-path algorithm on
// simulated workers, and prints a comparison table.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/unixpickle/dist-sssp/config"
	"github.com/unixpickle/dist-sssp/graph"
	"github.com/unixpickle/dist-sssp/metrics"
	"github.com/unixpickle/dist-sssp/results"
	"github.com/unixpickle/dist-sssp/sssp"
	"github.com/unixpickle/essentials"
)

func main() {
	var configPath string
	var workers int
	var algorithms string
	flag.StringVar(&configPath, "config", "", "YAML config file")
	flag.IntVar(&workers, "workers", 0, "number of simulated workers (overrides config)")
	flag.StringVar(&algorithms, "algorithms", "",
		"comma-separated algorithms (overrides config)")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: bench_sssp [flags] <n_nodes> <n_edges> <max_weight>")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 3 {
		flag.Usage()
		os.Exit(1)
	}
	var sizes [3]int
	for i, arg := range flag.Args() {
		x, err := strconv.Atoi(arg)
		if err != nil {
			essentials.Die("invalid argument:", arg)
		}
		sizes[i] = x
	}
	numNodes, numEdges, maxWeight := sizes[0], sizes[1], sizes[2]

	cfg, err := loadConfig(configPath, workers, algorithms)
	if err != nil {
		essentials.Die(err)
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if cfg.Debug {
		log = log.Level(zerolog.DebugLevel)
		log.Info().Msg("running in debug mode")
	} else {
		log = log.Level(zerolog.InfoLevel)
	}

	g, err := graph.Generate(numNodes, numEdges, maxWeight, cfg.Seed)
	if err != nil {
		log.Fatal().Err(err).Msg("could not generate graph")
	}

	store, closeStore, err := cfg.OpenStore()
	if err != nil {
		log.Fatal().Err(err).Msg("could not open result store")
	}
	defer closeStore()

	key := results.Key{
		Seed:      cfg.Seed,
		NumNodes:  numNodes,
		NumEdges:  numEdges,
		MaxWeight: maxWeight,
	}
	if fileStore, ok := store.(*results.FileStore); ok {
		if err := fileStore.StoreMatrixSoft(key, g); err != nil && !errors.Is(err,
			results.ErrExists) {
			log.Warn().Err(err).Msg("could not store matrix")
		}
	}

	oracle, err := sssp.RunSerial(g, sssp.SerialDijkstra, cfg.Source)
	if err != nil {
		log.Fatal().Err(err).Msg("serial oracle failed")
	}
	serialBF, err := sssp.RunSerial(g, sssp.SerialBellmanFord, cfg.Source)
	if err != nil {
		log.Fatal().Err(err).Msg("serial oracle failed")
	}
	for _, res := range []*sssp.Result{oracle, serialBF} {
		saveResult(log, store, key, res, false)
	}
	if report := sssp.Verify(serialBF, oracle.Distances); !report.OK() {
		log.Warn().Ints("vertices", report.Mismatches).Msg("serial algorithms disagree")
	}

	algs, err := cfg.ParsedAlgorithms()
	if err != nil {
		log.Fatal().Err(err).Msg("bad algorithm list")
	}
	baseOpts, err := cfg.Options()
	if err != nil {
		log.Fatal().Err(err).Msg("bad configuration")
	}
	baseOpts.Log = &log

	// Markdown table header.
	fmt.Println("| Algorithm | Workers | Virtual time | Rounds | Messages | L2 norm |")
	fmt.Println("|:--|:--|:--|:--|:--|:--|")

	failed := false
	for _, alg := range algs {
		opts := baseOpts
		opts.Metrics = metrics.New(prometheus.NewRegistry())
		res, err := sssp.Run(g, alg, opts)
		if err != nil {
			log.Error().Err(err).Str("algorithm", alg.String()).Msg("run failed")
			failed = true
			continue
		}
		saveResult(log, store, key, res, true)
		report := sssp.Verify(res, oracle.Distances)
		for _, v := range report.Mismatches {
			log.Debug().Int("vertex", v).Int("expected", oracle.Distances[v]).
				Int("actual", res.Distances[v]).Ints("expected_path", oracle.Path(v)).
				Ints("actual_path", res.Path(v)).Msg("disagreement")
		}
		fmt.Printf(
			"| %s | %d | %f | %d | %d | %f |\n",
			alg,
			opts.Workers,
			res.VirtualTime,
			res.Rounds,
			opts.Metrics.MessageCount(metrics.KindData)+
				opts.Metrics.MessageCount(metrics.KindCollective),
			report.L2Norm,
		)
	}
	if failed {
		os.Exit(1)
	}
}

func loadConfig(path string, workers int, algorithms string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, essentials.AddCtx("environment", err)
	}
	if workers != 0 {
		cfg.Workers = workers
	}
	if algorithms != "" {
		algs, err := sssp.ParseAlgorithms(algorithms)
		if err != nil {
			return nil, err
		}
		cfg.Algorithms = nil
		for _, alg := range algs {
			cfg.Algorithms = append(cfg.Algorithms, alg.String())
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, essentials.AddCtx("config", err)
	}
	return cfg, nil
}

// saveResult stores a result, keeping an existing one for
// soft stores.
func saveResult(log zerolog.Logger, store results.Store, key results.Key, res *sssp.Result,
	hard bool) {
	if store == nil {
		return
	}
	key.Algorithm = res.Algorithm
	record := results.NewRecord(res)
	var err error
	if hard {
		err = store.StoreHard(key, record)
	} else {
		err = store.StoreSoft(key, record)
	}
	if errors.Is(err, results.ErrExists) {
		log.Info().Str("key", key.String()).Msg("result already stored")
	} else if err != nil {
		log.Warn().Err(err).Str("key", key.String()).Msg("could not store result")
	}
}
