// Command layout fills a frozen sea from a seed, runs path queries across it and prints
// a summary of the island layouts and the searches.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/tomz197/seaspot/internal/config"
	"github.com/tomz197/seaspot/internal/navigation"
	"github.com/tomz197/seaspot/internal/random"
	"github.com/tomz197/seaspot/internal/record"
	"github.com/tomz197/seaspot/internal/sea"
	"github.com/tomz197/seaspot/internal/sim"
)

var (
	islands    = flag.Int("islands", 8, "Maximum number of islands on the sea")
	queries    = flag.Int("queries", 200, "Number of path queries")
	seed       = flag.Int64("seed", 0, "Random seed (0 keeps the configured seed)")
	configPath = flag.String("config", config.GetEnv("SEASPOT_CONFIG", ""), "Simulation TOML file")
	dbPath     = flag.String("db", config.GetEnv("SEASPOT_DB", ""), "SQLite file to record into")
	verbose    = flag.Bool("v", false, "Debug logging")
)

type options struct {
	islands    int
	queries    int
	seed       int64
	configPath string
	dbPath     string
}

type summary struct {
	objects    int
	islands    int
	members    int
	converged  int
	iterations int
	blocked    int

	queries      int
	found        int
	startBlocked int
	expanded     int
	cells        int
	total        time.Duration
	slowest      time.Duration
}

func main() {
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	opts := options{
		islands:    *islands,
		queries:    *queries,
		seed:       *seed,
		configPath: *configPath,
		dbPath:     *dbPath,
	}
	if err := run(context.Background(), opts, os.Stdout, logger); err != nil {
		logger.Fatal("layout failed", "err", err)
	}
}

func run(ctx context.Context, opts options, out io.Writer, logger *log.Logger) error {
	conf := config.Default()
	if opts.configPath != "" {
		var err error
		if conf, err = config.Load(opts.configPath); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}
	if opts.seed != 0 {
		conf.Sea.Seed = opts.seed
	}
	conf.Spawner.SpawnOnce = true
	conf.Spawner.MaxIslands = opts.islands
	conf.Boats.SpawnProbability = 0
	if err := conf.Validate(); err != nil {
		return err
	}

	var store *record.Store
	if opts.dbPath != "" {
		var err error
		if store, err = record.Open(ctx, opts.dbPath, conf.Sea.Seed); err != nil {
			return fmt.Errorf("open recorder: %w", err)
		}
		defer store.Close()
	}

	server, err := sim.NewServer(conf, sim.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("create sea: %w", err)
	}

	start := time.Now()
	server.Prewarm()
	logger.Info("sea filled", "seed", conf.Sea.Seed, "took", time.Since(start).Round(time.Millisecond))

	var sum summary
	snap := server.Publish()
	sum.objects = len(snap.Objects)
	sum.blocked = len(snap.Blocked)

	for _, obj := range server.Spawner().Objects() {
		if obj.Kind != sea.KindIsland {
			continue
		}
		sum.islands++
		sum.members += len(obj.Island.Members)
		sum.iterations += obj.Island.Iterations
		if obj.Island.Converged {
			sum.converged++
		}
		if store != nil {
			if err := store.RecordIsland(ctx, sim.IslandRecord(obj, snap.Angle)); err != nil {
				return fmt.Errorf("record island: %w", err)
			}
		}
	}

	rng := random.New(conf.Sea.Seed + 3)
	pf := navigation.NewPathfinder(server.Grid(), rng, navigation.WithLogger(logger))
	point := sea.DiscPoint(rng, navigation.MaxRho)
	// Path queries are recorded under a synthetic boat per query.
	for i := 0; i < opts.queries; i++ {
		x, z := point()
		res := pf.FindPath(x, z)

		sum.queries++
		sum.expanded += res.Expanded
		sum.total += res.Elapsed
		sum.slowest = max(sum.slowest, res.Elapsed)
		if res.StartBlocked {
			sum.startBlocked++
		}
		if res.Found {
			sum.found++
			sum.cells += len(res.Nodes)
		}

		if store != nil {
			boat := &sea.Object{ID: uuid.New(), Kind: sea.KindBoat}
			if err := store.RecordPath(ctx, sim.PathRecord(sea.PathEvent{Boat: boat, Result: res})); err != nil {
				return fmt.Errorf("record path: %w", err)
			}
		}
	}

	sum.print(out)

	if store != nil {
		stats, err := store.PathStats(ctx)
		if err != nil {
			return fmt.Errorf("read path stats: %w", err)
		}
		logger.Info("recorded", "db", opts.dbPath, "run", store.RunID(), "queries", stats.Queries, "meanMs", stats.MeanMs)
	}
	return nil
}

func (s summary) print(out io.Writer) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "objects\t%d\n", s.objects)
	fmt.Fprintf(w, "blocked cells\t%d / %d\n", s.blocked, navigation.CellCount)
	fmt.Fprintf(w, "islands\t%d\n", s.islands)
	if s.islands > 0 {
		fmt.Fprintf(w, "members per island\t%.1f\n", float64(s.members)/float64(s.islands))
		fmt.Fprintf(w, "converged\t%d / %d\n", s.converged, s.islands)
		fmt.Fprintf(w, "mean iterations\t%.2f\n", float64(s.iterations)/float64(s.islands))
	}
	fmt.Fprintf(w, "path queries\t%d\n", s.queries)
	if s.queries == 0 {
		return
	}
	fmt.Fprintf(w, "found\t%d (%.1f%%)\n", s.found, 100*float64(s.found)/float64(s.queries))
	fmt.Fprintf(w, "blocked starts\t%d\n", s.startBlocked)
	fmt.Fprintf(w, "mean expanded\t%.1f\n", float64(s.expanded)/float64(s.queries))
	if s.found > 0 {
		fmt.Fprintf(w, "mean path cells\t%.1f\n", float64(s.cells)/float64(s.found))
	}
	fmt.Fprintf(w, "mean search\t%s\n", (s.total / time.Duration(s.queries)).Round(time.Microsecond))
	fmt.Fprintf(w, "slowest search\t%s\n", s.slowest.Round(time.Microsecond))
}
