package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"film-community/backend/internal/graph"
	"film-community/backend/internal/movielens"
	"film-community/backend/pkg/config"
	"film-community/backend/pkg/logger"
)

// store is the write surface the importer needs
type store interface {
	EnsureConstraints(ctx context.Context) error
	Clear(ctx context.Context) error
	MergeMovies(ctx context.Context, movies []movielens.Movie) error
	MergeRatings(ctx context.Context, ratings []movielens.Rating) error
	MergeTags(ctx context.Context, tags []movielens.Tag) error
}

type options struct {
	dir       string
	clear     bool
	batchSize int
	skipTags  bool
}

type summary struct {
	movies, ratings, tags int
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	dir := flag.String("dir", cfg.MovieLensDir, "Directory containing movies.csv, ratings.csv and tags.csv")
	wipe := flag.Bool("clear", false, "Delete every node before importing")
	skipConfirm := flag.Bool("y", false, "Skip confirmation prompt when clearing")
	batchSize := flag.Int("batch-size", cfg.ImportBatchSize, "Rows per write transaction")
	skipTags := flag.Bool("skip-tags", false, "Do not import tags.csv")
	flag.Parse()

	// Initialize logger
	if err := logger.Init(cfg.Env); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting MovieLens import...", zap.String("dir", *dir))

	if *wipe && !*skipConfirm {
		log.Warn("This will DELETE ALL DATA from Neo4j before importing")
		// Use fmt.Print for user input prompt (needs to go to stdout)
		fmt.Print("Are you sure you want to continue? (yes/no): ")
		var response string
		_, _ = fmt.Scanln(&response)
		if response != "yes" && response != "y" {
			log.Info("Aborted.")
			os.Exit(0)
		}
	}

	ctx := context.Background()
	driver, err := graph.Connect(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword, cfg.Neo4jMaxPoolSize, 10*time.Second)
	if err != nil {
		log.Fatal("Failed to connect to Neo4j", zap.Error(err))
	}
	repo := graph.NewRepository(driver, cfg.Neo4jDatabase)
	defer repo.Close(context.Background())

	start := time.Now()
	sum, err := run(ctx, repo, options{
		dir:       *dir,
		clear:     *wipe,
		batchSize: *batchSize,
		skipTags:  *skipTags,
	}, log)
	if err != nil {
		log.Fatal("Import failed", zap.Error(err))
	}

	log.Info("Import complete",
		zap.Int("movies", sum.movies),
		zap.Int("ratings", sum.ratings),
		zap.Int("tags", sum.tags),
		zap.Duration("elapsed", time.Since(start)),
	)
}

// run loads the three MovieLens files into s. Movies go first so ratings and
// tags attach to fully populated movie nodes.
func run(ctx context.Context, s store, opts options, log *zap.Logger) (summary, error) {
	var sum summary
	if opts.batchSize < 1 {
		return sum, fmt.Errorf("batch size must be positive, got %d", opts.batchSize)
	}

	if opts.clear {
		log.Info("Clearing graph...")
		if err := s.Clear(ctx); err != nil {
			return sum, err
		}
	}

	log.Info("Creating constraints...")
	if err := s.EnsureConstraints(ctx); err != nil {
		return sum, err
	}

	var err error
	sum.movies, err = importFile(opts.dir, "movies.csv", func(f *os.File) (int, error) {
		return movielens.ReadMovies(f, "movies.csv", opts.batchSize, func(batch []movielens.Movie) error {
			return s.MergeMovies(ctx, batch)
		})
	})
	if err != nil {
		return sum, err
	}
	log.Info("Imported movies", zap.Int("count", sum.movies))

	sum.ratings, err = importFile(opts.dir, "ratings.csv", func(f *os.File) (int, error) {
		return movielens.ReadRatings(f, "ratings.csv", opts.batchSize, func(batch []movielens.Rating) error {
			return s.MergeRatings(ctx, batch)
		})
	})
	if err != nil {
		return sum, err
	}
	log.Info("Imported ratings", zap.Int("count", sum.ratings))

	if opts.skipTags {
		return sum, nil
	}
	sum.tags, err = importFile(opts.dir, "tags.csv", func(f *os.File) (int, error) {
		return movielens.ReadTags(f, "tags.csv", opts.batchSize, func(batch []movielens.Tag) error {
			return s.MergeTags(ctx, batch)
		})
	})
	if err != nil {
		return sum, err
	}
	log.Info("Imported tags", zap.Int("count", sum.tags))

	return sum, nil
}

func importFile(dir, name string, read func(*os.File) (int, error)) (int, error) {
	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()
	return read(f)
}
