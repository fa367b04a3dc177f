package main

import (
	"context"
	"database/sql"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/MaGaiDeN/Chess-Puzzle-Trainer/internal/config"
	"github.com/MaGaiDeN/Chess-Puzzle-Trainer/internal/database"
	"github.com/MaGaiDeN/Chess-Puzzle-Trainer/internal/feed"
	"github.com/MaGaiDeN/Chess-Puzzle-Trainer/internal/httpserver"
	"github.com/MaGaiDeN/Chess-Puzzle-Trainer/internal/progress"
	"github.com/MaGaiDeN/Chess-Puzzle-Trainer/internal/puzzle"
	"github.com/MaGaiDeN/Chess-Puzzle-Trainer/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if !cfg.Production {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// A failed feed still starts the server; /puzzles reports the error.
	var catalog *puzzle.Catalog
	blob, err := feed.Load(ctx, feed.Source{URL: cfg.PuzzlesURL, File: cfg.PuzzlesFile})
	if err != nil {
		log.Error().Err(err).Msg("failed to load puzzles")
		catalog = puzzle.FailedCatalog(err)
	} else {
		catalog = puzzle.NewCatalog(blob)
		log.Info().Int("puzzles", catalog.Len()).Msg("catalog ready")
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("failed to open database")
	}
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	kv, closeKV, err := openKV(ctx, cfg, db)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to open progress store")
	}
	defer closeKV()

	srv := httpserver.New(httpserver.Deps{
		Config:   cfg,
		Catalog:  catalog,
		Sessions: store.NewMemorySessions(),
		Progress: progress.NewRegistry(kv),
		DB:       db,
	})
	log.Info().Str("port", cfg.Port).Str("store", cfg.StoreDriver).Msg("starting puzzle trainer")
	if err := srv.Start(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

// openKV picks the progress backend named by STORE_DRIVER.
func openKV(ctx context.Context, cfg config.Config, appDB *sql.DB) (store.KV, func(), error) {
	noop := func() {}
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return store.NewMemoryKV(), noop, nil
	case config.DriverPostgres:
		pg, err := store.OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, noop, err
		}
		kv, err := store.NewSQLKV(ctx, pg, store.Postgres)
		if err != nil {
			pg.Close()
			return nil, noop, err
		}
		return kv, func() { _ = pg.Close() }, nil
	case config.DriverRedis:
		kv, err := store.NewRedisKV(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, noop, err
		}
		return kv, func() { _ = kv.Close() }, nil
	default:
		kv, err := store.NewSQLKV(ctx, appDB, store.SQLite)
		if err != nil {
			return nil, noop, err
		}
		return kv, noop, nil
	}
}
