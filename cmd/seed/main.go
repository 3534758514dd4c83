// Command seed writes a starter menu, banners, and FAQs to the database.
package main

import (
	"bytes"
	"context"
	_ "embed"
	"flag"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/utafrali/quecomemoshoy/internal/config"
	pgrepo "github.com/utafrali/quecomemoshoy/internal/repository/postgres"
	"github.com/utafrali/quecomemoshoy/internal/repository/postgres/migrations"
	"github.com/utafrali/quecomemoshoy/internal/seed"
	pkgconfig "github.com/utafrali/quecomemoshoy/pkg/config"
	"github.com/utafrali/quecomemoshoy/pkg/database"
	"github.com/utafrali/quecomemoshoy/pkg/logger"
)

//go:embed menu.yaml
var defaultMenu []byte

func main() {
	file := flag.String("file", "", "seed file (defaults to the built-in menu)")
	flag.Parse()

	if err := pkgconfig.LoadDotEnv(); err != nil {
		slog.Error("failed to load .env", slog.String("error", err.Error()))
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.New("quecomemoshoy-seed", cfg.LogLevel)

	var src io.Reader = bytes.NewReader(defaultMenu)
	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			log.Error("failed to open seed file", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer f.Close()
		src = f
	}

	data, err := seed.Load(src)
	if err != nil {
		log.Error("failed to read seed data", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, log)
	if err != nil {
		log.Error("failed to connect to postgres", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
		log.Error("failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	seeder := seed.New(seed.Repos{
		Categories: pgrepo.NewCategoryRepository(pool),
		Products:   pgrepo.NewProductRepository(pool),
		Banners:    pgrepo.NewBannerRepository(pool),
		FAQs:       pgrepo.NewFAQRepository(pool),
	}, log)

	res, err := seeder.Apply(ctx, data)
	if err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info("seed complete", slog.Int("created", res.Created), slog.Int("skipped", res.Skipped))
}
