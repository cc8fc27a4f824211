package main

import (
	"context"

	"github.com/joho/godotenv"

	"github.com/dxb-props/propertyfinder-crawler/internal/config"
	"github.com/dxb-props/propertyfinder-crawler/internal/crawler"
	"github.com/dxb-props/propertyfinder-crawler/internal/logger"
	"github.com/dxb-props/propertyfinder-crawler/internal/repository"
)

func main() {
	log := logger.NewLogger("main")

	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, using environment as-is")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration", err)
	}
	logger.SetDefaultLevel(logger.ParseLevel(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration", err)
	}

	sink, cleanup, err := buildSink(cfg)
	if err != nil {
		log.Fatal("Failed to set up output sink", err)
	}
	defer cleanup()

	criteria := crawler.CriteriaFromConfig(cfg)
	engine := crawler.NewEngine(cfg, criteria, sink)

	saved, err := engine.Run(context.Background())
	if err != nil {
		log.Fatal("Crawl failed", err)
	}

	// A run that finds nothing is still a successful run; only
	// configuration failures exit non-zero.
	log.WithField("records_saved", saved).Info("Crawl run finished")
}

// buildSink prefers Mongo when configured and falls back to the JSON-lines
// file sink otherwise.
func buildSink(cfg *config.Config) (repository.Sink, func(), error) {
	if cfg.MongoURI != "" {
		repo, err := repository.NewMongoRepository(cfg.MongoURI, cfg.Database, cfg.Collection)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo.Close, nil
	}

	repo, err := repository.NewFileRepository(cfg.OutputFile)
	if err != nil {
		return nil, nil, err
	}
	return repo, repo.Close, nil
}
