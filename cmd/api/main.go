package main

import (
	"github.com/joho/godotenv"

	"github.com/dxb-props/propertyfinder-crawler/api"
	"github.com/dxb-props/propertyfinder-crawler/internal/config"
	"github.com/dxb-props/propertyfinder-crawler/internal/logger"
	"github.com/dxb-props/propertyfinder-crawler/internal/repository"
	"github.com/dxb-props/propertyfinder-crawler/internal/service"
)

func main() {
	log := logger.NewLogger("api_main")

	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, using environment as-is")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration", err)
	}
	logger.SetDefaultLevel(logger.ParseLevel(cfg.LogLevel))

	repo, err := repository.NewMongoRepository(cfg.MongoURI, cfg.Database, cfg.Collection)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", err)
	}
	defer repo.Close()

	propertyService := service.NewPropertyService(repo, cfg)
	router := api.SetupRouter(propertyService)

	log.WithField("port", cfg.Port).Info("Starting API server")
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("API server stopped", err)
	}
}
