package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v6"
)

// Validation errors reported before any fetch is issued. These are the only
// conditions that abort a run with a non-zero exit.
var (
	ErrMissingCriteria = errors.New("either START_URL or LOCATION must be set")
	ErrInvalidCategory = errors.New("CATEGORY_TYPE must be 1 (sale) or 2 (rent)")
)

// Config holds everything a run needs: search criteria, crawl limits,
// politeness settings and sink/API wiring. All values come from the
// environment (a .env file is loaded by the binaries before parsing).
type Config struct {
	// Search criteria. StartURL takes precedence over Location.
	StartURL     string `env:"START_URL"`
	Location     string `env:"LOCATION"`
	PropertyType string `env:"PROPERTY_TYPE" envDefault:"apartment"`
	CategoryType int    `env:"CATEGORY_TYPE" envDefault:"1"`
	MinPrice     int    `env:"MIN_PRICE"`
	MaxPrice     int    `env:"MAX_PRICE"`

	// Crawl limits. ResultsWanted <= 0 means unbounded.
	ResultsWanted  int  `env:"RESULTS_WANTED" envDefault:"100"`
	MaxPages       int  `env:"MAX_PAGES" envDefault:"20"`
	CollectDetails bool `env:"COLLECT_DETAILS" envDefault:"true"`

	// Politeness and transport.
	Parallelism int      `env:"PARALLELISM" envDefault:"3"`
	DelayMS     int      `env:"DELAY_MS" envDefault:"1000"`
	MaxRetries  int      `env:"MAX_RETRIES" envDefault:"2"`
	ProxyURLs   []string `env:"PROXY_URLS" envSeparator:","`

	// Sinks and API surface.
	MongoURI   string `env:"MONGO_URI"`
	Database   string `env:"MONGO_DATABASE" envDefault:"propertyfinder"`
	Collection string `env:"MONGO_COLLECTION" envDefault:"properties"`
	OutputFile string `env:"OUTPUT_FILE" envDefault:"properties.jsonl"`
	Port       string `env:"PORT" envDefault:"8080"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
}

// LoadConfig parses the environment into a Config. It does not validate
// search criteria; callers that start a crawl must call Validate first.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// Validate checks the search criteria. A failure here is fatal and happens
// before any network request.
func (c *Config) Validate() error {
	if c.StartURL == "" && c.Location == "" {
		return ErrMissingCriteria
	}
	if c.CategoryType != 1 && c.CategoryType != 2 {
		return ErrInvalidCategory
	}
	return nil
}
