package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// DefaultBaseURL points at the public OpenAQ v3 API.
const DefaultBaseURL = "https://api.openaq.org/v3"

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Set defaults if necessary
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = DefaultBaseURL
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 30 * time.Second
	}
	if cfg.LocationsLimit == 0 {
		cfg.LocationsLimit = 3
	}
	if cfg.Storage.OutputDir == "" {
		cfg.Storage.OutputDir = "data_in"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) validate() error {
	if c.API.APIKey == "" {
		return fmt.Errorf("api.api_key is required")
	}
	if len(c.Places) == 0 {
		return fmt.Errorf("at least one place must be configured")
	}
	for i, p := range c.Places {
		if p.CountryISO == "" {
			return fmt.Errorf("places[%d]: country_iso is required", i)
		}
		if len(p.CityAliases) == 0 {
			return fmt.Errorf("places[%d]: city_aliases is required", i)
		}
	}
	return nil
}
