package config

import (
	"github.com/vietddude/airwatch/internal/core/domain"
	"github.com/vietddude/airwatch/internal/infra/openaq"
	redisclient "github.com/vietddude/airwatch/internal/infra/redis"
	"github.com/vietddude/airwatch/internal/infra/storage"
	"github.com/vietddude/airwatch/internal/infra/warehouse/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	API            openaq.Config      `yaml:"api"`
	Places         []PlaceConfig      `yaml:"places"`
	LocationsLimit int                `yaml:"locations_limit"`
	Storage        storage.Config     `yaml:"storage"`
	Warehouse      WarehouseConfig    `yaml:"warehouse"`
	Redis          redisclient.Config `yaml:"redis"`
	Metrics        MetricsConfig      `yaml:"metrics"`
	Logging        LoggingConfig      `yaml:"logging"`
}

// PlaceConfig holds settings for one monitored place.
type PlaceConfig struct {
	CountryISO  string   `yaml:"country_iso"`
	CityAliases []string `yaml:"city_aliases"`
}

// Place converts the config entry to a domain Place.
func (p PlaceConfig) Place() domain.Place {
	return domain.Place{CountryISO: p.CountryISO, CityAliases: p.CityAliases}
}

// WarehouseConfig holds warehouse settings; loading is enabled only
// when a URL is configured.
type WarehouseConfig struct {
	postgres.Config `yaml:",inline"`
}

// Enabled reports whether warehouse loading is configured.
func (c WarehouseConfig) Enabled() bool {
	return c.URL != ""
}

// MetricsConfig holds metrics exposure settings. Port enables the
// in-run /metrics server; PushgatewayURL enables an end-of-run push.
type MetricsConfig struct {
	Port           int    `yaml:"port"`
	PushgatewayURL string `yaml:"pushgateway_url"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// DomainPlaces converts all configured places.
func (c *AppConfig) DomainPlaces() []domain.Place {
	places := make([]domain.Place, 0, len(c.Places))
	for _, p := range c.Places {
		places = append(places, p.Place())
	}
	return places
}
