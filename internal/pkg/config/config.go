package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Feed      FeedConfig      `mapstructure:"feed"`
	Geodata   GeodataConfig   `mapstructure:"geodata"`
	Viewport  ViewportConfig  `mapstructure:"viewport"`
	Marker    MarkerConfig    `mapstructure:"marker"`
	Location  LocationConfig  `mapstructure:"location"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port" validate:"gt=0,lte=65535"`
	ReadTimeout  int `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout int `mapstructure:"write_timeout" validate:"gt=0"`
}

// FeedConfig describes the live dock-availability feed.
type FeedConfig struct {
	URL             string        `mapstructure:"url" validate:"required,url"`
	Timeout         time.Duration `mapstructure:"timeout" validate:"gt=0"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval" validate:"gte=0"` // 0 = fetch once at startup
}

// GeodataConfig points at a station dataset on disk. Empty means the
// dataset compiled into the binary.
type GeodataConfig struct {
	Path string `mapstructure:"path"`
}

// ViewportConfig is the default/fallback map region.
type ViewportConfig struct {
	CenterLat      float64 `mapstructure:"center_lat" validate:"gte=-90,lte=90"`
	CenterLng      float64 `mapstructure:"center_lng" validate:"gte=-180,lte=180"`
	SpanLat        float64 `mapstructure:"span_lat" validate:"gt=0,lte=180"`
	SpanLng        float64 `mapstructure:"span_lng" validate:"gt=0,lte=360"`
	DriftThreshold float64 `mapstructure:"drift_threshold" validate:"gte=0"`
}

// MarkerConfig labels the user marker before the first fix.
type MarkerConfig struct {
	Label   string `mapstructure:"label"`
	Address string `mapstructure:"address"`
}

// LocationConfig selects and configures the device location provider.
type LocationConfig struct {
	Provider         string        `mapstructure:"provider" validate:"oneof=static nats"`
	Timeout          time.Duration `mapstructure:"timeout" validate:"gt=0"`
	StaticLat        float64       `mapstructure:"static_lat" validate:"gte=-90,lte=90"`
	StaticLng        float64       `mapstructure:"static_lng" validate:"gte=-180,lte=180"`
	StaticPermission string        `mapstructure:"static_permission" validate:"oneof=granted denied"`
	StaticDevice     bool          `mapstructure:"static_device"`
	NATSSubject      string        `mapstructure:"nats_subject"`
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Enabled bool   `mapstructure:"enabled"`
}

type ValkeyConfig struct {
	Addr    string `mapstructure:"addr"`
	Prefix  string `mapstructure:"prefix"`
	Enabled bool   `mapstructure:"enabled"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()
	setDefaults(v, service)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: MAPD_FEED_URL → feed.url
	v.SetEnvPrefix("MAPD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, service string) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("feed.url", "https://data.ntpc.gov.tw/api/datasets/71CD1490-A2DF-4198-BEF1-318479775E8A/json/preview")
	v.SetDefault("feed.timeout", 15*time.Second)
	v.SetDefault("feed.refresh_interval", time.Duration(0))
	v.SetDefault("viewport.center_lat", 25.041077)
	v.SetDefault("viewport.center_lng", 121.576102)
	v.SetDefault("viewport.span_lat", 0.02)
	v.SetDefault("viewport.span_lng", 0.01)
	v.SetDefault("viewport.drift_threshold", 0.0002)
	v.SetDefault("marker.label", "國業里")
	v.SetDefault("marker.address", "110台北市信義區福德街")
	v.SetDefault("location.provider", "static")
	v.SetDefault("location.timeout", 30*time.Second)
	v.SetDefault("location.static_lat", 25.041077)
	v.SetDefault("location.static_lng", 121.576102)
	v.SetDefault("location.static_permission", "granted")
	v.SetDefault("location.static_device", true)
	v.SetDefault("location.nats_subject", "device.location")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.enabled", false)
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.prefix", "mapd:")
	v.SetDefault("valkey.enabled", false)
	v.SetDefault("geodata.path", "")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, fmt.Sprintf("%s failed %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
		} else {
			errs = append(errs, err.Error())
		}
	}

	if c.NATS.Enabled && c.NATS.URL == "" {
		errs = append(errs, "nats.url is required when nats.enabled")
	}
	if c.Valkey.Enabled && c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required when valkey.enabled")
	}
	if c.Location.Provider == "nats" && !c.NATS.Enabled {
		errs = append(errs, "location.provider=nats requires nats.enabled")
	}
	if c.Location.Provider == "nats" && c.Location.NATSSubject == "" {
		errs = append(errs, "location.nats_subject is required for the nats provider")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
