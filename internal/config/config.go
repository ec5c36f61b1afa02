package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ServerConfig captures all tunable parameters for the HTTP API process.
// Values are primarily loaded from environment variables with sane defaults
// so the binary can run locally without excessive setup. Missing provider
// credentials are not errors: the estimation chains simply skip providers
// they have no key for.
type ServerConfig struct {
	HTTPAddr        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	MapboxToken string
	ORSKey      string

	// Endpoint overrides, mainly for tests and self-hosted routers.
	MapboxGeocodeEndpoint    string
	ORSGeocodeEndpoint       string
	NominatimEndpoint        string
	MapboxDirectionsEndpoint string
	ORSDirectionsEndpoint    string
	OSRMEndpoint             string

	AvgSpeedMPH         float64
	ETAFlagThreshold    int
	AdjustTrigger       int
	AdjustDurationRatio float64
	AdjustMaxMiles      float64
	AdjustFactor        float64
	MaxRouteDuration    float64
	MaxDistanceRatio    float64
	MaxDurationRatio    float64
	CostMPG             float64
	CostPricePerGallon  float64

	RedisAddr     string
	RedisPassword string
	RedisGeoKey   string

	KafkaBrokers []string
	KafkaTopic   string

	PGDSN         string
	NotifyWebhook string

	LogLevel      string
	RunMigrations bool
}

func defaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPAddr:            ":8080",
		ReadTimeout:         5 * time.Second,
		WriteTimeout:        15 * time.Second,
		IdleTimeout:         120 * time.Second,
		ShutdownTimeout:     15 * time.Second,
		RedisGeoKey:         "pools_geo",
		KafkaTopic:          "pool-events",
		AvgSpeedMPH:         35,
		ETAFlagThreshold:    6 * 3600,
		AdjustTrigger:       4 * 3600,
		AdjustDurationRatio: 5.0,
		AdjustMaxMiles:      10,
		AdjustFactor:        1.2,
		MaxRouteDuration:    86400,
		MaxDistanceRatio:    10.0,
		MaxDurationRatio:    5.0,
		CostMPG:             25,
		CostPricePerGallon:  3.50,
		LogLevel:            "info",
	}
}

func LoadServerConfig() (ServerConfig, error) {
	cfg := defaultServerConfig()
	var errs []error

	setStringFromEnv(&cfg.HTTPAddr, "HTTP_ADDR")
	setDurationFromEnv(&cfg.ReadTimeout, "HTTP_READ_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.WriteTimeout, "HTTP_WRITE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.IdleTimeout, "HTTP_IDLE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.ShutdownTimeout, "HTTP_SHUTDOWN_TIMEOUT", &errs)

	cfg.MapboxToken = strings.TrimSpace(os.Getenv("MAPBOX_TOKEN"))
	cfg.ORSKey = strings.TrimSpace(os.Getenv("ORS_API_KEY"))
	if cfg.ORSKey == "" {
		cfg.ORSKey = strings.TrimSpace(os.Getenv("OPENROUTESERVICE_KEY"))
	}

	setStringFromEnv(&cfg.MapboxGeocodeEndpoint, "MAPBOX_GEOCODE_ENDPOINT")
	setStringFromEnv(&cfg.ORSGeocodeEndpoint, "ORS_GEOCODE_ENDPOINT")
	setStringFromEnv(&cfg.NominatimEndpoint, "NOMINATIM_ENDPOINT")
	setStringFromEnv(&cfg.MapboxDirectionsEndpoint, "MAPBOX_DIRECTIONS_ENDPOINT")
	setStringFromEnv(&cfg.ORSDirectionsEndpoint, "ORS_DIRECTIONS_ENDPOINT")
	setStringFromEnv(&cfg.OSRMEndpoint, "OSRM_ENDPOINT")

	setFloatFromEnv(&cfg.AvgSpeedMPH, "AVG_SPEED_MPH", &errs)
	setIntFromEnv(&cfg.ETAFlagThreshold, "ETA_FLAG_THRESHOLD_SECONDS", &errs)
	setIntFromEnv(&cfg.AdjustTrigger, "ETA_ADJUST_TRIGGER_SECONDS", &errs)
	setFloatFromEnv(&cfg.AdjustDurationRatio, "ETA_ADJUST_DURATION_RATIO", &errs)
	setFloatFromEnv(&cfg.AdjustMaxMiles, "ETA_ADJUST_MAX_MILES", &errs)
	setFloatFromEnv(&cfg.AdjustFactor, "ETA_ADJUST_FACTOR", &errs)
	setFloatFromEnv(&cfg.MaxRouteDuration, "ROUTE_MAX_DURATION_SECONDS", &errs)
	setFloatFromEnv(&cfg.MaxDistanceRatio, "ROUTE_MAX_DISTANCE_RATIO", &errs)
	setFloatFromEnv(&cfg.MaxDurationRatio, "ROUTE_MAX_DURATION_RATIO", &errs)
	setFloatFromEnv(&cfg.CostMPG, "COST_MPG", &errs)
	setFloatFromEnv(&cfg.CostPricePerGallon, "COST_PRICE_PER_GALLON", &errs)

	cfg.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	setStringFromEnv(&cfg.RedisGeoKey, "REDIS_GEO_KEY")

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}
	setStringFromEnv(&cfg.KafkaTopic, "KAFKA_TOPIC")

	cfg.PGDSN = os.Getenv("PG_DSN")
	setStringFromEnv(&cfg.NotifyWebhook, "NOTIFY_WEBHOOK")

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	cfg.RunMigrations = strings.EqualFold(os.Getenv("MIGRATE"), "true")

	if cfg.AvgSpeedMPH <= 0 {
		errs = append(errs, fmt.Errorf("AVG_SPEED_MPH must be > 0"))
	}
	if cfg.AdjustFactor <= 0 {
		errs = append(errs, fmt.Errorf("ETA_ADJUST_FACTOR must be > 0"))
	}

	return cfg, errors.Join(errs...)
}

func setDurationFromEnv(target *time.Duration, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = d
	}
}

func setFloatFromEnv(target *float64, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = f
	}
}

func setIntFromEnv(target *int, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = i
	}
}

func setStringFromEnv(target *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*target = v
	}
}

func splitAndTrim(v string) []string {
	raw := strings.Split(v, ",")
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}
