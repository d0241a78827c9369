package config

import (
	"log"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/rm-hull/fuel-metrics-api/internal/compare"
	"github.com/rm-hull/fuel-metrics-api/internal/recommend"
	"github.com/rm-hull/fuel-metrics-api/internal/trend"
)

const DEFAULT_SOURCE_URL = "https://www.gov.br/anp/pt-br/assuntos/precos-e-defesa-da-concorrencia/precos/levantamento-de-precos-de-combustiveis-ultimas-semanas-pesquisadas"

// Config carries the tunables of the analytics engine and the adapters around
// it. Every field has a default so an empty environment is valid; SOURCE_URL
// falls back to DEFAULT_SOURCE_URL.
type Config struct {
	TrendWindow         time.Duration `env:"TREND_WINDOW,default=168h"`
	TrendMinSamples     int           `env:"TREND_MIN_SAMPLES,default=3"`
	TrendUpPct          float64       `env:"TREND_UP_PCT,default=1.5"`
	TrendDownPct        float64       `env:"TREND_DOWN_PCT,default=1.5"`
	OutlierThresholdPct float64       `env:"OUTLIER_THRESHOLD_PCT,default=10"`
	SafetyMarginPct     float64       `env:"SAFETY_MARGIN_PCT,default=10"`
	MaxDetourKm         float64       `env:"MAX_DETOUR_KM,default=50"`
	SourceURL           string        `env:"SOURCE_URL"`
	Retention           time.Duration `env:"RETENTION,default=2160h"`
	CacheTTL            time.Duration `env:"CACHE_TTL,default=1h"`
}

// Load reads an optional .env file and then decodes the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	return FromEnv()
}

func FromEnv() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, errors.Wrap(err, "failed to decode environment")
	}
	if cfg.SourceURL == "" {
		cfg.SourceURL = DEFAULT_SOURCE_URL
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Default() Config {
	return Config{
		TrendWindow:         trend.DefaultWindow,
		TrendMinSamples:     trend.DefaultThresholds().MinSamples,
		TrendUpPct:          trend.DefaultThresholds().UpPct,
		TrendDownPct:        trend.DefaultThresholds().DownPct,
		OutlierThresholdPct: compare.DefaultOutlierThreshold,
		SafetyMarginPct:     10,
		MaxDetourKm:         recommend.DefaultPolicy().MaxDetourKm,
		SourceURL:           DEFAULT_SOURCE_URL,
		Retention:           90 * 24 * time.Hour,
		CacheTTL:            time.Hour,
	}
}

func (c Config) Validate() error {
	switch {
	case c.TrendWindow <= 0:
		return errors.Newf("TREND_WINDOW must be positive, got %s", c.TrendWindow)
	case c.TrendMinSamples < 1:
		return errors.Newf("TREND_MIN_SAMPLES must be at least 1, got %d", c.TrendMinSamples)
	case c.TrendUpPct < 0 || c.TrendDownPct < 0:
		return errors.Newf("trend thresholds must not be negative, got up=%v down=%v", c.TrendUpPct, c.TrendDownPct)
	case c.OutlierThresholdPct < 0:
		return errors.Newf("OUTLIER_THRESHOLD_PCT must not be negative, got %v", c.OutlierThresholdPct)
	case c.SafetyMarginPct < 0 || c.SafetyMarginPct >= 100:
		return errors.Newf("SAFETY_MARGIN_PCT must be in [0, 100), got %v", c.SafetyMarginPct)
	case c.MaxDetourKm < 0:
		return errors.Newf("MAX_DETOUR_KM must not be negative, got %v", c.MaxDetourKm)
	case c.Retention <= 0:
		return errors.Newf("RETENTION must be positive, got %s", c.Retention)
	}
	return nil
}

func (c Config) Thresholds() trend.Thresholds {
	return trend.Thresholds{
		UpPct:      c.TrendUpPct,
		DownPct:    c.TrendDownPct,
		MinSamples: c.TrendMinSamples,
	}
}

func (c Config) Policy() recommend.Policy {
	p := recommend.DefaultPolicy()
	p.MaxDetourKm = c.MaxDetourKm
	return p
}

// SafetyMargin is the reserve as a fraction of the tank.
func (c Config) SafetyMargin() decimal.Decimal {
	return decimal.NewFromFloat(c.SafetyMarginPct).Div(decimal.NewFromInt(100))
}
