package config

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`

	Server struct {
		Port            int           `yaml:"port" default:"8080" validate:"gt=0,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`

	Radar struct {
		Asset          string        `yaml:"asset" default:"btc" validate:"oneof=btc eth sol xrp"`
		Symbol         string        `yaml:"symbol" default:"BTCUSDT" validate:"required"`
		Interval       string        `yaml:"interval" default:"1m"`
		Window         time.Duration `yaml:"window" default:"15m" validate:"gt=0"`
		MarketRefresh  time.Duration `yaml:"market_refresh" default:"1m"`
		PriceBeatAlert float64       `yaml:"price_beat_alert" default:"80"`
	} `yaml:"radar"`

	Binance struct {
		RESTURL   string   `yaml:"rest_url" default:"https://api.binance.com/api/v3"`
		Endpoints []string `yaml:"endpoints"`
	} `yaml:"binance"`

	Polymarket struct {
		ClobURL  string        `yaml:"clob_url" default:"https://clob.polymarket.com"`
		GammaURL string        `yaml:"gamma_url" default:"https://gamma-api.polymarket.com"`
		QuoteTTL time.Duration `yaml:"quote_ttl" default:"500ms"`
	} `yaml:"polymarket"`

	Signal struct {
		Weights struct {
			Momentum          float64 `yaml:"momentum" default:"0.30"`
			Divergence        float64 `yaml:"divergence" default:"0.20"`
			SupportResistance float64 `yaml:"support_resistance" default:"0.10"`
			MACD              float64 `yaml:"macd" default:"0.15"`
			VWAP              float64 `yaml:"vwap" default:"0.15"`
			Bollinger         float64 `yaml:"bollinger" default:"0.10"`
		} `yaml:"weights"`
		VolThreshold       float64 `yaml:"vol_threshold" default:"0.03"`
		VolAmplifier       float64 `yaml:"vol_amplifier" default:"1.3"`
		ChopMult           float64 `yaml:"chop_mult" default:"0.50"`
		TrendBoost         float64 `yaml:"trend_boost" default:"1.15"`
		CounterMult        float64 `yaml:"counter_mult" default:"0.70"`
		NeutralZone        float64 `yaml:"neutral_zone" default:"0.10"`
		DivergenceLookback int     `yaml:"divergence_lookback" default:"6" validate:"gt=0"`
		SRLookback         int     `yaml:"sr_lookback" default:"20" validate:"gt=0"`
	} `yaml:"signal"`

	Indicators struct {
		RSIPeriod  int     `yaml:"rsi_period" default:"7" validate:"gt=0"`
		MACDFast   int     `yaml:"macd_fast" default:"5" validate:"gt=0"`
		MACDSlow   int     `yaml:"macd_slow" default:"10" validate:"gt=0"`
		MACDSignal int     `yaml:"macd_signal" default:"4" validate:"gt=0"`
		BBPeriod   int     `yaml:"bb_period" default:"14" validate:"gt=0"`
		BBStd      float64 `yaml:"bb_std" default:"2.0" validate:"gt=0"`
		ADXPeriod  int     `yaml:"adx_period" default:"7" validate:"gt=0"`
	} `yaml:"indicators"`

	Trading struct {
		Enabled        bool          `yaml:"enabled" default:"false"`
		Shares         float64       `yaml:"shares" default:"10" validate:"gt=0"`
		MonitorTimeout time.Duration `yaml:"monitor_timeout" default:"10m"`
	} `yaml:"trading"`

	Kafka struct {
		Enabled      bool     `yaml:"enabled" default:"false"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"polyradar.signals"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			BatchTimeout time.Duration `yaml:"batch_timeout" default:"1s"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async" default:"false"`
		} `yaml:"producer"`
	} `yaml:"kafka"`

	ClickHouse struct {
		Enabled      bool          `yaml:"enabled" default:"false"`
		Host         string        `yaml:"host"`
		Port         int           `yaml:"port" default:"9000"`
		Database     string        `yaml:"database" default:"polyradar"`
		User         string        `yaml:"user" default:"default"`
		Password     string        `yaml:"password"`
		DialTimeout  time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		AsyncInsert  bool          `yaml:"async_insert" default:"true"`
	} `yaml:"clickhouse"`

	Redis struct {
		Enabled  bool   `yaml:"enabled" default:"false"`
		Host     string `yaml:"host" default:"localhost"`
		Port     int    `yaml:"port" default:"6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db" default:"0"`
		Prefix   string `yaml:"prefix" default:"polyradar"`
	} `yaml:"redis"`

	Logging struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error fatal panic"`
		Format string `yaml:"format" default:"console" validate:"oneof=json console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"logging"`
}

// Load reads and parses a YAML configuration file. Defaults are
// applied before parsing so the file only needs to list overrides.
func Load(path string) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment
// variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("RADAR_ASSET"); v != "" {
		c.Radar.Asset = v
	}
	if v := os.Getenv("RADAR_SYMBOL"); v != "" {
		c.Radar.Symbol = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	return c, nil
}

var validate = validator.New()

// Validate checks structural constraints plus the cross-field rules
// the tag language cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	w := c.Signal.Weights
	sum := w.Momentum + w.Divergence + w.SupportResistance + w.MACD + w.VWAP + w.Bollinger
	if math.Abs(sum-1.0) > 0.001 {
		return fmt.Errorf("signal.weights must sum to 1.0, got %.3f", sum)
	}

	if c.Radar.Window != 5*time.Minute && c.Radar.Window != 15*time.Minute {
		return fmt.Errorf("radar.window must be 5m or 15m, got %s", c.Radar.Window)
	}

	if c.Indicators.MACDFast >= c.Indicators.MACDSlow {
		return fmt.Errorf("indicators.macd_fast must be below macd_slow")
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when kafka is enabled")
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when clickhouse is enabled")
	}
	return nil
}
