package configs

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App struct {
		Name     string `koanf:"name"`
		HTTPAddr string `koanf:"http_addr"`
		LogLevel string `koanf:"log_level"`
	} `koanf:"app"`

	HTTP struct {
		ReadTimeout  time.Duration `koanf:"read_timeout"`
		WriteTimeout time.Duration `koanf:"write_timeout"`
		IdleTimeout  time.Duration `koanf:"idle_timeout"`
	} `koanf:"http"`

	// Backend is the remote order/address/payment service this engine fronts.
	Backend struct {
		BaseURL   string        `koanf:"base_url"`
		Timeout   time.Duration `koanf:"timeout"`
		UserAgent string        `koanf:"user_agent"`
	} `koanf:"backend"`

	Fees struct {
		BaseFee      float64 `koanf:"base_fee"`
		FreeRadiusKm float64 `koanf:"free_radius_km"`
		PerKmRate    float64 `koanf:"per_km_rate"`
		TaxRate      float64 `koanf:"tax_rate"`
		Currency     string  `koanf:"currency"`
	} `koanf:"fees"`

	Tracking struct {
		PollInterval     time.Duration `koanf:"poll_interval"`
		MaxPolls         int           `koanf:"max_polls"`
		CancelWindowSecs int           `koanf:"cancel_window_secs"`
		CloseDelay       time.Duration `koanf:"close_delay"`
	} `koanf:"tracking"`

	MySQL struct {
		DSN             string        `koanf:"dsn"`
		MaxOpenConns    int           `koanf:"max_open_conns"`
		MaxIdleConns    int           `koanf:"max_idle_conns"`
		ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	} `koanf:"mysql"`

	Redis struct {
		Addr     string        `koanf:"addr"`
		Password string        `koanf:"password"`
		CartTTL  time.Duration `koanf:"cart_ttl"`
	} `koanf:"redis"`

	Rabbit struct {
		URL      string `koanf:"url"`
		Exchange string `koanf:"exchange"`
	} `koanf:"rabbitmq"`

	Kafka struct {
		Brokers     []string `koanf:"brokers"`
		GroupID     string   `koanf:"group_id"`
		TopicStatus string   `koanf:"topic_status"`
	} `koanf:"kafka"`

	Security struct {
		JWTSecret string `koanf:"jwt_secret"`
		Issuer    string `koanf:"issuer"`
		Audience  string `koanf:"audience"`
	} `koanf:"security"`
}

func Load(pathDir, envName string) (Config, error) {
	k := koanf.New(".")
	// 1) base
	if err := k.Load(file.Provider(fmt.Sprintf("%s/base.yaml", pathDir)), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("load base: %w", err)
	}

	// 2) env override (dev/staging/prod). Optional: allow missing for local runs.
	_ = k.Load(file.Provider(fmt.Sprintf("%s/%s.yaml", pathDir, envName)), yaml.Parser())

	// 3) environment variables override (prefix CHEFSYNC_, nested with __)
	// e.g. CHEFSYNC_BACKEND__BASE_URL, CHEFSYNC_REDIS__PASSWORD
	if err := k.Load(env.Provider("CHEFSYNC_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "CHEFSYNC_")
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Fees.BaseFee == 0 {
		c.Fees.BaseFee = 50
	}
	if c.Fees.FreeRadiusKm == 0 {
		c.Fees.FreeRadiusKm = 5
	}
	if c.Fees.PerKmRate == 0 {
		c.Fees.PerKmRate = 15
	}
	if c.Fees.TaxRate == 0 {
		c.Fees.TaxRate = 0.10
	}
	if c.Fees.Currency == "" {
		c.Fees.Currency = "LKR"
	}
	if c.Tracking.PollInterval == 0 {
		c.Tracking.PollInterval = 10 * time.Second
	}
	if c.Tracking.MaxPolls == 0 {
		c.Tracking.MaxPolls = 30
	}
	if c.Tracking.CancelWindowSecs == 0 {
		c.Tracking.CancelWindowSecs = 600
	}
	if c.Tracking.CloseDelay == 0 {
		c.Tracking.CloseDelay = 3 * time.Second
	}
}

func (c Config) Validate() error {
	if c.App.HTTPAddr == "" {
		return fmt.Errorf("app.http_addr required")
	}
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url required")
	}
	if c.MySQL.DSN == "" {
		return fmt.Errorf("mysql.dsn required")
	}
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers required (can be dummy for now)")
	}
	return nil
}
