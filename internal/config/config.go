package config

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	App struct {
		Port            string        `mapstructure:"port"`
		Env             string        `mapstructure:"env"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
		// MaxBodyBytes caps JSON request bodies.
		MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	} `mapstructure:"app"`
	DB struct {
		Driver     string `mapstructure:"driver"`
		DSN        string `mapstructure:"dsn"`
		SQLitePath string `mapstructure:"sqlite_path"`
	} `mapstructure:"db"`
	Redis struct {
		Addr     string        `mapstructure:"addr"`
		Password string        `mapstructure:"password"`
		CacheTTL time.Duration `mapstructure:"cache_ttl"`
	} `mapstructure:"redis"`
	Kafka struct {
		Brokers         []string `mapstructure:"brokers"`
		PortfolioTopic  string   `mapstructure:"portfolio_topic"`
		IdentityTopic   string   `mapstructure:"identity_topic"`
		IdentityGroupID string   `mapstructure:"identity_group_id"`
	} `mapstructure:"kafka"`
	Auth struct {
		JWTSecret     string        `mapstructure:"jwt_secret"`
		TokenLifespan time.Duration `mapstructure:"token_lifespan"`
		WebhookSecret string        `mapstructure:"webhook_secret"`
	} `mapstructure:"auth"`
	Parser struct {
		URL            string        `mapstructure:"url"`
		Timeout        time.Duration `mapstructure:"timeout"`
		MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
	} `mapstructure:"parser"`
	LLM struct {
		BaseURL       string  `mapstructure:"base_url"`
		APIKey        string  `mapstructure:"api_key"`
		Model         string  `mapstructure:"model"`
		Temperature   float32 `mapstructure:"temperature"`
		RatePerSecond float64 `mapstructure:"rate_per_second"`
		Burst         int     `mapstructure:"burst"`
	} `mapstructure:"llm"`
	Cloudinary struct {
		CloudName string `mapstructure:"cloud_name"`
		ApiKey    string `mapstructure:"api_key"`
		ApiSecret string `mapstructure:"api_secret"`
		Folder    string `mapstructure:"folder"`
	} `mapstructure:"cloudinary"`
	Tracing struct {
		OTLPEndpoint string `mapstructure:"otlp_endpoint"`
		ServiceName  string `mapstructure:"service_name"`
	} `mapstructure:"tracing"`
	CORS struct {
		AllowOrigins []string `mapstructure:"allow_origins"`
	} `mapstructure:"cors"`
}

var envBindings = map[string]string{
	"app.port":                "APP_PORT",
	"app.env":                 "APP_ENV",
	"app.shutdown_timeout":    "APP_SHUTDOWN_TIMEOUT",
	"app.max_body_bytes":      "APP_MAX_BODY_BYTES",
	"db.driver":               "DB_DRIVER",
	"db.dsn":                  "DB_DSN",
	"db.sqlite_path":          "DB_SQLITE_PATH",
	"redis.addr":              "REDIS_ADDR",
	"redis.password":          "REDIS_PASSWORD",
	"redis.cache_ttl":         "REDIS_CACHE_TTL",
	"kafka.brokers":           "KAFKA_BROKERS",
	"kafka.portfolio_topic":   "KAFKA_PORTFOLIO_TOPIC",
	"kafka.identity_topic":    "KAFKA_IDENTITY_TOPIC",
	"kafka.identity_group_id": "KAFKA_IDENTITY_GROUP_ID",
	"auth.jwt_secret":         "JWT_SECRET",
	"auth.token_lifespan":     "TOKEN_LIFESPAN",
	"auth.webhook_secret":     "WEBHOOK_SECRET",
	"parser.url":              "FLASK_API_URL",
	"parser.timeout":          "PARSER_TIMEOUT",
	"parser.max_upload_bytes": "PARSER_MAX_UPLOAD_BYTES",
	"llm.base_url":            "OPENAI_BASE_URL",
	"llm.api_key":             "OPENAI_API_KEY",
	"llm.model":               "OPENAI_MODEL",
	"llm.temperature":         "OPENAI_TEMPERATURE",
	"llm.rate_per_second":     "OPENAI_RATE_PER_SECOND",
	"llm.burst":               "OPENAI_BURST",
	"cloudinary.cloud_name":   "CLOUDINARY_CLOUD_NAME",
	"cloudinary.api_key":      "CLOUDINARY_API_KEY",
	"cloudinary.api_secret":   "CLOUDINARY_API_SECRET",
	"cloudinary.folder":       "CLOUDINARY_FOLDER",
	"tracing.otlp_endpoint":   "OTLP_ENDPOINT",
	"tracing.service_name":    "TRACING_SERVICE_NAME",
	"cors.allow_origins":      "CORS_ALLOW_ORIGINS",
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.shutdown_timeout", 10*time.Second)
	v.SetDefault("app.max_body_bytes", 1<<20)
	v.SetDefault("db.driver", DriverPostgres)
	v.SetDefault("db.sqlite_path", "folio.db")
	v.SetDefault("redis.cache_ttl", 5*time.Minute)
	v.SetDefault("kafka.portfolio_topic", "portfolio.events")
	v.SetDefault("kafka.identity_topic", "identity.events")
	v.SetDefault("kafka.identity_group_id", "portfolio-identity-sync")
	v.SetDefault("auth.token_lifespan", 24*time.Hour)
	v.SetDefault("parser.url", "http://localhost:5000")
	v.SetDefault("parser.timeout", 60*time.Second)
	v.SetDefault("parser.max_upload_bytes", 10<<20)
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.temperature", 0.5)
	v.SetDefault("llm.rate_per_second", 2.0)
	v.SetDefault("llm.burst", 5)
	v.SetDefault("cloudinary.folder", "resumes")
	v.SetDefault("tracing.service_name", "folio-api")
	v.SetDefault("cors.allow_origins", []string{"http://localhost:3000"})
}

// LoadConfig reads .env and config.yaml from the given directories (the
// working directory when none are given), then environment variables.
func LoadConfig(paths ...string) (cfg Config, err error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	for _, p := range paths {
		if err := godotenv.Load(filepath.Join(p, ".env")); err == nil {
			break
		}
	}

	v := viper.New()
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		log.Printf("note: config.yaml not found, using environment only")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err = v.BindEnv(key, env); err != nil {
			return cfg, fmt.Errorf("bind env %s: %w", env, err)
		}
	}
	applyDefaults(v)

	if err = v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	cfg.Kafka.Brokers = splitList(cfg.Kafka.Brokers)
	cfg.CORS.AllowOrigins = splitList(cfg.CORS.AllowOrigins)

	err = cfg.Validate()
	return cfg, err
}

// Validate checks settings every binary needs.
func (c Config) Validate() error {
	var errs []error
	switch c.DB.Driver {
	case DriverPostgres:
		if c.DB.DSN == "" {
			errs = append(errs, errors.New("db.dsn is required for the postgres driver"))
		}
	case DriverSQLite:
		if c.DB.SQLitePath == "" {
			errs = append(errs, errors.New("db.sqlite_path is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported db.driver %q", c.DB.Driver))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	if c.App.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("app.max_body_bytes must be positive"))
	}
	if c.Parser.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("parser.max_upload_bytes must be positive"))
	}
	return errors.Join(errs...)
}

// splitList accepts both YAML lists and comma separated env values.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
