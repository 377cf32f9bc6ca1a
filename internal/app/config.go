package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/unexbilletera/unex-api/internal/clients/coelsa"
	"github.com/unexbilletera/unex-api/internal/clients/redis"
	"github.com/unexbilletera/unex-api/internal/data/db"
	"github.com/unexbilletera/unex-api/internal/observability"
	"github.com/unexbilletera/unex-api/internal/platform/envutil"
	"github.com/unexbilletera/unex-api/internal/platform/logger"
	"github.com/unexbilletera/unex-api/internal/services"
)

const defaultServiceName = "unex-api"

type Config struct {
	LogMode      string
	Port         string
	JWTSecretKey string

	Postgres db.PostgresConfig

	RedisAddr    string
	RedisChannel string

	Coelsa     coelsa.Config
	Compliance services.ComplianceConfig

	SandboxEnabled bool
	CORSOrigins    []string

	Otel        observability.OtelConfig
	Metrics     observability.MetricsConfig
	MetricsAddr string
}

// fileConfig is the optional YAML overlay named by CONFIG_FILE. Environment
// variables still win over anything set here.
type fileConfig struct {
	Compliance struct {
		AccountType  string   `yaml:"accountType"`
		ActiveStatus string   `yaml:"activeStatus"`
		HistoryTypes []string `yaml:"historyTypes"`
	} `yaml:"compliance"`
	CORSOrigins []string `yaml:"corsOrigins"`
	Sandbox     *bool    `yaml:"sandboxEnabled"`
}

// LoadDotEnv loads .env (or ENV_FILE) into the process environment when the
// file exists. Variables already set are not overwritten.
func LoadDotEnv() error {
	path := strings.TrimSpace(os.Getenv("ENV_FILE"))
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func LoadConfig(log *logger.Logger) (Config, error) {
	overlay, err := readFileConfig(strings.TrimSpace(os.Getenv("CONFIG_FILE")))
	if err != nil {
		return Config{}, err
	}

	sandboxDefault := false
	if overlay.Sandbox != nil {
		sandboxDefault = *overlay.Sandbox
	}
	historyTypes := services.DefaultComplianceHistoryTypes
	if len(overlay.Compliance.HistoryTypes) > 0 {
		historyTypes = overlay.Compliance.HistoryTypes
	}

	secretsBcrypt := envutil.GetEnvAsBool("COMPLIANCE_SECRET_IS_BCRYPT", false, log)

	cfg := Config{
		LogMode:      envutil.GetEnv("LOG_MODE", "development", log),
		Port:         envutil.GetEnv("PORT", "8080", log),
		JWTSecretKey: envutil.GetEnv("JWT_SECRET_KEY", "", log),
		Postgres: db.PostgresConfig{
			Host:            envutil.GetEnv("POSTGRES_HOST", "localhost", log),
			Port:            envutil.GetEnv("POSTGRES_PORT", "5432", log),
			User:            envutil.GetEnv("POSTGRES_USER", "postgres", log),
			Password:        envutil.GetEnv("POSTGRES_PASSWORD", "", log),
			Name:            envutil.GetEnv("POSTGRES_NAME", "unex", log),
			SSLMode:         envutil.GetEnv("POSTGRES_SSLMODE", "disable", log),
			MaxOpenConns:    envutil.GetEnvAsInt("POSTGRES_MAX_OPEN_CONNS", 20, log),
			MaxIdleConns:    envutil.GetEnvAsInt("POSTGRES_MAX_IDLE_CONNS", 10, log),
			ConnMaxLifetime: envutil.GetEnvAsDuration("POSTGRES_CONN_MAX_LIFETIME", 30*time.Minute, log),
		},
		RedisAddr:    envutil.GetEnv("REDIS_ADDR", "", log),
		RedisChannel: envutil.GetEnv("REDIS_CHANNEL", redis.DefaultChannel, log),
		Coelsa: coelsa.Config{
			BaseURL: envutil.GetEnv("COELSA_API_URL", "", log),
			APIKey:  envutil.GetEnv("COELSA_API_KEY", "", log),
			Timeout: envutil.GetEnvAsDuration("COELSA_TIMEOUT", 30*time.Second, log),
			Retries: envutil.GetEnvAsInt("COELSA_RETRIES", 0, log),
		},
		Compliance: services.ComplianceConfig{
			Summary: services.ComplianceCredentials{
				Passphrase:     envutil.GetEnv("COMPLIANCE_SUMMARY_PASSPHRASE", "", log),
				Secret:         envutil.GetEnv("COMPLIANCE_SUMMARY_SECRET", "", log),
				SecretIsBcrypt: secretsBcrypt,
			},
			History: services.ComplianceCredentials{
				Passphrase:     envutil.GetEnv("COMPLIANCE_HISTORY_PASSPHRASE", "", log),
				Secret:         envutil.GetEnv("COMPLIANCE_HISTORY_SECRET", "", log),
				SecretIsBcrypt: secretsBcrypt,
			},
			AccountType:  envutil.GetEnv("COMPLIANCE_ACCOUNT_TYPE", orDefault(overlay.Compliance.AccountType, services.DefaultComplianceAccountType), log),
			ActiveStatus: envutil.GetEnv("COMPLIANCE_ACTIVE_STATUS", orDefault(overlay.Compliance.ActiveStatus, services.DefaultComplianceActiveStatus), log),
			HistoryTypes: envutil.GetEnvAsList("COMPLIANCE_HISTORY_TYPES", historyTypes),
		},
		SandboxEnabled: envutil.GetEnvAsBool("SANDBOX_ENABLED", sandboxDefault, log),
		CORSOrigins:    envutil.GetEnvAsList("CORS_ALLOWED_ORIGINS", overlay.CORSOrigins),
		Otel: observability.OtelConfig{
			Enabled:     envutil.GetEnvAsBool("OTEL_ENABLED", false, log),
			ServiceName: envutil.GetEnv("OTEL_SERVICE_NAME", defaultServiceName, log),
			Environment: envutil.GetEnv("OTEL_ENVIRONMENT", envutil.GetEnv("APP_ENV", "development", log), log),
			Version:     envutil.GetEnv("OTEL_SERVICE_VERSION", "dev", log),
			SampleRatio: getEnvAsFloat("OTEL_SAMPLER_RATIO", 0.1, log),
			Endpoint:    envutil.GetEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "", log),
			Headers:     observability.ParseHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS")),
			Insecure:    envutil.GetEnvAsBool("OTEL_EXPORTER_OTLP_INSECURE", false, log),
		},
		Metrics: observability.MetricsConfig{
			Enabled:        envutil.GetEnvAsBool("METRICS_ENABLED", false, log),
			ScrapeInterval: envutil.GetEnvAsDuration("METRICS_SCRAPE_INTERVAL_SECONDS", 10*time.Second, log),
		},
		MetricsAddr: envutil.GetEnv("METRICS_ADDR", ":9090", log),
	}
	cfg.Compliance = cfg.Compliance.WithDefaults()

	if cfg.JWTSecretKey == "" {
		log.Warn("JWT_SECRET_KEY not set; bearer-protected routes will reject every request")
	}
	if cfg.Coelsa.BaseURL == "" {
		log.Warn("COELSA_API_URL not set; proxy requests will answer 501")
	}
	return cfg, nil
}

func readFileConfig(path string) (fileConfig, error) {
	var fc fileConfig
	if path == "" {
		return fc, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fc, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return fc, nil
}

func getEnvAsFloat(key string, defaultVal float64, log *logger.Logger) float64 {
	valStr := strings.TrimSpace(os.Getenv(key))
	if valStr == "" {
		return defaultVal
	}
	v, err := strconv.ParseFloat(valStr, 64)
	if err != nil {
		if log != nil {
			log.Debug("Environment variable could not be parsed as float, using default", "env_var", key, "providedVal", valStr)
		}
		return defaultVal
	}
	return v
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
