package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Port        string `validate:"required,numeric"`
	AppEnv      string
	LogLevel    string `validate:"oneof=trace debug info warn error"`
	DBDriver    string `validate:"oneof=postgres sqlite"`
	DBDSN       string `validate:"required"`
	ImportMaxMB int    `validate:"gte=1,lte=512"`
	// DefaultRef is used when a product has no reference of its own.
	DefaultRef string `validate:"omitempty,numeric,max=4"`
}

// IsDev reports whether the app runs in a development environment.
func (c Config) IsDev() bool {
	return c.AppEnv == "" || c.AppEnv == "development" || c.AppEnv == "dev"
}

// Load reads the environment (after godotenv in main) and applies defaults.
func Load() (Config, error) {
	cfg := Config{
		Port:        getenv("PORT", "8080"),
		AppEnv:      strings.ToLower(os.Getenv("APP_ENV")),
		LogLevel:    strings.ToLower(getenv("LOG_LEVEL", "info")),
		DBDriver:    strings.ToLower(getenv("DB_DRIVER", "postgres")),
		ImportMaxMB: 48,
		DefaultRef:  strings.TrimSpace(os.Getenv("EAN_REF_DEFAULT")),
	}
	if raw := strings.TrimSpace(os.Getenv("IMPORT_MAX_MB")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			cfg.ImportMaxMB = n
		} else {
			cfg.ImportMaxMB = 0
		}
	}
	cfg.DBDSN = dsnFor(cfg.DBDriver)

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func dsnFor(driver string) string {
	if dsn := strings.TrimSpace(os.Getenv("DB_DSN")); dsn != "" {
		return dsn
	}
	if driver == "sqlite" {
		return getenv("SQLITE_PATH", "crontex.db")
	}
	user := os.Getenv("DB_USER")
	if user == "" {
		user = getenv("POSTGRES_USER", "postgres")
	}
	pass := os.Getenv("DB_PASSWORD")
	if pass == "" {
		pass = getenv("POSTGRES_PASSWORD", "postgres")
	}
	name := os.Getenv("DB_NAME")
	if name == "" {
		name = getenv("POSTGRES_DB", "crontex")
	}
	return "host=" + getenv("DB_HOST", "localhost") +
		" user=" + user +
		" password=" + pass +
		" dbname=" + name +
		" port=" + getenv("DB_PORT", "5432") +
		" sslmode=" + getenv("DB_SSLMODE", "disable")
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
