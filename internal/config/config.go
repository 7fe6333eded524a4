package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// Config настройки процесса из окружения
type Config struct {
	HTTPAddr       string        `validate:"required,hostname_port"`
	DatabaseURL    string
	JWTSecret      string        `validate:"required,min=16"`
	TokenTTL       time.Duration `validate:"gt=0"`
	AllowedOrigins []string      `validate:"min=1,dive,required"`
	KafkaBrokers   []string      `validate:"dive,hostname_port"`
	ConsulAddr     string        `validate:"omitempty,hostname_port"`
	ServiceName    string        `validate:"required"`
	LogLevel       string        `validate:"oneof=debug info warn error"`
	GinMode        string        `validate:"omitempty,oneof=debug release test"`
	SeedDemoData   bool
	AdminUserIDs   []uuid.UUID
}

// Load читает .env (если есть) и переменные окружения
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// уже заданные переменные окружения не перезаписываются
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := Config{
		HTTPAddr:       getenv("HTTP_ADDR", ":9091"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		AllowedOrigins: splitList(getenv("CORS_ALLOWED_ORIGINS", "*")),
		KafkaBrokers:   splitList(os.Getenv("KAFKA_BROKERS")),
		ConsulAddr:     os.Getenv("CONSUL_ADDR"),
		ServiceName:    getenv("SERVICE_NAME", "warung-madura"),
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		GinMode:        os.Getenv("GIN_MODE"),
	}

	ttl, err := time.ParseDuration(getenv("TOKEN_TTL", "24h"))
	if err != nil {
		return Config{}, fmt.Errorf("TOKEN_TTL: %w", err)
	}
	cfg.TokenTTL = ttl

	if v := os.Getenv("SEED_DEMO_DATA"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("SEED_DEMO_DATA: %w", err)
		}
		cfg.SeedDemoData = b
	}

	for _, raw := range splitList(os.Getenv("ADMIN_USER_IDS")) {
		id, err := uuid.Parse(raw)
		if err != nil {
			return Config{}, fmt.Errorf("ADMIN_USER_IDS: %w", err)
		}
		cfg.AdminUserIDs = append(cfg.AdminUserIDs, id)
	}

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
