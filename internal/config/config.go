package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type AppConfig struct {
	Port         string        `validate:"required"`
	ReadTimeout  time.Duration `validate:"required"`
	WriteTimeout time.Duration `validate:"required"`
	IdleTimeout  time.Duration `validate:"required"`
}

type DbConfig struct {
	DSN             string `validate:"required"`
	MaxOpenConns    int    `validate:"gt=0"`
	MaxIdleConns    int    `validate:"gte=0"`
	MaxConnLifetime time.Duration
}

type JWTConfig struct {
	// PublicKeyPaths is the rotation list, tried in order during
	// verification. At least one key (or a JWKS URL) must be configured.
	PublicKeyPaths []string `validate:"required_without=JWKSURL"`
	JWKSURL        string   `validate:"omitempty,url"`
	JWKSCacheTTL   time.Duration
	Issuer         string `validate:"required"`
	Audience       string
}

type Config struct {
	AppConfig *AppConfig
	DbConfig  *DbConfig
	JWTConfig *JWTConfig
}

func LoadConfig(logger *zap.Logger) (*Config, error) {
	if err := godotenv.Load("./../.env"); err != nil {
		logger.Warn("failed to load .env file, relying on environment", zap.Error(err))
	}

	/** db config */
	dsn := os.Getenv("POSTGRES_DSN")

	mocs := os.Getenv("DB_MAX_OPEN_CONNS")
	mics := os.Getenv("DB_MAX_IDLE_CONNS")
	mcls := os.Getenv("DB_CONN_MAX_LIFETIME")

	maxOpenConns, err := strconv.Atoi(mocs)
	if err != nil {
		return nil, err
	}
	maxIdleConns, err := strconv.Atoi(mics)
	if err != nil {
		return nil, err
	}
	maxConnLifetimeDuration, err := time.ParseDuration(mcls)
	if err != nil {
		return nil, err
	}

	dbConfig := &DbConfig{
		DSN:             dsn,
		MaxOpenConns:    maxOpenConns,
		MaxIdleConns:    maxIdleConns,
		MaxConnLifetime: maxConnLifetimeDuration,
	}

	/** app config */
	port := os.Getenv("APP_PORT")

	rts := os.Getenv("APP_READ_TIMEOUT")
	wts := os.Getenv("APP_WRITE_TIMEOUT")
	its := os.Getenv("APP_IDLE_TIMEOUT")

	readTimeoutDuration, err := time.ParseDuration(rts)
	if err != nil {
		return nil, err
	}
	writeTimeoutDuration, err := time.ParseDuration(wts)
	if err != nil {
		return nil, err
	}
	idleTimeoutDuration, err := time.ParseDuration(its)
	if err != nil {
		return nil, err
	}

	appConfig := &AppConfig{
		Port:         port,
		ReadTimeout:  readTimeoutDuration,
		WriteTimeout: writeTimeoutDuration,
		IdleTimeout:  idleTimeoutDuration,
	}

	/** jwt config */
	var keyPaths []string
	if raw := os.Getenv("JWT_PUBLIC_KEYS"); raw != "" {
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				keyPaths = append(keyPaths, p)
			}
		}
	}
	jwksTTL := time.Hour
	if raw := os.Getenv("JWT_JWKS_CACHE_TTL"); raw != "" {
		jwksTTL, err = time.ParseDuration(raw)
		if err != nil {
			return nil, err
		}
	}
	jwtConfig := &JWTConfig{
		PublicKeyPaths: keyPaths,
		JWKSURL:        os.Getenv("JWT_JWKS_URL"),
		JWKSCacheTTL:   jwksTTL,
		Issuer:         os.Getenv("JWT_ISSUER"),
		Audience:       os.Getenv("JWT_AUDIENCE"),
	}

	cfg := &Config{
		DbConfig:  dbConfig,
		AppConfig: appConfig,
		JWTConfig: jwtConfig,
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	for _, section := range []any{appConfig, dbConfig, jwtConfig} {
		if err := v.Struct(section); err != nil {
			logger.Error("config validation failed", zap.Error(err))
			return nil, err
		}
	}

	return cfg, nil
}
