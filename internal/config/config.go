package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config carries everything the server reads from the environment.
// DatabaseURL and RedisAddr are optional; leaving them empty runs the shop
// fully in memory.
type Config struct {
	Port          string
	AllowedOrigin string

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CatalogTTL    time.Duration

	AuthSecret     string
	AccessTokenTTL time.Duration
	CashierTTL     time.Duration

	SeedAdminPassword    string
	SeedManagerPassword  string
	SeedSalesmanPassword string
	SeedCashierPassword  string
}

func Load() Config {
	return Config{
		Port:          getEnv("PORT", "8080"),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://localhost:5173"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CatalogTTL:    time.Duration(getEnvInt("CATALOG_TTL_SECONDS", 300)) * time.Second,

		AuthSecret:     getEnv("AUTH_SECRET", ""),
		AccessTokenTTL: time.Duration(getEnvInt("ACCESS_TOKEN_TTL_MINUTES", 480)) * time.Minute,
		CashierTTL:     time.Duration(getEnvInt("CASHIER_SESSION_MINUTES", 60)) * time.Minute,

		SeedAdminPassword:    getEnv("SEED_ADMIN_PASSWORD", ""),
		SeedManagerPassword:  getEnv("SEED_MANAGER_PASSWORD", ""),
		SeedSalesmanPassword: getEnv("SEED_SALESMAN_PASSWORD", ""),
		SeedCashierPassword:  getEnv("SEED_CASHIER_PASSWORD", ""),
	}
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
