package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port        string
	DatabaseDSN string
	Env         string

	LogLevel  string
	LogFormat string

	// Identité du vendeur sur les exports Factur-X et PDF.
	EntrepriseNom string
	EntrepriseTVA string
}

// Load loads configuration from environment with sensible defaults.
// Precedence: explicit env var > .env file (if loaded by user) > default.
func Load() Config {
	cfg := Config{}
	cfg.Port = getEnv("PORT", "8080")
	cfg.DatabaseDSN = getEnv("DATABASE_DSN", "file:gestibat.db")
	cfg.Env = getEnv("APP_ENV", "development")
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.LogFormat = getEnv("LOG_FORMAT", "console")
	cfg.EntrepriseNom = getEnv("ENTREPRISE_NOM", "Entreprise BTP")
	cfg.EntrepriseTVA = getEnv("ENTREPRISE_TVA", "")
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// ParseBool reads an env var as bool with default.
func ParseBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return def
		}
		return b
	}
	return def
}
