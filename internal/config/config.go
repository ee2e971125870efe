package config

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/Skotchmaster/order_backend/pkg/config"
	pkgdb "github.com/Skotchmaster/order_backend/pkg/db"
)

type ServiceConfig struct {
	config.Config
}

// Load reads an optional .env file and then the process environment.
func Load(envFile string) ServiceConfig {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			log.Printf("notice: %s not loaded (%v), using process environment", envFile, err)
		}
	}

	cfg := config.Load()

	config.MustOneOf(cfg.DatabaseDriver, "DB_DRIVER", pkgdb.DriverPostgres, pkgdb.DriverSQLite)
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")

	return ServiceConfig{Config: cfg}
}

func (c ServiceConfig) SearchEnabled() bool {
	return c.ESURL != ""
}

func (c ServiceConfig) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}
