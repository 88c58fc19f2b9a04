package app

import (
	"strings"

	"github.com/charlesng35/userlookup/internal/database"
)

// DatabaseClientConfig converts the application database configuration into the database package representation.
func (c DatabaseConfig) DatabaseClientConfig() database.Config {
	cfg := database.Config{
		Driver:        strings.ToLower(strings.TrimSpace(c.Driver)),
		Path:          strings.TrimSpace(c.Path),
		DSN:           strings.TrimSpace(c.DSN),
		SlowThreshold: c.SlowQueryThreshold,
		Timeout:       c.ConnectTimeout,
	}

	var auth DBAuthConfig
	switch cfg.Driver {
	case "", "sqlite":
		cfg.Driver = "sqlite"
		return cfg
	case "postgres", "postgresql":
		cfg.Driver = "postgres"
		auth = c.Postgres
	case "mysql":
		auth = c.MySQL
	default:
		// Leave driver as-is to surface unsupported driver error during open.
		return cfg
	}

	cfg.Host = strings.TrimSpace(auth.Host)
	cfg.Port = auth.Port
	cfg.Name = strings.TrimSpace(auth.Database)
	cfg.User = strings.TrimSpace(auth.Username)
	cfg.Password = auth.Password
	return cfg
}
