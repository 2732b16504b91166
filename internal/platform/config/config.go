package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "MEDREMIND"

// Drivers de storage soportados.
const (
	DriverAuto     = "auto"
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config se carga desde variables MEDREMIND_* (ej: MEDREMIND_PORT, MEDREMIND_SWEEPER_INTERVAL).
type Config struct {
	Port int `envconfig:"PORT" default:"8080"`

	DBDriver   string `envconfig:"DB_DRIVER" default:"auto"`
	DBDSN      string `envconfig:"DB_DSN" default:""`
	SQLitePath string `envconfig:"SQLITE_PATH" default:"medremind.db"`

	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`
	Swagger     bool     `envconfig:"SWAGGER" default:"true"`

	Sweeper Sweeper `envconfig:"SWEEPER"`
}

type Sweeper struct {
	Enabled      bool          `envconfig:"ENABLED" default:"true"`
	Interval     time.Duration `envconfig:"INTERVAL" default:"10m"`
	Grace        time.Duration `envconfig:"GRACE" default:"30m"`
	Window       time.Duration `envconfig:"WINDOW" default:"120m"`
	Workers      int           `envconfig:"WORKERS" default:"4"`
	StoreTimeout time.Duration `envconfig:"STORE_TIMEOUT" default:"5s"`
	Timezone     string        `envconfig:"TIMEZONE" default:"Local"`
}

// Load procesa el entorno, resuelve defaults derivados y valida.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: process env: %w", err)
	}
	if err := cfg.ResolveDefaults(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ResolveDefaults deriva DBDriver cuando viene "auto" y valida el resto.
func (c *Config) ResolveDefaults() error {
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	if c.DBDriver == "" || c.DBDriver == DriverAuto {
		if strings.TrimSpace(c.DBDSN) != "" {
			c.DBDriver = DriverPostgres
		} else {
			c.DBDriver = DriverMemory
		}
	}

	switch c.DBDriver {
	case DriverMemory, DriverSQLite:
	case DriverPostgres:
		if strings.TrimSpace(c.DBDSN) == "" {
			return errors.New("config: DB_DSN required for postgres driver")
		}
	default:
		return fmt.Errorf("config: unsupported DB_DRIVER: %s", c.DBDriver)
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: invalid PORT: %d", c.Port)
	}

	return c.Sweeper.Validate()
}

func (s Sweeper) Validate() error {
	if s.Interval <= 0 {
		return errors.New("config: SWEEPER_INTERVAL must be > 0")
	}
	if s.Grace <= 0 {
		return errors.New("config: SWEEPER_GRACE must be > 0")
	}
	if s.Window <= s.Grace {
		return errors.New("config: SWEEPER_WINDOW must be greater than SWEEPER_GRACE")
	}
	if s.Workers < 1 {
		return errors.New("config: SWEEPER_WORKERS must be >= 1")
	}
	if s.StoreTimeout <= 0 {
		return errors.New("config: SWEEPER_STORE_TIMEOUT must be > 0")
	}
	if _, err := s.Location(); err != nil {
		return err
	}
	return nil
}

// Location resuelve la zona horaria del día calendario usado por el sweeper.
func (s Sweeper) Location() (*time.Location, error) {
	tz := strings.TrimSpace(s.Timezone)
	if tz == "" || strings.EqualFold(tz, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("config: invalid SWEEPER_TIMEZONE %q: %w", tz, err)
	}
	return loc, nil
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
