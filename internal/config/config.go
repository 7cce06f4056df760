package config

import (
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"jobdex/internal/logging/types"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port         int           `yaml:"port" default:"8080"`
		Host         string        `yaml:"host" default:"0.0.0.0"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"30s"`
		IdleTimeout  time.Duration `yaml:"idle_timeout" default:"60s"`
	} `yaml:"server"`

	Database struct {
		URL            string        `yaml:"url"`
		MinConns       int           `yaml:"min_conns" default:"1"`
		MaxConns       int           `yaml:"max_conns" default:"5"`
		AcquireTimeout time.Duration `yaml:"acquire_timeout" default:"5s"`
		QueryTimeout   time.Duration `yaml:"query_timeout" default:"10s"`
	} `yaml:"database"`

	Workers struct {
		PoolSize  int           `yaml:"pool_size" default:"4"`
		QueueSize int           `yaml:"queue_size" default:"100"`
		RateLimit int           `yaml:"rate_limit" default:"120"` // requests per minute
		Timeout   time.Duration `yaml:"timeout" default:"30s"`
	} `yaml:"workers"`

	Extractor struct {
		Template string `yaml:"template" default:"auto"` // positional, labeled, auto
	} `yaml:"extractor"`

	Logging struct {
		Level    string                `yaml:"level" default:"info"`
		Format   string                `yaml:"format" default:"json"`
		Adapters []types.AdapterConfig `yaml:"adapters"`
	} `yaml:"logging"`
}

// expandEnvVars expands environment variables in a string using ${VAR} or $VAR syntax
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	s = re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	re2 := regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
	s = re2.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[1:]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	return s
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Load .env file if it exists (ignore errors if file doesn't exist)
	_ = godotenv.Load()

	config := &Config{}

	// Set defaults
	config.Server.Port = 8080
	config.Server.Host = "0.0.0.0"
	config.Server.ReadTimeout = 30 * time.Second
	config.Server.WriteTimeout = 30 * time.Second
	config.Server.IdleTimeout = 60 * time.Second

	config.Database.MinConns = 1
	config.Database.MaxConns = 5
	config.Database.AcquireTimeout = 5 * time.Second
	config.Database.QueryTimeout = 10 * time.Second

	config.Workers.PoolSize = 4
	config.Workers.QueueSize = 100
	config.Workers.RateLimit = 120
	config.Workers.Timeout = 30 * time.Second

	config.Extractor.Template = "auto"

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	// Load from YAML file if it exists
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			yamlContent := expandEnvVars(string(data))

			if err := yaml.Unmarshal([]byte(yamlContent), config); err != nil {
				return nil, err
			}
		}
	}

	// Override with environment variables
	config.loadFromEnv()

	return config, nil
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if host := os.Getenv("HOST"); host != "" {
		c.Server.Host = host
	}

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		c.Database.URL = dbURL
	}

	if minConns := os.Getenv("DB_MIN_CONNS"); minConns != "" {
		if n, err := strconv.Atoi(minConns); err == nil {
			c.Database.MinConns = n
		}
	}

	if maxConns := os.Getenv("DB_MAX_CONNS"); maxConns != "" {
		if n, err := strconv.Atoi(maxConns); err == nil {
			c.Database.MaxConns = n
		}
	}

	if acquireTimeout := os.Getenv("DB_ACQUIRE_TIMEOUT"); acquireTimeout != "" {
		if timeout, err := time.ParseDuration(acquireTimeout); err == nil {
			c.Database.AcquireTimeout = timeout
		}
	}

	if queryTimeout := os.Getenv("DB_QUERY_TIMEOUT"); queryTimeout != "" {
		if timeout, err := time.ParseDuration(queryTimeout); err == nil {
			c.Database.QueryTimeout = timeout
		}
	}

	if poolSize := os.Getenv("WORKER_POOL_SIZE"); poolSize != "" {
		if n, err := strconv.Atoi(poolSize); err == nil {
			c.Workers.PoolSize = n
		}
	}

	if queueSize := os.Getenv("WORKER_QUEUE_SIZE"); queueSize != "" {
		if n, err := strconv.Atoi(queueSize); err == nil {
			c.Workers.QueueSize = n
		}
	}

	if rateLimit := os.Getenv("WORKER_RATE_LIMIT"); rateLimit != "" {
		if n, err := strconv.Atoi(rateLimit); err == nil {
			c.Workers.RateLimit = n
		}
	}

	if timeout := os.Getenv("WORKER_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			c.Workers.Timeout = d
		}
	}

	if template := os.Getenv("EXTRACTOR_TEMPLATE"); template != "" {
		c.Extractor.Template = template
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	if logFormat := os.Getenv("LOG_FORMAT"); logFormat != "" {
		c.Logging.Format = logFormat
	}
}
