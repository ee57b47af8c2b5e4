package config

import (
	"github.com/kelseyhightower/envconfig"
)

// DefaultSessionSecret is the insecure out-of-the-box signing secret. Startup
// refuses to run in production while it is still in use.
const DefaultSessionSecret = "dev-insecure-session-secret"

type Config struct {
	Port string `envconfig:"PORT" default:"8080"`
	Env  string `envconfig:"ENV" default:"development"`

	// Sessions
	SessionSecret     string `envconfig:"SESSION_SECRET" default:"dev-insecure-session-secret"`
	SessionTTLMinutes int    `envconfig:"SESSION_TTL_MINUTES" default:"360"`

	// Passwords
	BcryptCost int `envconfig:"BCRYPT_COST" default:"10"`

	// Global rate ceiling per client IP
	RateLimitMax       int `envconfig:"RATE_LIMIT_MAX" default:"30"`
	RateLimitWindowSec int `envconfig:"RATE_LIMIT_WINDOW_SEC" default:"60"`

	// Optional Redis (session store + login lockout). Empty means in-memory.
	RedisAddr string `envconfig:"REDIS_ADDR"`
	RedisPass string `envconfig:"REDIS_PASS"`
	RedisDB   int    `envconfig:"REDIS_DB" default:"0"`
}

func Load() (Config, error) {
	var c Config
	err := envconfig.Process("", &c)
	return c, err
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}
