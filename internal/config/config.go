package config // package config loads application configuration from environment variables

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Optional integrations (cache, event bus, MQTT
// bridge) carry their own sub-configs and are disabled when their address
// is left empty.
type Config struct {
	Env             string        // application environment (e.g. "dev", "prod")
	Port            string        // HTTP port to listen on
	MongoURI        string        // document store connection string
	DBName          string        // database name
	AdminKey        string        // shared secret required by POST /register
	BcryptCost      int           // bcrypt cost for password hashing
	RequestTimeout  time.Duration // deadline applied to store calls per request
	ShutdownTimeout time.Duration // budget for graceful shutdown
	CORSOrigins     []string      // allowed CORS origins

	Cache  CacheConfig
	Events EventsConfig
	MQTT   MQTTConfig
}

// Load reads configuration values from environment variables.  Every
// missing required variable is reported in a single error so operators can
// fix the environment in one pass.
func Load() (Config, error) {
	var missing []string
	must := func(key string) string {
		v, ok := os.LookupEnv(key)
		if !ok || strings.TrimSpace(v) == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg := Config{
		Env:             envStr("APP_ENV", "dev"),
		Port:            envStr("PORT", "3000"),
		MongoURI:        must("MONGODB_URI"),
		DBName:          must("DB_NAME"),
		AdminKey:        must("KEY_ADMIN"),
		BcryptCost:      envInt("BCRYPT_COST", 10),
		RequestTimeout:  envDur("REQUEST_TIMEOUT", 5*time.Second),
		ShutdownTimeout: envDur("SHUTDOWN_TIMEOUT", 10*time.Second),
		CORSOrigins:     splitList(envStr("CORS_ORIGINS", "*")),
		Cache:           LoadCacheConfig(),
		Events:          LoadEventsConfig(),
		MQTT:            LoadMQTTConfig(),
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return Config{}, fmt.Errorf("invalid BCRYPT_COST %d: must be between 4 and 31", cfg.BcryptCost)
	}
	return cfg, nil
}

// IsProd reports whether the service runs in production mode.
func (c Config) IsProd() bool {
	return strings.EqualFold(c.Env, "prod") || strings.EqualFold(c.Env, "production")
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
