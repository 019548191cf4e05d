package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time parses duration values
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. The types reflect how the values are used in the
// application: strings for identifiers and secrets, ints and durations for
// limits and timeouts.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign session tokens
	SessionTTLHour int    // session cookie lifetime in hours
	BcryptCost     int    // bcrypt cost for password hashing

	// Translation provider settings. The key may be empty, in which case the
	// translation service runs in pass-through mode and the health endpoint
	// reports the missing configuration.
	DeepLURL         string        // base URL of the DeepL-compatible API
	DeepLKey         string        // API key for the provider
	DeepLTimeout     time.Duration // client-side timeout per provider call
	BreakerThreshold int           // consecutive failures before the breaker opens
	BreakerCooldown  time.Duration // how long the breaker stays open
	SeedMaxDuration  time.Duration // upper bound for the seed endpoint's batch loop

	StorageRoot    string // filesystem root for cloud file blobs
	DefaultQuotaMB int    // default per-user storage quota in megabytes
}

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must() and missing values cause
// the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		SessionTTLHour: mustInt("SESSION_TTL_HOURS"),
		BcryptCost:     mustInt("BCRYPT_COST"),

		DeepLURL:         getenv("DEEPL_API_URL", "https://api-free.deepl.com"),
		DeepLKey:         os.Getenv("DEEPL_API_KEY"),
		DeepLTimeout:     parseDur(getenv("DEEPL_TIMEOUT", "10s")),
		BreakerThreshold: atoi(getenv("TRANSLATE_BREAKER_THRESHOLD", "5"), 5),
		BreakerCooldown:  parseDur(getenv("TRANSLATE_BREAKER_COOLDOWN", "2m")),
		SeedMaxDuration:  parseDur(getenv("TRANSLATE_SEED_MAX_DURATION", "45s")),

		StorageRoot:    getenv("STORAGE_ROOT", "storage"),
		DefaultQuotaMB: atoi(getenv("STORAGE_DEFAULT_QUOTA_MB", "1024"), 1024),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoi(s string, def int) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func parseDur(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Second
	}
	return d
}
