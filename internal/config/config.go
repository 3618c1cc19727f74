package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode      Mode
	HTTPAddr  string
	PublicURL string // used in "verify at" lines printed on documents

	DBDriver string
	DBDSN    string

	BlobBasePath string // certificates live under <base>/certificates

	AuthHMACSecret  string
	EnableLocalAuth bool

	CORSOriginsOnline  []string
	CORSOriginsOffline []string

	// Verification cache; empty RedisAddr disables it.
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	VerifyCacheTTL time.Duration

	IssueRetrySpec   string // cron spec for the issuance retrier
	IssueMaxAttempts int

	ScorecardHistory int

	RazorpayKeySecret string

	LogLevel string
}

// Load reads an optional .env file and then the process environment.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	return Config{
		Mode:               mode,
		HTTPAddr:           envOr("HTTP_ADDR", ":8080"),
		PublicURL:          strings.TrimSuffix(envOr("PUBLIC_URL", "http://localhost:8080"), "/"),
		DBDriver:           envOr("DB_DRIVER", "sqlite"),
		DBDSN:              envOr("DB_DSN", ""),
		BlobBasePath:       envOr("BLOB_BASE_PATH", "./data"),
		AuthHMACSecret:     envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		EnableLocalAuth:    envBool("ENABLE_LOCAL_AUTH", true),
		CORSOriginsOnline:  csvOr("CORS_ORIGINS_ONLINE", "https://courses.mindengage.ai"),
		CORSOriginsOffline: csvOr("CORS_ORIGINS_OFFLINE", "http://localhost:3000,http://localhost:5173"),

		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        envInt("REDIS_DB", 0),
		VerifyCacheTTL: envDuration("VERIFY_CACHE_TTL", 10*time.Minute),

		IssueRetrySpec:   envOr("ISSUE_RETRY_SPEC", "@every 1m"),
		IssueMaxAttempts: envInt("ISSUE_MAX_ATTEMPTS", 5),

		ScorecardHistory: envInt("SCORECARD_HISTORY", 5),

		RazorpayKeySecret: os.Getenv("RAZORPAY_KEY_SECRET"),

		LogLevel: envOr("LOG_LEVEL", "info"),
	}
}

// CORSOrigins returns the allow-list for the configured mode.
func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}
func envInt(k string, def int) int {
	v, err := strconv.Atoi(os.Getenv(k))
	if err != nil {
		return def
	}
	return v
}
func envDuration(k string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(k))
	if err != nil {
		return def
	}
	return v
}
func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
