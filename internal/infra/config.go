package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Account backends.
const (
	BackendPostgres = "postgres"
	BackendSupabase = "supabase"
)

// Credit policies for the generate action.
const (
	CreditPolicyOff          = "off"
	CreditPolicyAfterSuccess = "after_success"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv              string
	Port                string
	DatabaseURL         string
	DBMaxConns          int32
	JWTSecret           string
	TokenTTL            time.Duration
	AccountBackend      string
	SupabaseURL         string
	SupabaseKey         string
	RedisURL            string
	SessionTTL          time.Duration
	GeminiAPIKey        string
	GeminiModel         string
	GeminiTimeout       time.Duration
	GeminiRPS           float64
	HostKeySelection    bool
	CreditPolicy        string
	ProfileFetchTimeout time.Duration
	PaymentDelay        time.Duration
	MaxProductImages    int
	MaxUploadBytes      int64
	GoogleClientID      string
	GoogleIssuer        string
	GoogleJWKSURL       string
	GeoIPDBPath         string
	DefaultLocale       string
	CORSOrigins         []string
	HTTPReadTimeout     time.Duration
	HTTPWriteTimeout    time.Duration
	HTTPIdleTimeout     time.Duration
	RateLimitPerMin     int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:              getEnv("APP_ENV", "development"),
		Port:                getEnv("PORT", "8080"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		DBMaxConns:          int32(getEnvInt("DB_MAX_CONNS", 10)),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		TokenTTL:            time.Hour * time.Duration(getEnvInt("TOKEN_TTL_HOURS", 24)),
		AccountBackend:      strings.ToLower(getEnv("ACCOUNT_BACKEND", BackendPostgres)),
		SupabaseURL:         os.Getenv("SUPABASE_URL"),
		SupabaseKey:         os.Getenv("SUPABASE_KEY"),
		RedisURL:            os.Getenv("REDIS_URL"),
		SessionTTL:          time.Minute * time.Duration(getEnvInt("SESSION_TTL_MINUTES", 240)),
		GeminiAPIKey:        strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:         getEnv("GEMINI_MODEL", "gemini-3-pro-image-preview"),
		GeminiTimeout:       time.Second * time.Duration(getEnvInt("GEMINI_TIMEOUT_SECONDS", 120)),
		GeminiRPS:           getEnvFloat("GEMINI_RPS", 0),
		HostKeySelection:    getEnvBool("HOST_KEY_SELECTION", false),
		CreditPolicy:        strings.ToLower(getEnv("CREDIT_POLICY", CreditPolicyOff)),
		ProfileFetchTimeout: time.Millisecond * time.Duration(getEnvInt("PROFILE_FETCH_TIMEOUT_MS", 2500)),
		PaymentDelay:        time.Millisecond * time.Duration(getEnvInt("PAYMENT_SIMULATED_DELAY_MS", 2000)),
		MaxProductImages:    getEnvInt("MAX_PRODUCT_IMAGES", 5),
		MaxUploadBytes:      int64(getEnvInt("MAX_UPLOAD_MB", 25)) << 20,
		GoogleClientID:      os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleIssuer:        getEnv("GOOGLE_ISSUER", "https://accounts.google.com"),
		GoogleJWKSURL:       getEnv("GOOGLE_JWKS_URL", "https://www.googleapis.com/oauth2/v3/certs"),
		GeoIPDBPath:         os.Getenv("GEOIP_DB_PATH"),
		DefaultLocale:       getEnv("DEFAULT_LOCALE", "en"),
		CORSOrigins:         splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		HTTPReadTimeout:     time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:    time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 180)),
		HTTPIdleTimeout:     time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:     getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	switch cfg.AccountBackend {
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	case BackendSupabase:
		if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
			return nil, fmt.Errorf("SUPABASE_URL and SUPABASE_KEY are required for the supabase backend")
		}
	default:
		return nil, fmt.Errorf("unknown ACCOUNT_BACKEND %q", cfg.AccountBackend)
	}

	switch cfg.CreditPolicy {
	case CreditPolicyOff, CreditPolicyAfterSuccess:
	default:
		return nil, fmt.Errorf("unknown CREDIT_POLICY %q", cfg.CreditPolicy)
	}

	if cfg.MaxProductImages <= 0 {
		cfg.MaxProductImages = 5
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
