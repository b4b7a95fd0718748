package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string

	// Strapi CMS
	CMSAPIURL   string
	CMSAssetURL string
	CMSAPIToken string
	CMSTimeout  time.Duration
	CMSCacheTTL time.Duration

	SearchDebounce time.Duration

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	DatabaseURL string

	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int

	// Contact points used by chat actions and notifications
	HREmail        string
	HRPhone        string
	ReceptionEmail string
	EmergencyPhone string

	EmailProvider     string
	SendGridAPIKey    string
	EmailFromAddress  string
	EmailFromName     string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	UploadsBucket       string
}

// Load reads configuration from environment variables. A .env file in the
// working directory is applied first without overriding the environment.
func Load() *Config {
	_ = godotenv.Load()

	apiURL := strings.TrimRight(getEnv("CMS_API_URL", "http://localhost:1337/api"), "/")
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		CMSAPIURL:   apiURL,
		CMSAssetURL: strings.TrimRight(getEnv("CMS_ASSET_URL", strings.TrimSuffix(apiURL, "/api")), "/"),
		CMSAPIToken: getEnv("CMS_API_TOKEN", ""),
		CMSTimeout:  getEnvAsDuration("CMS_TIMEOUT", 10*time.Second),
		CMSCacheTTL: getEnvAsDuration("CMS_CACHE_TTL", time.Minute),

		SearchDebounce: getEnvAsDuration("SEARCH_DEBOUNCE", 500*time.Millisecond),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		RateLimitRPS:       getEnvAsFloat("RATE_LIMIT_RPS", 2),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 10),

		HREmail:        getEnv("HR_EMAIL", "careers@ktrh.or.ke"),
		HRPhone:        getEnv("HR_PHONE", "+254 758 721 997"),
		ReceptionEmail: getEnv("RECEPTION_EMAIL", "info@ktrh.or.ke"),
		EmergencyPhone: getEnv("EMERGENCY_PHONE", "+254758721997"),

		EmailProvider:     strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "auto"))),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		EmailFromAddress:  getEnv("EMAIL_FROM_ADDRESS", "no-reply@ktrh.or.ke"),
		EmailFromName:     getEnv("EMAIL_FROM_NAME", "KTRH Website"),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		UploadsBucket:       getEnv("UPLOADS_BUCKET", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blanks.
func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
