package config

import (
	"errors"  // For validation errors
	"fmt"     // For error formatting
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"strings" // For list parsing
	"time"    // For durations

	"ecovendix/internal/utils" // For identifier rules

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort          string        // Application port
	DBUser           string        // Database user
	DBPassword       string        // Database password
	DBHost           string        // Database host
	DBPort           string        // Database port
	DBName           string        // Database name
	RedisAddr        string        // Redis server address
	RedisPass        string        // Redis password
	RedisDB          int           // Redis database number
	SessionSecret    string        // HMAC key for session tokens
	SessionTTL       time.Duration // Session lifetime
	CookieSecure     bool          // Send the session cookie over HTTPS only
	AllowedOrigins   []string      // Origins accepted by the CSRF check
	StoreTimeout     time.Duration // Upper bound for a single store unit of work
	CredentialLength int           // Number of digits in a credential
	AdminStudentID   string        // Reserved identifier of the bootstrap admin
	AdminCredential  string        // Credential given to the bootstrap admin on first start
	LoginRate        float64       // Login/signup attempts per second per client
	LoginBurst       int           // Login/signup burst per client
	LogLevel         string        // logrus level
	IsProd           bool          // Is production environment
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	return &Config{
		AppPort:          getEnv("APP_PORT", "8000"),
		DBUser:           getEnv("DB_USER", "root"),
		DBPassword:       os.Getenv("DB_PASSWORD"),
		DBHost:           getEnv("DB_HOST", "localhost"),
		DBPort:           getEnv("DB_PORT", "3306"),
		DBName:           getEnv("DB_NAME", "ecovendix"),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:        os.Getenv("REDIS_PASS"),
		RedisDB:          getInt("REDIS_DB", 0),
		SessionSecret:    os.Getenv("SESSION_SECRET"),
		SessionTTL:       getDuration("SESSION_TTL", 24*time.Hour),
		CookieSecure:     os.Getenv("COOKIE_SECURE") == "true",
		AllowedOrigins:   splitList(os.Getenv("ALLOWED_ORIGINS")),
		StoreTimeout:     getDuration("STORE_TIMEOUT", 5*time.Second),
		CredentialLength: getInt("CREDENTIAL_LENGTH", 4),
		AdminStudentID:   getEnv("ADMIN_STUDENT_ID", "000000000"),
		AdminCredential:  os.Getenv("ADMIN_CREDENTIAL"),
		LoginRate:        getFloat("LOGIN_RATE", 1),
		LoginBurst:       getInt("LOGIN_BURST", 5),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		IsProd:           os.Getenv("IS_PROD") == "true", // Is production environment
	}
}

// Validate reports the first configuration problem that would make the server unsafe to start.
func (c *Config) Validate() error {
	if len(c.SessionSecret) < 32 {
		return errors.New("SESSION_SECRET must be at least 32 bytes")
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.StoreTimeout <= 0 {
		return errors.New("STORE_TIMEOUT must be positive")
	}
	if c.CredentialLength < 4 || c.CredentialLength > 12 {
		return fmt.Errorf("CREDENTIAL_LENGTH must be between 4 and 12, got %d", c.CredentialLength)
	}
	if !utils.IsValidStudentID(c.AdminStudentID) {
		return fmt.Errorf("ADMIN_STUDENT_ID must be 9 or 10 digits, got %q", c.AdminStudentID)
	}
	if c.LoginRate <= 0 || c.LoginBurst <= 0 {
		return errors.New("LOGIN_RATE and LOGIN_BURST must be positive")
	}
	return nil
}

// DSN returns the MySQL data source name for gorm
func (c *Config) DSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true&loc=UTC"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
