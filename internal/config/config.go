package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

type Config struct {
	Environment    string // ENV: production, development, etc.
	Port           string
	MongoURI       string
	MongoDatabase  string
	PostgresURI    string
	RedisURI       string
	AllowedOrigins []string // CORS: from ALLOWED_ORIGINS or FRONTEND_URL(s)

	FirebaseCredentialsFile string
	FirebaseProjectID       string
	GooglePlacesAPIKey      string

	JobTimezone      *time.Location
	RecapSchedule    string
	RevisitSchedule  string
	JobTimeout       time.Duration
	SchedulerEnabled bool
	JobsAPIKey       string // empty disables the X-Jobs-Key check

	PlacesDebounce time.Duration

	SMTP         SMTPConfig
	ResetURLBase string
}

type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// Enabled reports whether outgoing mail is configured.
func (s SMTPConfig) Enabled() bool {
	return s.Host != ""
}

const (
	DefaultRecapSchedule   = "0 10 1 * *"
	DefaultRevisitSchedule = "0 10 * * 1"
	DefaultJobTimezone     = "America/New_York"
	DefaultJobTimeout      = 540 * time.Second
	DefaultPlacesDebounce  = 500 * time.Millisecond
)

// Load reads the configuration from the environment. It returns an error
// for values that are present but cannot be parsed.
func Load() (*Config, error) {
	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", "development")))

	loc, err := time.LoadLocation(getEnv("JOB_TIMEZONE", DefaultJobTimezone))
	if err != nil {
		return nil, fmt.Errorf("JOB_TIMEZONE: %w", err)
	}
	jobTimeout, err := getDuration("JOB_TIMEOUT", DefaultJobTimeout)
	if err != nil {
		return nil, err
	}
	debounce, err := getDuration("PLACES_DEBOUNCE", DefaultPlacesDebounce)
	if err != nil {
		return nil, err
	}
	schedulerEnabled, err := getBool("SCHEDULER_ENABLED", true)
	if err != nil {
		return nil, err
	}
	smtpPort, err := getInt("SMTP_PORT", 587)
	if err != nil {
		return nil, err
	}

	allowedOrigins := parseOrigins(getEnv("ALLOWED_ORIGINS", ""))
	if len(allowedOrigins) == 0 {
		for _, u := range []string{getEnv("FRONTEND_URL", "http://localhost:3000"), getEnv("FRONTEND_URL_2", "")} {
			u = strings.TrimSpace(u)
			if u != "" && !containsOrigin(allowedOrigins, u) {
				allowedOrigins = append(allowedOrigins, u)
			}
		}
	}

	return &Config{
		Environment:    env,
		Port:           getEnv("PORT", "8080"),
		MongoURI:       getEnv("MONGODB_URI", getEnv("MONGO_URI", "mongodb://localhost:27017/tastetracker")),
		MongoDatabase:  getEnv("MONGODB_DATABASE", "tastetracker"),
		PostgresURI:    getEnv("POSTGRES_URI", "postgres://localhost:5432/tastetracker?sslmode=disable"),
		RedisURI:       getEnv("REDIS_URI", "redis://localhost:6379/0"),
		AllowedOrigins: allowedOrigins,

		FirebaseCredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		GooglePlacesAPIKey:      getEnv("GOOGLE_PLACES_API_KEY", ""),

		JobTimezone:      loc,
		RecapSchedule:    getEnv("RECAP_SCHEDULE", DefaultRecapSchedule),
		RevisitSchedule:  getEnv("REVISIT_SCHEDULE", DefaultRevisitSchedule),
		JobTimeout:       jobTimeout,
		SchedulerEnabled: schedulerEnabled,
		JobsAPIKey:       getEnv("JOBS_API_KEY", ""),

		PlacesDebounce: debounce,

		SMTP: SMTPConfig{
			Host: getEnv("SMTP_HOST", ""),
			Port: smtpPort,
			User: getEnv("SMTP_USER", ""),
			Pass: getEnv("SMTP_PASS", ""),
			From: getEnv("SMTP_FROM", ""),
		},
		ResetURLBase: getEnv("RESET_URL_BASE", "http://localhost:3000/reset-password"),
	}, nil
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func containsOrigin(list []string, o string) bool {
	o = strings.TrimSpace(strings.ToLower(o))
	for _, v := range list {
		if strings.TrimSpace(strings.ToLower(v)) == o {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %s", key, v)
	}
	return d, nil
}

func getInt(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
