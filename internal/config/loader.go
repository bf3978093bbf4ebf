package config

import (
	"fmt"
	"os"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"
)

var durationType = reflect.TypeOf(time.Duration(0))

// Load reads configuration from the process environment, applies defaults
// and validates the result.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom is Load with a custom lookup, used by the CLI to layer flag
// values over the environment.
func LoadFrom(getenv func(string) string) (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem(), getenv); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// loadStruct walks the struct and fills every field carrying an env tag.
func loadStruct(v reflect.Value, getenv func(string) string) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)
		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct {
			if err := loadStruct(fieldVal, getenv); err != nil {
				return err
			}
			continue
		}

		name := field.Tag.Get("env")
		if name == "" {
			continue
		}

		value := getenv(name)
		if alt := field.Tag.Get("envAlt"); value == "" && alt != "" {
			value = getenv(alt)
		}
		if value == "" {
			if field.Tag.Get("required") == "true" {
				return fmt.Errorf("required environment variable %s is not set", name)
			}
			value = field.Tag.Get("default")
		}
		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", name, value, err)
		}
	}

	return nil
}

// setField parses value into the field according to its kind.
func setField(field reflect.Value, value string) error {
	switch {
	case field.Type() == durationType:
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		field.SetInt(int64(d))

	case field.Kind() == reflect.String:
		field.SetString(value)

	case field.Kind() == reflect.Int, field.Kind() == reflect.Int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		field.SetInt(n)

	case field.Kind() == reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case field.Kind() == reflect.Slice && field.Type().Elem().Kind() == reflect.String:
		var items []string
		for _, p := range strings.Split(value, ",") {
			if p = strings.TrimSpace(p); p != "" {
				items = append(items, p)
			}
		}
		field.Set(reflect.ValueOf(items))

	default:
		return fmt.Errorf("unsupported field type: %s", field.Type())
	}
	return nil
}

// Drivers lists the accepted STORAGE_DRIVER values.
var Drivers = []string{"file", "sqlite", "postgres", "memory"}

// Validate checks the whole configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	if c.Server.EventsHeartbeat <= 0 {
		errs = append(errs, "SERVER_EVENTS_HEARTBEAT must be positive")
	}

	driver := strings.ToLower(c.Storage.Driver)
	switch {
	case !slices.Contains(Drivers, driver):
		errs = append(errs, fmt.Sprintf("STORAGE_DRIVER (%q) must be one of: %s", c.Storage.Driver, strings.Join(Drivers, ", ")))
	case driver == "postgres":
		if c.Storage.DatabaseURL == "" {
			errs = append(errs, "DATABASE_URL is required when STORAGE_DRIVER is postgres")
		}
		if c.Storage.MaxConns <= 0 {
			errs = append(errs, "DB_MAX_CONNS must be positive")
		}
		if c.Storage.MaxConns < c.Storage.MinConns {
			errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)",
				c.Storage.MaxConns, c.Storage.MinConns))
		}
	case driver == "file" || driver == "sqlite":
		if c.Storage.Path == "" {
			errs = append(errs, "STORAGE_PATH is required for the "+driver+" driver")
		}
	}

	if c.Import.MaxFileSize <= 0 {
		errs = append(errs, "IMPORT_MAX_FILE_SIZE must be positive")
	}
	switch strings.ToLower(c.Import.YearPolicy) {
	case "verbatim", "batch", "graduation":
	default:
		errs = append(errs, fmt.Sprintf("IMPORT_YEAR_POLICY (%q) must be one of: verbatim, batch, graduation", c.Import.YearPolicy))
	}
	if c.Import.Timeout <= 0 {
		errs = append(errs, "IMPORT_TIMEOUT must be positive")
	}
	if c.Import.MaxConcurrent <= 0 {
		errs = append(errs, "IMPORT_MAX_CONCURRENT must be positive")
	}

	if c.Rate.Enabled && c.Rate.RequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}
	if c.Rate.Enabled && c.Rate.ImportLimit <= 0 {
		errs = append(errs, "RATE_LIMIT_IMPORT must be positive when rate limiting is enabled")
	}

	if c.Security.RequireAPIKey && len(c.Security.APIKeys) == 0 {
		errs = append(errs, "API_KEYS is required when REQUIRE_API_KEY is true")
	}

	if c.Auction.DefaultBudget <= 0 {
		errs = append(errs, "AUCTION_DEFAULT_BUDGET must be positive")
	}
	if c.Auction.ActivityLimit <= 0 {
		errs = append(errs, "AUCTION_ACTIVITY_LIMIT must be positive")
	}

	if !slices.Contains([]string{"debug", "info", "warn", "error"}, strings.ToLower(c.Logging.Level)) {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}
	if !slices.Contains([]string{"text", "json"}, strings.ToLower(c.Logging.Format)) {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// String returns a representation safe for logs; the database URL is masked.
func (c *Config) String() string {
	dbURL := ""
	if c.Storage.DatabaseURL != "" {
		dbURL = "[MASKED]"
	}
	return fmt.Sprintf(
		"Config{Server: {Addr: %q}, Storage: {Driver: %q, Path: %q, URL: %s}, Import: {MaxFileSize: %d, YearPolicy: %q}, Rate: {Enabled: %v, RequestsPerMinute: %d}, Logging: {Level: %q, Format: %q}}",
		c.Server.Addr(),
		c.Storage.Driver, c.Storage.Path, dbURL,
		c.Import.MaxFileSize, c.Import.YearPolicy,
		c.Rate.Enabled, c.Rate.RequestsPerMinute,
		c.Logging.Level, c.Logging.Format,
	)
}
