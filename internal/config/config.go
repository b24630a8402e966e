package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultDSN         = "host=localhost user=postgres password=postgres dbname=techniknet port=5432 sslmode=disable"
	defaultCORSOrigins = "http://localhost:5173"
)

type Config struct {
	HTTPPort          string
	DatabaseDSN       string
	JWTSecret         string
	CORSOrigins       string
	ImagePath         string // uploaded property images are stored below this directory
	TimeZone          string
	LogLevel          string
	LogProduction     bool
	ImportMaxMessages int // diagnostics shown per interactive import, <= 0 means all
	UploadLimitMB     int
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("DATABASE_DSN", defaultDSN)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("CORS_ALLOWED_ORIGINS", defaultCORSOrigins)
	v.SetDefault("IMAGE_PATH", "./property-images")
	v.SetDefault("TIME_ZONE", "Europe/Berlin")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRODUCTION", false)
	v.SetDefault("IMPORT_MAX_MESSAGES", 10)
	v.SetDefault("UPLOAD_LIMIT_MB", 32)
	return v
}

func read(v *viper.Viper) *Config {
	return &Config{
		HTTPPort:          v.GetString("HTTP_PORT"),
		DatabaseDSN:       v.GetString("DATABASE_DSN"),
		JWTSecret:         v.GetString("JWT_SECRET"),
		CORSOrigins:       v.GetString("CORS_ALLOWED_ORIGINS"),
		ImagePath:         v.GetString("IMAGE_PATH"),
		TimeZone:          v.GetString("TIME_ZONE"),
		LogLevel:          strings.ToLower(v.GetString("LOG_LEVEL")),
		LogProduction:     v.GetBool("LOG_PRODUCTION"),
		ImportMaxMessages: v.GetInt("IMPORT_MAX_MESSAGES"),
		UploadLimitMB:     v.GetInt("UPLOAD_LIMIT_MB"),
	}
}

// Load reads the server configuration. A missing or short JWT secret is fatal.
func Load() *Config {
	cfg := read(newViper())

	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET is not set")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET must be at least 32 characters long")
	}
	warnDefaults(cfg)

	return cfg
}

// LoadForTool reads the configuration for command line tools, which never sign tokens.
func LoadForTool() *Config {
	cfg := read(newViper())
	if cfg.DatabaseDSN == defaultDSN {
		log.Println("[WARN] DATABASE_DSN uses the default value")
	}
	return cfg
}

func warnDefaults(cfg *Config) {
	if cfg.DatabaseDSN == defaultDSN {
		log.Println("[WARN] DATABASE_DSN uses the default value, set your own Postgres connection for production")
	}
	if cfg.CORSOrigins == defaultCORSOrigins {
		log.Println("[WARN] CORS_ALLOWED_ORIGINS uses the default value, set your own domain for production")
	}
}

// Location resolves TIME_ZONE. Naive spreadsheet dates are anchored in this zone.
func (c *Config) Location() *time.Location {
	if c.TimeZone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		log.Printf("[WARN] unknown TIME_ZONE %q, falling back to local time: %v", c.TimeZone, err)
		return time.Local
	}
	return loc
}

// CORSOriginList splits the comma separated origin list and trims every entry.
func (c *Config) CORSOriginList() []string {
	origins := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
