package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppEnv        string `mapstructure:"APP_ENV"`
	Port          string `mapstructure:"PORT"`
	BaseURL       string `mapstructure:"BASE_URL"`
	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	RedisURL      string `mapstructure:"REDIS_URL"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	SessionSecret string `mapstructure:"SESSION_SECRET"`
	AdminAPIKey   string `mapstructure:"ADMIN_API_KEY"`

	SlugLength        int           `mapstructure:"SLUG_LENGTH"`
	RecordTimeout     time.Duration `mapstructure:"RECORD_TIMEOUT"`
	EnforceLinkLimits bool          `mapstructure:"ENFORCE_LINK_LIMITS"`
	RateLimitRPS      float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst    int           `mapstructure:"RATE_LIMIT_BURST"`

	MaxMindAccountID  string `mapstructure:"MAXMIND_ACCOUNT_ID"`
	MaxMindLicenseKey string `mapstructure:"MAXMIND_LICENSE_KEY"`
	MaxMindEditionIDs string `mapstructure:"MAXMIND_EDITION_IDS"`
	MaxMindDBPath     string `mapstructure:"GEOIP_DB_PATH"`
	GeoIPProbeIP      string `mapstructure:"GEOIP_PROBE_IP"`

	// Branding for the not-found page.
	BrandName       string `mapstructure:"BRAND_NAME"`
	NotFoundTitle   string `mapstructure:"NOT_FOUND_TITLE"`
	NotFoundMessage string `mapstructure:"NOT_FOUND_MESSAGE"`
}

func LoadConfig() (config Config, err error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("APP_ENV", "local")
	v.SetDefault("PORT", "8080")
	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("DATABASE_URL", "sqlite://shortlinks.db")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("SESSION_SECRET", "change-me-change-me-change-me-32b")
	v.SetDefault("ADMIN_API_KEY", "")

	v.SetDefault("SLUG_LENGTH", 6)
	v.SetDefault("RECORD_TIMEOUT", "10s")
	v.SetDefault("ENFORCE_LINK_LIMITS", true)
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)

	v.SetDefault("MAXMIND_ACCOUNT_ID", "")
	v.SetDefault("MAXMIND_LICENSE_KEY", "")
	v.SetDefault("MAXMIND_EDITION_IDS", "GeoLite2-City")
	v.SetDefault("GEOIP_DB_PATH", "./geoip/GeoLite2-City.mmdb")
	v.SetDefault("GEOIP_PROBE_IP", "8.8.8.8")

	v.SetDefault("BRAND_NAME", "Short Links")
	v.SetDefault("NOT_FOUND_TITLE", "Link not found")
	v.SetDefault("NOT_FOUND_MESSAGE", "The link you followed does not exist or is no longer available.")

	v.AutomaticEnv()

	err = v.Unmarshal(&config)
	if err != nil {
		log.Printf("unable to decode into struct, %v", err)
		return
	}

	return
}

// IsProduction reports whether the service runs with production settings.
func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}
