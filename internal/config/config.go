package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/amaumene/reelwatch/internal/models"
	"github.com/spf13/viper"
)

const (
	minIntervalMinutes  = 5
	warnIntervalMinutes = 120

	defaultAdminPassword = "admin123"
)

// PlatformConfig holds the polling and relay settings of one platform
type PlatformConfig struct {
	Interval            time.Duration // between batches
	AccountDelay        time.Duration // between accounts within a batch
	RecencyWindow       time.Duration // items older than this are ignored
	EngagementThreshold int64         // notify above this count; <= 0 disables
	ExcerptLimit        int           // runes of body text in a notification
	RateLimit           int           // requests per RatePeriod
	RatePeriod          time.Duration
}

// Config holds all application configuration
type Config struct {
	// Credentials; an empty value disables the platform
	TwitterBearerToken   string
	InstagramAccessToken string
	InstagramBusinessID  string // enables per-account business discovery
	YouTubeAPIKey        string
	NewsAPIKey           string

	// Telegram relay
	TelegramBotToken  string
	TelegramChannelID string

	// Polling
	Platforms      map[models.Platform]PlatformConfig
	RequestTimeout time.Duration
	NotifyTimeout  time.Duration
	IdleBackoff    time.Duration
	AutoStart      bool

	// Dashboard
	ServerPort       string
	AdminUsername    string
	AdminPassword    string
	PostsPerPage     int
	MaxSearchResults int
	CacheTimeout     time.Duration

	// Paths
	DatabaseFile    string // $CONFIG_DIR/reelwatch.db
	MutedTermsFile  string // $CONFIG_DIR/muted.txt
	RulesFile       string // optional classifier override
	ConfigDirectory string

	// Logging
	LogLevel  string
	LogFormat string // console or json

	// Non-fatal problems found while loading
	Warnings []string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = v.ReadInConfig()

	return FromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("TWITTER_INTERVAL", 10)
	v.SetDefault("INSTAGRAM_INTERVAL", 30)
	v.SetDefault("YOUTUBE_INTERVAL", 20)
	v.SetDefault("NEWS_INTERVAL", 30)

	v.SetDefault("TWITTER_ENGAGEMENT_THRESHOLD", 500)
	v.SetDefault("INSTAGRAM_ENGAGEMENT_THRESHOLD", 1000)
	v.SetDefault("YOUTUBE_ENGAGEMENT_THRESHOLD", 0)
	v.SetDefault("NEWS_ENGAGEMENT_THRESHOLD", 0)

	// Requests per 15 minutes, hour, day and day respectively
	v.SetDefault("TWITTER_RATE_LIMIT", 300)
	v.SetDefault("INSTAGRAM_RATE_LIMIT", 200)
	v.SetDefault("YOUTUBE_RATE_LIMIT", 10000)
	v.SetDefault("NEWS_RATE_LIMIT", 100)

	v.SetDefault("REQUEST_TIMEOUT_SECONDS", 10)
	v.SetDefault("NOTIFY_TIMEOUT_SECONDS", 10)
	v.SetDefault("IDLE_BACKOFF_SECONDS", 60)
	v.SetDefault("AUTO_START", false)

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("ADMIN_PASSWORD", defaultAdminPassword)
	v.SetDefault("POSTS_PER_PAGE", models.DefaultPerPage)
	v.SetDefault("MAX_SEARCH_RESULTS", models.DefaultSearchLimit)
	v.SetDefault("CACHE_DEFAULT_TIMEOUT", 300)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
}

// FromViper builds a Config from an already populated viper instance
func FromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	configDir := v.GetString("CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "reelwatch")
	} else {
		absPath, err := filepath.Abs(configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for CONFIG_DIR: %w", err)
		}
		configDir = absPath
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	config := &Config{
		TwitterBearerToken:   v.GetString("TWITTER_BEARER_TOKEN"),
		InstagramAccessToken: v.GetString("INSTAGRAM_ACCESS_TOKEN"),
		InstagramBusinessID:  v.GetString("INSTAGRAM_BUSINESS_ID"),
		YouTubeAPIKey:        v.GetString("YOUTUBE_API_KEY"),
		NewsAPIKey:           v.GetString("NEWS_API_KEY"),

		TelegramBotToken:  v.GetString("TELEGRAM_BOT_TOKEN"),
		TelegramChannelID: v.GetString("TELEGRAM_CHANNEL_ID"),

		RequestTimeout: time.Duration(v.GetInt("REQUEST_TIMEOUT_SECONDS")) * time.Second,
		NotifyTimeout:  time.Duration(v.GetInt("NOTIFY_TIMEOUT_SECONDS")) * time.Second,
		IdleBackoff:    time.Duration(v.GetInt("IDLE_BACKOFF_SECONDS")) * time.Second,
		AutoStart:      v.GetBool("AUTO_START"),

		ServerPort:       v.GetString("SERVER_PORT"),
		AdminUsername:    v.GetString("ADMIN_USERNAME"),
		AdminPassword:    v.GetString("ADMIN_PASSWORD"),
		PostsPerPage:     v.GetInt("POSTS_PER_PAGE"),
		MaxSearchResults: v.GetInt("MAX_SEARCH_RESULTS"),
		CacheTimeout:     time.Duration(v.GetInt("CACHE_DEFAULT_TIMEOUT")) * time.Second,

		DatabaseFile:    filepath.Join(configDir, "reelwatch.db"),
		MutedTermsFile:  filepath.Join(configDir, "muted.txt"),
		RulesFile:       v.GetString("CLASSIFIER_RULES_FILE"),
		ConfigDirectory: configDir,

		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),
	}

	config.Platforms = map[models.Platform]PlatformConfig{
		models.PlatformTwitter: {
			Interval:            minutes(v, "TWITTER_INTERVAL"),
			AccountDelay:        5 * time.Second,
			RecencyWindow:       24 * time.Hour,
			EngagementThreshold: v.GetInt64("TWITTER_ENGAGEMENT_THRESHOLD"),
			ExcerptLimit:        300,
			RateLimit:           v.GetInt("TWITTER_RATE_LIMIT"),
			RatePeriod:          15 * time.Minute,
		},
		models.PlatformInstagram: {
			Interval:            minutes(v, "INSTAGRAM_INTERVAL"),
			AccountDelay:        10 * time.Second,
			RecencyWindow:       12 * time.Hour,
			EngagementThreshold: v.GetInt64("INSTAGRAM_ENGAGEMENT_THRESHOLD"),
			ExcerptLimit:        250,
			RateLimit:           v.GetInt("INSTAGRAM_RATE_LIMIT"),
			RatePeriod:          time.Hour,
		},
		models.PlatformYouTube: {
			Interval:            minutes(v, "YOUTUBE_INTERVAL"),
			AccountDelay:        3 * time.Second,
			RecencyWindow:       6 * time.Hour,
			EngagementThreshold: v.GetInt64("YOUTUBE_ENGAGEMENT_THRESHOLD"),
			ExcerptLimit:        200,
			RateLimit:           v.GetInt("YOUTUBE_RATE_LIMIT"),
			RatePeriod:          24 * time.Hour,
		},
		models.PlatformNews: {
			Interval:            minutes(v, "NEWS_INTERVAL"),
			AccountDelay:        5 * time.Second,
			RecencyWindow:       6 * time.Hour,
			EngagementThreshold: v.GetInt64("NEWS_ENGAGEMENT_THRESHOLD"),
			ExcerptLimit:        250,
			RateLimit:           v.GetInt("NEWS_RATE_LIMIT"),
			RatePeriod:          24 * time.Hour,
		},
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func minutes(v *viper.Viper, key string) time.Duration {
	return time.Duration(v.GetInt(key)) * time.Minute
}

// validate rejects unusable values and records warnings for risky ones
func (c *Config) validate() error {
	for _, p := range models.Platforms {
		interval := int(c.Platforms[p].Interval / time.Minute)
		if interval < minIntervalMinutes {
			return fmt.Errorf("%s interval should be at least %d minutes to avoid rate limits", p, minIntervalMinutes)
		}
		if interval > warnIntervalMinutes {
			c.Warnings = append(c.Warnings, fmt.Sprintf("%s interval is very high (%d minutes)", p, interval))
		}
		if c.Platforms[p].RateLimit <= 0 {
			return fmt.Errorf("%s rate limit must be positive", p)
		}
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT_SECONDS must be positive")
	}
	if c.AdminUsername == "" {
		return fmt.Errorf("ADMIN_USERNAME is required")
	}
	if c.AdminPassword == defaultAdminPassword {
		c.Warnings = append(c.Warnings, "using default admin password, change ADMIN_PASSWORD")
	}

	credentials := c.CredentialStatus()
	for _, p := range models.Platforms {
		if !credentials[p] {
			c.Warnings = append(c.Warnings, fmt.Sprintf("%s credentials missing, monitoring for it stays idle", p))
		}
	}
	if c.TelegramBotToken == "" || c.TelegramChannelID == "" {
		c.Warnings = append(c.Warnings, "Telegram not configured, notifications are disabled")
	}

	return nil
}

// CredentialStatus reports which platforms have credentials configured
func (c *Config) CredentialStatus() map[models.Platform]bool {
	return map[models.Platform]bool{
		models.PlatformTwitter:   c.TwitterBearerToken != "",
		models.PlatformInstagram: c.InstagramAccessToken != "",
		models.PlatformYouTube:   c.YouTubeAPIKey != "",
		models.PlatformNews:      true, // RSS accounts need no key
	}
}
