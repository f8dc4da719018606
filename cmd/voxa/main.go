package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/voxa-labs/voxa/internal/api"
	"github.com/voxa-labs/voxa/internal/lockfile"
	"github.com/voxa-labs/voxa/internal/models"
	"github.com/voxa-labs/voxa/internal/notify"
	"github.com/voxa-labs/voxa/internal/search"
	"github.com/voxa-labs/voxa/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for Voxa state data
	DefaultStateDir = "/var/lib/voxa"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "voxa.db"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	// Only one instance may own a state directory.
	lock, err := lockfile.AcquireLock(*flags.stateDir)
	if err != nil {
		slog.Error("Failed to acquire state directory lock", "error", err)
		os.Exit(1)
	}
	defer lock.Release()

	runOpts := buildRunOptions(config, flags)

	slog.Info("Bootstrapping Voxa with configured modules")
	slog.Debug("Final configuration",
		"api_addr", runOpts.Addr,
		"dsn_set", runOpts.SessionDSN != "",
		"redis_set", runOpts.RedisAddr != "",
		"smtp_set", runOpts.SMTP.Host != "",
		"briefing_cron", runOpts.BriefingCron)
	if err := api.Run(runOpts); err != nil {
		slog.Error("Voxa failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("Voxa exited successfully")
}

// Config holds environment configuration
type Config struct {
	DatabaseURL   string
	StateDir      string
	RedisAddr     string
	RedisPassword string
	OpenAIKey     string
	OpenAIBaseURL string
	APIAddr       string
	GoogleAPIKey  string
	GoogleCX      string
	SerpAPIKey    string
	ZenSerpKey    string
	WeatherAPIKey string
	SMTPHost      string
	SMTPPort      string
	SMTPUsername  string
	SMTPPassword  string
	SMTPFrom      string
	UserName      string
	UserLocation  string
	UserInterests string
	UserEmail     string
	BriefingCron  string
}

// Flags holds command line flag values
type Flags struct {
	stateDir     *string
	dbDSN        *string
	redisAddr    *string
	openaiKey    *string
	apiAddr      *string
	briefingCron *string
}

// initializeLogger sets up structured logging with debug level
func initializeLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		StateDir:      util.GetenvDefault("VOXA_STATE_DIR", DefaultStateDir),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		APIAddr:       os.Getenv("API_ADDR"),
		GoogleAPIKey:  os.Getenv("GOOGLE_API_KEY"),
		GoogleCX:      os.Getenv("GOOGLE_CSE_ID"),
		SerpAPIKey:    os.Getenv("SERPAPI_KEY"),
		ZenSerpKey:    os.Getenv("ZENSERP_KEY"),
		WeatherAPIKey: os.Getenv("OPENWEATHER_API_KEY"),
		SMTPHost:      os.Getenv("SMTP_HOST"),
		SMTPPort:      os.Getenv("SMTP_PORT"),
		SMTPUsername:  os.Getenv("SMTP_USERNAME"),
		SMTPPassword:  os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:      os.Getenv("SMTP_FROM"),
		UserName:      os.Getenv("VOXA_USER_NAME"),
		UserLocation:  os.Getenv("VOXA_USER_LOCATION"),
		UserInterests: os.Getenv("VOXA_USER_INTERESTS"),
		UserEmail:     os.Getenv("VOXA_USER_EMAIL"),
		BriefingCron:  os.Getenv("VOXA_BRIEFING_CRON"),
	}

	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"VOXA_STATE_DIR", config.StateDir,
		"REDIS_ADDR_SET", config.RedisAddr != "",
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"API_ADDR", config.APIAddr,
		"SMTP_HOST_SET", config.SMTPHost != "",
		"VOXA_BRIEFING_CRON", config.BriefingCron)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:     flag.String("state-dir", config.StateDir, "state directory for Voxa data (overrides $VOXA_STATE_DIR)"),
		dbDSN:        flag.String("db-dsn", config.DatabaseURL, "database DSN for the session store (overrides $DATABASE_URL)"),
		redisAddr:    flag.String("redis-addr", config.RedisAddr, "Redis address for conversation state (overrides $REDIS_ADDR)"),
		openaiKey:    flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		apiAddr:      flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		briefingCron: flag.String("briefing-cron", config.BriefingCron, "cron schedule for the daily briefing (overrides $VOXA_BRIEFING_CRON)"),
	}

	flag.Parse()

	// Follow the state directory when the DSN was only defaulted from it.
	if *flags.dbDSN == config.DatabaseURL && config.DatabaseURL == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated dbDSN based on state directory", "old_state_dir", config.StateDir, "new_state_dir", *flags.stateDir)
	}

	return flags
}

// ensureDirectoriesExist creates necessary directories for file-based storage
func ensureDirectoriesExist(flags Flags) error {
	if !strings.Contains(*flags.dbDSN, "postgres://") && !strings.Contains(*flags.dbDSN, "postgresql://") && !strings.Contains(*flags.dbDSN, "host=") {
		stateDir := filepath.Dir(*flags.dbDSN)
		slog.Debug("Creating state directory for file-based database", "state_dir", stateDir)
		if err := os.MkdirAll(stateDir, 0755); err != nil {
			return err
		}
	}
	return nil
}

// buildRunOptions assembles the service bootstrap configuration
func buildRunOptions(config Config, flags Flags) api.RunOpts {
	profile := models.UserProfile{
		Name:     config.UserName,
		Location: config.UserLocation,
	}
	if config.UserInterests != "" {
		for _, interest := range strings.Split(config.UserInterests, ",") {
			if trimmed := strings.TrimSpace(interest); trimmed != "" {
				profile.Interests = append(profile.Interests, trimmed)
			}
		}
	}

	return api.RunOpts{
		Addr:          *flags.apiAddr,
		SessionDSN:    *flags.dbDSN,
		RedisAddr:     *flags.redisAddr,
		RedisPassword: config.RedisPassword,
		OpenAIKey:     *flags.openaiKey,
		OpenAIBaseURL: config.OpenAIBaseURL,
		Search: search.Opts{
			GoogleAPIKey:  config.GoogleAPIKey,
			GoogleCX:      config.GoogleCX,
			SerpAPIKey:    config.SerpAPIKey,
			ZenSerpKey:    config.ZenSerpKey,
			WeatherAPIKey: config.WeatherAPIKey,
		},
		SMTP: notify.SMTPOpts{
			Host:     config.SMTPHost,
			Port:     config.SMTPPort,
			Username: config.SMTPUsername,
			Password: config.SMTPPassword,
			From:     config.SMTPFrom,
		},
		Profile:       profile,
		ReminderEmail: config.UserEmail,
		BriefingCron:  *flags.briefingCron,
	}
}
