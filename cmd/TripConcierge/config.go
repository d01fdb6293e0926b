package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/BTreeMap/TripConcierge/internal/api"
	"github.com/BTreeMap/TripConcierge/internal/course"
	"github.com/BTreeMap/TripConcierge/internal/flow"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for TripConcierge state data
	DefaultStateDir = "/var/lib/tripconcierge"
	// DefaultDBFileName is the default SQLite course database filename
	DefaultDBFileName = "tripconcierge.db"
	// DefaultWhatsAppDBFileName is the default SQLite filename for the WhatsApp device store
	DefaultWhatsAppDBFileName = "whatsmeow.db"
)

// Configuration keys. Each is also read from the environment variable of the same name.
const (
	keyOpenAIKey        = "OPENAI_API_KEY"
	keyOpenAIModel      = "OPENAI_MODEL"
	keyAPIAddr          = "API_ADDR"
	keyDatabaseURL      = "DATABASE_URL"
	keyStateDir         = "TRIPCONCIERGE_STATE_DIR"
	keyCourseID         = "COURSE_ID"
	keyThinkingDelay    = "THINKING_DELAY"
	keySessionTTL       = "SESSION_TTL"
	keyAirportLookupURL = "AIRPORT_LOOKUP_URL"
	keyTwilioSID        = "TWILIO_ACCOUNT_SID"
	keyTwilioToken      = "TWILIO_AUTH_TOKEN"
	keyTwilioFrom       = "TWILIO_FROM_NUMBER"
	keyWhatsAppEnabled  = "WHATSAPP_ENABLED"
	keyWhatsAppDSN      = "WHATSAPP_DB_DSN"
	keyWhatsAppQR       = "WHATSAPP_QR_OUTPUT"
	keyWhatsAppNumeric  = "WHATSAPP_NUMERIC_CODE"
	keyHonorTravelDates = "HONOR_TRAVEL_DATES"
	keyLogLevel         = "LOG_LEVEL"
)

// Config holds the resolved configuration of a command.
type Config struct {
	OpenAIKey        string
	OpenAIModel      string
	APIAddr          string
	DatabaseURL      string
	StateDir         string
	CourseID         string
	ThinkingDelay    time.Duration
	SessionTTL       time.Duration
	AirportLookupURL string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	WhatsAppEnabled     bool
	WhatsAppDSN         string
	WhatsAppQROutput    string
	WhatsAppNumericCode bool

	HonorTravelDates bool
	LogLevel         string
}

// newViper returns a viper instance reading the environment with every default set.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(keyAPIAddr, api.DefaultServerAddress)
	v.SetDefault(keyStateDir, DefaultStateDir)
	v.SetDefault(keyCourseID, course.MockCourse().ID)
	v.SetDefault(keyThinkingDelay, flow.DefaultThinkingDelay)
	v.SetDefault(keySessionTTL, flow.DefaultSessionTTL)
	v.SetDefault(keyLogLevel, "info")
	v.AutomaticEnv()
	return v
}

// bindFlag makes the flag named name override key when it is set on the command line.
func bindFlag(v *viper.Viper, cmd *cobra.Command, key, name string) {
	f := cmd.Flags().Lookup(name)
	if f == nil {
		f = cmd.PersistentFlags().Lookup(name)
	}
	if err := v.BindPFlag(key, f); err != nil {
		panic(fmt.Sprintf("failed to bind flag %s: %v", name, err))
	}
}

// loadEnvFile loads a .env file into the environment. A missing file is not an error.
func loadEnvFile(path string) {
	if path == "" {
		return
	}
	if err := godotenv.Load(path); err != nil {
		slog.Debug("failed to load .env file", "path", path, "error", err)
		return
	}
	slog.Debug("successfully loaded .env file", "path", path)
}

// readConfigFile merges an optional YAML or TOML config file into v.
func readConfigFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	slog.Debug("config file loaded", "path", v.ConfigFileUsed())
	return nil
}

// loadConfig resolves every setting from v.
func loadConfig(v *viper.Viper) Config {
	cfg := Config{
		OpenAIKey:           v.GetString(keyOpenAIKey),
		OpenAIModel:         v.GetString(keyOpenAIModel),
		APIAddr:             v.GetString(keyAPIAddr),
		DatabaseURL:         v.GetString(keyDatabaseURL),
		StateDir:            v.GetString(keyStateDir),
		CourseID:            v.GetString(keyCourseID),
		ThinkingDelay:       v.GetDuration(keyThinkingDelay),
		SessionTTL:          v.GetDuration(keySessionTTL),
		AirportLookupURL:    v.GetString(keyAirportLookupURL),
		TwilioAccountSID:    v.GetString(keyTwilioSID),
		TwilioAuthToken:     v.GetString(keyTwilioToken),
		TwilioFromNumber:    v.GetString(keyTwilioFrom),
		WhatsAppEnabled:     v.GetBool(keyWhatsAppEnabled),
		WhatsAppDSN:         v.GetString(keyWhatsAppDSN),
		WhatsAppQROutput:    v.GetString(keyWhatsAppQR),
		WhatsAppNumericCode: v.GetBool(keyWhatsAppNumeric),
		HonorTravelDates:    v.GetBool(keyHonorTravelDates),
		LogLevel:            v.GetString(keyLogLevel),
	}

	if cfg.StateDir == "" {
		cfg.StateDir = DefaultStateDir
	}
	// If no database URL is provided, default to SQLite in the state directory
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = filepath.Join(cfg.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", cfg.DatabaseURL)
	}
	if cfg.WhatsAppDSN == "" {
		cfg.WhatsAppDSN = filepath.Join(cfg.StateDir, DefaultWhatsAppDBFileName)
	}

	slog.Debug("configuration loaded",
		"OPENAI_API_KEY_SET", cfg.OpenAIKey != "",
		"OPENAI_MODEL", cfg.OpenAIModel,
		"API_ADDR", cfg.APIAddr,
		"STATE_DIR", cfg.StateDir,
		"COURSE_ID", cfg.CourseID,
		"THINKING_DELAY", cfg.ThinkingDelay,
		"SESSION_TTL", cfg.SessionTTL,
		"AIRPORT_LOOKUP_URL_SET", cfg.AirportLookupURL != "",
		"TWILIO_SET", cfg.TwilioAccountSID != "",
		"WHATSAPP_ENABLED", cfg.WhatsAppEnabled,
		"HONOR_TRAVEL_DATES", cfg.HonorTravelDates)
	return cfg
}

// parseLogLevel maps a level name to a slog level, defaulting to info.
func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// initializeLogger sets up structured logging at the configured level.
func initializeLogger(level string) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(level)}))
	slog.SetDefault(logger)
}
