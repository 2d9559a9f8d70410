package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"sheet_geocoder/internal/auth"
	"sheet_geocoder/internal/batch"
	"sheet_geocoder/internal/sheets"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config is everything a run needs, read once at startup
type Config struct {
	SpreadsheetID    string
	SheetName        string
	ReadRange        string
	GeocodeAPIKey    string
	ClientSecretFile string
	TokenPath        string
	Batch            batch.Options
	NtfyEnabled      bool
	NtfyURL          string
	NtfyTopic        string
}

// SetupEnvironment loads .env file and configures zerolog output and log level.
func SetupEnvironment() {
	// Load .env file if it exists
	err := godotenv.Load()

	if os.Getenv("ENV") == "production" {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = log.Output(os.Stderr)
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	levelStr := strings.ToLower(os.Getenv("LOGLEVEL"))
	switch levelStr {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "fatal":
		zerolog.SetGlobalLevel(zerolog.FatalLevel)
	case "panic":
		zerolog.SetGlobalLevel(zerolog.PanicLevel)
	case "disabled":
		zerolog.SetGlobalLevel(zerolog.Disabled)
	case "":
		if os.Getenv("ENV") == "production" {
			zerolog.SetGlobalLevel(zerolog.WarnLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		log.Warn().Msgf("Unknown LOGLEVEL '%s', defaulting to info.", levelStr)
	}

	// wait until now to report on the .env file so we have the chance to set up logging first
	if err == nil {
		log.Debug().Msg("Loaded environment variables from .env file.")
	} else {
		log.Debug().Msg("No .env file found or error loading .env file; proceeding with existing environment variables.")
	}
}

// LoadConfig reads the run configuration from the environment
func LoadConfig() (Config, error) {
	spreadsheetID, err := GetRequiredEnv("SPREADSHEET_ID")
	if err != nil {
		return Config{}, err
	}
	apiKey, err := GetRequiredEnv("GEOCODE_API_KEY")
	if err != nil {
		return Config{}, err
	}

	rate, err := strconv.ParseFloat(GetEnvWithDefault("GEOCODE_RATE", "10"), 64)
	if err != nil || rate <= 0 {
		return Config{}, fmt.Errorf("GEOCODE_RATE must be a positive number, got %q", os.Getenv("GEOCODE_RATE"))
	}
	burst, err := strconv.Atoi(GetEnvWithDefault("GEOCODE_BURST", "1"))
	if err != nil || burst <= 0 {
		return Config{}, fmt.Errorf("GEOCODE_BURST must be a positive integer, got %q", os.Getenv("GEOCODE_BURST"))
	}
	ntfyEnabled, err := strconv.ParseBool(GetEnvWithDefault("NTFY_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("NTFY_ENABLED must be a boolean, got %q", os.Getenv("NTFY_ENABLED"))
	}

	return Config{
		SpreadsheetID:    spreadsheetID,
		SheetName:        os.Getenv("SHEET_NAME"),
		ReadRange:        GetEnvWithDefault("READ_RANGE", sheets.DefaultReadRange),
		GeocodeAPIKey:    apiKey,
		ClientSecretFile: GetEnvWithDefault("CLIENT_SECRET_FILE", auth.DefaultClientSecretFile),
		TokenPath:        GetEnvWithDefault("TOKEN_PATH", auth.DefaultTokenPath),
		Batch: batch.Options{
			Rate:         rate,
			Burst:        burst,
			ShowProgress: os.Getenv("ENV") != "production",
		},
		NtfyEnabled: ntfyEnabled,
		NtfyURL:     GetEnvWithDefault("NTFY_URL", "https://ntfy.sh"),
		NtfyTopic:   GetEnvWithDefault("NTFY_TOPIC", "sheet-geocoder"),
	}, nil
}

// GetRequiredEnv fetches an environment variable that must be set and non-empty.
func GetRequiredEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%s environment variable is required", key)
	}
	return value, nil
}

// GetEnvWithDefault fetches an environment variable with a default fallback.
func GetEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
