package main

import (
	"context"
	"os"

	"sheet_geocoder/internal/app"
	"sheet_geocoder/internal/auth"
	"sheet_geocoder/internal/batch"
	"sheet_geocoder/internal/collision"
	"sheet_geocoder/internal/config"
	"sheet_geocoder/internal/geocode"
	"sheet_geocoder/internal/notifications"
	"sheet_geocoder/internal/sheets"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

func main() {
	log.Debug().Msg("Starting application")
	app.SetupEnvironment()

	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx := context.Background()
	sheetsClient := initializeSheetsClient(ctx, cfg)

	rows, err := sheets.ReadLocationRows(ctx, sheetsClient, cfg.SpreadsheetID, sheets.QualifiedRange(cfg.SheetName, cfg.ReadRange))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read location rows")
	}
	log.Info().Int("rows", len(rows)).Msg("Read location rows")

	geocoder := geocode.NewClient(cfg.GeocodeAPIKey)
	orchestrator := batch.New(geocoder, collision.New(), cfg.Batch)
	coords, summary := orchestrator.Run(ctx, rows)

	log.Info().
		Int64("lookups", geocoder.LookupCount()).
		Int("rows", summary.Rows).
		Msg("Geocoding API calls for this run")

	if err := sheets.WriteCoordinates(ctx, sheetsClient, cfg.SpreadsheetID, cfg.SheetName, coords); err != nil {
		log.Fatal().Err(err).Msg("Failed to write coordinates, computed results are lost")
	}

	notifier := notifications.NewClient(cfg.NtfyURL, cfg.NtfyTopic, cfg.NtfyEnabled, config.DefaultResilienceConfig.Notification)
	notifier.NotifyRunComplete(ctx, notifications.RunReport{
		SpreadsheetID: cfg.SpreadsheetID,
		Rows:          summary.Rows,
		Unresolved:    summary.Unresolved,
		Jittered:      summary.Jittered,
		Elapsed:       summary.Elapsed,
	})
}

// initializeSheetsClient authorizes against the spreadsheet backend and builds
// the Sheets client. Authorization may prompt on the console on first run.
func initializeSheetsClient(ctx context.Context, cfg app.Config) *sheets.Client {
	log.Debug().Msg("Initializing sheets client")

	oauthConfig, err := auth.LoadOAuthConfig(cfg.ClientSecretFile)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.ClientSecretFile).Msg("Failed to load client secret")
	}

	provider := auth.NewProvider(oauthConfig, cfg.TokenPath, os.Stdin, os.Stdout)
	credential, err := provider.Acquire(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to acquire credential")
	}

	sheetsClient, err := sheets.NewClient(ctx, option.WithTokenSource(credential.TokenSource))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create sheets client")
	}

	log.Debug().Msg("Sheets client initialized successfully")
	return sheetsClient
}
