package app

import (
	"testing"

	"sheet_geocoder/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("SPREADSHEET_ID", "sheet-123")
	t.Setenv("GEOCODE_API_KEY", "key-abc")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequired(t)
	for _, key := range []string{"SHEET_NAME", "READ_RANGE", "CLIENT_SECRET_FILE", "TOKEN_PATH",
		"GEOCODE_RATE", "GEOCODE_BURST", "NTFY_ENABLED", "NTFY_URL", "NTFY_TOPIC", "ENV"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "sheet-123", cfg.SpreadsheetID)
	assert.Equal(t, "key-abc", cfg.GeocodeAPIKey)
	assert.Equal(t, "A2:I", cfg.ReadRange)
	assert.Equal(t, auth.DefaultClientSecretFile, cfg.ClientSecretFile)
	assert.Equal(t, auth.DefaultTokenPath, cfg.TokenPath)
	assert.Equal(t, 10.0, cfg.Batch.Rate)
	assert.Equal(t, 1, cfg.Batch.Burst)
	assert.True(t, cfg.Batch.ShowProgress)
	assert.False(t, cfg.NtfyEnabled)
	assert.Equal(t, "sheet-geocoder", cfg.NtfyTopic)
}

func TestLoadConfigOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("SHEET_NAME", "Locations")
	t.Setenv("GEOCODE_RATE", "25")
	t.Setenv("GEOCODE_BURST", "5")
	t.Setenv("NTFY_ENABLED", "true")
	t.Setenv("ENV", "production")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "Locations", cfg.SheetName)
	assert.Equal(t, 25.0, cfg.Batch.Rate)
	assert.Equal(t, 5, cfg.Batch.Burst)
	assert.False(t, cfg.Batch.ShowProgress)
	assert.True(t, cfg.NtfyEnabled)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"missing spreadsheet", "SPREADSHEET_ID", ""},
		{"missing api key", "GEOCODE_API_KEY", ""},
		{"bad rate", "GEOCODE_RATE", "fast"},
		{"zero rate", "GEOCODE_RATE", "0"},
		{"bad burst", "GEOCODE_BURST", "-1"},
		{"bad ntfy flag", "NTFY_ENABLED", "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.value)

			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestGetRequiredEnv(t *testing.T) {
	t.Setenv("GEOCODER_TEST_VALUE", "present")
	value, err := GetRequiredEnv("GEOCODER_TEST_VALUE")
	require.NoError(t, err)
	assert.Equal(t, "present", value)

	t.Setenv("GEOCODER_TEST_VALUE", "")
	_, err = GetRequiredEnv("GEOCODER_TEST_VALUE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEOCODER_TEST_VALUE environment variable is required")
}
