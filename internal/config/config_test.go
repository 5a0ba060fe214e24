package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "SOURCE_LANGUAGE", "TARGET_LANGUAGE", "RUN_POLICY", "CROP_STRIDE", "TESSERACT_LANGUAGES", "BACKGROUND_OPACITY"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.ServerAddress())
	assert.Equal(t, "en", cfg.SourceLanguage)
	assert.Equal(t, "it", cfg.TargetLanguage)
	assert.Equal(t, 10, cfg.CropStride)
	assert.Equal(t, 40, cfg.CropThreshold)
	assert.Equal(t, 1, cfg.TranslationWorkers)
	assert.Equal(t, "queue", cfg.RunPolicy)
	assert.Equal(t, []string{"eng"}, cfg.TesseractLanguages)
	assert.InDelta(t, 0.8, cfg.BackgroundOpacity, 1e-9)
	assert.InDelta(t, 1.0, cfg.FontScale, 1e-9)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("TARGET_LANGUAGE", "ja")
	t.Setenv("AUTO_CROP", "true")
	t.Setenv("CROP_STRIDE", "4")
	t.Setenv("TESSERACT_LANGUAGES", "eng+jpn")
	t.Setenv("TRANSLATION_WORKERS", "3")
	t.Setenv("RUN_POLICY", "Supersede")
	t.Setenv("CACHE_TTL", "2h")
	t.Setenv("AZURE_STORAGE_ACCOUNT", "acct")
	t.Setenv("AZURE_STORAGE_KEY", "a2V5")
	t.Setenv("ALLOWED_IMAGE_HOSTS", "cdn.example.com, *.scans.example.org")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "ja", cfg.TargetLanguage)
	assert.True(t, cfg.AutoCrop)
	assert.Equal(t, 4, cfg.CropStride)
	assert.Equal(t, []string{"eng", "jpn"}, cfg.TesseractLanguages)
	assert.Equal(t, 3, cfg.TranslationWorkers)
	assert.Equal(t, "supersede", cfg.RunPolicy)
	assert.Equal(t, 2*time.Hour, cfg.CacheTTL)
	assert.True(t, cfg.AzureEnabled())
	assert.Equal(t, []string{"cdn.example.com", "*.scans.example.org"}, cfg.AllowedImageHosts)
}

func TestLoadFromEnvRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"PORT", "http"},
		{"PORT", "70000"},
		{"CROP_STRIDE", "0"},
		{"CROP_THRESHOLD", "300"},
		{"TRANSLATION_WORKERS", "0"},
		{"RUN_POLICY", "parallel"},
		{"BACKGROUND_OPACITY", "1.5"},
		{"FONT_SCALE", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := LoadFromEnv()
			assert.Error(t, err)
		})
	}
}
