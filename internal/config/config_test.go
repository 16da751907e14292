package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate_NormalizesZeroDurations asserts that missing timing fields fall back to defaults.
func TestValidate_NormalizesZeroDurations(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.PollPeriod = 0
	cfg.MinuteGap = -time.Second

	require.NoError(t, Validate(cfg))
	require.Equal(t, Default().PollPeriod, cfg.PollPeriod)
	require.Equal(t, Default().MinuteGap, cfg.MinuteGap)
}

// TestValidate_RejectsInvertedWarmupRange asserts the warm-up bounds must ascend.
func TestValidate_RejectsInvertedWarmupRange(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.WarmupMin = 90 * time.Second
	cfg.WarmupMax = 20 * time.Second

	require.ErrorIs(t, Validate(cfg), errWarmupRange)
}

// TestValidate_RejectsSharedPins asserts that two lines cannot share a pin.
func TestValidate_RejectsSharedPins(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Pins.Light2 = cfg.Pins.Horn

	require.ErrorIs(t, Validate(cfg), errPinsDistinct)
}

// TestValidate_NilConfig asserts nil profiles are rejected.
func TestValidate_NilConfig(t *testing.T) {
	t.Parallel()
	require.ErrorIs(t, Validate(nil), errConfigIsNotSet)
}

// TestSaveAndLoad_RoundTrip writes the default profile and reads it back.
func TestSaveAndLoad_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	original := Default()
	original.OutputsActiveLow = true
	original.WarmupMin = 30 * time.Second

	require.NoError(t, Save(path, original))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, original, loaded)
}

// TestLoad_PartialProfileKeepsDefaults asserts unlisted fields come from the defaults.
func TestLoad_PartialProfileKeepsDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("minute_gap: 30s\n"), 0o600))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 30*time.Second, loaded.MinuteGap)
	require.Equal(t, Default().Pins, loaded.Pins)
	require.Equal(t, Default().Horn, loaded.Horn)
}

// TestLoad_MissingFile reports the read failure.
func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
