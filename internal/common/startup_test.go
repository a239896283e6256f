package common

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

type appConfig struct {
	MetricsPort uint16
	HttpPort    uint16
	Hiccup      hiccupConfig
}

type hiccupConfig struct {
	Resolution      time.Duration
	ShutdownTimeout time.Duration
	Buckets         bucketsConfig
}

type bucketsConfig struct {
	Start  time.Duration
	Factor float64
	Count  int
}

func TestLoadConfigReadsBaseConfig(t *testing.T) {
	viper.Reset()

	var config appConfig
	LoadConfig(&config, "./testdata", nil)

	assert.Equal(t, uint16(9096), config.MetricsPort)
	assert.Equal(t, time.Millisecond, config.Hiccup.Resolution)
	assert.Equal(t, 5*time.Second, config.Hiccup.ShutdownTimeout)
	assert.Equal(t, 50*time.Nanosecond, config.Hiccup.Buckets.Start)
	assert.Equal(t, 2.0, config.Hiccup.Buckets.Factor)
	assert.Equal(t, 26, config.Hiccup.Buckets.Count)
}

func TestLoadConfigMergesOverrideFiles(t *testing.T) {
	viper.Reset()

	var config appConfig
	LoadConfig(&config, "./testdata", []string{"./testdata/override.yaml"})

	assert.Equal(t, uint16(9097), config.MetricsPort)
	// The override gives the resolution as raw nanos rather than a duration string.
	assert.Equal(t, 2*time.Millisecond, config.Hiccup.Resolution)
	// Keys absent from the override keep their base values.
	assert.Equal(t, 26, config.Hiccup.Buckets.Count)
}

func TestLoadConfigAppliesEnvironmentOverrides(t *testing.T) {
	viper.Reset()
	t.Setenv("ADVISOR_HICCUP_RESOLUTION", "4ms")

	var config appConfig
	LoadConfig(&config, "./testdata", nil)

	assert.Equal(t, 4*time.Millisecond, config.Hiccup.Resolution)
	assert.Equal(t, uint16(9096), config.MetricsPort)
}
