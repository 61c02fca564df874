package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func TestFromViperDefaults(t *testing.T) {
	cfg, err := fromViper(newTestViper())
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, ScaleConfig{MinLevel: 0, MaxLevel: 10, MinRequiredLevel: 1}, cfg.Scale)
	assert.Equal(t, 10*time.Minute, cfg.GradeBands.CacheTTL)
	assert.False(t, cfg.Recalculation.Enabled)
	assert.Equal(t, 3, cfg.Recalculation.WorkerRetries)
}

func TestFromViperRejectsInvertedScale(t *testing.T) {
	v := newTestViper()
	v.Set("SCALE_MIN_LEVEL", 5)
	v.Set("SCALE_MAX_LEVEL", 5)
	_, err := fromViper(v)
	require.Error(t, err)
}

func TestFromViperRejectsRequiredOutsideScale(t *testing.T) {
	v := newTestViper()
	v.Set("SCALE_MIN_REQUIRED_LEVEL", 11)
	_, err := fromViper(v)
	require.Error(t, err)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("soon", time.Minute))
	assert.Equal(t, 2*time.Second, parseDuration("2s", time.Minute))
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, splitAndTrim(""))
	assert.Equal(t, []string{"http://a", "http://b"}, splitAndTrim(" http://a, ,http://b "))
}
