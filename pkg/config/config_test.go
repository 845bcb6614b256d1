package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 24, cfg.Records.MaxCreditsPerSemester)
	assert.Equal(t, "./data", cfg.Records.DataDir)
	assert.Equal(t, "./exports", cfg.Records.ExportDir)
	assert.Equal(t, "./backups", cfg.Records.BackupDir)
	assert.Equal(t, 5*time.Minute, cfg.Reports.CacheTTL)
	assert.False(t, cfg.Reports.CacheEnabled)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
}

func TestOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("MAX_CREDITS_PER_SEMESTER", 18)
	v.Set("ALLOWED_ORIGINS", " http://a.test , ,http://b.test")
	v.Set("REPORT_CACHE_TTL", "garbage")
	cfg := fromViper(v)

	assert.Equal(t, 18, cfg.Records.MaxCreditsPerSemester)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 5*time.Minute, cfg.Reports.CacheTTL)
}

func TestNonPositiveCreditLimitFallsBack(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("MAX_CREDITS_PER_SEMESTER", 0)

	assert.Equal(t, DefaultMaxCreditsPerSemester, fromViper(v).Records.MaxCreditsPerSemester)
}
