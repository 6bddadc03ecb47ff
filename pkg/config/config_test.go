package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestFromViperDefaults(t *testing.T) {
	resetViper(t)

	cfg, err := FromViper()
	require.NoError(t, err)

	assert.Equal(t, []string{"./skills"}, cfg.CorpusRoots)
	assert.Equal(t, 0.15, cfg.MinScore)
	assert.Equal(t, 3, cfg.MaxSkills)
	assert.Equal(t, 24000, cfg.BudgetChars)
	assert.Equal(t, 2*time.Second, cfg.FetchTimeout)
	assert.Equal(t, uint(2), cfg.ReadAttempts)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "localhost:8080", cfg.Listen)
	assert.False(t, cfg.Tracing.Enabled)
}

func TestFromViperExplicitValues(t *testing.T) {
	resetViper(t)
	viper.Set("corpus_roots", []string{"/srv/skills"})
	viper.Set("min_score", 0.3)
	viper.Set("max_skills", 5)
	viper.Set("rules_file", "/etc/skillrouter/rules.yaml")
	viper.Set("tracing.enabled", true)

	cfg, err := FromViper()
	require.NoError(t, err)

	assert.Equal(t, []string{"/srv/skills"}, cfg.CorpusRoots)
	assert.Equal(t, 0.3, cfg.MinScore)
	assert.Equal(t, 5, cfg.MaxSkills)
	assert.Equal(t, "/etc/skillrouter/rules.yaml", cfg.RulesFile)
	assert.True(t, cfg.Tracing.Enabled)
}

func TestFromViperProfileOverlay(t *testing.T) {
	resetViper(t)
	viper.Set("max_skills", 3)
	viper.Set("budget_chars", 24000)
	viper.Set("profiles", map[string]any{
		"frugal": map[string]any{
			"budget_chars": 4000,
		},
	})
	viper.Set("profile", "frugal")

	cfg, err := FromViper()
	require.NoError(t, err)

	assert.Equal(t, 4000, cfg.BudgetChars, "profile overrides budget")
	assert.Equal(t, 3, cfg.MaxSkills, "untouched keys keep base values")
}

func TestFromViperUnknownProfile(t *testing.T) {
	resetViper(t)
	viper.Set("profile", "missing")

	_, err := FromViper()
	assert.Error(t, err)
}

func TestFromViperDefaultProfileIgnored(t *testing.T) {
	resetViper(t)
	viper.Set("profile", "default")

	_, err := FromViper()
	assert.NoError(t, err)
}
