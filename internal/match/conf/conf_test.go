package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverlaysYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matching.yaml")
	doc := `
global_config:
  default_match_threshold: 8
max_cache_size: 50
synonym_map:
  honeywell: 霍尼韦尔
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.InDelta(t, 8.0, cfg.Global.DefaultMatchThreshold, 1e-9)
	assert.Equal(t, 50, cfg.MaxCacheSize)
	// Untouched keys keep their defaults.
	assert.Equal(t, Default().FeatureSplitChars, cfg.FeatureSplitChars)
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/no/such/config.yaml")
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty split chars", func(c *Config) { c.FeatureSplitChars = nil }},
		{"zero threshold", func(c *Config) { c.Global.DefaultMatchThreshold = 0 }},
		{"negative weight", func(c *Config) { c.FeatureWeights.Medium = -1 }},
		{"device type weight below brand", func(c *Config) { c.FeatureWeights.DeviceType = 1 }},
		{"bad model pattern", func(c *Config) { c.ModelPatterns = []string{"("} }},
		{"bad noise pattern", func(c *Config) {
			c.IntelligentExtraction.TextCleaning.NoisePatterns = []NamedPattern{{Name: "x", Pattern: "["}}
		}},
		{"zero cache size", func(c *Config) { c.MaxCacheSize = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			var ce *ConfigError
			require.ErrorAs(t, cfg.Validate(), &ce)
		})
	}
}
