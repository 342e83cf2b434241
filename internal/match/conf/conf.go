// Package conf holds the matching configuration bundle. A Config is loaded
// once, validated at pipeline construction and treated as immutable for the
// lifetime of a matching session; hot reload means building a new pipeline.
package conf

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// ConfigError is fatal: malformed configuration surfaces at construction,
// never during per-call matching.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}

// Mapping is one ordered normalization substitution (pattern -> replacement).
type Mapping struct {
	From string `yaml:"from" json:"from"`
	To   string `yaml:"to" json:"to"`
}

// WeightConfig holds the per-category default weights. Device type carries
// the largest weight: matching the kind of equipment is the strongest signal.
type WeightConfig struct {
	DeviceType float64 `yaml:"device_type" json:"device_type"`
	Brand      float64 `yaml:"brand" json:"brand"`
	Model      float64 `yaml:"model" json:"model"`
	Medium     float64 `yaml:"medium" json:"medium"`
	Parameter  float64 `yaml:"parameter" json:"parameter"`
}

type GlobalConfig struct {
	MinFeatureLength        int     `yaml:"min_feature_length" json:"min_feature_length"`
	MinFeatureLengthChinese int     `yaml:"min_feature_length_chinese" json:"min_feature_length_chinese"`
	DefaultMatchThreshold   float64 `yaml:"default_match_threshold" json:"default_match_threshold"`
	FullwidthToHalfwidth    bool    `yaml:"fullwidth_to_halfwidth" json:"fullwidth_to_halfwidth"`
	RemoveWhitespace        bool    `yaml:"remove_whitespace" json:"remove_whitespace"`
	UnifyLowercase          bool    `yaml:"unify_lowercase" json:"unify_lowercase"`
}

// NamedPattern is a regex with a display name for detail records.
type NamedPattern struct {
	Name    string `yaml:"name" json:"name"`
	Pattern string `yaml:"pattern" json:"pattern"`
}

// DecomposePattern splits a compound parameter expression into sub-features.
// Emit entries are regexp expansion templates over the pattern's groups,
// e.g. "±$1" or "$4-$5".
type DecomposePattern struct {
	Name    string   `yaml:"name" json:"name"`
	Pattern string   `yaml:"pattern" json:"pattern"`
	Emit    []string `yaml:"emit" json:"emit"`
}

type TextCleaning struct {
	Enabled            bool           `yaml:"enabled" json:"enabled"`
	FilterRowNumbers   bool           `yaml:"filter_row_numbers" json:"filter_row_numbers"`
	RowNumberColumns   int            `yaml:"row_number_columns" json:"row_number_columns"`
	TruncateDelimiters []NamedPattern `yaml:"truncate_delimiters" json:"truncate_delimiters"`
	NoisePatterns      []NamedPattern `yaml:"noise_section_patterns" json:"noise_section_patterns"`
}

type ScoringRules struct {
	IsTechnicalTerm   float64 `yaml:"is_technical_term" json:"is_technical_term"`
	HasNumber         float64 `yaml:"has_number" json:"has_number"`
	HasUnit           float64 `yaml:"has_unit" json:"has_unit"`
	InDeviceKeywords  float64 `yaml:"in_device_keywords" json:"in_device_keywords"`
	AppropriateLength float64 `yaml:"appropriate_length" json:"appropriate_length"`
	IsMetadataLabel   float64 `yaml:"is_metadata_label" json:"is_metadata_label"`
	IsCommonWord      float64 `yaml:"is_common_word" json:"is_common_word"`
	TooShort          float64 `yaml:"too_short" json:"too_short"`
	IsPureNumber      float64 `yaml:"is_pure_number" json:"is_pure_number"`
	IsPurePunctuation float64 `yaml:"is_pure_punctuation" json:"is_pure_punctuation"`
}

type QualityScoring struct {
	Enabled         bool         `yaml:"enabled" json:"enabled"`
	MinQualityScore float64      `yaml:"min_quality_score" json:"min_quality_score"`
	Rules           ScoringRules `yaml:"scoring_rules" json:"scoring_rules"`
}

type ComplexParamConfig struct {
	Enabled  bool               `yaml:"enabled" json:"enabled"`
	Patterns []DecomposePattern `yaml:"patterns" json:"patterns"`
}

type IntelligentExtraction struct {
	Enabled               bool               `yaml:"enabled" json:"enabled"`
	TextCleaning          TextCleaning       `yaml:"text_cleaning" json:"text_cleaning"`
	MetadataLabelPatterns []string           `yaml:"metadata_label_patterns" json:"metadata_label_patterns"`
	ComplexParamDecompose ComplexParamConfig `yaml:"complex_parameter_decomposition" json:"complex_parameter_decomposition"`
	FeatureQualityScoring QualityScoring     `yaml:"feature_quality_scoring" json:"feature_quality_scoring"`
}

type UnitRemoval struct {
	Enabled bool     `yaml:"enabled" json:"enabled"`
	Units   []string `yaml:"units" json:"units"`
}

// Config is the full matching configuration bundle. Any key missing from the
// loaded document keeps its documented default (see Default).
type Config struct {
	NormalizationMap   []Mapping         `yaml:"normalization_map" json:"normalization_map"`
	FeatureSplitChars  []string          `yaml:"feature_split_chars" json:"feature_split_chars"`
	IgnoreKeywords     []string          `yaml:"ignore_keywords" json:"ignore_keywords"`
	MetadataKeywords   []string          `yaml:"metadata_keywords" json:"metadata_keywords"`
	SynonymMap         map[string]string `yaml:"synonym_map" json:"synonym_map"`
	BrandKeywords      []string          `yaml:"brand_keywords" json:"brand_keywords"`
	DeviceTypeKeywords []string          `yaml:"device_type_keywords" json:"device_type_keywords"`
	MediumKeywords     []string          `yaml:"medium_keywords" json:"medium_keywords"`
	LocationWords      []string          `yaml:"location_words" json:"location_words"`
	TechnicalTerms     []string          `yaml:"technical_terms" json:"technical_terms"`
	CommonChineseWords []string          `yaml:"common_chinese_words" json:"common_chinese_words"`

	// ModelPatterns classify a token as a model number; exclusions veto
	// tokens that look like plain ranged parameters (4-20ma and friends).
	ModelPatterns          []string `yaml:"model_patterns" json:"model_patterns"`
	ModelExclusionPatterns []string `yaml:"model_exclusion_patterns" json:"model_exclusion_patterns"`

	FeatureWeights        WeightConfig          `yaml:"feature_weight_config" json:"feature_weight_config"`
	Global                GlobalConfig          `yaml:"global_config" json:"global_config"`
	IntelligentExtraction IntelligentExtraction `yaml:"intelligent_extraction" json:"intelligent_extraction"`
	UnitRemoval           UnitRemoval           `yaml:"unit_removal" json:"unit_removal"`

	MaxCacheSize int `yaml:"max_cache_size" json:"max_cache_size"`
}

// Load reads a YAML config over the defaults. An empty path returns the
// defaults unchanged. Keys absent from the file keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, &ConfigError{Field: "file", Reason: err.Error()}
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, &ConfigError{Field: "file", Reason: "invalid yaml: " + err.Error()}
	}
	return cfg, nil
}

// Validate checks the parts of the config that have no safe fallback.
// Called once at pipeline construction.
func (c *Config) Validate() error {
	if len(c.FeatureSplitChars) == 0 {
		return &ConfigError{Field: "feature_split_chars", Reason: "must not be empty"}
	}
	if c.Global.DefaultMatchThreshold <= 0 {
		return &ConfigError{Field: "global_config.default_match_threshold", Reason: "must be positive"}
	}
	if c.FeatureWeights.DeviceType <= 0 || c.FeatureWeights.Brand <= 0 ||
		c.FeatureWeights.Model <= 0 || c.FeatureWeights.Medium <= 0 || c.FeatureWeights.Parameter <= 0 {
		return &ConfigError{Field: "feature_weight_config", Reason: "all weights must be positive"}
	}
	if c.FeatureWeights.DeviceType < c.FeatureWeights.Brand {
		return &ConfigError{Field: "feature_weight_config", Reason: "device_type weight must be the largest"}
	}
	for _, p := range c.ModelPatterns {
		if _, err := regexp.Compile(p); err != nil {
			return &ConfigError{Field: "model_patterns", Reason: fmt.Sprintf("%q: %v", p, err)}
		}
	}
	for _, p := range c.ModelExclusionPatterns {
		if _, err := regexp.Compile(p); err != nil {
			return &ConfigError{Field: "model_exclusion_patterns", Reason: fmt.Sprintf("%q: %v", p, err)}
		}
	}
	for _, np := range c.IntelligentExtraction.TextCleaning.TruncateDelimiters {
		if _, err := regexp.Compile(np.Pattern); err != nil {
			return &ConfigError{Field: "truncate_delimiters", Reason: fmt.Sprintf("%q: %v", np.Pattern, err)}
		}
	}
	for _, np := range c.IntelligentExtraction.TextCleaning.NoisePatterns {
		if _, err := regexp.Compile(np.Pattern); err != nil {
			return &ConfigError{Field: "noise_section_patterns", Reason: fmt.Sprintf("%q: %v", np.Pattern, err)}
		}
	}
	for _, dp := range c.IntelligentExtraction.ComplexParamDecompose.Patterns {
		if _, err := regexp.Compile(dp.Pattern); err != nil {
			return &ConfigError{Field: "complex_parameter_decomposition", Reason: fmt.Sprintf("%q: %v", dp.Pattern, err)}
		}
	}
	if c.MaxCacheSize <= 0 {
		return &ConfigError{Field: "max_cache_size", Reason: "must be positive"}
	}
	return nil
}
