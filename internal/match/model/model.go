package model

import (
	"fmt"
	"strings"
	"time"
)

// Device is an immutable catalog snapshot handed to the rule generator.
// Owned by the catalog store; never mutated during rule generation.
type Device struct {
	DeviceID       string  `json:"device_id"`
	Brand          string  `json:"brand"`
	DeviceName     string  `json:"device_name"`
	SpecModel      string  `json:"spec_model"`
	DetailedParams string  `json:"detailed_params"`
	UnitPrice      float64 `json:"unit_price"`

	// MatchThreshold > 0 overrides the global default for rules generated
	// from this device.
	MatchThreshold float64 `json:"match_threshold,omitempty"`
}

// DisplayText is the human-readable identity shown in match results.
func (d Device) DisplayText() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{d.Brand, d.DeviceName, d.SpecModel} {
		if s := strings.TrimSpace(p); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// Rule is a per-device weighted feature set. Rules are value objects:
// regenerated wholesale when the source device changes, never patched.
type Rule struct {
	RuleID         string             `json:"rule_id"`
	TargetDeviceID string             `json:"target_device_id"`
	Features       []string           `json:"auto_extracted_features"`
	FeatureWeights map[string]float64 `json:"feature_weights"`
	MatchThreshold float64            `json:"match_threshold"`
	Remark         string             `json:"remark,omitempty"`
}

// InvariantError reports a rule that violates a construction invariant.
type InvariantError struct {
	RuleID string
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("rule %s: %s", e.RuleID, e.Reason)
}

// Validate checks construction invariants: every extracted feature must have
// a weight, and the threshold must be positive. Called at rule construction
// so violations fail loudly before match time.
func (r Rule) Validate() error {
	if r.TargetDeviceID == "" {
		return &InvariantError{RuleID: r.RuleID, Reason: "empty target_device_id"}
	}
	if r.MatchThreshold <= 0 {
		return &InvariantError{RuleID: r.RuleID, Reason: fmt.Sprintf("non-positive match_threshold %v", r.MatchThreshold)}
	}
	for _, f := range r.Features {
		if _, ok := r.FeatureWeights[f]; !ok {
			return &InvariantError{RuleID: r.RuleID, Reason: fmt.Sprintf("feature %q has no weight", f)}
		}
	}
	return nil
}

// Match statuses. A failed match is a business outcome, not an error.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

type MatchResult struct {
	DeviceID          string  `json:"device_id,omitempty"`
	MatchedDeviceText string  `json:"matched_device_text,omitempty"`
	UnitPrice         float64 `json:"unit_price"`
	MatchStatus       string  `json:"match_status"`
	MatchScore        float64 `json:"match_score"`
	MatchReason       string  `json:"match_reason"`
	MatchThreshold    float64 `json:"threshold,omitempty"`
}

// FeatureCategory classifies an extracted feature for weight assignment.
type FeatureCategory string

const (
	CategoryDeviceType FeatureCategory = "device_type"
	CategoryBrand      FeatureCategory = "brand"
	CategoryModel      FeatureCategory = "model"
	CategoryMedium     FeatureCategory = "medium"
	CategoryParameter  FeatureCategory = "parameter"
)

// PreprocessResult carries every stage of the normalization pipeline.
// The detail records are for explainability only and never influence
// matching; they are reproducible and order-preserving.
type PreprocessResult struct {
	Original   string   `json:"original"`
	Cleaned    string   `json:"cleaned"`
	Normalized string   `json:"normalized"`
	Features   []string `json:"features"`

	Cleaning      *CleaningDetail      `json:"cleaning,omitempty"`
	Normalization *NormalizationDetail `json:"normalization,omitempty"`
	Extraction    *ExtractionDetail    `json:"extraction,omitempty"`
}

type TruncationMatch struct {
	Delimiter   string `json:"delimiter"`
	Position    int    `json:"position"`
	DeletedText string `json:"deleted_text"`
}

type PatternMatch struct {
	Pattern     string `json:"pattern"`
	MatchedText string `json:"matched_text"`
	Position    int    `json:"position"`
}

type KeywordMatch struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

type CleaningDetail struct {
	AppliedRules    []string          `json:"applied_rules"`
	Truncations     []TruncationMatch `json:"truncations,omitempty"`
	NoiseMatches    []PatternMatch    `json:"noise_matches,omitempty"`
	MetadataMatches []PatternMatch    `json:"metadata_matches,omitempty"`
	IgnoredKeywords []KeywordMatch    `json:"ignored_keywords,omitempty"`
	OriginalLength  int               `json:"original_length"`
	CleanedLength   int               `json:"cleaned_length"`
}

type MappingApplication struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Count int    `json:"count"`
}

type NormalizationDetail struct {
	Mappings      []MappingApplication `json:"mappings,omitempty"`
	GlobalConfigs []string             `json:"global_configs,omitempty"`
	Before        string               `json:"before"`
	After         string               `json:"after"`
}

type FeatureDetail struct {
	Feature      string          `json:"feature"`
	Category     FeatureCategory `json:"category"`
	Source       string          `json:"source"`
	QualityScore float64         `json:"quality_score"`
}

type FilteredFeature struct {
	Feature      string  `json:"feature"`
	Reason       string  `json:"reason"` // invalid | duplicate | low_quality
	QualityScore float64 `json:"quality_score"`
}

type ExtractionDetail struct {
	SplitChars            []string          `json:"split_chars"`
	IdentifiedBrands      []string          `json:"identified_brands,omitempty"`
	IdentifiedDeviceTypes []string          `json:"identified_device_types,omitempty"`
	Features              []FeatureDetail   `json:"features"`
	Filtered              []FilteredFeature `json:"filtered,omitempty"`
}

// FeatureMatch is one satisfied rule feature and its score contribution.
type FeatureMatch struct {
	Feature string  `json:"feature"`
	Weight  float64 `json:"weight"`
}

// CandidateDetail is the full scoring breakdown for one rule.
type CandidateDetail struct {
	RuleID            string         `json:"rule_id"`
	TargetDeviceID    string         `json:"target_device_id"`
	Score             float64        `json:"score"`
	Threshold         float64        `json:"threshold"`
	Qualified         bool           `json:"qualified"`
	MatchedFeatures   []FeatureMatch `json:"matched_features,omitempty"`
	UnmatchedFeatures []string       `json:"unmatched_features,omitempty"`
	MaxPossibleScore  float64        `json:"max_possible_score"`
}

// MatchDetail records one full match call for explainability readback.
// Recording a detail never affects the returned MatchResult.
type MatchDetail struct {
	OriginalText   string            `json:"original_text"`
	Preprocessing  *PreprocessResult `json:"preprocessing,omitempty"`
	InputFeatures  []string          `json:"input_features"`
	Candidates     []CandidateDetail `json:"candidates"`
	Result         MatchResult       `json:"result"`
	SelectedRuleID string            `json:"selected_rule_id,omitempty"`
	DecisionReason string            `json:"decision_reason"`
	Timestamp      time.Time         `json:"timestamp"`
	Duration       time.Duration     `json:"duration_ns"`
}
