package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"device-match-service/internal/match/model"
)

func newGen(t *testing.T) *RuleGenerator {
	t.Helper()
	return NewRuleGenerator(newPre(t))
}

func TestGenerateRuleFromCatalogDevice(t *testing.T) {
	gen := newGen(t)
	device := model.Device{
		DeviceID:       "D001",
		Brand:          "Honeywell",
		DeviceName:     "CO传感器",
		SpecModel:      "HSCM-R100U",
		DetailedParams: "量程:0~100ppm\n输出:4-20mA",
		UnitPrice:      680,
	}

	rule, err := gen.GenerateRule(device)
	require.NoError(t, err)

	assert.Equal(t, "R_D001", rule.RuleID)
	assert.Equal(t, "D001", rule.TargetDeviceID)
	assert.Contains(t, rule.Features, "honeywell")
	assert.Contains(t, rule.Features, "co传感器")
	assert.Contains(t, rule.Features, "hscm-r100u")
	assert.Contains(t, rule.Features, "0-100")
	assert.Contains(t, rule.Features, "4-20")

	// Every feature carries a weight; the weights follow the category config.
	for _, f := range rule.Features {
		assert.Contains(t, rule.FeatureWeights, f)
	}
	assert.InDelta(t, 3.0, rule.FeatureWeights["honeywell"], 1e-9)
	assert.InDelta(t, 5.0, rule.FeatureWeights["co传感器"], 1e-9)
	assert.InDelta(t, 3.0, rule.FeatureWeights["hscm-r100u"], 1e-9)
	assert.InDelta(t, 1.0, rule.FeatureWeights["0-100"], 1e-9)

	assert.InDelta(t, 5.0, rule.MatchThreshold, 1e-9)
	assert.Contains(t, rule.Remark, "Honeywell")
	require.NoError(t, rule.Validate())
}

func TestGenerateRuleIsDeterministic(t *testing.T) {
	gen := newGen(t)
	device := model.Device{
		DeviceID:   "D002",
		Brand:      "西门子",
		DeviceName: "温度传感器",
		SpecModel:  "QAA2061+室内型",
	}

	first, err := gen.GenerateRule(device)
	require.NoError(t, err)
	second, err := gen.GenerateRule(device)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGenerateRuleSpecModelSplitsOnPlus(t *testing.T) {
	gen := newGen(t)
	device := model.Device{DeviceID: "D003", DeviceName: "温控器", SpecModel: "TC-100+面板"}

	rule, err := gen.GenerateRule(device)
	require.NoError(t, err)

	assert.Contains(t, rule.Features, "tc-100")
	assert.Contains(t, rule.Features, "面板")
}

func TestGenerateRuleThresholdOverride(t *testing.T) {
	gen := newGen(t)
	device := model.Device{DeviceID: "D004", DeviceName: "传感器", MatchThreshold: 8}

	rule, err := gen.GenerateRule(device)
	require.NoError(t, err)
	assert.InDelta(t, 8.0, rule.MatchThreshold, 1e-9)
}

func TestGenerateRuleEmptyDevice(t *testing.T) {
	gen := newGen(t)

	_, err := gen.GenerateRule(model.Device{DeviceID: "D005"})

	var ie *model.InvariantError
	require.ErrorAs(t, err, &ie)
}

func TestGenerateRulesSkipsEmptyDevices(t *testing.T) {
	gen := newGen(t)
	devices := []model.Device{
		{DeviceID: "D001", DeviceName: "压力传感器"},
		{DeviceID: "D006"},
		{DeviceID: "D002", DeviceName: "控制器"},
	}

	rules, err := gen.GenerateRules(devices)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "R_D001", rules[0].RuleID)
	assert.Equal(t, "R_D002", rules[1].RuleID)
}

func TestClassifyPriorityOrder(t *testing.T) {
	gen := newGen(t)

	assert.Equal(t, model.CategoryDeviceType, gen.Classify("co传感器"))
	assert.Equal(t, model.CategoryBrand, gen.Classify("honeywell"))
	assert.Equal(t, model.CategoryModel, gen.Classify("hscm-r100u"))
	assert.Equal(t, model.CategoryMedium, gen.Classify("水"))
	assert.Equal(t, model.CategoryParameter, gen.Classify("0-100"))
	// Ranged parameters look like model numbers but are vetoed.
	assert.Equal(t, model.CategoryParameter, gen.Classify("4-20ma"))
}

func TestDeviceModePreservesTemperatureNotation(t *testing.T) {
	gen := newGen(t)
	device := model.Device{
		DeviceID:       "D007",
		DeviceName:     "温度传感器",
		DetailedParams: "量程:-20℃~60℃",
	}

	rule, err := gen.GenerateRule(device)
	require.NoError(t, err)

	// Device mode keeps ℃ so the catalog rendering survives into the rule.
	assert.Contains(t, rule.Features, "-20℃-60℃")
}
