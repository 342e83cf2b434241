package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"device-match-service/internal/match/conf"
)

func newPre(t *testing.T) *Preprocessor {
	t.Helper()
	p, err := NewPreprocessor(conf.Default())
	require.NoError(t, err)
	return p
}

func TestPreprocessLabeledMultilineDescription(t *testing.T) {
	pre := newPre(t)

	text := "型号：V5011N1040/U\n通径：1/2\"(DN15)\n阀体类型：二通座阀\n适用介质：水"
	res := pre.Preprocess(text, ModeMatching)

	assert.Equal(t, "v5011n1040/u+1/2\"(dn15)+二通座阀+水", res.Normalized)
	assert.Equal(t, []string{`v5011n1040/u`, `1/2"`, "dn15", "二通座阀", "水"}, res.Features)

	require.NotNil(t, res.Cleaning)
	assert.Contains(t, res.Cleaning.AppliedRules, "metadata_tag")
	assert.Contains(t, res.Cleaning.AppliedRules, "separator_unification")
	require.NotNil(t, res.Extraction)
	assert.Contains(t, res.Extraction.IdentifiedDeviceTypes, "座阀")
}

func TestPreprocessRowNumberFilter(t *testing.T) {
	pre := newPre(t)

	res := pre.Preprocess("36,温湿度传感器,室内型", ModeMatching)

	assert.NotContains(t, res.Features, "36")
	assert.Contains(t, res.Features, "温湿度传感器")
	assert.Contains(t, res.Features, "室内型")
	assert.Contains(t, res.Cleaning.AppliedRules, "row_number_filter")
}

func TestPreprocessLeadingRowIndexDropped(t *testing.T) {
	pre := newPre(t)

	res := pre.Preprocess("36,室内CO2传感器,485传输方式", ModeMatching)

	assert.NotContains(t, res.Features, "36")
	assert.Contains(t, res.Features, "co2传感器")
	assert.Contains(t, res.Features, "485")
	assert.Contains(t, res.Extraction.IdentifiedDeviceTypes, "co2传感器")
}

func TestPreprocessTruncationAtNoiseDelimiter(t *testing.T) {
	pre := newPre(t)

	res := pre.Preprocess("电动调节阀DN50,施工要求:安装牢固,固定支架", ModeMatching)

	require.Len(t, res.Cleaning.Truncations, 1)
	assert.Contains(t, res.Cleaning.Truncations[0].DeletedText, "安装牢固")
	for _, f := range res.Features {
		assert.NotContains(t, f, "施工")
		assert.NotContains(t, f, "牢固")
	}
	assert.Contains(t, res.Features, "调节阀")
}

func TestPreprocessComplexParameterDecomposition(t *testing.T) {
	pre := newPre(t)

	res := pre.Preprocess("温湿度传感器,精度:±5%@25C.50%RH(0~100ppm)", ModeMatching)

	assert.Contains(t, res.Features, "±5")
	assert.Contains(t, res.Features, "0-100")
	assert.NotContains(t, res.Features, "25")
	assert.NotContains(t, res.Features, "50")

	var lowQuality []string
	for _, fr := range res.Extraction.Filtered {
		if fr.Reason == "low_quality" {
			lowQuality = append(lowQuality, fr.Feature)
		}
	}
	assert.Contains(t, lowQuality, "25")
	assert.Contains(t, lowQuality, "50")
}

func TestPreprocessIdempotentOnNormalizedText(t *testing.T) {
	pre := newPre(t)

	first := pre.Preprocess("型号：V5011N1040/U\n通径：1/2\"(DN15)\n适用介质：水", ModeMatching)
	second := pre.Preprocess(first.Normalized, ModeMatching)

	assert.Equal(t, first.Normalized, second.Normalized)
	assert.Equal(t, first.Features, second.Features)
}

func TestPreprocessEmptyInput(t *testing.T) {
	pre := newPre(t)

	res := pre.Preprocess("", ModeMatching)

	assert.Empty(t, res.Features)
	assert.Equal(t, "", res.Normalized)
	require.NotNil(t, res.Cleaning)
	require.NotNil(t, res.Extraction)
}

func TestPreprocessIgnoreKeywords(t *testing.T) {
	pre := newPre(t)

	res := pre.Preprocess("压力传感器,含安装,0-10V", ModeMatching)

	for _, f := range res.Features {
		assert.NotContains(t, f, "安装")
	}
	require.NotEmpty(t, res.Cleaning.IgnoredKeywords)
	assert.Equal(t, "含安装", res.Cleaning.IgnoredKeywords[0].Keyword)
}

func TestDeviceModeKeepsTemperatureUnits(t *testing.T) {
	pre := newPre(t)

	assert.Equal(t, "-20℃", pre.Normalize("-20℃", ModeDevice))
	assert.Equal(t, "-20摄氏度", pre.Normalize("-20℃", ModeMatching))
}

func TestFoldFullwidth(t *testing.T) {
	assert.Equal(t, "dn50(ip65)", foldFullwidth("ｄｎ５０（ｉｐ６５）"))
	assert.Equal(t, "森 林", foldFullwidth("森　林"))
}

func TestUnifySeparatorsProtectsNumericRanges(t *testing.T) {
	pre := newPre(t)

	res := pre.Preprocess("温度范围 0 ~ 250, 精度 1%", ModeMatching)

	assert.Contains(t, res.Normalized, "0-250")
	assert.NotContains(t, res.Normalized, "0+250")
}
