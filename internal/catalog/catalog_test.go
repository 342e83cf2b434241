package catalog

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"device-match-service/internal/match/conf"
	"device-match-service/internal/match/model"
	"device-match-service/internal/match/service"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	pre, err := service.NewPreprocessor(conf.Default())
	require.NoError(t, err)
	return NewStore(service.NewRuleGenerator(pre), zerolog.Nop())
}

func TestSetDevicesRegeneratesRules(t *testing.T) {
	s := newStore(t)
	devices := []model.Device{
		{DeviceID: "D001", Brand: "Honeywell", DeviceName: "CO传感器", SpecModel: "HSCM-R100U", UnitPrice: 680},
		{DeviceID: "D002", Brand: "西门子", DeviceName: "温度传感器", SpecModel: "QAA2061", UnitPrice: 420},
	}

	require.NoError(t, s.SetDevices(devices))

	rules := s.Rules()
	require.Len(t, rules, 2)
	assert.Equal(t, "R_D001", rules[0].RuleID)

	d, ok := s.Device("D001")
	require.True(t, ok)
	assert.InDelta(t, 680.0, d.UnitPrice, 1e-9)

	// Replacing the catalog replaces the rules.
	require.NoError(t, s.SetDevices(devices[:1]))
	assert.Len(t, s.Rules(), 1)
	_, ok = s.Device("D002")
	assert.False(t, ok)
}

func TestLoadFileWithChineseHeaders(t *testing.T) {
	s := newStore(t)
	csv := "设备ID,品牌,设备名称,规格型号,详细参数,单价\n" +
		"D001,Honeywell,CO传感器,HSCM-R100U,量程:0~100ppm,￥680\n" +
		"D002,西门子,温度传感器,QAA2061,,420元\n"

	n, err := s.LoadFile(strings.NewReader(csv), "catalog.csv")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	d, ok := s.Device("D001")
	require.True(t, ok)
	assert.Equal(t, "Honeywell", d.Brand)
	assert.Equal(t, "HSCM-R100U", d.SpecModel)
	assert.InDelta(t, 680.0, d.UnitPrice, 1e-9)

	rules := s.Rules()
	require.Len(t, rules, 2)
	assert.Contains(t, rules[0].Features, "honeywell")
}

func TestLoadFileSkipsRowsWithoutID(t *testing.T) {
	s := newStore(t)
	csv := "设备ID,设备名称\nD001,压力传感器\n,无编号设备\n"

	n, err := s.LoadFile(strings.NewReader(csv), "catalog.csv")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, s.Devices(), 1)
}

func TestLoadFileEnglishHeaderAliases(t *testing.T) {
	s := newStore(t)
	csv := "device_id,brand,device_name,unit_price\nD001,Siemens,温度传感器,420\n"

	n, err := s.LoadFile(strings.NewReader(csv), "catalog.csv")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	d, _ := s.Device("D001")
	assert.Equal(t, "Siemens", d.Brand)
	assert.InDelta(t, 420.0, d.UnitPrice, 1e-9)
}

func TestDevicesPreserveLoadOrder(t *testing.T) {
	s := newStore(t)
	devices := []model.Device{
		{DeviceID: "D003", DeviceName: "控制器"},
		{DeviceID: "D001", DeviceName: "传感器"},
		{DeviceID: "D002", DeviceName: "执行器"},
	}
	require.NoError(t, s.SetDevices(devices))

	got := s.Devices()
	require.Len(t, got, 3)
	assert.Equal(t, "D003", got[0].DeviceID)
	assert.Equal(t, "D001", got[1].DeviceID)
	assert.Equal(t, "D002", got[2].DeviceID)
}
