package fileio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	excelize "github.com/xuri/excelize/v2"
)

func buildXLSX(t *testing.T, rows [][]string) *bytes.Reader {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return bytes.NewReader(buf.Bytes())
}

func TestReadAnyMapsXLSX(t *testing.T) {
	r := buildXLSX(t, [][]string{
		{"设备ID", "品牌", "设备名称", "单价"},
		{"D001", "Honeywell", "CO传感器", "680"},
		{"", "", "", ""},
		{"D002", "西门子", "温度传感器", "420"},
	})

	rows, err := ReadAnyMaps(r, "catalog.xlsx", 1)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "D001", rows[0]["设备ID"])
	assert.Equal(t, "CO传感器", rows[0]["设备名称"])
	assert.Equal(t, "420", rows[1]["单价"])
}

func TestReadAnyMapsCSV(t *testing.T) {
	csv := "设备描述,数量\n温湿度传感器 室内型,5\n电动调节阀 DN50,2\n"

	rows, err := ReadAnyMaps(strings.NewReader(csv), "upload.csv", 1)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "温湿度传感器 室内型", rows[0]["设备描述"])
	assert.Equal(t, "2", rows[1]["数量"])
}

func TestReadAnyMapsCSVBlankHeaderCell(t *testing.T) {
	csv := "name,,qty\na,b,1\n"

	rows, err := ReadAnyMaps(strings.NewReader(csv), "x.csv", 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "b", rows[0]["Column 2"])
}

func TestReadAnyMapsUnsupportedExtension(t *testing.T) {
	_, err := ReadAnyMaps(strings.NewReader("x"), "file.pdf", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")
}

func TestReadAnyMapsHeaderRowOffset(t *testing.T) {
	r := buildXLSX(t, [][]string{
		{"设备清单", "", ""},
		{"设备ID", "品牌", "设备名称"},
		{"D001", "Honeywell", "CO传感器"},
	})

	rows, err := ReadAnyMaps(r, "catalog.xlsx", 2)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "D001", rows[0]["设备ID"])
}
