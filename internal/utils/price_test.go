package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"680", 680, true},
		{"680.50", 680.5, true},
		{"1,234.50", 1234.5, true},
		{"￥680", 680, true},
		{"¥ 1 250", 1250, true},
		{"350元", 350, true},
		{"６８０", 680, true},
		{"１２．５", 12.5, true},
		{"-5", -5, true},
		{"", 0, false},
		{"面议", 0, false},
		{"-", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParsePrice(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		if tc.ok {
			assert.InDelta(t, tc.want, got, 1e-9, "input %q", tc.in)
		}
	}
}
