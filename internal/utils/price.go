package utils

import (
	"regexp"
	"strconv"
	"strings"
)

var rxKeepNum = regexp.MustCompile(`[^\d.\-]`)

// ParsePrice parses spreadsheet price cells: "1,234.50", "￥680", "350元",
// full-width digits, NBSP-padded values and similar. Returns false when the
// cell holds no usable number.
func ParsePrice(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	repl := strings.NewReplacer(
		" ", "", " ", "", "　", "", " ", "", "\t", "",
		"￥", "", "¥", "", "元", "", ",", "", "，", "",
	)
	s = repl.Replace(s)
	s = foldFullwidthDigits(s)
	s = rxKeepNum.ReplaceAllString(s, "")
	if s == "" || s == "-" || s == "." {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

func foldFullwidthDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '０' && r <= '９' {
			return r - '０' + '0'
		}
		if r == '．' {
			return '.'
		}
		return r
	}, s)
}
