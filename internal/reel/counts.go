package reel

import (
	"regexp"
	"strconv"
	"strings"
)

var countPattern = regexp.MustCompile(`(?i)([\d.]+)\s*([kmb])?\b`)

// ParseCount reads display counts such as "1,234", "1.5K", "2M" or "3B views".
// Unparseable text yields zero.
func ParseCount(text string) int64 {
	cleaned := strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	if cleaned == "" {
		return 0
	}
	match := countPattern.FindStringSubmatch(cleaned)
	if match == nil {
		return 0
	}
	number, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0
	}
	switch strings.ToUpper(match[2]) {
	case "K":
		number *= 1_000
	case "M":
		number *= 1_000_000
	case "B":
		number *= 1_000_000_000
	}
	return int64(number)
}
