package utils

import (
	"strconv"
	"strings"
)

// StringToInt converts string to int, returns 0 if error
func StringToInt(s string) int {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return i
}

// ParsePage reads a 1-based page number; anything unparsable or below 1 is page 1.
func ParsePage(s string) int {
	if p := StringToInt(s); p > 1 {
		return p
	}
	return 1
}
