package misc

import (
	"strings"
)

func TrimEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func Clamp(min, max, v float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func StringsIndexOf(ss []string, s string) int {
	for i, v := range ss {
		if v == s {
			return i
		}
	}
	return -1
}
