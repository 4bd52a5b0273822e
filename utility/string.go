package utility

import (
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ToFloat parses a finite numeric cell; thousands separators and a leading $ are accepted.
func ToFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// FormatFloat prints a value without trailing zeros, e.g. 1200 or 12.5
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func NewUUID() string {
	return uuid.New().String()
}
