// Package occupancy parses and stores daily occupancy percentages.
package occupancy

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Parse reads "date: value" lines and returns the date to value mapping.
// Lines without both fields, or whose value has no leading integer, are skipped.
// A later line for the same date replaces an earlier one.
func Parse(r io.Reader) (map[string]int, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read occupancy file: %w", err)
	}
	return ParseString(string(content)), nil
}

func ParseString(content string) map[string]int {
	data := make(map[string]int)
	for _, line := range strings.Split(content, "\n") {
		date, value, ok := ParseLine(line)
		if !ok {
			continue
		}
		data[date] = value
	}
	return data
}

// ParseLine splits a line on ':' and reads the first two fields.
// Anything after a second ':' is ignored.
func ParseLine(line string) (string, int, bool) {
	fields := strings.Split(line, ":")
	if len(fields) < 2 {
		return "", 0, false
	}
	date := strings.TrimSpace(fields[0])
	rawValue := strings.TrimSpace(fields[1])
	if date == "" || rawValue == "" {
		return "", 0, false
	}
	value, ok := leadingInt(rawValue)
	if !ok {
		return "", 0, false
	}
	return date, value, true
}

// leadingInt reads an optional sign followed by decimal digits from the start
// of s and ignores the rest, so "60%" reads as 60. Values beyond the int
// range are clamped.
func leadingInt(s string) (int, bool) {
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0, false
	}
	// Atoi saturates at the int bounds on overflow.
	value, err := strconv.Atoi(s[:end])
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return value, true
}
