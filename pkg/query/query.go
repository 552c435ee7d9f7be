// Copyright (c) 2026 MotoWorld. All rights reserved.
// Author: dev@motoworld.shop

package query

import (
	"strconv"
	"strings"
)

// Int parses a single query parameter value into an int.
// The second return value reports whether the value was a valid integer.
func Int(val string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Float parses a single query parameter value (e.g. a price bound)
// into a float64. The second return value reports validity.
func Float(val string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Bool parses common boolean spellings used by the storefront query strings
// ("true"/"1"/"yes" vs "false"/"0"/"no"). The second return value reports
// whether the input was recognized at all.
func Bool(val string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "true", "1", "yes":
		return true, true
	case "false", "0", "no":
		return false, true
	}
	return false, false
}

// StringSlice parses a single comma-separated query string
// into a trimmed slice of strings.
func StringSlice(val string) []string {
	if val == "" {
		return nil
	}
	var res []string
	for _, v := range strings.Split(val, ",") {
		clean := strings.TrimSpace(v)
		if clean != "" {
			res = append(res, clean)
		}
	}
	return res
}
