// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package query reads typed values out of URL query strings.

Lookups are lenient: a missing or malformed value yields the caller's default
instead of an error. Handlers that must reject bad input validate the raw
string themselves.
*/
package query

import (
	"net/url"
	"strconv"
	"strings"
)

// Int returns the integer at key, or def when absent or malformed.
func Int(values url.Values, key string, def int) int {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// IntBetween is [Int] with values outside [min, max] replaced by def.
func IntBetween(values url.Values, key string, def, min, max int) int {
	n := Int(values, key, def)
	if n < min || n > max {
		return def
	}
	return n
}

// OptionalBool returns nil when key is absent, so "not filtered" and "false"
// stay distinct. Unparseable input counts as false.
func OptionalBool(values url.Values, key string) *bool {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil
	}
	parsed, _ := strconv.ParseBool(raw)
	return &parsed
}

// StringSlice splits a comma-separated value into trimmed, non-empty parts.
func StringSlice(val string) []string {
	var res []string
	for part := range strings.SplitSeq(val, ",") {
		if clean := strings.TrimSpace(part); clean != "" {
			res = append(res, clean)
		}
	}
	return res
}
