// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package slice holds list cleanup shared by batch endpoints.
package slice

import "strings"

// Unique keeps the first occurrence of every element, preserving order.
// A nil input stays nil.
func Unique[T comparable](input []T) []T {
	if input == nil {
		return nil
	}

	seen := make(map[T]struct{}, len(input))
	kept := input[:0:0]
	for _, item := range input {
		if _, dup := seen[item]; !dup {
			seen[item] = struct{}{}
			kept = append(kept, item)
		}
	}
	return kept
}

// CleanIDs trims identifiers and drops blanks and repeats. The result is
// never nil, so it encodes as [] rather than null.
func CleanIDs(ids []string) []string {
	cleaned := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			cleaned = append(cleaned, id)
		}
	}
	return Unique(cleaned)
}
