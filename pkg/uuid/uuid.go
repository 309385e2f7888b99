// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package uuid issues the time-ordered (version 7) identifiers used as primary
keys, and recognises them at the HTTP edge.
*/
package uuid

import "github.com/google/uuid"

// New returns a UUIDv7 string. It panics only if the system entropy source
// fails.
func New() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Valid reports whether s is a canonical hyphenated UUID of any version.
func Valid(s string) bool {
	if len(s) != 36 {
		return false
	}
	return uuid.Validate(s) == nil
}
