// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

// ErrPasswordTooLong is returned by [HashPassword] past [MaxPasswordBytes].
var ErrPasswordTooLong = errors.New("sec: password exceeds 72 bytes")

// PasswordCost is the bcrypt work factor for new hashes.
var PasswordCost = bcrypt.DefaultCost

// decoyHash is compared against when a login names no account, so both
// rejection paths spend a bcrypt comparison.
var decoyHash = sync.OnceValue(func() []byte {
	hash, _ := bcrypt.GenerateFromPassword([]byte("yomira-studio-decoy"), PasswordCost)
	return hash
})

// HashPassword hashes a plain-text password with bcrypt.
func HashPassword(plainTextPassword string) (string, error) {
	if len(plainTextPassword) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), PasswordCost)
	if err != nil {
		return "", fmt.Errorf("sec: hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// CheckPasswordHash reports whether the password matches the stored hash.
// A malformed hash never matches.
func CheckPasswordHash(plainTextPassword, existingHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(existingHash), []byte(plainTextPassword)) == nil
}

// DiscardPasswordCheck runs a comparison whose result is thrown away.
func DiscardPasswordCheck(plainTextPassword string) {
	_ = bcrypt.CompareHashAndPassword(decoyHash(), []byte(plainTextPassword))
}
