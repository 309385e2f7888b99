// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/taibuivan/yomira-studio/internal/users/account"
)

//go:embed emergency_accounts.json
var emergencyAccounts []byte

// EmergencyDirectory holds the embedded accounts served by the last tier of
// the /me chain, keyed by user ID.
type EmergencyDirectory map[string]account.User

// LoadEmergencyDirectory parses the embedded account list. Entries with an
// unknown role are rejected rather than downgraded.
func LoadEmergencyDirectory() (EmergencyDirectory, error) {
	return ParseEmergencyDirectory(emergencyAccounts)
}

// ParseEmergencyDirectory parses a JSON array of accounts.
func ParseEmergencyDirectory(raw []byte) (EmergencyDirectory, error) {
	var users []account.User
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, fmt.Errorf("auth: parse emergency accounts: %w", err)
	}

	directory := make(EmergencyDirectory, len(users))
	for _, user := range users {
		if user.ID == "" {
			return nil, fmt.Errorf("auth: emergency account %q has no id", user.Username)
		}
		if !user.Role.Valid() {
			return nil, fmt.Errorf("auth: emergency account %q has unknown role %q", user.ID, user.Role)
		}
		user.IsActive = true
		directory[user.ID] = user
	}
	return directory, nil
}

// Lookup returns a copy of the account with the given ID.
func (directory EmergencyDirectory) Lookup(id string) (*account.User, bool) {
	user, ok := directory[id]
	if !ok {
		return nil, false
	}
	return &user, true
}

