package api

import (
	"fmt"
	"strconv"
	"strings"
)

// steamIDOffset separates a 32-bit account (friend) id from its 64-bit Steam id.
const steamIDOffset int64 = 76561197960265728

func AccountIDToSteamID(accountID int64) int64 {
	return accountID + steamIDOffset
}

func SteamIDToAccountID(steamID int64) int64 {
	return steamID - steamIDOffset
}

// ParseAccountID accepts either a friend id or a 64-bit Steam id.
func ParseAccountID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid account id %q: %w", s, err)
	}
	if id <= 0 {
		return 0, fmt.Errorf("invalid account id %q: must be positive", s)
	}
	if id >= steamIDOffset {
		id = SteamIDToAccountID(id)
		if id <= 0 {
			return 0, fmt.Errorf("invalid account id %q: steam id maps to no account", s)
		}
	}
	return id, nil
}
