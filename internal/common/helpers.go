package common

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	SOLDecimals = 9 // SOL has 9 decimals (lamports)

	// RecordIDPrefix prefixes every identifier generated for a new card
	RecordIDPrefix = "did-"

	MinAge = 1
	MaxAge = 120
)

// LamportsToSOL converts lamports to SOL string without float precision loss
func LamportsToSOL(lamports uint64) string {
	return formatWithDecimals(lamports, SOLDecimals)
}

// formatWithDecimals converts integer to decimal string by inserting decimal point
// Example: formatWithDecimals(24981836, 9) = "0.024981836"
func formatWithDecimals(value uint64, decimals int) string {
	s := strconv.FormatUint(value, 10)

	// Pad with leading zeros if needed
	if len(s) <= decimals {
		s = strings.Repeat("0", decimals-len(s)+1) + s
	}

	pos := len(s) - decimals
	return s[:pos] + "." + s[pos:]
}

// NewRecordID builds a record identifier from the creation time.
// Two cards created in the same millisecond collide; the contract rejects the second one.
func NewRecordID(now time.Time) string {
	return RecordIDPrefix + strconv.FormatInt(now.UnixMilli(), 10)
}

// DIDURI returns the QR payload did:<namespace>:<id>
func DIDURI(namespace, id string) string {
	return fmt.Sprintf("did:%s:%s", namespace, id)
}

// ParseAge parses a user-supplied age and checks it is within [MinAge, MaxAge]
func ParseAge(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("age is required")
	}

	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("age must be an integer: %w", err)
	}
	if n < MinAge || n > MaxAge {
		return 0, fmt.Errorf("age must be between %d and %d", MinAge, MaxAge)
	}
	return uint32(n), nil
}

// ShortAddress abbreviates an account address as 0x1234...abcd
func ShortAddress(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}
