package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LovelacePerAda is the number of indivisible base units in one ADA.
const LovelacePerAda int64 = 1_000_000

// GenerateUUIDWithSuffix generates a UUID with a given module name as a prefix.
// This is useful for creating unique identifiers with context-specific prefixes.
func GenerateUUIDWithSuffix(module string) string {
	id := uuid.New()
	uuidStr := id.String()
	idWithSuffix := fmt.Sprintf("%s_%s", module, uuidStr)
	return idWithSuffix
}

// LovelaceToAda converts a lovelace amount to its ADA representation.
func LovelaceToAda(lovelace int64) decimal.Decimal {
	return decimal.NewFromInt(lovelace).Div(decimal.NewFromInt(LovelacePerAda))
}

// AdaString renders a lovelace amount as a human readable ADA string. Full
// precision is kept so a short payment is never displayed as the rounded
// required amount.
func AdaString(lovelace int64) string {
	return LovelaceToAda(lovelace).String()
}

// InputHash produces the canonical SHA-256 hex digest of a job input. The
// escrow service ties a payment request to this hash, so key order must be
// deterministic.
func InputHash(input map[string]interface{}) string {
	keys := make([]string, 0, len(input))
	for k := range input {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ordered := make([]byte, 0, 256)
	ordered = append(ordered, '{')
	for i, k := range keys {
		if i > 0 {
			ordered = append(ordered, ',')
		}
		kb, _ := json.Marshal(k)
		vb, _ := json.Marshal(input[k])
		ordered = append(ordered, kb...)
		ordered = append(ordered, ':')
		ordered = append(ordered, vb...)
	}
	ordered = append(ordered, '}')

	sum := sha256.Sum256(ordered)
	return hex.EncodeToString(sum[:])
}

// GeneratePurchaserID returns a purchaser identifier accepted by the escrow
// service (14-26 hex characters).
func GeneratePurchaserID() string {
	raw := uuid.New()
	return hex.EncodeToString(raw[:])[:20]
}
