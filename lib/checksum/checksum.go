package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// CalculateCheckSum returns the lowercase hex SHA-256 digest of data.
func CalculateCheckSum(data []byte) string {
	sum := sha256.Sum256(data)

	return hex.EncodeToString(sum[:])
}
