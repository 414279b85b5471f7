package testutil

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

// SHA256Hex returns the SHA-256 checksum of data as a lowercase hex string.
func SHA256Hex(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// TreeDigest maps every regular file under root to the checksum of its
// content, for byte-identity comparisons between two points in time.
func TreeDigest(t *testing.T, root string) map[string]string {
	t.Helper()
	digest := make(map[string]string)
	for rel, content := range ReadTree(t, root) {
		digest[rel] = SHA256Hex([]byte(content))
	}
	return digest
}
