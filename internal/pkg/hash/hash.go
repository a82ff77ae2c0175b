package hash

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/cespare/xxhash/v2"
)

// FastHash returns a short non-cryptographic hex digest of s, used for cache keys.
func FastHash(s string) string {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, xxhash.Sum64String(s))
	return hex.EncodeToString(buf)
}
