package search

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"

	"github.com/zon-format/docsearch/internal/indexing"
)

// Fingerprint returns a stable hash of the entry list, order included.
// Two builds with equal fingerprints can share one engine.
func Fingerprint(entries []indexing.Entry) string {
	h := sha256.New()

	writeUint(h, uint64(len(entries)))
	for _, e := range entries {
		writeField(h, e.Title)
		writeField(h, e.Href)
		writeField(h, e.Content)
		writeField(h, e.Section)
	}

	return hex.EncodeToString(h.Sum(nil))
}

// writeField length-prefixes s so no field content can mimic a boundary
func writeField(h hash.Hash, s string) {
	writeUint(h, uint64(len(s)))
	h.Write([]byte(s))
}

func writeUint(h hash.Hash, n uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], n)
	h.Write(buf[:])
}
