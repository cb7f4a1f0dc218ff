package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is the interface shared by the memory and disk backends. The
// pipeline uses two namespaces: fetched source pages and drift-classifier
// verdicts.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key builds a namespaced cache key from the given parts. Parts are hashed
// so arbitrary text (canonical statements, snippets, URLs) is safe to key
// on.
func Key(namespace string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return "lexitect:v1:" + namespace + ":" + hex.EncodeToString(h.Sum(nil))
}
