package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Keyer derives cache keys for warehouse lookups.
type Keyer interface {
	// LineageKey is the key of one one-hop lineage reply.
	LineageKey(object string, opts LineageKeyOpts) string
	// ClassifyKey is the key of one object classification.
	ClassifyKey(object string) string
}

// LineageKeyOpts holds the request parameters that change a lineage reply.
type LineageKeyOpts struct {
	Domain    string `json:"domain"`
	Direction string `json:"direction"`
	Distance  int    `json:"distance"`
}

// DefaultKeyer generates unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LineageKey hashes the object together with the request options.
func (DefaultKeyer) LineageKey(object string, opts LineageKeyOpts) string {
	return hashKey("lineage", object, opts)
}

// ClassifyKey hashes the object name.
func (DefaultKeyer) ClassifyKey(object string) string {
	return hashKey("classify", object)
}

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
