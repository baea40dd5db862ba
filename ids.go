package stepdoc

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDFunc returns a fresh identifier on every call.
type IDFunc func() string

// UUIDs generates random UUIDv4 identifiers. It is the default for Store.
func UUIDs() string {
	return uuid.NewString()
}

// SequentialIDs returns a generator producing prefix-1, prefix-2, ...
// Useful for deterministic output in tests and fixtures.
func SequentialIDs(prefix string) IDFunc {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("%s-%d", prefix, n.Add(1))
	}
}
