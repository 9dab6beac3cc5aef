// Package idgen provides request id generators.
package idgen

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/artpar/cleanreader/ports"
)

// Request ids look like "req_a1b2c3d4e5f6": a fixed scheme plus 12 hex
// characters drawn from a UUID.
const (
	requestIDScheme = "req_"
	requestIDHexLen = 12
)

// UUID generates request ids from random UUIDs.
type UUID struct{}

var _ ports.IDGenerator = UUID{}

// NewRequestID returns a fresh request id.
func (UUID) NewRequestID() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return requestIDScheme + hex[:requestIDHexLen]
}

// Sequential generates deterministic ids for tests.
type Sequential struct {
	counter atomic.Uint64
}

var _ ports.IDGenerator = (*Sequential)(nil)

// NewRequestID returns req_000000000001, req_000000000002, ...
func (s *Sequential) NewRequestID() string {
	n := s.counter.Add(1)
	return fmt.Sprintf("%s%012x", requestIDScheme, n)
}
