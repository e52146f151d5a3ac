package postgres

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ULIDGenerator issues movement, entry and event IDs. IDs generated within the
// same millisecond stay ordered because the entropy source is monotonic.
type ULIDGenerator struct {
	mu      sync.Mutex
	now     func() time.Time
	entropy *ulid.MonotonicEntropy
}

// NewULIDGenerator uses the wall clock and crypto/rand.
func NewULIDGenerator() *ULIDGenerator {
	return NewULIDGeneratorWith(time.Now, rand.Reader)
}

// NewULIDGeneratorWith takes the clock and entropy source, mostly for tests.
func NewULIDGeneratorWith(now func() time.Time, entropy io.Reader) *ULIDGenerator {
	return &ULIDGenerator{
		now:     now,
		entropy: ulid.Monotonic(entropy, 0),
	}
}

// Generate returns a new ULID string.
func (g *ULIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	return ulid.MustNew(ulid.Timestamp(g.now()), g.entropy).String()
}
