// Package exitpass issues the unique pass numbers stamped on approved
// departure requests. A number is "EP-" + ULID + "-" + 4 random hex chars:
// the ULID carries the approval timestamp and monotonic entropy, the suffix
// guards against clock manipulation across processes. The store's unique
// constraint on exit_pass_number remains the final backstop.
package exitpass

import (
	cryptorand "crypto/rand"
	"encoding/hex"
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const prefix = "EP"

type Generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

func NewGenerator(now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{
		entropy: ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0),
		now:     now,
	}
}

// New returns the next pass number, e.g. "EP-01J8ZC1Q4N4R9WYV2K3T8F5H2M-a3f9".
func (g *Generator) New() string {
	g.mu.Lock()
	id := ulid.MustNew(ulid.Timestamp(g.now()), g.entropy)
	g.mu.Unlock()

	var suffix [2]byte
	if _, err := cryptorand.Read(suffix[:]); err != nil {
		// entropy exhaustion is not survivable in any useful way
		panic(err)
	}
	return prefix + "-" + id.String() + "-" + hex.EncodeToString(suffix[:])
}
