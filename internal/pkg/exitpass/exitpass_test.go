package exitpass

import (
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var passPattern = regexp.MustCompile(`^EP-[0-9A-HJKMNP-TV-Z]{26}-[0-9a-f]{4}$`)

func TestNewFormat(t *testing.T) {
	g := NewGenerator(nil)

	pass := g.New()
	assert.Regexp(t, passPattern, pass)

	parts := strings.Split(pass, "-")
	require.Len(t, parts, 3)
	assert.Equal(t, "EP", parts[0])
	assert.Len(t, parts[1], 26)
	assert.Len(t, parts[2], 4)
}

func TestNewIsUniqueUnderFrozenClock(t *testing.T) {
	// Same timestamp for every call; monotonic entropy plus the random
	// suffix must still keep the numbers distinct.
	frozen := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	g := NewGenerator(func() time.Time { return frozen })

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		pass := g.New()
		require.False(t, seen[pass], "duplicate pass number %s", pass)
		seen[pass] = true
	}
}

func TestNewIsSafeForConcurrentUse(t *testing.T) {
	g := NewGenerator(nil)

	const workers = 8
	const perWorker = 200

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]string, 0, perWorker)
			for j := 0; j < perWorker; j++ {
				local = append(local, g.New())
			}
			mu.Lock()
			defer mu.Unlock()
			for _, pass := range local {
				seen[pass] = true
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
}
