package util

import (
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var alphaRe = regexp.MustCompile(`^[a-zA-Z]+$`)

func TestRandStr(t *testing.T) {
	for _, n := range []int{1, 10, 64} {
		s := RandStr(n)
		require.Len(t, s, n)
		assert.Regexp(t, alphaRe, s)
	}
}

// Request IDs are generated on every request, often concurrently. This
// only proves anything under -race, which is how it gets run in CI.
func TestRandStrConcurrent(t *testing.T) {
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s := RandStr(10)
				assert.Len(t, s, 10)
			}
		}()
	}

	wg.Wait()
}
