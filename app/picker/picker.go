// Package picker selects a random theme that differs from the currently stored one.
// It performs no I/O; randomness comes from an injectable source.
package picker

import (
	"errors"
	"math/rand/v2"

	"github.com/umputun/random-theme/app/catalog"
)

// ErrEmptyPool is returned when there is nothing to pick from.
var ErrEmptyPool = errors.New("empty theme pool")

// Rand is a source of uniformly distributed ints in [0,n).
type Rand interface {
	IntN(n int) int
}

// Picker draws themes from a pool with rejection of the current theme.
type Picker struct {
	rnd Rand
}

// New makes a Picker. nil rnd uses the global math/rand/v2 source.
func New(rnd Rand) *Picker {
	if rnd == nil {
		rnd = globalRand{}
	}
	return &Picker{rnd: rnd}
}

// PickDifferent draws from pool until the drawn theme id differs from currentID.
// A single-entry pool returns its only theme even if it matches currentID.
// Empty currentID matches nothing, so the first draw wins.
func (p *Picker) PickDifferent(pool []catalog.Theme, currentID string) (catalog.Theme, error) {
	switch len(pool) {
	case 0:
		return catalog.Theme{}, ErrEmptyPool
	case 1:
		return pool[0], nil
	}

	// pool made of nothing but the current id can't satisfy the loop
	if !hasOther(pool, currentID) {
		return pool[p.rnd.IntN(len(pool))], nil
	}

	for {
		th := pool[p.rnd.IntN(len(pool))]
		if th.ID != currentID {
			return th, nil
		}
	}
}

func hasOther(pool []catalog.Theme, currentID string) bool {
	for _, th := range pool {
		if th.ID != currentID {
			return true
		}
	}
	return false
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) } //nolint:gosec // theme choice is not security sensitive
