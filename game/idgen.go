package game

import (
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"

	"yojiquiz/catalog"
)

// UniqueIdGenerator hands out identifiers. Uniqueness among live rooms is
// enforced by the Registry, not by the generator.
type UniqueIdGenerator interface {
	Generate() string
}

type codeGen struct {
	rng catalog.Rand
}

// NewCodeGen returns a generator of six-digit room codes in [100000, 999999].
func NewCodeGen() UniqueIdGenerator {
	return codeGen{rng: globalRand{}}
}

func (g codeGen) Generate() string {
	return fmt.Sprintf("%06d", 100000+g.rng.IntN(900000))
}

type playerIdGen struct{}

func NewPlayerIdGen() UniqueIdGenerator {
	return playerIdGen{}
}

func (playerIdGen) Generate() string {
	return uuid.NewString()
}

// globalRand adapts the auto-seeded top-level math/rand/v2 functions, which
// are safe for concurrent use.
type globalRand struct{}

func (globalRand) IntN(n int) int {
	return rand.IntN(n)
}

func NewGlobalRand() catalog.Rand {
	return globalRand{}
}
