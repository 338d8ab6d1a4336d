package rand

import (
	"encoding/binary"
	mrand "math/rand/v2"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/seehuhn/mt19937"
)

// Kind names a pseudo-random number generator algorithm. Each chain picks
// one along with its seed, so chains draw from independent streams.
type Kind string

// Supported generators
const (
	MersenneTwister Kind = "mt19937"
	PCG             Kind = "pcg"
	ChaCha8         Kind = "chacha8"
)

// Kinds lists every supported generator
var Kinds = []Kind{MersenneTwister, PCG, ChaCha8}

// ParseKind returns the generator kind for a (case insensitive) name
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", errors.Errorf("Unknown random generator %q", s)
}

var _ mrand.Source = (*Generator)(nil)

// source is what every backing algorithm provides
type source interface {
	Uint64() uint64
}

// A Generator uses a goroutine to populate batches of random numbers from
// the chosen algorithm. It implements math/rand/v2's Source, so it can be
// handed to gonum distributions. Close stops the background goroutine.
type Generator struct {
	ch   chan uint64
	done chan struct{}
	once sync.Once
}

// NewGenerator starts a new background Mersenne twister based on the given seed
func NewGenerator(seed int64) (*Generator, error) {
	return New(MersenneTwister, seed)
}

// New starts a new background generator of the given kind
func New(kind Kind, seed int64) (*Generator, error) {
	var src source

	switch kind {
	case MersenneTwister:
		r := mt19937.New()
		r.Seed(seed)
		src = r
	case PCG:
		src = mrand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)
	case ChaCha8:
		var key [32]byte
		binary.LittleEndian.PutUint64(key[:8], uint64(seed))
		src = mrand.NewChaCha8(key)
	default:
		return nil, errors.Errorf("Unknown random generator %q", string(kind))
	}

	return start(src), nil
}

func start(src source) *Generator {
	g := &Generator{
		ch:   make(chan uint64, 1024),
		done: make(chan struct{}),
	}

	go func() {
		defer close(g.ch)
		for {
			select {
			case g.ch <- src.Uint64():
			case <-g.done:
				return
			}
		}
	}()

	return g
}

// Close stops the background goroutine. Drawing from a closed generator
// panics.
func (g *Generator) Close() {
	g.once.Do(func() { close(g.done) })
}

// Uint64 implements math/rand/v2.Source
func (g *Generator) Uint64() uint64 {
	v, ok := <-g.ch
	if !ok {
		panic("rand: draw from closed Generator")
	}
	return v
}
