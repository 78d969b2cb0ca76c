// Package arena hands out fixed-size blocks of boid state carved from a single
// buffer allocated up front, so that voices never allocate while rendering.
package arena

import (
	"errors"
	"fmt"
	"sync"

	"github.com/lao-tseu-is-alive/go-boids-oscillator/pkg/behavior"
)

// BlockSize is the number of boids reserved for every block.
const BlockSize = behavior.MaxBoids

var (
	ErrExhausted    = errors.New("arena exhausted")
	ErrUnknownBlock = errors.New("block does not belong to this arena or is already released")
	ErrInvalidSize  = errors.New("invalid block size")
)

// Arena manages one pre-allocated slice of boids split in BlockSize blocks.
// It is safe for concurrent use.
type Arena struct {
	mu     sync.Mutex
	buffer []behavior.Boid
	free   []int                  // indexes of free blocks, used as a stack
	owners map[*behavior.Boid]int // first element of a block in use -> block index
	inUse  int
}

// New initializes an arena able to hold `voices` flocks at the same time.
func New(voices int) (*Arena, error) {
	if voices < 1 {
		return nil, fmt.Errorf("cannot create arena for %d voices: %w", voices, ErrInvalidSize)
	}
	a := &Arena{
		buffer: make([]behavior.Boid, voices*BlockSize),
		free:   make([]int, 0, voices),
		owners: make(map[*behavior.Boid]int, voices),
	}
	// Push in reverse so that block 0 is handed out first.
	for i := voices - 1; i >= 0; i-- {
		a.free = append(a.free, i)
	}
	return a, nil
}

// Allocate returns a zeroed slice of n boids backed by a free block.
// The slice capacity is n, appending to it never spills into a neighbour block.
func (a *Arena) Allocate(n int) ([]behavior.Boid, error) {
	if n < 1 || n > BlockSize {
		return nil, fmt.Errorf("allocate %d boids: %w", n, ErrInvalidSize)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.free) == 0 {
		return nil, ErrExhausted
	}
	idx := a.free[len(a.free)-1]
	a.free = a.free[:len(a.free)-1]

	off := idx * BlockSize
	block := a.buffer[off : off+n : off+n]
	a.owners[&block[0]] = idx
	a.inUse++
	return block, nil
}

// Release gives a block back to the arena and zeroes its content.
// Releasing a slice that did not come from Allocate, or releasing twice,
// returns ErrUnknownBlock.
func (a *Arena) Release(boids []behavior.Boid) error {
	if len(boids) == 0 {
		return ErrUnknownBlock
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	idx, ok := a.owners[&boids[0]]
	if !ok {
		return ErrUnknownBlock
	}
	delete(a.owners, &boids[0])

	off := idx * BlockSize
	clear(a.buffer[off : off+BlockSize])
	a.free = append(a.free, idx)
	a.inUse--
	return nil
}

// Capacity returns the number of blocks in the arena.
func (a *Arena) Capacity() int {
	return len(a.buffer) / BlockSize
}

// InUse returns the number of blocks currently allocated.
func (a *Arena) InUse() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inUse
}
