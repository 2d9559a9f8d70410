// Package collision keeps markers resolved within one batch from landing on
// exactly the same point.
//
// Admission order decides which of two identical coordinates stays put: the
// first one admitted is kept, later ones are perturbed. When rows resolve
// concurrently that order is whichever lookup finishes first, so the choice
// of which row gets moved is not deterministic.
package collision

import (
	"math"
	"math/rand"
	"sync"

	"sheet_geocoder/internal/geo"
)

// MaxOffset bounds the perturbation applied to each axis
const MaxOffset = 0.01

// maxRedraws caps how often a zero perturbation is redrawn before falling
// back to the smallest representable step on latitude
const maxRedraws = 16

type Avoider struct {
	mu       sync.Mutex
	admitted map[geo.Coordinate]struct{}
	order    []geo.Coordinate
	random   func() float64
}

type Option func(*Avoider)

// WithRand replaces the source of uniform [0,1) draws
func WithRand(random func() float64) Option {
	return func(a *Avoider) { a.random = random }
}

func New(opts ...Option) *Avoider {
	a := &Avoider{
		admitted: make(map[geo.Coordinate]struct{}),
		random:   rand.Float64,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Admit records coord and returns it, or a perturbed copy if an identical
// coordinate was already admitted. The returned value is what gets recorded.
func (a *Avoider) Admit(coord geo.Coordinate) geo.Coordinate {
	a.mu.Lock()
	defer a.mu.Unlock()

	result := coord
	if _, seen := a.admitted[coord]; seen {
		result = a.perturb(coord)
	}

	a.admitted[result] = struct{}{}
	a.order = append(a.order, result)
	return result
}

// perturb moves each axis by an independent offset in [0, MaxOffset) with a
// random sign. Must be called with mu held.
func (a *Avoider) perturb(coord geo.Coordinate) geo.Coordinate {
	for i := 0; i < maxRedraws; i++ {
		moved := geo.Coordinate{
			Lat: coord.Lat + a.offset(),
			Lng: coord.Lng + a.offset(),
		}
		if moved != coord {
			return moved
		}
	}
	return geo.Coordinate{
		Lat: math.Nextafter(coord.Lat, math.Inf(1)),
		Lng: coord.Lng,
	}
}

func (a *Avoider) offset() float64 {
	add := a.random() >= 0.5
	magnitude := a.random() * MaxOffset
	if add {
		return magnitude
	}
	return -magnitude
}

// Len returns how many coordinates have been admitted
func (a *Avoider) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.order)
}

// history returns the admitted coordinates in admission order
func (a *Avoider) history() []geo.Coordinate {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]geo.Coordinate, len(a.order))
	copy(out, a.order)
	return out
}
