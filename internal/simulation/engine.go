// Package simulation implements the emergency room lifecycle simulator:
// random patient generation, the study status machine, the per-tick
// orchestration rules and the read-only timeline projection.
package simulation

import (
	"math/rand"
	"sync"
	"time"

	"er-patient-tracking/internal/models"
	"er-patient-tracking/pkg/utils"
)

// Rand is the source of randomness used by the engine.
// *rand.Rand satisfies it; tests supply scripted sequences.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRand returns a goroutine-safe Rand seeded with seed
func NewRand(seed int64) Rand {
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

// Engine bundles the injectable collaborators of the simulator
type Engine struct {
	rand  Rand
	now   func() time.Time
	newID func(prefix string) string
	probs models.Probabilities
}

// Option configures an Engine
type Option func(*Engine)

// WithRand sets the randomness provider
func WithRand(r Rand) Option {
	return func(e *Engine) { e.rand = r }
}

// WithClock sets the time source
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDFunc sets the identifier generator
func WithIDFunc(f func(prefix string) string) Option {
	return func(e *Engine) { e.newID = f }
}

// WithProbabilities sets the probabilities used outside of a tick
func WithProbabilities(p models.Probabilities) Option {
	return func(e *Engine) { e.probs = p }
}

// NewEngine creates an engine with a time-seeded random source, the wall clock
// and uuid-based identifiers unless overridden
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		rand:  NewRand(time.Now().UnixNano()),
		now:   time.Now,
		newID: utils.GenerateID,
		probs: models.DefaultProbabilities(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// UsingProbabilities returns a shallow copy that draws with p. The copy
// shares the random source, clock and id generator.
func (e *Engine) UsingProbabilities(p models.Probabilities) *Engine {
	cp := *e
	cp.probs = p
	return &cp
}

// Now exposes the engine clock so callers stamp times consistently
func (e *Engine) Now() time.Time {
	return e.now()
}

// NewID returns a fresh identifier with the given prefix
func (e *Engine) NewID(prefix string) string {
	return e.newID(prefix)
}

func (e *Engine) chance(p float64) bool {
	return e.rand.Float64() < p
}

// intBetween returns a uniform integer in [min, max]
func (e *Engine) intBetween(min, max int) int {
	return min + e.rand.Intn(max-min+1)
}

func (e *Engine) minutesAgo(min, max int) time.Time {
	return e.now().Add(-time.Duration(e.intBetween(min, max)) * time.Minute)
}

func pick[T any](e *Engine, items []T) T {
	return items[e.rand.Intn(len(items))]
}

func timePtr(t time.Time) *time.Time {
	return &t
}
