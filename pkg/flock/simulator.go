package flock

import (
	"math/rand/v2"
	"runtime"
	"sync"
)

// Simulator owns the flock and advances it one tick at a time. Each tick
// spawns one goroutine per worker batch and joins them all before Step
// returns, so callers can read the flock freely between ticks.
//
// Two read disciplines are supported:
//
//   - shared (default): every worker reads the live slice while all workers
//     are writing their own batches. Writes never overlap, but a worker may
//     observe a neighbor either pre- or post-update for the current tick
//     depending on scheduling. Runs are not bit-reproducible across worker
//     counts.
//   - deterministic (Config.Deterministic): workers read a snapshot of the
//     flock frozen at the start of the tick and write the live slice. The
//     result is independent of worker count and scheduling.
type Simulator struct {
	cfg     Config
	boids   []Boid
	prev    []Boid // reusable snapshot buffer for deterministic ticks
	workers int
	tick    uint64
}

// NewSimulator seeds a flock from cfg and rng and resolves the worker
// count. A nil rng falls back to an unseeded generator.
func NewSimulator(cfg Config, rng *rand.Rand) *Simulator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Simulator{
		cfg:     cfg,
		boids:   NewFlock(&cfg, rng),
		workers: workerCount(cfg.Workers),
	}
}

// workerCount resolves the configured worker count against the hardware,
// defaulting to one worker per CPU and never less than one.
func workerCount(configured int) int {
	if configured > 0 {
		return configured
	}
	if n := runtime.NumCPU(); n > 0 {
		return n
	}
	return 1
}

// Boids exposes the live flock. Callers must not mutate it, and must not
// hold reads across a concurrent Step.
func (s *Simulator) Boids() []Boid { return s.boids }

// Snapshot returns a copy of the flock, safe to keep across ticks.
func (s *Simulator) Snapshot() []Boid {
	out := make([]Boid, len(s.boids))
	copy(out, s.boids)
	return out
}

// Config returns the simulator's configuration. Mutating it between ticks
// (never during Step) retunes the rules live; population and worker fields
// are only read at construction.
func (s *Simulator) Config() *Config { return &s.cfg }

// Tick reports how many steps have completed.
func (s *Simulator) Tick() uint64 { return s.tick }

// Workers reports the resolved per-tick worker count.
func (s *Simulator) Workers() int { return s.workers }

// Reset re-seeds the flock in place, keeping configuration and workers.
func (s *Simulator) Reset(rng *rand.Rand) {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	s.boids = NewFlock(&s.cfg, rng)
	s.tick = 0
}

// Step advances the whole flock by dt seconds. The index range [0, n) is
// split into contiguous batches of n/workers boids; the last batch absorbs
// the remainder so every boid is updated exactly once. Workers are spawned
// and joined anew on every call.
func (s *Simulator) Step(dt float64) {
	read := s.boids
	if s.cfg.Deterministic {
		s.prev = append(s.prev[:0], s.boids...)
		read = s.prev
	}

	n := len(s.boids)
	var wg sync.WaitGroup
	for w := 0; w < s.workers; w++ {
		start, end := batchBounds(n, s.workers, w)
		if start == end {
			continue
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			s.stepBatch(read, start, end, dt)
		}(start, end)
	}
	wg.Wait()
	s.tick++
}

// stepBatch runs the full per-boid pipeline over [start, end): accumulate
// neighbor influence, steer, integrate. Writes stay inside the batch.
func (s *Simulator) stepBatch(read []Boid, start, end int, dt float64) {
	for i := start; i < end; i++ {
		inf := ComputeInfluence(read, i, &s.cfg)
		b := &s.boids[i]
		b.Steer(inf, &s.cfg, dt)
		b.Integrate(dt)
	}
}

// batchBounds returns the half-open index range for worker w out of
// workers. Every batch holds n/workers boids except the last, which runs to
// n.
func batchBounds(n, workers, w int) (start, end int) {
	size := n / workers
	start = w * size
	end = start + size
	if w == workers-1 {
		end = n
	}
	return start, end
}
