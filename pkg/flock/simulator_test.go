package flock

import (
	"math"
	"math/rand/v2"
	"testing"
)

// floatEq treats two NaNs as equal so whole-flock comparisons stay exact.
func floatEq(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}

func boidsEqual(a, b []Boid) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !floatEq(a[i].X, b[i].X) || !floatEq(a[i].Y, b[i].Y) ||
			!floatEq(a[i].Vx, b[i].Vx) || !floatEq(a[i].Vy, b[i].Vy) ||
			!floatEq(a[i].BiasVal, b[i].BiasVal) || a[i].Group != b[i].Group {
			return false
		}
	}
	return true
}

func TestBatchBounds(t *testing.T) {
	tests := []struct {
		n, workers int
	}{
		{200, 8},
		{7, 3},
		{5, 10}, // more workers than boids
		{1, 1},
		{9, 2},
		{16, 4},
		{0, 4},
	}

	for _, tt := range tests {
		seen := make([]int, tt.n)
		for w := 0; w < tt.workers; w++ {
			start, end := batchBounds(tt.n, tt.workers, w)
			if start < 0 || end < start || end > tt.n {
				t.Fatalf("n=%d workers=%d w=%d: bad range [%d, %d)", tt.n, tt.workers, w, start, end)
			}
			for i := start; i < end; i++ {
				seen[i]++
			}
			if w < tt.workers-1 {
				if got, want := end-start, tt.n/tt.workers; got != want {
					t.Errorf("n=%d workers=%d w=%d: batch size = %d; want %d", tt.n, tt.workers, w, got, want)
				}
			}
		}
		for i, count := range seen {
			if count != 1 {
				t.Errorf("n=%d workers=%d: index %d covered %d times; want exactly once", tt.n, tt.workers, i, count)
			}
		}
	}
}

func TestBatchBounds_LastAbsorbsRemainder(t *testing.T) {
	start, end := batchBounds(7, 3, 2)
	if start != 4 || end != 7 {
		t.Errorf("last batch = [%d, %d); want [4, 7)", start, end)
	}
}

func TestWorkerCount(t *testing.T) {
	if got := workerCount(3); got != 3 {
		t.Errorf("workerCount(3) = %d; want 3", got)
	}
	if got := workerCount(0); got < 1 {
		t.Errorf("workerCount(0) = %d; want at least 1", got)
	}
	if got := workerCount(-2); got < 1 {
		t.Errorf("workerCount(-2) = %d; want at least 1", got)
	}
}

func newTestSimulator(cfg Config, seed uint64) *Simulator {
	return NewSimulator(cfg, rand.New(rand.NewPCG(seed, seed)))
}

func TestStep_DeterministicAcrossWorkerCounts(t *testing.T) {
	// With snapshot reads, the outcome must not depend on how the flock is
	// partitioned.
	base := *DefaultConfig()
	base.NumBoids = 60
	base.Deterministic = true

	cfgA := base
	cfgA.Workers = 1
	cfgB := base
	cfgB.Workers = 7

	simA := newTestSimulator(cfgA, 42)
	simB := newTestSimulator(cfgB, 42)

	if !boidsEqual(simA.Boids(), simB.Boids()) {
		t.Fatal("identical seeds produced different initial flocks")
	}

	for i := 0; i < 5; i++ {
		simA.Step(0.02)
		simB.Step(0.02)
	}

	if !boidsEqual(simA.Boids(), simB.Boids()) {
		t.Error("deterministic runs diverged across worker counts")
	}
}

func TestStep_Reproducible(t *testing.T) {
	cfg := *DefaultConfig()
	cfg.NumBoids = 40
	cfg.Deterministic = true
	cfg.Workers = 4

	simA := newTestSimulator(cfg, 7)
	simB := newTestSimulator(cfg, 7)
	for i := 0; i < 10; i++ {
		simA.Step(0.016)
		simB.Step(0.016)
	}

	if !boidsEqual(simA.Boids(), simB.Boids()) {
		t.Error("same seed and worker count produced different flocks")
	}
}

func TestStep_SpeedWithinBounds(t *testing.T) {
	cfg := *DefaultConfig()
	cfg.NumBoids = 80
	cfg.Deterministic = true
	cfg.Workers = 4

	sim := newTestSimulator(cfg, 11)
	for i := 0; i < 10; i++ {
		sim.Step(0.016)
	}

	for i, b := range sim.Boids() {
		speed := b.Speed()
		if math.IsNaN(speed) {
			t.Fatalf("boid %d: NaN speed", i)
		}
		if speed < cfg.MinSpeed-tol || speed > cfg.MaxSpeed+tol {
			t.Errorf("boid %d: speed %v outside [%v, %v]", i, speed, cfg.MinSpeed, cfg.MaxSpeed)
		}
	}
}

func TestStep_ScoutBiasWithinBounds(t *testing.T) {
	cfg := *DefaultConfig()
	cfg.NumBoids = 50
	cfg.Deterministic = true
	cfg.Workers = 2

	sim := newTestSimulator(cfg, 3)
	for i := 0; i < 20; i++ {
		sim.Step(0.016)
	}

	for i, b := range sim.Boids() {
		if b.Group == GroupNone {
			if b.BiasVal != 0 {
				t.Errorf("boid %d: unbiased boid has biasVal %v", i, b.BiasVal)
			}
			continue
		}
		if b.BiasVal < cfg.BiasIncrement || b.BiasVal > cfg.MaxBias {
			t.Errorf("boid %d: biasVal %v outside [%v, %v]", i, b.BiasVal, cfg.BiasIncrement, cfg.MaxBias)
		}
	}
}

func TestStep_GroupsImmutable(t *testing.T) {
	cfg := *DefaultConfig()
	cfg.NumBoids = 50
	cfg.Deterministic = true

	sim := newTestSimulator(cfg, 9)
	before := make([]Group, cfg.NumBoids)
	for i, b := range sim.Boids() {
		before[i] = b.Group
	}

	for i := 0; i < 5; i++ {
		sim.Step(0.016)
	}

	for i, b := range sim.Boids() {
		if b.Group != before[i] {
			t.Errorf("boid %d: group changed from %v to %v", i, before[i], b.Group)
		}
	}
}

func TestStep_MovesEveryBoid(t *testing.T) {
	cfg := *DefaultConfig()
	cfg.NumBoids = 30
	cfg.Deterministic = true

	sim := newTestSimulator(cfg, 5)
	before := sim.Snapshot()
	sim.Step(0.016)

	// MinSpeed is 10, so every boid covers at least 0.16 world units.
	for i, b := range sim.Boids() {
		if b.X == before[i].X && b.Y == before[i].Y {
			t.Errorf("boid %d did not move", i)
		}
	}
}

func TestStep_SharedSingleWorker(t *testing.T) {
	// Single-worker shared mode has no concurrent reads, so it is safe to
	// exercise under the race detector.
	cfg := *DefaultConfig()
	cfg.NumBoids = 30
	cfg.Workers = 1

	sim := newTestSimulator(cfg, 13)
	for i := 0; i < 5; i++ {
		sim.Step(0.016)
	}

	if got := sim.Tick(); got != 5 {
		t.Errorf("tick = %d; want 5", got)
	}
	for i, b := range sim.Boids() {
		speed := b.Speed()
		if speed < cfg.MinSpeed-tol || speed > cfg.MaxSpeed+tol {
			t.Errorf("boid %d: speed %v outside [%v, %v]", i, speed, cfg.MinSpeed, cfg.MaxSpeed)
		}
	}
}

func TestStep_EmptyFlock(t *testing.T) {
	cfg := *DefaultConfig()
	cfg.NumBoids = 0
	cfg.Workers = 4

	sim := newTestSimulator(cfg, 1)
	sim.Step(0.016)

	if got := sim.Tick(); got != 1 {
		t.Errorf("tick = %d; want 1", got)
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	cfg := *DefaultConfig()
	cfg.NumBoids = 10
	cfg.Deterministic = true

	sim := newTestSimulator(cfg, 2)
	snap := sim.Snapshot()
	sim.Step(0.016)

	if boidsEqual(snap, sim.Boids()) {
		t.Error("snapshot tracked the live flock across a step")
	}
}

func TestReset(t *testing.T) {
	cfg := *DefaultConfig()
	cfg.NumBoids = 20
	cfg.Deterministic = true

	sim := newTestSimulator(cfg, 21)
	for i := 0; i < 3; i++ {
		sim.Step(0.016)
	}

	sim.Reset(rand.New(rand.NewPCG(21, 21)))
	if got := sim.Tick(); got != 0 {
		t.Errorf("tick after reset = %d; want 0", got)
	}

	fresh := newTestSimulator(cfg, 21)
	if !boidsEqual(sim.Boids(), fresh.Boids()) {
		t.Error("reset with the same seed did not reproduce the initial flock")
	}
}

func TestNewFlock_GroupsAndBounds(t *testing.T) {
	cfg := DefaultConfig()
	rng := rand.New(rand.NewPCG(17, 17))
	boids := NewFlock(cfg, rng)

	if len(boids) != cfg.NumBoids {
		t.Fatalf("flock size = %d; want %d", len(boids), cfg.NumBoids)
	}

	for i, b := range boids {
		want := GroupNone
		switch {
		case i < cfg.ScoutsRight:
			want = GroupBiasRight
		case i < cfg.ScoutsRight+cfg.ScoutsLeft:
			want = GroupBiasLeft
		}
		if b.Group != want {
			t.Errorf("boid %d: group = %v; want %v", i, b.Group, want)
		}
		if b.X < 0 || b.X > cfg.Width || b.Y < 0 || b.Y > cfg.Height {
			t.Errorf("boid %d: position (%v, %v) outside world", i, b.X, b.Y)
		}
		if b.Vx < initVelMin || b.Vx > initVelMax || b.Vy < initVelMin || b.Vy > initVelMax {
			t.Errorf("boid %d: velocity (%v, %v) outside [%v, %v]", i, b.Vx, b.Vy, initVelMin, initVelMax)
		}
		if b.BiasVal != 0 {
			t.Errorf("boid %d: initial biasVal = %v; want 0", i, b.BiasVal)
		}
	}
}

func TestGroupString(t *testing.T) {
	tests := []struct {
		group Group
		want  string
	}{
		{GroupNone, "none"},
		{GroupBiasRight, "bias-right"},
		{GroupBiasLeft, "bias-left"},
	}
	for _, tt := range tests {
		if got := tt.group.String(); got != tt.want {
			t.Errorf("Group(%d).String() = %q; want %q", tt.group, got, tt.want)
		}
	}
}

func benchmarkStep(b *testing.B, numBoids, workers int, deterministic bool) {
	cfg := *DefaultConfig()
	cfg.NumBoids = numBoids
	cfg.Workers = workers
	cfg.Deterministic = deterministic

	sim := newTestSimulator(cfg, 1)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sim.Step(0.016)
	}
}

func BenchmarkStep_1000Boids1Worker(b *testing.B)  { benchmarkStep(b, 1000, 1, false) }
func BenchmarkStep_1000Boids8Workers(b *testing.B) { benchmarkStep(b, 1000, 8, false) }
func BenchmarkStep_1000BoidsDeterministic(b *testing.B) {
	benchmarkStep(b, 1000, 8, true)
}
