package flock

import (
	"math/rand/v2"

	"github.com/lao-tseu-is-alive/go-boids-parallel/pkg/geometry"
)

// Group tags a boid with its scout membership. Scouts carry a ramping
// horizontal bias that nudges them toward their preferred direction; the
// rest of the flock ignores the bias machinery entirely.
type Group int

const (
	GroupNone Group = iota
	GroupBiasRight
	GroupBiasLeft
)

// String implements fmt.Stringer so the renderer and the telemetry server
// can label boids without knowing the numeric tags.
func (g Group) String() string {
	switch g {
	case GroupBiasRight:
		return "bias-right"
	case GroupBiasLeft:
		return "bias-left"
	default:
		return "none"
	}
}

// Boid is a single flocking agent.
// Boids is an artificial life program, developed by Craig Reynolds in 1986,
// which simulates the flocking behaviour of birds and related group motion.
// The name "boid" is a shortened version of "bird-oid object".
// https://en.wikipedia.org/wiki/Boids
// Fields are exported so renderers and tests can read them; Group and
// BiasVal stay consistent only if mutation goes through Steer.
type Boid struct {
	X, Y    float64
	Vx, Vy  float64
	BiasVal float64
	Group   Group
}

// Initial velocity components are drawn uniformly from this interval,
// matching the spawn rule the flock has always used. A draw of exactly
// (0, 0) is possible and leaves the boid on the NaN path of the speed
// clamp; see Steer.
const (
	initVelMin = -2.0
	initVelMax = 2.0
)

// Position returns the boid position as a geometry vector.
func (b *Boid) Position() geometry.Vector2D {
	return geometry.Vector2D{X: b.X, Y: b.Y}
}

// Velocity returns the boid velocity as a geometry vector.
func (b *Boid) Velocity() geometry.Vector2D {
	return geometry.Vector2D{X: b.Vx, Y: b.Vy}
}

// Speed returns the current velocity magnitude.
func (b *Boid) Speed() float64 {
	return b.Velocity().Len()
}

// Integrate advances the position by one tick worth of velocity.
func (b *Boid) Integrate(dt float64) {
	b.X += b.Vx * dt
	b.Y += b.Vy * dt
}

// NewFlock creates the full population: random position inside the world,
// random velocity in [initVelMin, initVelMax] per axis, zero bias, and the
// deterministic group split (first ScoutsRight boids bias right, the next
// ScoutsLeft bias left, the remainder unbiased).
func NewFlock(cfg *Config, rng *rand.Rand) []Boid {
	boids := make([]Boid, cfg.NumBoids)
	for i := range boids {
		b := &boids[i]
		b.X = randRange(rng, 0, cfg.Width)
		b.Y = randRange(rng, 0, cfg.Height)
		b.Vx = randRange(rng, initVelMin, initVelMax)
		b.Vy = randRange(rng, initVelMin, initVelMax)
		b.BiasVal = 0
		b.Group = groupForIndex(i, cfg)
	}
	return boids
}

// groupForIndex maps a spawn index to its fixed group via the configured
// thresholds. Groups never change after this.
func groupForIndex(i int, cfg *Config) Group {
	switch {
	case i < cfg.ScoutsRight:
		return GroupBiasRight
	case i < cfg.ScoutsRight+cfg.ScoutsLeft:
		return GroupBiasLeft
	default:
		return GroupNone
	}
}

func randRange(rng *rand.Rand, min, max float64) float64 {
	return min + rng.Float64()*(max-min)
}
