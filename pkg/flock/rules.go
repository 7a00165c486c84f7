package flock

import "math"

// Influence holds the neighbor contributions accumulated for one boid
// during a full scan of the flock.
type Influence struct {
	// Separation accumulators: sum of (my pos - neighbor pos) for every
	// neighbor inside the protected range.
	CloseDx, CloseDy float64

	// Cohesion / alignment accumulators: raw sums over neighbors inside
	// the visual range but outside the protected range. Steer averages
	// them over Neighbors.
	SumPosX, SumPosY float64
	SumVelX, SumVelY float64
	Neighbors        int
}

// ComputeInfluence scans every other boid in read and accumulates the
// separation, cohesion and alignment terms for the boid at index i.
// Self-exclusion is by index, so two boids with identical state still see
// each other.
//
// The |dx|,|dy| < VisualRange check is a cheap rectangular pre-filter, not
// a range test: a boid on the square's diagonal corner passes it and is
// then rejected by the squared-distance comparison.
func ComputeInfluence(read []Boid, i int, cfg *Config) Influence {
	var inf Influence

	me := &read[i]
	protectedSq := cfg.ProtectedRange * cfg.ProtectedRange
	visualSq := cfg.VisualRange * cfg.VisualRange

	for j := range read {
		if j == i {
			continue
		}
		other := &read[j]

		dx := me.X - other.X
		dy := me.Y - other.Y
		if math.Abs(dx) >= cfg.VisualRange || math.Abs(dy) >= cfg.VisualRange {
			continue
		}

		distSq := dx*dx + dy*dy
		if distSq < protectedSq {
			// 1. Separation
			inf.CloseDx += dx
			inf.CloseDy += dy
		} else if distSq < visualSq {
			// 2. Cohesion & Alignment
			inf.SumPosX += other.X
			inf.SumPosY += other.Y
			inf.SumVelX += other.Vx
			inf.SumVelY += other.Vy
			inf.Neighbors++
		}
	}
	return inf
}

// Steer turns one tick of accumulated influence into the boid's new
// velocity and bias value. The rule order is fixed: cohesion+alignment,
// separation, boundary turn, bias ramp, bias application, speed clamp.
//
// The speed clamp divides by the pre-clamp speed. A boid whose velocity is
// exactly (0, 0) therefore becomes NaN on both axes and stays corrupted for
// the rest of the run. That is the long-standing behavior of this rule set
// and is kept as-is; callers that care must never feed a zero velocity in.
func (b *Boid) Steer(inf Influence, cfg *Config, dt float64) {
	if inf.Neighbors > 0 {
		n := float64(inf.Neighbors)
		posAvgX := inf.SumPosX / n
		posAvgY := inf.SumPosY / n
		velAvgX := inf.SumVelX / n
		velAvgY := inf.SumVelY / n

		b.Vx += (posAvgX-b.X)*cfg.CenteringFactor + (velAvgX-b.Vx)*cfg.MatchingFactor
		b.Vy += (posAvgY-b.Y)*cfg.CenteringFactor + (velAvgY-b.Vy)*cfg.MatchingFactor
	}

	// Separation applies even with zero visual-range neighbors.
	b.Vx += inf.CloseDx * cfg.AvoidFactor * dt
	b.Vy += inf.CloseDy * cfg.AvoidFactor * dt

	// Soft boundary turn: an additive nudge, not a clamp. A fast boid can
	// overshoot the edge for several ticks before the nudge wins.
	if b.X < 0 {
		b.Vx += cfg.TurnFactor
	}
	if b.X > cfg.Width {
		b.Vx -= cfg.TurnFactor
	}
	if b.Y < 0 {
		b.Vy += cfg.TurnFactor
	}
	if b.Y > cfg.Height {
		b.Vy -= cfg.TurnFactor
	}

	// Bias ramp: scouts ramp toward MaxBias while heading their preferred
	// way, otherwise back down to a floor of BiasIncrement (never zero).
	// vx == 0 counts as not matching for both groups.
	switch b.Group {
	case GroupBiasRight:
		if b.Vx > 0 {
			b.BiasVal = math.Min(cfg.MaxBias, b.BiasVal+cfg.BiasIncrement)
		} else {
			b.BiasVal = math.Max(cfg.BiasIncrement, b.BiasVal-cfg.BiasIncrement)
		}
	case GroupBiasLeft:
		if b.Vx < 0 {
			b.BiasVal = math.Min(cfg.MaxBias, b.BiasVal+cfg.BiasIncrement)
		} else {
			b.BiasVal = math.Max(cfg.BiasIncrement, b.BiasVal-cfg.BiasIncrement)
		}
	}

	// Bias application: blend vx toward the preferred direction.
	switch b.Group {
	case GroupBiasRight:
		b.Vx = (1-b.BiasVal)*b.Vx + b.BiasVal
	case GroupBiasLeft:
		b.Vx = (1-b.BiasVal)*b.Vx - b.BiasVal
	}

	// Speed clamp, direction preserving.
	speed := math.Sqrt(b.Vx*b.Vx + b.Vy*b.Vy)
	if speed < cfg.MinSpeed || speed > cfg.MaxSpeed {
		clamped := clamp(speed, cfg.MinSpeed, cfg.MaxSpeed)
		b.Vx = b.Vx / speed * clamped
		b.Vy = b.Vy / speed * clamped
	}
}

func clamp(v, min, max float64) float64 {
	return math.Max(min, math.Min(v, max))
}
