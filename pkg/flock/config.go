package flock

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Config carries every tunable of the simulation. It is a plain immutable
// value from the scheduler's point of view: Step and Steer only ever read
// it, and drivers retune it strictly between ticks.
type Config struct {
	// Population & world dimensions
	NumBoids int     `json:"numBoids"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`

	// Neighborhood radii
	VisualRange    float64 `json:"visualRange"`    // cohesion/alignment reach
	ProtectedRange float64 `json:"protectedRange"` // personal space radius

	// Rule strengths
	CenteringFactor float64 `json:"centeringFactor"` // cohesion
	AvoidFactor     float64 `json:"avoidFactor"`     // separation
	MatchingFactor  float64 `json:"matchingFactor"`  // alignment
	TurnFactor      float64 `json:"turnFactor"`      // edge turning

	// Speed clamp bounds
	MinSpeed float64 `json:"minSpeed"`
	MaxSpeed float64 `json:"maxSpeed"`

	// Scout bias
	MaxBias       float64 `json:"maxBias"`
	BiasIncrement float64 `json:"biasIncrement"`
	ScoutsRight   int     `json:"scoutsRight"` // spawn indices [0, ScoutsRight)
	ScoutsLeft    int     `json:"scoutsLeft"`  // the next ScoutsLeft indices

	// Scheduling
	Workers       int  `json:"workers"`       // 0 = one per CPU
	Deterministic bool `json:"deterministic"` // snapshot reads instead of live reads
}

// DefaultConfig returns the canonical parameter set.
func DefaultConfig() *Config {
	return &Config{
		NumBoids:        200,
		Width:           800,
		Height:          600,
		VisualRange:     75,
		ProtectedRange:  20,
		CenteringFactor: 0.005,
		AvoidFactor:     0.05,
		MatchingFactor:  0.05,
		TurnFactor:      1.0,
		MinSpeed:        10.0,
		MaxSpeed:        40.0,
		MaxBias:         0.25,
		BiasIncrement:   0.005,
		ScoutsRight:     10,
		ScoutsLeft:      10,
		Workers:         0,
		Deterministic:   false,
	}
}

// LoadConfig loads configuration from a JSON file and validates it against
// the schema before unmarshalling.
func LoadConfig(configFile string, schemaFile string) (*Config, error) {
	sch, err := jsonschema.Compile(schemaFile)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	b, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("failed to decode config json: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}
