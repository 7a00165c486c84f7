package main

import (
	"flag"
	"log"
	"math/rand/v2"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/lao-tseu-is-alive/go-boids-parallel/pkg/flock"
	"github.com/lao-tseu-is-alive/go-boids-parallel/pkg/simulation"
)

func main() {
	configFile := flag.String("config", "", "JSON config file (built-in defaults when empty)")
	schemaFile := flag.String("schema", "config.schema.json", "JSON schema used to validate -config")
	workers := flag.Int("workers", 0, "worker goroutines per tick (0 = one per CPU)")
	deterministic := flag.Bool("deterministic", false, "read neighbors from a frozen per-tick snapshot")
	seed := flag.Uint64("seed", 0, "RNG seed for the initial flock (0 = random)")
	flag.Parse()

	cfg := flock.DefaultConfig()
	if *configFile != "" {
		var err error
		cfg, err = flock.LoadConfig(*configFile, *schemaFile)
		if err != nil {
			log.Fatalf("cannot load config: %v", err)
		}
	}
	if *workers != 0 {
		cfg.Workers = *workers
	}
	if *deterministic {
		cfg.Deterministic = true
	}

	var rng *rand.Rand
	if *seed != 0 {
		rng = rand.New(rand.NewPCG(*seed, *seed))
	}

	sim := flock.NewSimulator(*cfg, rng)
	log.Printf("flock of %d boids, %d workers per tick", cfg.NumBoids, sim.Workers())

	ebiten.SetWindowSize(int(cfg.Width), int(cfg.Height))
	ebiten.SetWindowTitle("Parallel Boids")
	if err := ebiten.RunGame(simulation.NewGame(sim)); err != nil {
		log.Fatal(err)
	}
}
