// flockd runs the simulation headless and streams world snapshots to
// websocket clients once per tick. Clients can push control updates to
// retune the rule factors while the flock is running.
package main

import (
	"context"
	"flag"
	"log"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lao-tseu-is-alive/go-boids-parallel/pkg/flock"
)

// controlUpdate is the client-to-server message. Nil fields are left
// untouched, so clients can retune a single factor at a time.
type controlUpdate struct {
	VisualRange     *float64 `json:"visualRange"`
	ProtectedRange  *float64 `json:"protectedRange"`
	CenteringFactor *float64 `json:"centeringFactor"`
	AvoidFactor     *float64 `json:"avoidFactor"`
	MatchingFactor  *float64 `json:"matchingFactor"`
	TurnFactor      *float64 `json:"turnFactor"`
}

// boidState is the per-boid wire record of a snapshot.
type boidState struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Vx    float64 `json:"vx"`
	Vy    float64 `json:"vy"`
	Bias  float64 `json:"bias"`
	Group string  `json:"group"`
}

// snapshot is the server-to-client message, one per tick.
type snapshot struct {
	Tick  uint64      `json:"tick"`
	Boids []boidState `json:"boids"`
}

type flockHub struct {
	mu       sync.Mutex
	clients  map[*websocket.Conn]struct{}
	upgrader websocket.Upgrader
}

func newFlockHub() *flockHub {
	return &flockHub{
		clients: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (h *flockHub) add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = struct{}{}
}

func (h *flockHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
	conn.Close()
}

// broadcast sends the snapshot to every connected client, dropping clients
// whose writes fail.
func (h *flockHub) broadcast(snap *snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		if err := conn.WriteJSON(snap); err != nil {
			log.Printf("failed to write to client: %v", err)
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// handler upgrades the connection and forwards decoded control updates to
// the simulation loop.
func (h *flockHub) handler(controlCh chan<- controlUpdate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("websocket upgrade failed: %v", err)
			return
		}
		h.add(conn)
		defer h.remove(conn)

		for {
			var update controlUpdate
			if err := conn.ReadJSON(&update); err != nil {
				log.Printf("control stream closed: %v", err)
				return
			}
			controlCh <- update
		}
	}
}

// apply copies the non-nil control fields into the configuration. Only the
// simulation loop calls this, strictly between ticks.
func apply(cfg *flock.Config, u controlUpdate) {
	if u.VisualRange != nil {
		cfg.VisualRange = *u.VisualRange
	}
	if u.ProtectedRange != nil {
		cfg.ProtectedRange = *u.ProtectedRange
	}
	if u.CenteringFactor != nil {
		cfg.CenteringFactor = *u.CenteringFactor
	}
	if u.AvoidFactor != nil {
		cfg.AvoidFactor = *u.AvoidFactor
	}
	if u.MatchingFactor != nil {
		cfg.MatchingFactor = *u.MatchingFactor
	}
	if u.TurnFactor != nil {
		cfg.TurnFactor = *u.TurnFactor
	}
}

func buildSnapshot(sim *flock.Simulator) *snapshot {
	boids := sim.Snapshot()
	snap := &snapshot{
		Tick:  sim.Tick(),
		Boids: make([]boidState, 0, len(boids)),
	}
	for i := range boids {
		b := &boids[i]
		snap.Boids = append(snap.Boids, boidState{
			X:     b.X,
			Y:     b.Y,
			Vx:    b.Vx,
			Vy:    b.Vy,
			Bias:  b.BiasVal,
			Group: b.Group.String(),
		})
	}
	return snap
}

// run owns the simulator: it steps on the ticker, applies queued control
// updates between ticks, and pushes a snapshot after every step.
func run(ctx context.Context, sim *flock.Simulator, interval time.Duration, controlCh <-chan controlUpdate, hub *flockHub) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case update := <-controlCh:
			apply(sim.Config(), update)
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			sim.Step(dt)
			hub.broadcast(buildSnapshot(sim))
		}
	}
}

func main() {
	addr := flag.String("addr", ":8080", "server listen address")
	configFile := flag.String("config", "", "JSON config file (built-in defaults when empty)")
	schemaFile := flag.String("schema", "config.schema.json", "JSON schema used to validate -config")
	interval := flag.Duration("tick", 16*time.Millisecond, "simulation tick interval")
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
	hub := newFlockHub()
	controlCh := make(chan controlUpdate, 16)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go run(ctx, sim, *interval, controlCh, hub)

	http.Handle("/ws/flock", hub.handler(controlCh))
	http.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	log.Printf("flock of %d boids, %d workers per tick, serving on %s", cfg.NumBoids, sim.Workers(), *addr)
	if err := http.ListenAndServe(*addr, nil); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
