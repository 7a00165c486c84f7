package simulation

import (
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/lao-tseu-is-alive/go-boids-parallel/pkg/flock"
	"github.com/lao-tseu-is-alive/go-boids-parallel/pkg/ui"
)

// whiteImage is the 1-pixel source for DrawTriangles; per-vertex colors do
// the actual tinting.
var whiteImage = ebiten.NewImage(3, 3)

func init() {
	whiteImage.Fill(color.White)
}

// groupColors maps a scout group to its on-screen tint.
var groupColors = map[flock.Group]color.RGBA{
	flock.GroupNone:      {R: 235, G: 235, B: 235, A: 255},
	flock.GroupBiasRight: {R: 255, G: 70, B: 70, A: 255},
	flock.GroupBiasLeft:  {R: 70, G: 120, B: 255, A: 255},
}

// Game is the windowed driver: it owns the tick clock, feeds elapsed wall
// time into the simulator, and renders the settled flock once per frame.
type Game struct {
	sim *flock.Simulator
	cfg *flock.Config

	panel            *ui.Panel
	wVisualRange     *ui.Slider
	wProtectedRange  *ui.Slider
	wCenteringFactor *ui.Slider
	wAvoidFactor     *ui.Slider
	wMatchingFactor  *ui.Slider
	wTurnFactor      *ui.Slider
	wMinSpeed        *ui.Slider
	wMaxSpeed        *ui.Slider
	wMaxBias         *ui.Slider
	wBiasIncrement   *ui.Slider
	cbDeterministic  *ui.Checkbox

	paused   bool
	lastTick time.Time

	// Rolling averages (ms) for the stats overlay.
	updateAvg float64
	drawAvg   float64
}

// NewGame wires the simulator to the ebiten loop and builds the tuning
// panel from the simulator's current configuration.
func NewGame(sim *flock.Simulator) *Game {
	cfg := sim.Config()

	panel := ui.NewPanel(10, 10, 230, cfg.Height-20)

	panel.AddSection("Neighborhood")
	wVisualRange := panel.AddSlider("Visual Range", 10, 150, cfg.VisualRange)
	wProtectedRange := panel.AddSlider("Protected Range", 5, 50, cfg.ProtectedRange)

	panel.AddSection("Rule Strengths")
	wCenteringFactor := panel.AddSlider("Centering Factor", 0.0005, 0.02, cfg.CenteringFactor)
	wAvoidFactor := panel.AddSlider("Avoid Factor", 0.005, 0.2, cfg.AvoidFactor)
	wMatchingFactor := panel.AddSlider("Matching Factor", 0.005, 0.2, cfg.MatchingFactor)
	wTurnFactor := panel.AddSlider("Turn Factor", 0.1, 3.0, cfg.TurnFactor)

	panel.AddSection("Speed")
	wMinSpeed := panel.AddSlider("Min Speed", 1, 20, cfg.MinSpeed)
	wMaxSpeed := panel.AddSlider("Max Speed", 20, 80, cfg.MaxSpeed)

	panel.AddSection("Scout Bias")
	wMaxBias := panel.AddSlider("Max Bias", 0.01, 1.0, cfg.MaxBias)
	wBiasIncrement := panel.AddSlider("Bias Increment", 0.0005, 0.02, cfg.BiasIncrement)

	panel.AddSection("Scheduling")
	cbDeterministic := panel.AddCheckbox("Deterministic ticks", cfg.Deterministic)

	g := &Game{
		sim:              sim,
		cfg:              cfg,
		panel:            panel,
		wVisualRange:     wVisualRange,
		wProtectedRange:  wProtectedRange,
		wCenteringFactor: wCenteringFactor,
		wAvoidFactor:     wAvoidFactor,
		wMatchingFactor:  wMatchingFactor,
		wTurnFactor:      wTurnFactor,
		wMinSpeed:        wMinSpeed,
		wMaxSpeed:        wMaxSpeed,
		wMaxBias:         wMaxBias,
		wBiasIncrement:   wBiasIncrement,
		cbDeterministic:  cbDeterministic,
		lastTick:         time.Now(),
	}

	panel.AddButton("Pause / Resume", func() { g.paused = !g.paused })
	panel.AddButton("Reset Flock", func() { sim.Reset(nil) })

	return g
}

// Update advances the simulation by the wall time elapsed since the last
// frame. The panel values are copied into the configuration before the
// tick, so the rules never change mid-step.
func (g *Game) Update() error {
	start := time.Now()
	defer func() {
		g.updateAvg = g.updateAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()

	dt := start.Sub(g.lastTick).Seconds()
	g.lastTick = start
	if dt < 0 {
		dt = 0
	}

	g.panel.Update()
	g.applyPanel()

	if !g.paused {
		g.sim.Step(dt)
	}
	return nil
}

// applyPanel copies the widget values into the live configuration.
func (g *Game) applyPanel() {
	g.cfg.VisualRange = g.wVisualRange.Value
	g.cfg.ProtectedRange = g.wProtectedRange.Value
	g.cfg.CenteringFactor = g.wCenteringFactor.Value
	g.cfg.AvoidFactor = g.wAvoidFactor.Value
	g.cfg.MatchingFactor = g.wMatchingFactor.Value
	g.cfg.TurnFactor = g.wTurnFactor.Value
	g.cfg.MinSpeed = g.wMinSpeed.Value
	g.cfg.MaxSpeed = g.wMaxSpeed.Value
	g.cfg.MaxBias = g.wMaxBias.Value
	g.cfg.BiasIncrement = g.wBiasIncrement.Value
	g.cfg.Deterministic = g.cbDeterministic.Value
}

// Draw renders the settled flock, the tuning panel and the stats overlay.
func (g *Game) Draw(screen *ebiten.Image) {
	start := time.Now()
	defer func() {
		g.drawAvg = g.drawAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()

	screen.Fill(color.RGBA{R: 10, G: 10, B: 30, A: 255})

	boids := g.sim.Boids()
	for i := range boids {
		drawBoid(screen, &boids[i])
	}

	g.panel.Draw(screen)

	mode := "shared"
	if g.cfg.Deterministic {
		mode = "deterministic"
	}
	msg := fmt.Sprintf("FPS: %.1f\nTPS: %.1f\nTick: %d\nWorkers: %d (%s)\n\nUpdate: %.2fms\nDraw:   %.2fms",
		ebiten.ActualFPS(),
		ebiten.ActualTPS(),
		g.sim.Tick(),
		g.sim.Workers(),
		mode,
		g.updateAvg,
		g.drawAvg)
	ebitenutil.DebugPrintAt(screen, msg, int(g.cfg.Width)-150, 10)

	if g.paused {
		ebitenutil.DebugPrintAt(screen, "PAUSED", int(g.cfg.Width/2)-20, 10)
	}
}

// drawBoid renders one boid as a small triangle pointing along its
// velocity, tinted by scout group.
func drawBoid(screen *ebiten.Image, b *flock.Boid) {
	angle := b.Velocity().Angle()

	tipX := b.X + math.Cos(angle)*6
	tipY := b.Y + math.Sin(angle)*6
	rightX := b.X + math.Cos(angle+2.5)*5
	rightY := b.Y + math.Sin(angle+2.5)*5
	leftX := b.X + math.Cos(angle-2.5)*5
	leftY := b.Y + math.Sin(angle-2.5)*5

	clr := groupColors[b.Group]
	cr := float32(clr.R) / 255
	cg := float32(clr.G) / 255
	cb := float32(clr.B) / 255

	vertices := []ebiten.Vertex{
		{DstX: float32(tipX), DstY: float32(tipY), SrcX: 1, SrcY: 1,
			ColorR: cr, ColorG: cg, ColorB: cb, ColorA: 1},
		{DstX: float32(rightX), DstY: float32(rightY), SrcX: 1, SrcY: 1,
			ColorR: cr, ColorG: cg, ColorB: cb, ColorA: 1},
		{DstX: float32(leftX), DstY: float32(leftY), SrcX: 1, SrcY: 1,
			ColorR: cr, ColorG: cg, ColorB: cb, ColorA: 1},
	}
	indices := []uint16{0, 1, 2}

	screen.DrawTriangles(vertices, indices, whiteImage, &ebiten.DrawTrianglesOptions{})
}

// Layout reports the fixed world size; the window scales to it.
func (g *Game) Layout(w, h int) (int, int) {
	return int(g.cfg.Width), int(g.cfg.Height)
}
