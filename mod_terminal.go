package particlefx

import (
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gekko3d/particlefx/particles/core"
)

const RendererTerminal RendererName = "terminal"

const defaultCellWidth = 8

// UseTerminal selects the terminal preview renderer.
func (app *App) UseTerminal() *App {
	return app.UseRenderer(RendererTerminal, TerminalModule{})
}

// TerminalModule previews effects in a terminal. Every live quad becomes one
// cell at its center, shaded by the quad color and alpha. World units map to
// cells through CellWidth; rows are twice as tall as columns.
//
// Esc, Ctrl-C and q exit the app.
type TerminalModule struct {
	// Screen replaces the real terminal, e.g. with tcell.NewSimulationScreen.
	Screen        tcell.Screen
	CellWidth     float32
	FrameInterval time.Duration
	Frames        int
}

// Terminal owns the screen and the in-memory batches effects draw into.
type Terminal struct {
	Batches *core.CPUBatches

	screen    tcell.Screen
	events    chan tcell.Event
	done      chan struct{}
	stopped   chan struct{}
	cellWidth float32
	interval  time.Duration
	frames    int
	lastShow  time.Time
	closed    bool
}

func (mod TerminalModule) Install(app *App, cmd *Commands) {
	ensureSingleRenderer(app, string(RendererTerminal))

	screen := mod.Screen
	if screen == nil {
		var err error
		screen, err = tcell.NewScreen()
		if err != nil {
			app.Logger().Errorf("Terminal: %v", err)
			panic(err)
		}
	}
	if err := screen.Init(); err != nil {
		app.Logger().Errorf("Terminal: %v", err)
		panic(err)
	}
	screen.HideCursor()
	screen.EnableMouse()
	ensureInputResource(app)

	term := &Terminal{
		Batches:   &core.CPUBatches{},
		screen:    screen,
		events:    make(chan tcell.Event, 100),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
		cellWidth: mod.CellWidth,
		interval:  mod.FrameInterval,
		frames:    mod.Frames,
	}
	if term.cellWidth <= 0 {
		term.cellWidth = defaultCellWidth
	}
	if term.interval <= 0 {
		term.interval = 16 * time.Millisecond
	}
	go term.poll()
	cmd.AddResources(term)

	app.UseSystem(
		System(terminalInputSystem).
			InStage(Prelude),
	)
	app.UseSystem(
		System(terminalRenderSystem).
			InStage(Render),
	)
	app.UseSystem(
		System(terminalFrameLimitSystem).
			InStage(PostRender),
	)
	app.UseSystem(
		System(terminalShutdownSystem).
			InStage(Finale),
	)
}

// Center is the world position of the middle of a cols by rows screen.
func (mod TerminalModule) Center(cols, rows int) [2]float32 {
	cw := mod.CellWidth
	if cw <= 0 {
		cw = defaultCellWidth
	}
	return [2]float32{float32(cols) * cw / 2, float32(rows) * cw}
}

// poll forwards screen events until Fini makes PollEvent return nil or stop
// is called while the app no longer drains events.
func (t *Terminal) poll() {
	defer close(t.stopped)
	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case t.events <- ev:
		case <-t.done:
			return
		}
	}
}

// stop releases the screen and the poll goroutine.
func (t *Terminal) stop() {
	if t.closed {
		return
	}
	close(t.done)
	t.screen.Fini()
	t.closed = true
}

// Cell maps a world position to a screen cell. ok is false off screen.
func (t *Terminal) Cell(x, y float32) (col, row int, ok bool) {
	w, h := t.screen.Size()
	col = int(x / t.cellWidth)
	row = h - 1 - int(y/(2*t.cellWidth))
	if x < 0 || y < 0 || col >= w || row < 0 {
		return 0, 0, false
	}
	return col, row, true
}

// terminalInputSystem drains pending screen events into Input. Cell
// coordinates are reported in world units so controls need no conversion.
func terminalInputSystem(term *Terminal, input *Input, fx *Particles, cmd *Commands) {
	if fx.Batches == nil {
		fx.Batches = term.Batches
	}
	input.beginFrame()
	w, h := term.screen.Size()
	input.WindowWidth = int(float32(w) * term.cellWidth)
	input.WindowHeight = int(float32(h) * 2 * term.cellWidth)
	input.PixelRatio = 1

	for {
		select {
		case ev := <-term.events:
			term.handle(ev, input, cmd)
		default:
			return
		}
	}
}

func (t *Terminal) handle(ev tcell.Event, input *Input, cmd *Commands) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			cmd.Exit()
		case tcell.KeyTab:
			input.tap(KeyTab)
		case tcell.KeyDelete, tcell.KeyBackspace, tcell.KeyBackspace2:
			input.tap(KeyDelete)
		case tcell.KeyEnter:
			input.tap(KeyEnter)
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				cmd.Exit()
			case ' ':
				input.tap(KeySpace)
			case 'r':
				input.tap(KeyR)
			case 'p':
				input.tap(KeyP)
			case 's':
				input.tap(KeyS)
			}
		}
	case *tcell.EventMouse:
		col, row := ev.Position()
		// cell centers, y down
		input.MouseX = float64((float32(col) + 0.5) * t.cellWidth)
		input.MouseY = float64((float32(row) + 0.5) * 2 * t.cellWidth)
		input.set(MouseButtonLeft, ev.Buttons()&tcell.Button1 != 0)
	case *tcell.EventResize:
		t.screen.Sync()
	}
}

func terminalRenderSystem(term *Terminal, fx *Particles) {
	if term.closed {
		return
	}
	term.screen.Clear()
	for _, e := range fx.Effects() {
		batch, ok := e.System.Batch().(*core.CPUBatch)
		if !ok {
			continue
		}
		for i := 0; i < batch.Drawn(); i++ {
			term.drawQuad(batch.Quad(i), e.Origin.X(), e.Origin.Y())
		}
	}
	term.screen.Show()
}

func (t *Terminal) drawQuad(quad []float32, ox, oy float32) {
	bl := quad[core.CornerBottomLeft*core.VertexStride:]
	tr := quad[core.CornerTopRight*core.VertexStride:]
	x := ox + (bl[core.PositionOffset]+tr[core.PositionOffset])/2
	y := oy + (bl[core.PositionOffset+1]+tr[core.PositionOffset+1])/2

	col, row, ok := t.Cell(x, y)
	if !ok {
		return
	}
	c := bl[core.ColorOffset : core.ColorOffset+4]
	alpha := clamp01(c[3])
	if alpha < 0.02 {
		return
	}
	color := tcell.NewRGBColor(channel(c[0], alpha), channel(c[1], alpha), channel(c[2], alpha))
	t.screen.SetContent(col, row, shade(alpha), nil, tcell.StyleDefault.Foreground(color))
}

func shade(alpha float32) rune {
	switch {
	case alpha > 0.75:
		return '█'
	case alpha > 0.5:
		return '▓'
	case alpha > 0.25:
		return '▒'
	default:
		return '░'
	}
}

func channel(v, alpha float32) int32 {
	return int32(clamp01(v) * alpha * 255)
}

func clamp01(v float32) float32 {
	return max(0, min(v, 1))
}

func terminalFrameLimitSystem(term *Terminal, t *Time, cmd *Commands) {
	if frameLimitReached(term.frames, t) {
		cmd.Exit()
	}
}

// terminalShutdownSystem paces the loop and releases the screen on exit.
func terminalShutdownSystem(term *Terminal, fx *Particles, cmd *Commands) {
	if !cmd.Exiting() {
		if wait := term.interval - time.Since(term.lastShow); wait > 0 && !term.lastShow.IsZero() {
			time.Sleep(wait)
		}
		term.lastShow = time.Now()
		return
	}
	if term.closed {
		return
	}
	fx.Close()
	term.stop()
	cmd.Logger().Infof("Terminal closed")
}
