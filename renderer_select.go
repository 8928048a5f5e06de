package particlefx

import (
	"github.com/gekko3d/particlefx/particles/core"
)

// RendererName identifies a concrete renderer module.
type RendererName string

const (
	RendererWGPU     RendererName = "wgpu"
	RendererHeadless RendererName = "headless"
)

// UseRenderer installs exactly one renderer module.
//
//	app.UseRenderer(RendererHeadless, HeadlessModule{Frames: 600})
func (app *App) UseRenderer(name RendererName, mod Module) *App {
	ensureSingleRenderer(app, string(name))
	app.Logger().Infof("Renderer selected: %s", name)
	return app.UseModules(mod)
}

// UseWGPU selects the webgpu renderer with a window of the given size.
func (app *App) UseWGPU(width, height int, title string) *App {
	return app.UseRenderer(RendererWGPU, ClientModule{
		WindowWidth:  width,
		WindowHeight: height,
		WindowTitle:  title,
	})
}

// UseHeadless selects in-memory batches and stops after frames steps.
func (app *App) UseHeadless(frames int) *App {
	return app.UseRenderer(RendererHeadless, HeadlessModule{Frames: frames})
}

// Headless exposes the in-memory batches every effect draws into.
type Headless struct {
	Batches *core.CPUBatches
	Frames  int
}

// HeadlessModule renders into core.CPUBatches. With Frames > 0 the app exits
// after that many steps.
type HeadlessModule struct {
	Frames int
}

func (mod HeadlessModule) Install(app *App, cmd *Commands) {
	ensureSingleRenderer(app, string(RendererHeadless))
	cmd.AddResources(&Headless{
		Batches: &core.CPUBatches{},
		Frames:  mod.Frames,
	})
	app.UseSystem(
		System(headlessAttachSystem).
			InStage(Prelude),
	)
	app.UseSystem(
		System(headlessFrameLimitSystem).
			InStage(PostRender),
	)
}

func headlessAttachSystem(h *Headless, fx *Particles) {
	if fx.Batches == nil {
		fx.Batches = h.Batches
	}
}

func headlessFrameLimitSystem(h *Headless, t *Time, cmd *Commands) {
	if frameLimitReached(h.Frames, t) {
		cmd.Exit()
	}
}

// frameLimitReached reports whether a renderer limited to frames has drawn
// them all. Zero or less means no limit.
func frameLimitReached(frames int, t *Time) bool {
	return frames > 0 && t.Frame >= uint64(frames)
}
