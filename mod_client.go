package particlefx

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/particlefx/particles/gpu"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// ClientModule opens a window, creates a webgpu device and draws every effect
// through a gpu.Renderer. It needs the AssetServerModule and ParticleModule.
type ClientModule struct {
	WindowWidth  int
	WindowHeight int
	WindowTitle  string
	ClearColor   wgpu.Color
	// Frames stops the app after this many frames. Zero runs until the window closes.
	Frames int
}

type clientState struct {
	gpu        *GpuState
	renderer   *gpu.Renderer
	clearColor wgpu.Color
	frames     int
	failed     bool
}

func (mod ClientModule) Install(app *App, cmd *Commands) {
	ensureSingleRenderer(app, string(RendererWGPU))
	window := ensureWindowResource(app, mod.WindowWidth, mod.WindowHeight, mod.WindowTitle)

	gpuState, err := createGpuState(window)
	if err != nil {
		app.Logger().Errorf("GPU: %v", err)
		panic(err)
	}

	clearColor := mod.ClearColor
	if clearColor == (wgpu.Color{}) {
		clearColor = wgpu.Color{R: 0, G: 0, B: 0, A: 1}
	}
	cmd.AddResources(&clientState{
		gpu:        gpuState,
		clearColor: clearColor,
		frames:     mod.Frames,
	})

	ensureInputResource(app)

	app.UseSystem(
		System(windowEventsSystem).
			InStage(Prelude),
	)
	app.UseSystem(
		System(glfwInputSystem).
			InStage(Prelude),
	)
	app.UseSystem(
		System(clientAttachSystem).
			InStage(Prelude),
	)
	app.UseSystem(
		System(clientRenderSystem).
			InStage(Render),
	)
	app.UseSystem(
		System(clientFrameLimitSystem).
			InStage(PostRender),
	)
	app.UseSystem(
		System(clientShutdownSystem).
			InStage(Finale),
	)
}

func windowEventsSystem(window *WindowState, cmd *Commands) {
	glfw.PollEvents()
	if window.windowGlfw.ShouldClose() {
		cmd.Exit()
		return
	}
	window.WindowWidth, window.WindowHeight = window.windowGlfw.GetFramebufferSize()
}

// clientAttachSystem creates the renderer once the asset server exists and
// routes effect batches to it.
func clientAttachSystem(state *clientState, window *WindowState, assets *AssetServer, fx *Particles, cmd *Commands) {
	if state.failed {
		return
	}
	if state.renderer == nil {
		renderer, err := gpu.NewRenderer(state.gpu.device, state.gpu.surfaceConfig.Format, assets)
		if err != nil {
			cmd.Logger().Errorf("Renderer: %v", err)
			state.failed = true
			cmd.Exit()
			return
		}
		state.renderer = renderer
		renderer.SetViewport(int(state.gpu.surfaceConfig.Width), int(state.gpu.surfaceConfig.Height))
		cmd.Logger().Infof("Renderer ready (%dx%d)", state.gpu.surfaceConfig.Width, state.gpu.surfaceConfig.Height)
	}
	if fx.Batches == nil {
		fx.Batches = state.renderer
	}
	if state.gpu.resize(window.WindowWidth, window.WindowHeight) {
		state.renderer.SetViewport(window.WindowWidth, window.WindowHeight)
		cmd.Logger().Debugf("Resized to %dx%d", window.WindowWidth, window.WindowHeight)
	}
}

func clientRenderSystem(state *clientState, cmd *Commands) {
	if state.renderer == nil || cmd.Exiting() {
		return
	}
	err := state.gpu.renderFrame(state.clearColor, state.renderer.Encode)
	if err != nil {
		cmd.Logger().Errorf("%v", err)
	}
}

func clientFrameLimitSystem(state *clientState, t *Time, cmd *Commands) {
	if frameLimitReached(state.frames, t) {
		cmd.Exit()
	}
}

func clientShutdownSystem(state *clientState, window *WindowState, fx *Particles, cmd *Commands) {
	if !cmd.Exiting() {
		return
	}
	fx.Close()
	if state.renderer != nil {
		state.renderer.Release()
		state.renderer = nil
	}
	state.gpu.release()
	window.destroy()
	cmd.Logger().Infof("Client shut down")
}
