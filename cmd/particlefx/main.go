// Command particlefx plays particle effects from effect definitions or scene
// files.
//
// Usage:
//
//	particlefx [flags] [effect.json ...]
//
// Flags:
//
//	-dir <path>        asset root, effect and texture paths are relative to it
//	-scene <file>      scene file in the asset root (YAML or JSON)
//	-renderer <name>   wgpu, terminal or headless
//	-frames <n>        stop after n frames (0 runs until closed, headless defaults to 600)
//	-autosave <name>   restore and save the running effects under name
//	-debug             debug logging
//
// Controls (wgpu and terminal): Space pauses, Tab selects, R resets, Delete
// removes, a left click moves the selected effect, Escape or Q quits.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/gekko3d/particlefx"
	"golang.org/x/term"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	dir := flag.String("dir", ".", "asset root")
	scene := flag.String("scene", "", "scene file in the asset root")
	renderer := flag.String("renderer", string(particlefx.RendererWGPU), "wgpu, terminal or headless")
	frames := flag.Int("frames", 0, "stop after this many frames")
	width := flag.Int("width", 1280, "window width")
	height := flag.Int("height", 720, "window height")
	autosave := flag.String("autosave", "", "scene name to restore and save on exit")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Parse()

	if flag.NArg() == 0 && *scene == "" && *autosave == "" {
		fmt.Fprintln(os.Stderr, "particlefx: nothing to play, pass effect files or -scene")
		flag.Usage()
		os.Exit(2)
	}

	logging := particlefx.LoggingModule{Debug: *debug}
	origin := [2]float32{float32(*width) / 2, float32(*height) / 2}
	var rendererMod particlefx.Module
	switch particlefx.RendererName(*renderer) {
	case particlefx.RendererWGPU:
		rendererMod = particlefx.ClientModule{
			WindowWidth:  *width,
			WindowHeight: *height,
			WindowTitle:  "particlefx",
			Frames:       *frames,
		}
	case particlefx.RendererTerminal:
		termMod := particlefx.TerminalModule{Frames: *frames}
		cols, rows, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || cols <= 0 || rows <= 0 {
			cols, rows = 80, 24
		}
		origin = termMod.Center(cols, rows)
		rendererMod = termMod
		// the screen owns the terminal
		logging.Out, logging.ErrOut = io.Discard, io.Discard
	case particlefx.RendererHeadless:
		if *frames <= 0 {
			*frames = 600
		}
		rendererMod = particlefx.HeadlessModule{Frames: *frames}
	default:
		fmt.Fprintf(os.Stderr, "particlefx: unknown renderer %q\n", *renderer)
		os.Exit(2)
	}

	effects := make([]particlefx.EffectSpec, 0, flag.NArg())
	for _, p := range flag.Args() {
		effects = append(effects, particlefx.EffectSpec{Path: p, Origin: origin})
	}

	modules := []particlefx.Module{
		logging,
		particlefx.TimeModule{MaxDt: 100 * time.Millisecond},
		particlefx.AssetServerModule{Dir: *dir},
		particlefx.ParticleModule{Effects: effects, Scene: *scene},
	}
	if particlefx.RendererName(*renderer) != particlefx.RendererHeadless {
		modules = append(modules, particlefx.ControlsModule{})
	}
	if *autosave != "" {
		modules = append(modules, particlefx.SceneStoreModule{Autosave: *autosave})
	}

	app := particlefx.NewApp().UseModules(modules...)
	app.UseRenderer(particlefx.RendererName(*renderer), rendererMod)
	app.Run()

	if fx, ok := particlefx.Resource[particlefx.Particles](app); ok && len(fx.Failed()) > 0 {
		for name, err := range fx.Failed() {
			fmt.Fprintf(os.Stderr, "particlefx: %s: %v\n", name, err)
		}
		os.Exit(1)
	}
}
