package particlefx

import (
	"reflect"

	"github.com/go-gl/glfw/v3.3/glfw"
)

const (
	KeySpace int = iota
	KeyEnter
	KeyEscape
	KeyTab
	KeyBackspace
	KeyDelete
	KeyRight
	KeyLeft
	KeyDown
	KeyUp
	KeyP
	KeyQ
	KeyR
	KeyS
	MouseButtonLeft
	MouseButtonRight

	keyCount
)

// Input is the keyboard and mouse state of the current step. Mouse
// coordinates are in window pixels with y pointing down.
type Input struct {
	Pressed      [keyCount]bool
	JustPressed  [keyCount]bool
	JustReleased [keyCount]bool

	MouseX, MouseY            float64
	WindowWidth, WindowHeight int
	// PixelRatio converts window pixels to framebuffer pixels. Zero means 1.
	PixelRatio float64
}

// MouseWorld is the cursor in world units, y pointing up.
func (in *Input) MouseWorld() (x, y float32) {
	ratio := in.PixelRatio
	if ratio <= 0 {
		ratio = 1
	}
	return float32(in.MouseX * ratio), float32((float64(in.WindowHeight) - in.MouseY) * ratio)
}

// beginFrame clears the edge flags.
func (in *Input) beginFrame() {
	in.JustPressed = [keyCount]bool{}
	in.JustReleased = [keyCount]bool{}
}

func (in *Input) set(key int, down bool) {
	if down {
		if !in.Pressed[key] {
			in.JustPressed[key] = true
		}
	} else if in.Pressed[key] {
		in.JustReleased[key] = true
	}
	in.Pressed[key] = down
}

// tap records a press without a matching release event, as terminals report keys.
func (in *Input) tap(key int) {
	in.JustPressed[key] = true
}

// ensureInputResource returns the shared Input, adding it when missing.
func ensureInputResource(app *App) *Input {
	t := reflect.TypeOf((*Input)(nil)).Elem()
	if res, ok := app.resources[t]; ok {
		return res.(*Input)
	}
	input := &Input{}
	app.addResources(input)
	return input
}

// glfwInputSystem samples the window after windowEventsSystem polled it.
func glfwInputSystem(s *WindowState, input *Input) {
	input.beginFrame()
	if s.windowGlfw == nil {
		return
	}

	for key, glfwKey := range keyToGlfw {
		input.set(key, s.windowGlfw.GetKey(glfwKey) == glfw.Press)
	}
	input.set(MouseButtonLeft, s.windowGlfw.GetMouseButton(glfw.MouseButtonLeft) == glfw.Press)
	input.set(MouseButtonRight, s.windowGlfw.GetMouseButton(glfw.MouseButtonRight) == glfw.Press)

	input.MouseX, input.MouseY = s.windowGlfw.GetCursorPos()
	input.WindowWidth, input.WindowHeight = s.windowGlfw.GetSize()
	if input.WindowWidth > 0 {
		fbWidth, _ := s.windowGlfw.GetFramebufferSize()
		input.PixelRatio = float64(fbWidth) / float64(input.WindowWidth)
	}
}

var keyToGlfw = map[int]glfw.Key{
	KeySpace:     glfw.KeySpace,
	KeyEnter:     glfw.KeyEnter,
	KeyEscape:    glfw.KeyEscape,
	KeyTab:       glfw.KeyTab,
	KeyBackspace: glfw.KeyBackspace,
	KeyDelete:    glfw.KeyDelete,
	KeyRight:     glfw.KeyRight,
	KeyLeft:      glfw.KeyLeft,
	KeyDown:      glfw.KeyDown,
	KeyUp:        glfw.KeyUp,
	KeyP:         glfw.KeyP,
	KeyQ:         glfw.KeyQ,
	KeyR:         glfw.KeyR,
	KeyS:         glfw.KeyS,
}
