package particlefx

import (
	"reflect"
)

// PlatformWindowModule ensures a single shared GLFW window (WindowState) is
// available as a resource. Install is idempotent.
type PlatformWindowModule struct {
	Width  int
	Height int
	Title  string
}

// NewPlatformWindow fills in defaults for zero values.
func NewPlatformWindow(width, height int, title string) *PlatformWindowModule {
	width, height, title = windowDefaults(width, height, title)
	return &PlatformWindowModule{
		Width:  width,
		Height: height,
		Title:  title,
	}
}

func windowDefaults(width, height int, title string) (int, int, string) {
	if width <= 0 {
		width = 1280
	}
	if height <= 0 {
		height = 720
	}
	if title == "" {
		title = "particlefx"
	}
	return width, height, title
}

func (m PlatformWindowModule) Install(app *App, cmd *Commands) {
	ensureWindowResource(app, m.Width, m.Height, m.Title)
}

// ensureWindowResource creates the shared window unless one exists.
func ensureWindowResource(app *App, width, height int, title string) *WindowState {
	t := reflect.TypeOf((*WindowState)(nil)).Elem()
	if res, ok := app.resources[t]; ok {
		return res.(*WindowState)
	}
	width, height, title = windowDefaults(width, height, title)
	ws, err := createWindowState(width, height, title)
	if err != nil {
		app.Logger().Errorf("Window: %v", err)
		panic(err)
	}
	app.addResources(ws)
	app.Logger().Infof("Created shared window (%dx%d) '%s'", width, height, title)
	return ws
}
