package particlefx

type AppBuilder struct {
	app     *App
	modules []Module
}

func NewAppBuilder() *AppBuilder {
	return &AppBuilder{app: NewApp()}
}

func (b *AppBuilder) UseModule(modules ...Module) *AppBuilder {
	b.modules = append(b.modules, modules...)

	return b
}

// UseStage adds a custom stage before any module gets to schedule into it.
func (b *AppBuilder) UseStage(stage Stage, where stagePositionBuilder) *AppBuilder {
	b.app.UseStage(stage, where)

	return b
}

// Build installs the modules in the order they were added.
func (b *AppBuilder) Build() *App {
	return b.app.UseModules(b.modules...)
}
