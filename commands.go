package particlefx

// Commands is injected into systems that need to reach the App.
type Commands struct {
	app *App
}

func (cmd *Commands) AddResources(resources ...any) *Commands {
	cmd.app.addResources(resources...)
	return cmd
}

func (cmd *Commands) UseSystem(system systemScheduleBuilder) *Commands {
	cmd.app.UseSystem(system)
	return cmd
}

// Exit stops Run after the current step.
func (cmd *Commands) Exit() {
	cmd.app.requestExit()
}

// Exiting reports whether Exit was called during this step.
func (cmd *Commands) Exiting() bool {
	return cmd.app.exitRequested
}

func (cmd *Commands) Logger() Logger {
	return cmd.app.Logger()
}
