package particlefx

// ControlsModule adds viewer controls on top of whichever renderer fills the
// Input resource:
//
//	Space        pause or resume every effect
//	Tab          select the next effect
//	R            reset the selected effect
//	Delete       remove the selected effect
//	Left click   move the selected effect to the cursor
//	Escape, Q    exit
type ControlsModule struct{}

// Controls tracks the effect the keys act on.
type Controls struct {
	Selected int
}

func (mod ControlsModule) Install(app *App, cmd *Commands) {
	ensureInputResource(app)
	cmd.AddResources(&Controls{})
	app.UseSystem(
		System(controlsSystem).
			InStage(PreUpdate),
	)
}

// SelectedEffect returns nil when no effect runs.
func (c *Controls) SelectedEffect(fx *Particles) *Effect {
	effects := fx.Effects()
	if len(effects) == 0 {
		return nil
	}
	if c.Selected >= len(effects) || c.Selected < 0 {
		c.Selected = 0
	}
	return effects[c.Selected]
}

func controlsSystem(input *Input, ctl *Controls, fx *Particles, cmd *Commands) {
	log := cmd.Logger()
	if input.JustPressed[KeyEscape] || input.JustPressed[KeyQ] {
		cmd.Exit()
		return
	}

	if input.JustPressed[KeySpace] {
		pause := false
		for _, e := range fx.Effects() {
			if !e.Paused {
				pause = true
				break
			}
		}
		for _, e := range fx.Effects() {
			e.Paused = pause
		}
		log.Debugf("Paused: %v", pause)
	}

	if input.JustPressed[KeyTab] && len(fx.Effects()) > 0 {
		ctl.Selected = (ctl.Selected + 1) % len(fx.Effects())
		log.Infof("Selected effect %s", fx.Effects()[ctl.Selected].Name)
	}

	selected := ctl.SelectedEffect(fx)
	if selected == nil {
		return
	}
	switch {
	case input.JustPressed[KeyR]:
		selected.System.Reset()
		log.Debugf("Reset effect %s", selected.Name)
	case input.JustPressed[KeyDelete] || input.JustPressed[KeyBackspace]:
		fx.Remove(selected.Name)
		log.Infof("Removed effect %s", selected.Name)
	case input.JustPressed[MouseButtonLeft]:
		x, y := input.MouseWorld()
		selected.MoveTo(x, y)
	}
}
