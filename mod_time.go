package particlefx

import (
	"time"
)

type Time struct {
	Time  time.Time
	Dt    time.Duration
	Frame uint64
}

// TimeModule refreshes the Time resource at the start of every step.
// A non-zero FixedDt replaces wall clock deltas, which makes headless runs
// reproducible. MaxDt clamps long hitches when set.
type TimeModule struct {
	FixedDt time.Duration
	MaxDt   time.Duration
}

type timeSettings struct {
	fixedDt time.Duration
	maxDt   time.Duration
	now     func() time.Time
}

func (mod TimeModule) Install(app *App, cmd *Commands) {
	settings := &timeSettings{
		fixedDt: mod.FixedDt,
		maxDt:   mod.MaxDt,
		now:     time.Now,
	}
	cmd.AddResources(
		&Time{
			Time: settings.now(),
			Dt:   0,
		},
		settings,
	)
	cmd.UseSystem(System(timeSystem).InStage(Prelude))
}

func timeSystem(timeResource *Time, settings *timeSettings) {
	now := settings.now()

	dt := now.Sub(timeResource.Time)
	if settings.fixedDt > 0 {
		dt = settings.fixedDt
		now = timeResource.Time.Add(dt)
	}
	if settings.maxDt > 0 && dt > settings.maxDt {
		dt = settings.maxDt
	}

	timeResource.Dt = dt
	timeResource.Time = now
	timeResource.Frame++
}
