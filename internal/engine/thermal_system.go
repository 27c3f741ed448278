package engine

// ThermalStep reports what a thermal update did.
type ThermalStep struct {
	Delta       float64 // Applied change after clamping
	Overheated  bool    // Value reached max from below during this step
	FreezeEnded bool    // A base-rate suppression window expired during this step
}

// ThermalSystem tracks the bounded heat value. Heat rises every tick with
// time and with the number of open popups, drops when popups are closed,
// and can be nudged by power-ups. Reaching max is the only way it ends a
// session, and that signal is edge-triggered.
type ThermalSystem struct {
	value        float64
	max          float64
	baseRate     float64 // Original rate, restored when a freeze ends
	perPopupRate float64
	closeDelta   float64

	suppressed      bool
	suppressedUntil float64

	atMax bool // Overheated already signalled for the current stay at max
}

// NewThermalSystem creates a thermal model from tuning.
func NewThermalSystem(t Tuning) *ThermalSystem {
	ts := &ThermalSystem{
		value:        clamp(t.StartHeat, 0, t.MaxHeat),
		max:          t.MaxHeat,
		baseRate:     t.BaseHeatPerSecond,
		perPopupRate: t.HeatPerPopup,
		closeDelta:   t.HeatOnClose,
	}
	ts.atMax = ts.value >= ts.max
	return ts
}

// Value returns the current heat.
func (ts *ThermalSystem) Value() float64 { return ts.value }

// Max returns the saturation point.
func (ts *ThermalSystem) Max() float64 { return ts.max }

// Normalized returns heat as a fraction of max in [0,1].
func (ts *ThermalSystem) Normalized() float64 {
	return clamp01(ts.value / ts.max)
}

// Fahrenheit converts the internal Celsius-like value for the readout.
func (ts *ThermalSystem) Fahrenheit() float64 {
	return ts.value*9/5 + 32
}

// BaseRate returns the passive heating rate in effect at now.
func (ts *ThermalSystem) BaseRate(now float64) float64 {
	if ts.suppressed && now < ts.suppressedUntil {
		return 0
	}
	return ts.baseRate
}

// Suppressed reports whether a freeze is active at now, and when it ends.
func (ts *ThermalSystem) Suppressed(now float64) (bool, float64) {
	if ts.suppressed && now < ts.suppressedUntil {
		return true, ts.suppressedUntil
	}
	return false, 0
}

// Tick integrates heat over dt seconds ending at now. Time inside a freeze
// window contributes no base heat; the popup term always applies.
func (ts *ThermalSystem) Tick(dt float64, activePopups int, now float64) ThermalStep {
	var step ThermalStep

	baseSeconds := dt
	if ts.suppressed {
		start := now - dt
		frozen := clamp(ts.suppressedUntil-start, 0, dt)
		baseSeconds = dt - frozen
		if now >= ts.suppressedUntil {
			ts.suppressed = false
			step.FreezeEnded = true
		}
	}

	inc := ts.baseRate*baseSeconds + float64(activePopups)*ts.perPopupRate*dt
	step.Delta, step.Overheated = ts.add(inc)
	return step
}

// OnPopupClosed applies the closing bonus.
func (ts *ThermalSystem) OnPopupClosed() ThermalStep {
	d, hot := ts.add(ts.closeDelta)
	return ThermalStep{Delta: d, Overheated: hot}
}

// ApplyDelta changes heat by amount, clamped.
func (ts *ThermalSystem) ApplyDelta(amount float64) ThermalStep {
	d, hot := ts.add(amount)
	return ThermalStep{Delta: d, Overheated: hot}
}

// SuppressBaseRate zeroes the passive heating until now+duration. Calling it
// again during a freeze restarts the window from now.
func (ts *ThermalSystem) SuppressBaseRate(duration, now float64) {
	if duration <= 0 {
		return
	}
	ts.suppressed = true
	ts.suppressedUntil = now + duration
}

// CancelSuppression ends a freeze immediately.
func (ts *ThermalSystem) CancelSuppression() {
	ts.suppressed = false
	ts.suppressedUntil = 0
}

func (ts *ThermalSystem) add(amount float64) (float64, bool) {
	before := ts.value
	ts.value = clamp(ts.value+amount, 0, ts.max)

	overheated := false
	if ts.value >= ts.max {
		if !ts.atMax {
			overheated = true
		}
		ts.atMax = true
	} else {
		ts.atMax = false
	}
	return ts.value - before, overheated
}
