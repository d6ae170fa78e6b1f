package drag

// Tracker converts absolute pointer samples into incremental deltas and
// remembers which target the gesture holds.
type Tracker struct {
	target Target
	lastX  float64
	lastY  float64
}

// Start records the gesture origin. While a target is held further starts
// are ignored; the first pointer-down wins.
func (tr *Tracker) Start(target Target, x, y float64) {
	if tr.target != TargetNone {
		return
	}
	tr.target = target
	tr.lastX = x
	tr.lastY = y
}

// Move returns the delta from the previous sample and advances it.
func (tr *Tracker) Move(x, y float64) (dx, dy float64) {
	dx = x - tr.lastX
	dy = y - tr.lastY
	tr.lastX = x
	tr.lastY = y
	return dx, dy
}

// Target returns the held target, or TargetNone when idle.
func (tr *Tracker) Target() Target {
	return tr.target
}

// Reset returns the tracker to idle.
func (tr *Tracker) Reset() {
	tr.target = TargetNone
}
