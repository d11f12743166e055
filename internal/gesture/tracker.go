package gesture

// Tracker holds the baseline reference point and measures motion against it.
// The zero value has no baseline.
type Tracker struct {
	baseline Sample
	hasBase  bool
}

// Observe records s as the baseline when there is none and returns false.
// Otherwise it returns the displacement from the baseline without moving it;
// the caller decides whether to Rebase or Clear.
func (t *Tracker) Observe(s Sample) (Delta, bool) {
	if !t.hasBase {
		t.Rebase(s)
		return Delta{}, false
	}
	return Delta{DX: s.X - t.baseline.X, DY: s.Y - t.baseline.Y}, true
}

// Rebase replaces the baseline with s.
func (t *Tracker) Rebase(s Sample) {
	t.baseline = s
	t.hasBase = true
}

// Clear drops the baseline so the next sample starts a fresh reference.
func (t *Tracker) Clear() {
	t.baseline = Sample{}
	t.hasBase = false
}

// Baseline returns the current reference point, if any.
func (t *Tracker) Baseline() (Sample, bool) {
	return t.baseline, t.hasBase
}
