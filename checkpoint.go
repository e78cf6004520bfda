package coupler

// SolverState is a snapshot of a solver's unknowns at a point of the coupled
// run: the field values, the simulated time and the step index. N only ever
// decreases when a checkpoint is restored.
type SolverState struct {
	U []float64
	T float64
	N int
}

// NewSolverState deep-copies u so the snapshot stays valid when the solver
// overwrites its working array.
func NewSolverState(u []float64, t float64, n int) SolverState {
	return SolverState{U: append([]float64(nil), u...), T: t, N: n}
}

// Copy returns an independent deep copy of the state.
func (s SolverState) Copy() SolverState {
	return NewSolverState(s.U, s.T, s.N)
}

// Checkpoint holds at most one saved solver state. Owned exclusively by the
// adapter; a new Save overwrites the previous state, there is no history.
type Checkpoint struct {
	state SolverState
	saved bool
}

// Save stores a deep copy of s, replacing any previously saved state.
func (c *Checkpoint) Save(s SolverState) {
	c.state = s.Copy()
	c.saved = true
}

// Get returns a copy of the saved state without consuming it. It fails with
// ErrNoCheckpoint when nothing has been saved: restoring before the first save
// is a protocol violation by the caller sequence.
func (c *Checkpoint) Get() (SolverState, error) {
	if !c.saved {
		return SolverState{}, ErrNoCheckpoint
	}
	return c.state.Copy(), nil
}

// Clear empties the store.
func (c *Checkpoint) Clear() {
	*c = Checkpoint{}
}
