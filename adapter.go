package coupler

import (
	"fmt"
	"math"
	"os"

	kitlog "github.com/go-kit/kit/log"
)

/* Orchestrates the implicit-coupling step protocol between the solver and the
external coordinator. */

// LifecycleState is the coarse state of the adapter.
type LifecycleState uint8

// Lifecycle states of the adapter.
const (
	StateRunning LifecycleState = iota
	StateAwaitingAction
	StateConvergedStep
	StateFinalized
)

func (s LifecycleState) String() string {
	switch s {
	case StateRunning:
		return "RUNNING"
	case StateAwaitingAction:
		return "AWAITING_ACTION"
	case StateConvergedStep:
		return "CONVERGED_STEP"
	case StateFinalized:
		return "FINALIZED"
	}
	return fmt.Sprintf("LifecycleState(%d)", uint8(s))
}

// Adapter couples a time-stepping solver to the external coordinator: it owns
// the boundary transfer layer, the single-slot checkpoint and the step
// protocol. Strictly sequential; no two steps may overlap.
type Adapter struct {
	cfg    Config
	intf   CouplingInterface
	logger kitlog.Logger

	dims     int
	meshID   int
	vertices *BoundaryVertexSet

	writeData []float64
	readData  []float64
	readBC    *BoundaryCondition

	checkpoint Checkpoint
	state      LifecycleState
	tau        float64 // first coupling dt, set by Initialize
}

// NewAdapter configures the coordinator handle and prepares the adapter.
// The handle is passed in explicitly; there is no process-global coupling state.
func NewAdapter(cfg Config, intf CouplingInterface) (*Adapter, error) {
	klog := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stdout))
	klog = kitlog.With(klog, "subsys", "coupler", "participant", cfg.ParticipantName)

	if err := intf.Configure(cfg.CouplingConfigFileName); err != nil {
		return nil, ConfigurationError{Item: cfg.CouplingConfigFileName, Reason: err.Error()}
	}
	dims := intf.GetDimensions()
	if dims != 2 && dims != 3 {
		return nil, ConfigurationError{Item: "dimensions", Reason: fmt.Sprintf("coordinator reported %d", dims)}
	}

	a := &Adapter{
		cfg:    cfg,
		intf:   intf,
		logger: klog,
		dims:   dims,
		meshID: intf.GetMeshID(cfg.CouplingMeshName),
		readBC: newBoundaryCondition(cfg.InterpolationType),
		state:  StateRunning,
	}
	return a, nil
}

// Initialize registers the coupling mesh, exchanges initial data and returns
// the solver time step (the smaller of dtSolver and the coordinator's first
// allowed dt). Called once before the stepping loop.
func (a *Adapter) Initialize(mesh Mesh, boundary BoundaryPredicate, readField, writeField interface{}, u0 []float64, t0 float64, n0 int, dtSolver float64) (float64, error) {
	if a.state == StateFinalized {
		return 0, ErrFinalized
	}
	vs, n, err := ExtractBoundaryVertices(mesh, boundary, a.dims)
	if err != nil {
		return 0, err
	}
	a.vertices = vs
	a.intf.SetMeshVertices(a.meshID, n, vs.Flatten(), vs.VertexIDs)

	if a.readData, err = sampleField(readField, vs); err != nil {
		return 0, err
	}
	if a.cfg.WriteDataName != "" {
		if a.writeData, err = sampleField(writeField, vs); err != nil {
			return 0, err
		}
	}

	a.tau = a.intf.Initialize()

	if a.cfg.WriteDataName != "" && a.intf.IsActionRequired(ActionWriteInitialData) {
		a.intf.WriteBlockScalarData(a.cfg.WriteDataName, a.meshID, n, vs.VertexIDs, a.writeData, t0)
		a.intf.FulfilledAction(ActionWriteInitialData)
	}
	if a.intf.IsReadDataAvailable() {
		a.intf.ReadBlockScalarData(a.cfg.ReadDataName, a.meshID, n, vs.VertexIDs, a.readData, t0)
	}
	if err = a.readBC.update(vs, a.readData); err != nil {
		return 0, err
	}

	// Implicit coupling requires a checkpoint of the virgin state.
	if a.intf.IsActionRequired(ActionWriteIterationCheckpoint) {
		a.saveToCheckpoint(NewSolverState(u0, t0, n0))
	}

	dt := math.Min(dtSolver, a.tau)
	a.logger.Log("level", "notice", "status", "initialized", "vertices", n, "dt", dt)
	return dt, nil
}

// Advance performs one coupling step: write the boundary data of writeField at
// state.T+dt, advance the coordinator, then either roll the state back to the
// checkpoint (sub-iteration repeats) or advance it to uNext, checkpointing when
// the coordinator declares the window converged. Finally the read-side boundary
// condition is rebuilt at the updated time.
//
// The returned state replaces the caller's binding; stepComplete reports
// whether the enclosing physical time step is fully converged, and maxDt caps
// the next step size. The caller owns the retry loop: re-invoke with the same
// logical step while stepComplete is false and the coupling is ongoing.
func (a *Adapter) Advance(writeField interface{}, uNext []float64, state SolverState, dt float64) (SolverState, bool, float64, error) {
	if a.state == StateFinalized {
		return state, false, 0, ErrFinalized
	}
	vs := a.vertices
	var err error
	// A participant without a write data name only reads.
	if a.cfg.WriteDataName != "" {
		if a.writeData, err = sampleField(writeField, vs); err != nil {
			return state, false, 0, err
		}
		a.intf.WriteBlockScalarData(a.cfg.WriteDataName, a.meshID, vs.Len(), vs.VertexIDs, a.writeData, state.T+dt)
	}

	a.state = StateAwaitingAction
	maxDt := a.intf.Advance(dt)

	restored := false
	if a.intf.IsActionRequired(ActionReadIterationCheckpoint) {
		if state, err = a.restoreFromCheckpoint(); err != nil {
			return state, false, 0, err
		}
		restored = true
	} else {
		state = NewSolverState(uNext, state.T+dt, state.N+1)
		a.logger.Log("level", "debug", "action", "advance", "t", state.T, "n", state.N)
	}

	stepComplete := false
	if a.intf.IsActionRequired(ActionWriteIterationCheckpoint) {
		if restored {
			panic(ProtocolConsistencyFault{Msg: "read- and write-iteration checkpoint required in the same advance"})
		}
		a.saveToCheckpoint(state)
		stepComplete = true
	}

	// Read after the state update: a converged window must be read at the new
	// physical time, not at the stale iterate.
	a.intf.ReadBlockScalarData(a.cfg.ReadDataName, a.meshID, vs.Len(), vs.VertexIDs, a.readData, state.T+dt)
	if err = a.readBC.update(vs, a.readData); err != nil {
		return state, false, 0, err
	}

	if stepComplete {
		a.state = StateConvergedStep
	} else {
		a.state = StateRunning
	}
	return state, stepComplete, maxDt, nil
}

// restoreFromCheckpoint rolls back to the saved state and acknowledges the action.
func (a *Adapter) restoreFromCheckpoint() (SolverState, error) {
	state, err := a.checkpoint.Get()
	if err != nil {
		return state, err
	}
	a.intf.FulfilledAction(ActionReadIterationCheckpoint)
	a.logger.Log("level", "debug", "action", "restore", "t", state.T, "n", state.N)
	return state, nil
}

// saveToCheckpoint stores state and acknowledges the action.
func (a *Adapter) saveToCheckpoint(state SolverState) {
	a.checkpoint.Save(state)
	a.intf.FulfilledAction(ActionWriteIterationCheckpoint)
	a.logger.Log("level", "debug", "action", "checkpoint", "t", state.T, "n", state.N)
}

// ReadBoundaryCondition returns the current read-side boundary field. The
// returned value is immutable; the next Advance swaps in a fresh one.
func (a *Adapter) ReadBoundaryCondition() *BoundaryCondition {
	return a.readBC
}

// IsCouplingOngoing reports whether the coupled run should continue.
func (a *Adapter) IsCouplingOngoing() bool {
	return a.intf.IsCouplingOngoing()
}

// State returns the adapter lifecycle state.
func (a *Adapter) State() LifecycleState {
	return a.state
}

// Finalize tears down the coupling. No Advance is valid afterwards.
func (a *Adapter) Finalize() error {
	if a.state == StateFinalized {
		return ErrFinalized
	}
	a.intf.Finalize()
	a.state = StateFinalized
	a.logger.Log("level", "notice", "status", "finalized")
	return nil
}
