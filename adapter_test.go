package coupler

import (
	"errors"
	"testing"

	"github.com/gonum/floats"
)

// fakeCoordinator is a hand-driven CouplingInterface: tests flip the action
// flags between Advance calls to script the coordinator's decisions.
type fakeCoordinator struct {
	dims  int
	maxDt float64

	needRead, needWrite, needInitialWrite bool

	readAvailable bool
	readValues    []float64

	writes    []writeCall
	fulfilled []string
	ongoing   bool
	finalized bool
}

type writeCall struct {
	name   string
	values []float64
	t      float64
}

func (f *fakeCoordinator) Configure(path string) error { return nil }
func (f *fakeCoordinator) GetDimensions() int          { return f.dims }
func (f *fakeCoordinator) GetMeshID(name string) int   { return 42 }

func (f *fakeCoordinator) SetMeshVertices(meshID, n int, coords []float64, vertexIDs []int) {
	for i := range vertexIDs {
		vertexIDs[i] = 100 + i
	}
}

func (f *fakeCoordinator) WriteBlockScalarData(dataName string, meshID, n int, vertexIDs []int, values []float64, t float64) {
	f.writes = append(f.writes, writeCall{dataName, append([]float64(nil), values...), t})
}

func (f *fakeCoordinator) ReadBlockScalarData(dataName string, meshID, n int, vertexIDs []int, out []float64, t float64) {
	for i := range out {
		if i < len(f.readValues) {
			out[i] = f.readValues[i]
		} else {
			out[i] = 0
		}
	}
}

func (f *fakeCoordinator) Advance(dt float64) float64 { return f.maxDt }

func (f *fakeCoordinator) IsActionRequired(action string) bool {
	switch action {
	case ActionReadIterationCheckpoint:
		return f.needRead
	case ActionWriteIterationCheckpoint:
		return f.needWrite
	case ActionWriteInitialData:
		return f.needInitialWrite
	}
	return false
}

func (f *fakeCoordinator) FulfilledAction(action string) {
	f.fulfilled = append(f.fulfilled, action)
	switch action {
	case ActionReadIterationCheckpoint:
		f.needRead = false
	case ActionWriteIterationCheckpoint:
		f.needWrite = false
	case ActionWriteInitialData:
		f.needInitialWrite = false
	}
}

func (f *fakeCoordinator) IsReadDataAvailable() bool { return f.readAvailable }
func (f *fakeCoordinator) IsCouplingOngoing() bool   { return f.ongoing }
func (f *fakeCoordinator) Initialize() float64       { return f.maxDt }
func (f *fakeCoordinator) Finalize()                 { f.finalized = true }

// cornerField returns fixed values at the four unit-square corners.
type cornerField map[[2]float64]float64

func (f cornerField) EvaluateAt(p []float64) float64 { return f[[2]float64{p[0], p[1]}] }

func testWriteField() cornerField {
	return cornerField{{0, 0}: 1, {1, 0}: 2, {1, 1}: 3, {0, 1}: 4}
}

func newTestAdapter(t *testing.T, fake *fakeCoordinator) *Adapter {
	t.Helper()
	cfg := Config{
		ParticipantName:        "HeatSolver",
		CouplingConfigFileName: "precice-config.xml",
		CouplingMeshName:       "HeatSolverMesh",
		ReadDataName:           "Temperature",
		WriteDataName:          "Flux",
	}
	a, err := NewAdapter(cfg, fake)
	if err != nil {
		t.Fatalf("NewAdapter failed: %v", err)
	}
	if _, err := a.Initialize(testMesh(), unitSquareBoundary{}, testWriteField(), testWriteField(), []float64{0, 0, 0, 0}, 0, 0, fake.maxDt); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	return a
}

func TestAdvancePlainStep(t *testing.T) {
	fake := &fakeCoordinator{dims: 2, maxDt: 0.1}
	a := newTestAdapter(t, fake)

	state := NewSolverState([]float64{0, 0, 0, 0}, 0, 0)
	uNext := []float64{9, 9, 9, 9}
	newState, complete, maxDt, err := a.Advance(testWriteField(), uNext, state, 0.1)
	if err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if complete {
		t.Fatal("step must not be complete without a write-checkpoint action")
	}
	if !floats.EqualWithinAbs(newState.T, 0.1, 1e-14) || newState.N != 1 {
		t.Fatalf("expected t=0.1 n=1, got t=%v n=%d", newState.T, newState.N)
	}
	if maxDt != 0.1 {
		t.Fatalf("expected maxDt=0.1, got %v", maxDt)
	}
	if a.State() != StateRunning {
		t.Fatalf("expected RUNNING, got %v", a.State())
	}
	// The boundary data of the write field went out at t+dt.
	last := fake.writes[len(fake.writes)-1]
	if last.name != "Flux" || !floats.EqualWithinAbs(last.t, 0.1, 1e-14) {
		t.Fatalf("unexpected write call %+v", last)
	}
	if !floats.Equal(last.values, []float64{1, 2, 3, 4}) {
		t.Fatalf("unexpected write values %v", last.values)
	}
}

func TestAdvanceWriteCheckpoint(t *testing.T) {
	fake := &fakeCoordinator{dims: 2, maxDt: 0.1}
	a := newTestAdapter(t, fake)

	fake.needWrite = true
	state := NewSolverState([]float64{0, 0, 0, 0}, 0, 3)
	uNext := []float64{5, 6, 7, 8}
	newState, complete, _, err := a.Advance(testWriteField(), uNext, state, 0.1)
	if err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if !complete {
		t.Fatal("write-checkpoint must mark the step complete")
	}
	if a.State() != StateConvergedStep {
		t.Fatalf("expected CONVERGED_STEP, got %v", a.State())
	}
	cp, err := a.checkpoint.Get()
	if err != nil {
		t.Fatalf("checkpoint must hold a state: %v", err)
	}
	if !floats.Equal(cp.U, uNext) || !floats.EqualWithinAbs(cp.T, 0.1, 1e-14) || cp.N != 4 {
		t.Fatalf("checkpoint holds %+v, want (uNext, 0.1, 4)", cp)
	}
	if newState.N != 4 {
		t.Fatalf("expected n=4, got %d", newState.N)
	}
}

func TestAdvanceReadCheckpoint(t *testing.T) {
	fake := &fakeCoordinator{dims: 2, maxDt: 0.1}
	a := newTestAdapter(t, fake)

	// Converge one window so the store holds (u1, 0.1, 1).
	state := NewSolverState([]float64{0, 0, 0, 0}, 0, 0)
	fake.needWrite = true
	state, _, _, err := a.Advance(testWriteField(), []float64{1, 1, 1, 1}, state, 0.1)
	if err != nil {
		t.Fatalf("Advance failed: %v", err)
	}

	// The next sub-iteration does not converge: roll back.
	fake.needRead = true
	restored, complete, _, err := a.Advance(testWriteField(), []float64{2, 2, 2, 2}, state, 0.1)
	if err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if complete {
		t.Fatal("a rolled-back sub-iteration is not a completed step")
	}
	if restored.N != 1 || !floats.EqualWithinAbs(restored.T, 0.1, 1e-14) {
		t.Fatalf("expected restore to (0.1, 1), got (%v, %d)", restored.T, restored.N)
	}
	if !floats.Equal(restored.U, []float64{1, 1, 1, 1}) {
		t.Fatalf("restored unknowns %v do not match the checkpoint", restored.U)
	}
	found := false
	for _, action := range fake.fulfilled {
		if action == ActionReadIterationCheckpoint {
			found = true
		}
	}
	if !found {
		t.Fatal("restore must acknowledge the read-iteration checkpoint")
	}
}

func TestAdvanceSimultaneousActionsPanic(t *testing.T) {
	fake := &fakeCoordinator{dims: 2, maxDt: 0.1}
	a := newTestAdapter(t, fake)

	state := NewSolverState([]float64{0, 0, 0, 0}, 0, 0)
	fake.needWrite = true
	state, _, _, err := a.Advance(testWriteField(), []float64{1, 1, 1, 1}, state, 0.1)
	if err != nil {
		t.Fatalf("Advance failed: %v", err)
	}

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("simultaneous read+write checkpoint must panic")
		}
		if _, ok := r.(ProtocolConsistencyFault); !ok {
			t.Fatalf("expected ProtocolConsistencyFault, got %v", r)
		}
	}()
	fake.needRead = true
	fake.needWrite = true
	a.Advance(testWriteField(), []float64{2, 2, 2, 2}, state, 0.1)
}

func TestAdvanceRestoreWithoutCheckpoint(t *testing.T) {
	fake := &fakeCoordinator{dims: 2, maxDt: 0.1}
	a := newTestAdapter(t, fake)
	a.checkpoint.Clear() // drop the checkpoint Initialize may have saved

	fake.needRead = true
	state := NewSolverState([]float64{0, 0, 0, 0}, 0, 0)
	if _, _, _, err := a.Advance(testWriteField(), []float64{1, 1, 1, 1}, state, 0.1); !errors.Is(err, ErrNoCheckpoint) {
		t.Fatalf("expected ErrNoCheckpoint, got %v", err)
	}
}

func TestAdvanceRebuildsReadBoundaryCondition(t *testing.T) {
	fake := &fakeCoordinator{dims: 2, maxDt: 0.1, readValues: []float64{1, 2, 3, 4}}
	a := newTestAdapter(t, fake)

	state := NewSolverState([]float64{0, 0, 0, 0}, 0, 0)
	if _, _, _, err := a.Advance(testWriteField(), []float64{1, 1, 1, 1}, state, 0.1); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	bc := a.ReadBoundaryCondition()
	corners := [][]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	for i, p := range corners {
		if got := bc.EvaluateAt(p); !floats.EqualWithinAbs(got, float64(i+1), 1e-9) {
			t.Fatalf("read BC at %v: got %v, want %d", p, got, i+1)
		}
	}
}

func TestAdvanceReadOnlyParticipant(t *testing.T) {
	fake := &fakeCoordinator{dims: 2, maxDt: 0.1, needInitialWrite: true}
	cfg := Config{
		ParticipantName:  "Probe",
		CouplingMeshName: "ProbeMesh",
		ReadDataName:     "Temperature",
	}
	a, err := NewAdapter(cfg, fake)
	if err != nil {
		t.Fatalf("NewAdapter failed: %v", err)
	}
	// No write data name means no write field is ever sampled.
	if _, err := a.Initialize(testMesh(), unitSquareBoundary{}, testWriteField(), nil, []float64{0, 0, 0, 0}, 0, 0, 0.1); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	state := NewSolverState([]float64{0, 0, 0, 0}, 0, 0)
	state, _, _, err = a.Advance(nil, []float64{1, 1, 1, 1}, state, 0.1)
	if err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if len(fake.writes) != 0 {
		t.Fatalf("a read-only participant must not write, got %d write calls", len(fake.writes))
	}
	if state.N != 1 {
		t.Fatalf("expected n=1, got %d", state.N)
	}
}

func TestAdvanceAfterFinalize(t *testing.T) {
	fake := &fakeCoordinator{dims: 2, maxDt: 0.1}
	a := newTestAdapter(t, fake)

	if err := a.Finalize(); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if !fake.finalized {
		t.Fatal("coordinator must be finalized")
	}
	if a.State() != StateFinalized {
		t.Fatalf("expected FINALIZED, got %v", a.State())
	}
	state := NewSolverState([]float64{0, 0, 0, 0}, 0, 0)
	if _, _, _, err := a.Advance(testWriteField(), nil, state, 0.1); !errors.Is(err, ErrFinalized) {
		t.Fatalf("expected ErrFinalized, got %v", err)
	}
	if err := a.Finalize(); !errors.Is(err, ErrFinalized) {
		t.Fatalf("double Finalize must fail, got %v", err)
	}
}

func TestInitializeWritesInitialData(t *testing.T) {
	fake := &fakeCoordinator{dims: 2, maxDt: 0.1, needInitialWrite: true}
	newTestAdapter(t, fake)

	if len(fake.writes) == 0 {
		t.Fatal("initial data must be written when the action is required")
	}
	if fake.writes[0].t != 0 {
		t.Fatalf("initial write must happen at t0, got %v", fake.writes[0].t)
	}
	found := false
	for _, action := range fake.fulfilled {
		if action == ActionWriteInitialData {
			found = true
		}
	}
	if !found {
		t.Fatal("initial write must be acknowledged")
	}
}

func TestInitializeSavesInitialCheckpoint(t *testing.T) {
	fake := &fakeCoordinator{dims: 2, maxDt: 0.1, needWrite: true}
	a := newTestAdapter(t, fake)

	cp, err := a.checkpoint.Get()
	if err != nil {
		t.Fatalf("initial checkpoint missing: %v", err)
	}
	if cp.T != 0 || cp.N != 0 {
		t.Fatalf("initial checkpoint must snapshot (t0, n0), got %+v", cp)
	}
}

// Step indices only move forward, except across a restore where they reset to
// the checkpoint's index.
func TestStepIndexMonotonicity(t *testing.T) {
	fake := &fakeCoordinator{dims: 2, maxDt: 0.1}
	a := newTestAdapter(t, fake)

	state := NewSolverState([]float64{0, 0, 0, 0}, 0, 0)
	schedule := []string{"", "write", "read", "write", "", "read", "write"}
	for i, action := range schedule {
		fake.needRead = action == "read"
		fake.needWrite = action == "write"
		prev := state
		next, complete, _, err := a.Advance(testWriteField(), []float64{float64(i)}, state, 0.1)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		switch action {
		case "read":
			cp, _ := a.checkpoint.Get()
			if next.N != cp.N {
				t.Fatalf("step %d: restore must reset to the checkpoint index %d, got %d", i, cp.N, next.N)
			}
			if complete {
				t.Fatalf("step %d: a restore never completes the step", i)
			}
		default:
			if next.N != prev.N+1 {
				t.Fatalf("step %d: expected n=%d, got %d", i, prev.N+1, next.N)
			}
		}
		state = next
	}
}
