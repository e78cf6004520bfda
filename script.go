package coupler

import "math"

// ScriptedInterface is an in-process CouplingInterface stand-in: it plays the
// coordinator side of a serial implicit coupling with a fixed number of
// sub-iterations per window, looping written data back as read data. It exists
// for examples and tests; production runs pass the real coordinator binding.
type ScriptedInterface struct {
	Dims          int
	TotalTime     float64
	WindowDT      float64
	SubIterations int // sub-iterations per window; the last one converges it

	time     float64
	iter     int
	needRead bool // pending read-iteration checkpoint
	needSave bool // pending write-iteration checkpoint
	data     map[string][]float64
}

// Configure is a no-op for the scripted coordinator.
func (s *ScriptedInterface) Configure(path string) error { return nil }

// GetDimensions returns the configured coupling dimension.
func (s *ScriptedInterface) GetDimensions() int { return s.Dims }

// GetMeshID resolves every mesh name to the same handle.
func (s *ScriptedInterface) GetMeshID(name string) int { return 0 }

// SetMeshVertices assigns sequential vertex handles.
func (s *ScriptedInterface) SetMeshVertices(meshID, n int, coords []float64, vertexIDs []int) {
	for i := range vertexIDs {
		vertexIDs[i] = i
	}
}

// WriteBlockScalarData stores values under dataName.
func (s *ScriptedInterface) WriteBlockScalarData(dataName string, meshID, n int, vertexIDs []int, values []float64, t float64) {
	if s.data == nil {
		s.data = make(map[string][]float64)
	}
	s.data[dataName] = append([]float64(nil), values...)
}

// ReadBlockScalarData loops the most recently written block back, regardless
// of data name. Unwritten data reads as zero.
func (s *ScriptedInterface) ReadBlockScalarData(dataName string, meshID, n int, vertexIDs []int, out []float64, t float64) {
	var latest []float64
	for _, vals := range s.data {
		latest = vals
	}
	for i := range out {
		if i < len(latest) {
			out[i] = latest[i]
		} else {
			out[i] = 0
		}
	}
}

// Advance runs one sub-iteration of the current window. The window converges
// after SubIterations iterations; earlier ones demand a rollback.
func (s *ScriptedInterface) Advance(dt float64) float64 {
	s.iter++
	if s.iter < s.SubIterations {
		s.needRead = true
	} else {
		s.needSave = true
		s.iter = 0
		s.time += dt
	}
	return s.WindowDT
}

// IsActionRequired reports the pending checkpoint actions.
func (s *ScriptedInterface) IsActionRequired(action string) bool {
	switch action {
	case ActionReadIterationCheckpoint:
		return s.needRead
	case ActionWriteIterationCheckpoint:
		return s.needSave
	}
	return false
}

// FulfilledAction clears the pending action.
func (s *ScriptedInterface) FulfilledAction(action string) {
	switch action {
	case ActionReadIterationCheckpoint:
		s.needRead = false
	case ActionWriteIterationCheckpoint:
		s.needSave = false
	}
}

// IsReadDataAvailable reports whether any block has been written yet.
func (s *ScriptedInterface) IsReadDataAvailable() bool { return len(s.data) > 0 }

// IsCouplingOngoing reports whether simulated time is still short of TotalTime.
func (s *ScriptedInterface) IsCouplingOngoing() bool {
	return s.time < s.TotalTime-1e-12*math.Max(1, s.TotalTime)
}

// Initialize demands the initial checkpoint, as implicit coupling does.
func (s *ScriptedInterface) Initialize() float64 {
	s.needSave = true
	return s.WindowDT
}

// Finalize is a no-op for the scripted coordinator.
func (s *ScriptedInterface) Finalize() {}
