package coupler

// Well-known action tags of the coupling coordinator.
const (
	ActionReadIterationCheckpoint  = "read-iteration-checkpoint"
	ActionWriteIterationCheckpoint = "write-iteration-checkpoint"
	ActionWriteInitialData         = "write-initial-data"
)

// CouplingInterface is the contract of the external coupling coordinator.
// All calls are synchronous blocking round-trips; the coordinator may use
// network or shared-memory I/O internally but that is opaque to this package.
type CouplingInterface interface {
	// Configure loads the coordinator's own configuration file.
	Configure(path string) error
	// GetDimensions returns the spatial dimension of the coupling setup (2 or 3).
	GetDimensions() int
	// GetMeshID resolves a named coupling mesh to its handle.
	GetMeshID(name string) int
	// SetMeshVertices registers n vertices from their interleaved coordinates
	// and fills vertexIDs with the handles the coordinator assigned to them.
	SetMeshVertices(meshID, n int, coords []float64, vertexIDs []int)
	// WriteBlockScalarData hands one scalar per vertex to the coordinator at time t.
	WriteBlockScalarData(dataName string, meshID, n int, vertexIDs []int, values []float64, t float64)
	// ReadBlockScalarData fills out with one scalar per vertex valid at time t.
	ReadBlockScalarData(dataName string, meshID, n int, vertexIDs []int, out []float64, t float64)
	// Advance moves the coupling forward by dt and returns the maximum
	// dt permitted for the next step (may be smaller than requested).
	Advance(dt float64) float64
	// IsActionRequired reports whether the named action must be fulfilled
	// before the coupling can proceed.
	IsActionRequired(action string) bool
	// FulfilledAction acknowledges that the named action has been carried out.
	FulfilledAction(action string)
	// IsReadDataAvailable reports whether read data can already be sampled.
	IsReadDataAvailable() bool
	// IsCouplingOngoing reports whether the coupled simulation should continue.
	IsCouplingOngoing() bool
	// Initialize completes the handshake and returns the first allowed dt.
	Initialize() float64
	// Finalize tears the coupling down.
	Finalize()
}
