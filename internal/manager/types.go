package manager

// State represents the lifecycle state of the manager.
type State string

const (
	StateReady   State = "ready"
	StateLoading State = "loading"
	StateError   State = "error"
)

// Snapshot is a read-only projection of the manager state.
type Snapshot struct {
	State        State
	DefaultModel string
	Loaded       []string
	Err          string
}
