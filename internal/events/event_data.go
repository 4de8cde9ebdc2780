package events

import "time"

// EventData is the interface that all event data types must implement.
// This allows for type-safe event data while maintaining flexibility.
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// RunStartedData contains data for RunStarted events
type RunStartedData struct {
	RunID     string `json:"run_id"`
	Backend   string `json:"backend"`
	NumQubits int    `json:"num_qubits"`
	Depth     int    `json:"depth"`
	MaxIter   int    `json:"max_iterations"`
}

// EventType returns the event type for RunStartedData
func (d *RunStartedData) EventType() EventType {
	return RunStarted
}

// RunIterationData contains data for RunIteration events
type RunIterationData struct {
	RunID     string  `json:"run_id"`
	Iteration int     `json:"iteration"`
	Cost      float64 `json:"cost"`
}

// EventType returns the event type for RunIterationData
func (d *RunIterationData) EventType() EventType {
	return RunIteration
}

// RunCompletedData contains data for RunCompleted events
type RunCompletedData struct {
	RunID       string        `json:"run_id"`
	OptimalCost float64       `json:"optimal_cost"`
	Iterations  int           `json:"iterations"`
	Converged   bool          `json:"converged"`
	Elapsed     time.Duration `json:"elapsed_ns"`
}

// EventType returns the event type for RunCompletedData
func (d *RunCompletedData) EventType() EventType {
	return RunCompleted
}

// RunFailedData contains data for RunFailed events
type RunFailedData struct {
	RunID string `json:"run_id"`
	Error string `json:"error"`
}

// EventType returns the event type for RunFailedData
func (d *RunFailedData) EventType() EventType {
	return RunFailed
}
