package task

import "fmt"

// Operation identifies a queue task type.
type Operation string

// Operation values for the task queue system.
const (
	OperationJanitorSweep     Operation = "gim.janitor.sweep"
	OperationEventFlush       Operation = "gim.events.flush"
	OperationScoutRepos       Operation = "gim.ingest.scout"
	OperationProfileRecompute Operation = "gim.profile.recompute"
	OperationStatsRefresh     Operation = "gim.stats.refresh"
)

// String returns the string representation of the operation.
func (o Operation) String() string {
	return string(o)
}

// ParseOperation validates an operation name.
func ParseOperation(s string) (Operation, error) {
	switch Operation(s) {
	case OperationJanitorSweep, OperationEventFlush, OperationScoutRepos,
		OperationProfileRecompute, OperationStatsRefresh:
		return Operation(s), nil
	default:
		return "", fmt.Errorf("unknown operation %q", s)
	}
}

// PeriodicOperations returns the operations a scheduler may re-enqueue on a
// timer. Collector and embedder loops consume the broker directly and never
// pass through the task queue; profile recomputes arrive as one-off tasks
// from the onboarding system.
func PeriodicOperations() []Operation {
	return []Operation{
		OperationJanitorSweep,
		OperationEventFlush,
		OperationStatsRefresh,
	}
}
