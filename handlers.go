package gim

import (
	"log/slog"

	"github.com/gimlabs/gim/application/handler"
	"github.com/gimlabs/gim/domain/task"
)

// registerHandlers registers all task handlers with the worker registry.
// Every operation has a handler on every process; which operations
// actually get enqueued is decided by the scheduler configuration.
func (c *Client) registerHandlers() {
	c.registry.Register(task.OperationScoutRepos, handler.NewScoutRepos(c.collector))
	c.registry.Register(task.OperationEventFlush, handler.NewEventFlush(c.flush))
	c.registry.Register(task.OperationJanitorSweep, handler.NewJanitorSweep(c.janitor))
	c.registry.Register(task.OperationProfileRecompute, handler.NewProfileRecompute(c.Profiles))
	c.registry.Register(task.OperationStatsRefresh, handler.NewStatsRefresh(c.Stats))

	c.logger.Info("registered task handlers", slog.Int("count", len(c.registry.Operations())))
}
