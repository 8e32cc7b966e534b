package handler

import (
	"context"

	"github.com/gimlabs/gim/application/service"
)

// ScoutRepos runs one off-schedule collector pass. The hourly cadence
// normally belongs to the collector job; this handler exists for manual
// or queued one-off passes.
type ScoutRepos struct {
	collector *service.Collector
}

// NewScoutRepos creates a new ScoutRepos handler.
func NewScoutRepos(collector *service.Collector) *ScoutRepos {
	return &ScoutRepos{collector: collector}
}

// Execute processes the gim.ingest.scout task.
func (h *ScoutRepos) Execute(ctx context.Context, _ map[string]any) error {
	_, err := h.collector.Run(ctx)
	return err
}
