package handler

import (
	"context"

	"github.com/gimlabs/gim/application/service"
)

// StatsRefresh recomputes platform counts and rewrites the stats cache.
type StatsRefresh struct {
	stats *service.Stats
}

// NewStatsRefresh creates a new StatsRefresh handler.
func NewStatsRefresh(stats *service.Stats) *StatsRefresh {
	return &StatsRefresh{stats: stats}
}

// Execute processes the gim.stats.refresh task.
func (h *StatsRefresh) Execute(ctx context.Context, _ map[string]any) error {
	_, err := h.stats.Refresh(ctx)
	return err
}
