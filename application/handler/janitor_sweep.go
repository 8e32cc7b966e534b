package handler

import (
	"context"

	"github.com/gimlabs/gim/application/service"
)

// JanitorSweep prunes low-survival issues and swept staging rows.
type JanitorSweep struct {
	janitor *service.Janitor
}

// NewJanitorSweep creates a new JanitorSweep handler.
func NewJanitorSweep(janitor *service.Janitor) *JanitorSweep {
	return &JanitorSweep{janitor: janitor}
}

// Execute processes the gim.janitor.sweep task.
func (h *JanitorSweep) Execute(ctx context.Context, _ map[string]any) error {
	_, err := h.janitor.Run(ctx)
	return err
}
