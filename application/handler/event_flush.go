package handler

import (
	"context"

	"github.com/gimlabs/gim/application/service"
)

// EventFlush drains queued recommendation events into the analytics store.
type EventFlush struct {
	flush *service.Flush
}

// NewEventFlush creates a new EventFlush handler.
func NewEventFlush(flush *service.Flush) *EventFlush {
	return &EventFlush{flush: flush}
}

// Execute processes the gim.events.flush task.
func (h *EventFlush) Execute(ctx context.Context, _ map[string]any) error {
	_, err := h.flush.Run(ctx)
	return err
}
