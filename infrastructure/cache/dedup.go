package cache

import (
	"context"
	"time"
)

const dedupPrefix = "reco:event:"

// Deduper implements event.Deduper with SETNX keys that expire after the
// dedup window. A replayed event ID inside the window finds its key still
// present and is reported as seen.
type Deduper struct {
	client *Client
	ttl    time.Duration
}

// NewDeduper creates a new Deduper.
func NewDeduper(client *Client, ttl time.Duration) *Deduper {
	return &Deduper{client: client, ttl: ttl}
}

// Remember marks an event ID as seen. It reports true the first time the ID
// appears and false on every replay inside the window.
func (d *Deduper) Remember(ctx context.Context, eventID string) (bool, error) {
	return d.client.SetNX(ctx, dedupPrefix+eventID, "1", d.ttl)
}
