package gim

import (
	"errors"

	"github.com/gimlabs/gim/application/service"
)

// Exported errors for library consumers.
var (
	// ErrNoDatabase indicates no database was configured.
	ErrNoDatabase = errors.New("gim: no database configured")

	// ErrNoRedis indicates no Redis connection was configured. The cache,
	// the event queue and the broker all live on Redis, so the client
	// cannot start without one.
	ErrNoRedis = errors.New("gim: no redis configured")

	// ErrClientClosed indicates the client has been closed. It is the same
	// sentinel the services return, so errors.Is works on either import.
	ErrClientClosed = service.ErrClientClosed

	// ErrNotFound indicates a requested resource was not found.
	ErrNotFound = service.ErrNotFound

	// ErrInvalidInput indicates a request the caller can fix.
	ErrInvalidInput = service.ErrInvalidInput
)
