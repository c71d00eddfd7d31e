// Package api provides interfaces for dependency injection
package api

import (
	"context"

	"go.uber.org/zap"

	"github.com/ssargent/vifgate/pkg/codec"
	"github.com/ssargent/vifgate/pkg/events"
	"github.com/ssargent/vifgate/pkg/journal"
)

// Venue is the set of host operations the API exposes. *gateway.Gateway
// implements it.
type Venue interface {
	Handshake(ctx context.Context) (*codec.Message, error)
	GetData(ctx context.Context, detail int) (*codec.Message, error)
	FreeSeats(ctx context.Context, session, workstation int) (*codec.Message, error)
	SessionSeats(ctx context.Context, session, availability int) (*codec.Message, error)
	InitTransaction(ctx context.Context, fields map[string]any) (*codec.Message, error)
	CommitTransaction(ctx context.Context, fields map[string]any) (*codec.Message, error)
	LookupBooking(ctx context.Context, key int, useAlternate bool) (*codec.Message, error)
	VerifyBooking(ctx context.Context, alternateKey string) (*codec.Message, error)
}

// CatalogCache caches catalog response text. *cache.Catalog implements it.
type CatalogCache interface {
	Fetch(ctx context.Context, site string, detail int, load func(context.Context) (string, error)) (string, bool, error)
	Invalidate(ctx context.Context, site string, detail int) error
}

// BookingPublisher announces committed bookings. *events.Publisher
// implements it.
type BookingPublisher interface {
	PublishBookingCommitted(ctx context.Context, ev events.BookingCommitted) error
}

// ExchangeJournal lists recorded exchanges. *journal.Journal implements it.
type ExchangeJournal interface {
	List(limit int) ([]journal.Entry, error)
	Get(id string) (journal.Entry, error)
}

// Dependencies groups what a Server is built from. Only Venue is
// required.
type Dependencies struct {
	Venue     Venue
	Cache     CatalogCache
	Publisher BookingPublisher
	Journal   ExchangeJournal
	Metrics   *Metrics
	Logger    *zap.Logger
}

// ServerStarter defines the interface for starting the API server
type ServerStarter interface {
	// StartServer serves until ctx is cancelled
	StartServer(ctx context.Context, deps Dependencies, config ServerConfig) error
}

// ServerFactory creates server instances
type ServerFactory interface {
	// CreateServerStarter creates a server starter
	CreateServerStarter() ServerStarter
}
