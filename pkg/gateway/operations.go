package gateway

import (
	"context"

	"github.com/ssargent/vifgate/pkg/codec"
)

// Request codes the host understands.
const (
	RequestHandshake         = 1
	RequestGetData           = 2
	RequestFreeSeats         = 17
	RequestSessionSeats      = 20
	RequestInitTransaction   = 30
	RequestCommitTransaction = 31
	RequestLookupBooking     = 32
	RequestVerifyBooking     = 42
)

// DetailWeb is the get_data detail level that returns what a booking site
// needs.
const DetailWeb = 2

// Do sends requestCode with an optional body record.
func (g *Gateway) Do(ctx context.Context, requestCode int, body *codec.Record) (*codec.Message, error) {
	req, err := g.NewRequest(requestCode)
	if err != nil {
		return nil, err
	}
	if body != nil {
		if err := req.AddBodyRecord(body); err != nil {
			return nil, err
		}
	}
	return g.Send(ctx, req)
}

func (g *Gateway) doFields(ctx context.Context, requestCode int, recordCode string, fields map[string]any) (*codec.Message, error) {
	body, err := codec.NewRecordFromFields(recordCode, fields)
	if err != nil {
		return nil, err
	}
	return g.Do(ctx, requestCode, body)
}

// Handshake checks that the host is reachable and accepts the credentials.
func (g *Gateway) Handshake(ctx context.Context) (*codec.Message, error) {
	return g.Do(ctx, RequestHandshake, nil)
}

// GetData fetches the venue catalog: installation, screens, movies,
// sessions and prices.
func (g *Gateway) GetData(ctx context.Context, detail int) (*codec.Message, error) {
	return g.doFields(ctx, RequestGetData, "q02", map[string]any{"detail_required": detail})
}

// FreeSeats asks for the seats still free in a session.
func (g *Gateway) FreeSeats(ctx context.Context, session, workstation int) (*codec.Message, error) {
	return g.doFields(ctx, RequestFreeSeats, "q17", map[string]any{
		"session_number": session,
		"workstation_id": workstation,
	})
}

// SessionSeats fetches the seat plan of a session.
func (g *Gateway) SessionSeats(ctx context.Context, session, availability int) (*codec.Message, error) {
	return g.doFields(ctx, RequestSessionSeats, "q20", map[string]any{
		"session_number": session,
		"availability":   availability,
	})
}

// InitTransaction starts a transaction. fields are q30 fields by name, with
// the tickets under "tickets". The host answers with a p30 record.
func (g *Gateway) InitTransaction(ctx context.Context, fields map[string]any) (*codec.Message, error) {
	return g.doFields(ctx, RequestInitTransaction, "q30", fields)
}

// CommitTransaction pays for and commits a transaction. fields are q31
// fields by name, with the payments under "payments". The host answers
// with a p31 record.
func (g *Gateway) CommitTransaction(ctx context.Context, fields map[string]any) (*codec.Message, error) {
	return g.doFields(ctx, RequestCommitTransaction, "q31", fields)
}

// LookupBooking fetches a booking by key, or by alternate key when
// useAlternate is set.
func (g *Gateway) LookupBooking(ctx context.Context, key int, useAlternate bool) (*codec.Message, error) {
	return g.doFields(ctx, RequestLookupBooking, "q32", map[string]any{
		"key":               key,
		"use_alternate_key": useAlternate,
	})
}

// VerifyBooking checks a booking by its alternate key.
func (g *Gateway) VerifyBooking(ctx context.Context, alternateKey string) (*codec.Message, error) {
	return g.doFields(ctx, RequestVerifyBooking, "q42", map[string]any{
		"alternate_booking_key": alternateKey,
	})
}
