package domain

import (
	"context"
	"time"
)

// BookingRequest is a reservation request for a stylist. Independent of the
// chat core: it references a stylist, never chat state.
type BookingRequest struct {
	ID           string
	StylistID    string
	StylistName  string
	CustomerName string
	RequestedAt  time.Time // desired appointment time
	Note         string
	CreatedAt    time.Time
}

// BookingStore persists booking requests.
type BookingStore interface {
	Add(ctx context.Context, req BookingRequest) error
	List(ctx context.Context, limit int) ([]BookingRequest, error)
	Close() error
}
