// Package storage provides the durable key-value slots the cart store reads on open
// and writes after every mutation.
package storage

import (
	"context"
	"errors"
)

// ErrSlotNotFound is returned by Load when nothing was ever written to the slot.
var ErrSlotNotFound = errors.New("slot not found")

// Backend is a durable key-value slot store partitioned by session scope.
// Save overwrites the previous value; there is no partial update.
type Backend interface {
	Load(ctx context.Context, scope, name string) ([]byte, error)
	Save(ctx context.Context, scope, name string, value []byte) error
	Ping(ctx context.Context) error
}
