package database

import (
	"context"
	"errors"
)

// ErrNotConnected is returned by backends whose connection is down
var ErrNotConnected = errors.New("database not connected")

// DocumentStore persists whole JSON documents addressed by collection and key.
// Every write fully replaces the previous document.
type DocumentStore interface {
	// Load returns the stored document, or found=false when none exists
	Load(ctx context.Context, collection, key string) (doc []byte, found bool, err error)
	Save(ctx context.Context, collection, key string, doc []byte) error
	Delete(ctx context.Context, collection, key string) error
	Keys(ctx context.Context, collection string) ([]string, error)
	Ping(ctx context.Context) error
	Name() string
	Close(ctx context.Context) error
}
