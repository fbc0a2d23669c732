package txstore

import (
	"context"
	"errors"

	"github.com/Asthay97/personal-bank-fullstack/internal/txrecord"
)

// ErrNoCheckpointFound is returned by LoadLatestCheckpoint when nothing has
// been saved for the account yet.
var ErrNoCheckpointFound = errors.New("no checkpoint found for account")

// CheckpointStorage keeps the durable copy of an account's log.
type CheckpointStorage interface {
	// SaveCheckpoint overwrites the stored log of account. log is
	// most-recent-first.
	SaveCheckpoint(ctx context.Context, account string, log []txrecord.Record) error

	// LoadLatestCheckpoint returns the last log saved for account, or
	// ErrNoCheckpointFound. Backends report unreadable data as a plain
	// error.
	LoadLatestCheckpoint(ctx context.Context, account string) ([]txrecord.Record, error)
}

// nopCheckpoint keeps nothing.
type nopCheckpoint struct{}

func (nopCheckpoint) SaveCheckpoint(context.Context, string, []txrecord.Record) error {
	return nil
}

func (nopCheckpoint) LoadLatestCheckpoint(context.Context, string) ([]txrecord.Record, error) {
	return nil, ErrNoCheckpointFound
}
