// Package file keeps the txfeed checkpoint as a pretty-printed JSON file.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Asthay97/personal-bank-fullstack/internal/txrecord"
	"github.com/Asthay97/personal-bank-fullstack/internal/txstore"
)

// Checkpoint writes one file. The account argument of the storage
// interface is ignored: a process serves a single account.
type Checkpoint struct {
	path string
}

var _ txstore.CheckpointStorage = (*Checkpoint)(nil)

func NewCheckpoint(path string) *Checkpoint {
	return &Checkpoint{path: path}
}

// SaveCheckpoint replaces the file atomically through a temp file in the
// same directory.
func (c *Checkpoint) SaveCheckpoint(ctx context.Context, _ string, log []txrecord.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if log == nil {
		log = []txrecord.Record{}
	}

	payload, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(payload, '\n')); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), c.path)
}

// LoadLatestCheckpoint returns txstore.ErrNoCheckpointFound when the file
// does not exist.
func (c *Checkpoint) LoadLatestCheckpoint(ctx context.Context, _ string) ([]txrecord.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	payload, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, txstore.ErrNoCheckpointFound
		}
		return nil, err
	}

	var log []txrecord.Record
	if err := json.Unmarshal(payload, &log); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.path, err)
	}

	return log, nil
}
