package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Asthay97/personal-bank-fullstack/internal/txrecord"
	"github.com/Asthay97/personal-bank-fullstack/internal/txstore"
)

const checkpointKeyPrefix = "txfeed"

// checkpointKey is "txfeed:checkpoint:<account>".
func checkpointKey(account string) string {
	return fmt.Sprintf("%s:checkpoint:%s", checkpointKeyPrefix, account)
}

// SaveCheckpoint stores log as JSON with no expiration.
func (c *client) SaveCheckpoint(ctx context.Context, account string, log []txrecord.Record) error {
	if log == nil {
		log = []txrecord.Record{}
	}

	payload, err := json.Marshal(log)
	if err != nil {
		return err
	}

	return c.conn.Set(ctx, checkpointKey(account), payload, 0).Err()
}

// LoadLatestCheckpoint returns txstore.ErrNoCheckpointFound when nothing
// was saved for account yet.
func (c *client) LoadLatestCheckpoint(ctx context.Context, account string) ([]txrecord.Record, error) {
	payload, err := c.conn.Get(ctx, checkpointKey(account)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			err = txstore.ErrNoCheckpointFound
		}

		return nil, err
	}

	var log []txrecord.Record
	if err := json.Unmarshal(payload, &log); err != nil {
		return nil, fmt.Errorf("decode checkpoint: %w", err)
	}

	return log, nil
}

var _ txstore.CheckpointStorage = new(client)
