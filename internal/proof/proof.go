// Package proof requests downstream proof generation for committed items.
//
// Requests are pushed as JSON onto a Redis list that the proofing workers
// consume. When proofing is disabled the trigger is a no-op.
package proof

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"inkflow/internal/config"
	"inkflow/internal/services"
)

// Request identifies the item whose proof should be regenerated.
type Request struct {
	RequestID   string    `json:"request_id"`
	JobID       int64     `json:"job_id"`
	ItemID      int64     `json:"item_id"`
	ItemNumber  int       `json:"item_number"`
	Document    string    `json:"document"`
	Proofer     string    `json:"proofer,omitempty"`
	ArtworkPath string    `json:"artwork_path,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// Trigger starts the downstream proof action.
type Trigger interface {
	Trigger(ctx context.Context, req Request) error
	Close() error
}

type lister interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// New returns a Redis-backed trigger when proofing is enabled.
func New(cfg *config.Config) Trigger {
	if cfg == nil || !cfg.Proof.Enabled {
		return Noop{}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Proof.RedisAddr,
		Password: cfg.Proof.RedisPassword,
		DB:       cfg.Proof.RedisDB,
	})
	return NewRedisTrigger(client, cfg.Proof.ListKey)
}

// NewRedisTrigger wraps an existing client.
func NewRedisTrigger(client lister, key string) *RedisTrigger {
	return &RedisTrigger{client: client, key: key}
}

// RedisTrigger pushes requests onto a Redis list.
type RedisTrigger struct {
	client lister
	key    string
}

func (t *RedisTrigger) Trigger(ctx context.Context, req Request) error {
	if req.RequestedAt.IsZero() {
		req.RequestedAt = time.Now().UTC()
	}
	body, err := json.Marshal(req)
	if err != nil {
		return services.Wrap(services.ErrInternal, "proof", "encode", "", err)
	}
	if err := t.client.LPush(ctx, t.key, body).Err(); err != nil {
		return services.Wrap(services.ErrIO, "proof", "push",
			fmt.Sprintf("job %d item %d", req.JobID, req.ItemNumber), err)
	}
	return nil
}

// Ping verifies the Redis server answers.
func (t *RedisTrigger) Ping(ctx context.Context) error {
	if err := t.client.Ping(ctx).Err(); err != nil {
		return services.Wrap(services.ErrIO, "proof", "ping", t.key, err)
	}
	return nil
}

func (t *RedisTrigger) Close() error { return t.client.Close() }

// Noop discards requests.
type Noop struct{}

func (Noop) Trigger(context.Context, Request) error { return nil }
func (Noop) Ping(context.Context) error             { return nil }
func (Noop) Close() error                           { return nil }
