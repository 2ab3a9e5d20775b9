package proof

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"

	"inkflow/internal/config"
	"inkflow/internal/services"
)

type fakeList struct {
	key    string
	values []interface{}
	err    error
	closed bool
}

func (f *fakeList) LPush(_ context.Context, key string, values ...interface{}) *redis.IntCmd {
	f.key = key
	f.values = append(f.values, values...)
	return redis.NewIntResult(int64(len(f.values)), f.err)
}

func (f *fakeList) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", f.err)
}

func (f *fakeList) Close() error {
	f.closed = true
	return nil
}

func TestRedisTriggerPushesJSONRequest(t *testing.T) {
	list := &fakeList{}
	trigger := NewRedisTrigger(list, "inkflow:proof_requests")

	err := trigger.Trigger(context.Background(), Request{RequestID: "abc", JobID: 12345, ItemID: 7, ItemNumber: 2, Document: "12345-2.xml", Proofer: "Epson"})
	if err != nil {
		t.Fatalf("Trigger failed: %v", err)
	}
	if list.key != "inkflow:proof_requests" || len(list.values) != 1 {
		t.Fatalf("unexpected push: key=%q values=%d", list.key, len(list.values))
	}
	var decoded Request
	if err := json.Unmarshal(list.values[0].([]byte), &decoded); err != nil {
		t.Fatalf("pushed value is not JSON: %v", err)
	}
	if decoded.JobID != 12345 || decoded.ItemNumber != 2 || decoded.Proofer != "Epson" {
		t.Fatalf("unexpected request: %+v", decoded)
	}
	if decoded.RequestedAt.IsZero() {
		t.Fatal("expected request time stamped")
	}

	if err := trigger.Close(); err != nil || !list.closed {
		t.Fatalf("expected client closed, err=%v", err)
	}
}

func TestRedisTriggerWrapsPushFailures(t *testing.T) {
	trigger := NewRedisTrigger(&fakeList{err: errors.New("connection refused")}, "k")
	err := trigger.Trigger(context.Background(), Request{JobID: 1, ItemNumber: 1})
	if !errors.Is(err, services.ErrIO) {
		t.Fatalf("expected ErrIO, got %v", err)
	}
}

func TestRedisTriggerPing(t *testing.T) {
	if err := NewRedisTrigger(&fakeList{}, "k").Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
	err := NewRedisTrigger(&fakeList{err: errors.New("dial tcp: refused")}, "k").Ping(context.Background())
	if !errors.Is(err, services.ErrIO) {
		t.Fatalf("expected ErrIO, got %v", err)
	}
}

func TestNewReturnsNoopWhenDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Proof.Enabled = false
	if _, ok := New(&cfg).(Noop); !ok {
		t.Fatal("expected noop trigger")
	}
}
