package nats

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/Strob0t/PlanForge/internal/logger"
	"github.com/Strob0t/PlanForge/internal/port/messagequeue"
)

// testConnect connects to NATS or skips the test if NATS_URL is not set.
func testConnect(t *testing.T) *Queue {
	t.Helper()

	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("requires NATS_URL")
	}

	q, err := Connect(context.Background(), url, time.Hour)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() {
		if err := q.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return q
}

type received struct {
	ctx     context.Context
	payload messagequeue.PlanEventPayload
}

func TestQueue_PublishSubscribe(t *testing.T) {
	q := testConnect(t)

	got := make(chan received, 1)
	stop, err := q.Subscribe(context.Background(), messagequeue.SubjectPlanSaved, func(ctx context.Context, _ string, data []byte) error {
		var p messagequeue.PlanEventPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		select {
		case got <- received{ctx: ctx, payload: p}:
		default:
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer stop()

	data, _ := json.Marshal(messagequeue.PlanEventPayload{PlanID: "p-" + t.Name(), Title: "Todo", OccurredAt: time.Now().UTC()})
	ctx := logger.WithRequestID(context.Background(), "req-123")
	if err := q.Publish(ctx, messagequeue.SubjectPlanSaved, data); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case r := <-got:
		if r.payload.PlanID != "p-"+t.Name() {
			t.Errorf("unexpected plan id %q", r.payload.PlanID)
		}
		if logger.RequestID(r.ctx) != "req-123" {
			t.Errorf("expected request id to propagate, got %q", logger.RequestID(r.ctx))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestQueue_PublishRejectsInvalidPayload(t *testing.T) {
	q := testConnect(t)

	if err := q.Publish(context.Background(), messagequeue.SubjectPlanUpdated, []byte(`{"title":"no id"}`)); err == nil {
		t.Fatal("expected schema validation error")
	}
}

func TestQueue_IsConnected(t *testing.T) {
	q := testConnect(t)
	if !q.IsConnected() {
		t.Fatal("expected connected queue")
	}
}
