package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			if got := exponentialBackoff(tt.attempt); got != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, got, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"amqp closed", amqp091.ErrClosed, true},
		{"wrapped amqp closed", fmt.Errorf("consume: %w", amqp091.ErrClosed), true},
		{"connection refused", errors.New("connection refused"), true},
		{"EOF", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("broken pipe"), true},
		{"other error", errors.New("some other error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestClient_CircuitBreaker(t *testing.T) {
	client := &Client{exchangeName: "test_exchange", queueName: "test_queue"}

	if client.isCircuitOpen() {
		t.Fatal("circuit should be closed initially")
	}

	for i := 0; i < maxFailures-1; i++ {
		client.recordFailure()
	}
	if client.isCircuitOpen() {
		t.Fatal("circuit opened before reaching the failure threshold")
	}
	client.recordFailure()
	if !client.isCircuitOpen() {
		t.Fatal("circuit should open after max failures")
	}

	client.lastFailure = time.Now().Add(-openTimeout - time.Second)
	if client.isCircuitOpen() {
		t.Fatal("circuit should go half-open after the timeout")
	}
	if got := atomic.LoadInt32(&client.state); got != StateHalfOpen {
		t.Fatalf("state = %d, want half-open", got)
	}

	client.recordFailure()
	if !client.isCircuitOpen() {
		t.Fatal("a failure while half-open should reopen the circuit")
	}

	client.recordSuccess()
	if client.isCircuitOpen() {
		t.Fatal("success should close the circuit")
	}
	if atomic.LoadInt64(&client.failureCount) != 0 {
		t.Fatal("success should reset the failure count")
	}
}

func TestClient_PublishShortCircuits(t *testing.T) {
	client := &Client{exchangeName: "test_exchange", queueName: "test_queue"}

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := client.Publish(ctx, NewEvent(TransactionCreated, 1)); !errors.Is(err, context.Canceled) {
			t.Fatalf("Publish() error = %v, want context.Canceled", err)
		}
	})

	t.Run("open circuit", func(t *testing.T) {
		atomic.StoreInt32(&client.state, StateOpen)
		client.lastFailure = time.Now()
		err := client.Publish(context.Background(), NewEvent(TransactionCreated, 1))
		if !errors.Is(err, ErrCircuitOpen) {
			t.Fatalf("Publish() error = %v, want ErrCircuitOpen", err)
		}
	})
}

type fakeAcknowledger struct {
	acked, nacked, requeued bool
}

func (f *fakeAcknowledger) Ack(uint64, bool) error { f.acked = true; return nil }

func (f *fakeAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacked, f.requeued = true, requeue
	return nil
}

func (f *fakeAcknowledger) Reject(_ uint64, requeue bool) error {
	f.nacked, f.requeued = true, requeue
	return nil
}

func TestHandleDelivery(t *testing.T) {
	valid, err := NewEvent(TransactionDeleted, 42).ToJSON()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		body       []byte
		handlerErr error
		wantAck    bool
		wantRequeu bool
	}{
		{name: "handled", body: valid, wantAck: true},
		{name: "handler failure requeues", body: valid, handlerErr: errors.New("sheets down"), wantRequeu: true},
		{name: "malformed json rejected", body: []byte("{"), wantRequeu: false},
		{name: "unknown type rejected", body: []byte(`{"id":"` + NewEvent(HabitCompleted, 1).ID + `","type":"x","entity_id":1}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &fakeAcknowledger{}
			var got Event
			handleDelivery(context.Background(), amqp091.Delivery{Acknowledger: ack, Body: tt.body},
				func(_ context.Context, e Event) error {
					got = e
					return tt.handlerErr
				})

			if ack.acked != tt.wantAck {
				t.Errorf("acked = %v, want %v", ack.acked, tt.wantAck)
			}
			if !tt.wantAck && !ack.nacked {
				t.Error("delivery should have been nacked")
			}
			if ack.requeued != tt.wantRequeu {
				t.Errorf("requeued = %v, want %v", ack.requeued, tt.wantRequeu)
			}
			if tt.wantAck && got.EntityID != 42 {
				t.Errorf("handler saw entity %d, want 42", got.EntityID)
			}
		})
	}
}

func TestNewEvent(t *testing.T) {
	e := NewEvent(AchievementUnlocked, 7).WithDetail("streak_7")

	if e.ID == "" || e.Type != AchievementUnlocked || e.EntityID != 7 || e.Detail != "streak_7" {
		t.Fatalf("unexpected event %+v", e)
	}
	if time.Since(e.Timestamp) > time.Second {
		t.Error("timestamp should be recent")
	}
	if NewEvent(AchievementUnlocked, 7).ID == e.ID {
		t.Error("event ids should be unique")
	}
}

func TestEventFromJSON(t *testing.T) {
	body, err := NewEvent(HabitCompleted, 3).ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	e, err := EventFromJSON(body)
	if err != nil {
		t.Fatalf("EventFromJSON() error = %v", err)
	}
	if e.Type != HabitCompleted || e.EntityID != 3 {
		t.Errorf("decoded %+v", e)
	}

	for _, bad := range []string{
		`{"id":"not-a-uuid","type":"habit.completed","entity_id":1}`,
		`{"id":"` + e.ID + `","type":"habit.completed","entity_id":0}`,
		`{"id":"` + e.ID + `","type":"habit.completed","entity_id":"one"}`,
	} {
		if _, err := EventFromJSON([]byte(bad)); err == nil {
			t.Errorf("EventFromJSON(%s) should fail", bad)
		} else if strings.TrimSpace(err.Error()) == "" {
			t.Errorf("empty error for %s", bad)
		}
	}
}
