package mail

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type brokerMock struct {
	popFunc  func(ctx context.Context) ([]byte, error)
	pushFunc func(ctx context.Context, payload []byte) error
}

func (b *brokerMock) PopRaw(ctx context.Context) ([]byte, error) {
	return b.popFunc(ctx)
}

func (b *brokerMock) PushRaw(ctx context.Context, payload []byte) error {
	if b.pushFunc == nil {
		return nil
	}
	return b.pushFunc(ctx, payload)
}

type senderMock struct {
	sendFunc func(task Task) error
}

func (s *senderMock) Send(task Task) error {
	return s.sendFunc(task)
}

func mustPayload(t *testing.T, task Task) []byte {
	t.Helper()
	payload, err := json.Marshal(task)
	if err != nil {
		t.Fatalf("marshal task: %v", err)
	}
	return payload
}

func TestWorkerDeliversTask(t *testing.T) {
	task := Task{Recipient: "alice@example.com", Subject: "Welcome to Marquee!", PlainBody: "hi"}
	broker := &brokerMock{
		popFunc: func(context.Context) ([]byte, error) {
			return mustPayload(t, task), nil
		},
	}
	var delivered Task
	sender := &senderMock{
		sendFunc: func(task Task) error {
			delivered = task
			return nil
		},
	}

	w := NewWorker(broker, sender, newLogger(), time.Second, time.Second)
	if err := w.popSend(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if delivered.Recipient != task.Recipient || delivered.Subject != task.Subject {
		t.Fatalf("unexpected delivered task: %+v", delivered)
	}
}

func TestWorkerRequeuesPayloadUnchangedOnSendFailure(t *testing.T) {
	task := Task{Recipient: "bob@example.com", Subject: "Activate your Marquee account"}
	payload := mustPayload(t, task)

	var requeued []byte
	broker := &brokerMock{
		popFunc: func(context.Context) ([]byte, error) {
			return payload, nil
		},
		pushFunc: func(_ context.Context, p []byte) error {
			requeued = p
			return nil
		},
	}
	sender := &senderMock{
		sendFunc: func(Task) error {
			return errors.New("smtp unavailable")
		},
	}

	w := NewWorker(broker, sender, newLogger(), time.Second, time.Second)
	if err := w.popSend(context.Background()); err != nil {
		t.Fatalf("failed send must not be an iteration error, got %v", err)
	}
	if string(requeued) != string(payload) {
		t.Fatalf("requeued payload differs from popped payload:\n%s\n%s", requeued, payload)
	}
}

func TestWorkerPropagatesEmptyQueue(t *testing.T) {
	broker := &brokerMock{
		popFunc: func(context.Context) ([]byte, error) {
			return nil, ErrEmptyQueue
		},
	}
	w := NewWorker(broker, &senderMock{sendFunc: func(Task) error { return nil }}, newLogger(), time.Second, time.Second)
	if err := w.popSend(context.Background()); !errors.Is(err, ErrEmptyQueue) {
		t.Fatalf("expected ErrEmptyQueue, got %v", err)
	}
}

func TestWorkerReportsDecodeError(t *testing.T) {
	broker := &brokerMock{
		popFunc: func(context.Context) ([]byte, error) {
			return []byte("not-json"), nil
		},
	}
	sent := false
	sender := &senderMock{
		sendFunc: func(Task) error {
			sent = true
			return nil
		},
	}
	w := NewWorker(broker, sender, newLogger(), time.Second, time.Second)
	if err := w.popSend(context.Background()); err == nil {
		t.Fatalf("expected decode error")
	}
	if sent {
		t.Fatalf("malformed payload must not reach the sender")
	}
}

func TestWorkerRunStopsOnContextCancel(t *testing.T) {
	broker := &brokerMock{
		popFunc: func(context.Context) ([]byte, error) {
			return nil, ErrEmptyQueue
		},
	}
	w := NewWorker(broker, &senderMock{sendFunc: func(Task) error { return nil }}, newLogger(), 10*time.Millisecond, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx)
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("worker did not stop after cancellation")
	}
}
