package sse

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func drain(ch chan []byte, wait time.Duration) []string {
	time.Sleep(wait)
	var out []string
	for {
		select {
		case msg := <-ch:
			out = append(out, string(msg))
		default:
			return out
		}
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100*time.Millisecond, quietLogger())
	defer b.Close()

	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsubscribe")
	}
	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed after unsubscribe")
	}
}

func TestPublishChange_EventTypes(t *testing.T) {
	b := NewBroker(time.Hour, quietLogger())
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishChange("created", 1)
	b.PublishChange("updated", 1)
	b.PublishChange("deleted", 1)
	b.PublishChange("reloaded", 0)
	b.PublishChange("exploded", 1)

	msgs := drain(ch, 50*time.Millisecond)
	want := []string{
		"event: blog.created\ndata: {\"id\":1}\n\n",
		"event: dashboard.updated\ndata: {}\n\n",
		"event: blog.updated\ndata: {\"id\":1}\n\n",
		"event: blog.deleted\ndata: {\"id\":1}\n\n",
		"event: blogs.reloaded\ndata: {\"id\":0}\n\n",
	}
	if len(msgs) != len(want) {
		t.Fatalf("got %d messages, want %d: %q", len(msgs), len(want), msgs)
	}
	for i := range want {
		if msgs[i] != want[i] {
			t.Errorf("message %d = %q, want %q", i, msgs[i], want[i])
		}
	}
}

func countDashboard(msgs []string) int {
	n := 0
	for _, m := range msgs {
		if strings.HasPrefix(m, "event: dashboard.updated") {
			n++
		}
	}
	return n
}

func TestPublishChange_DashboardThrottle(t *testing.T) {
	b := NewBroker(150*time.Millisecond, quietLogger())
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishChange("created", 1)
	b.PublishChange("created", 2)
	b.PublishChange("updated", 2)
	msgs := drain(ch, 50*time.Millisecond)
	if len(msgs) != 4 || countDashboard(msgs) != 1 {
		t.Fatalf("inside window got %q", msgs)
	}

	// One trailing dashboard event covers the throttled changes.
	msgs = drain(ch, 200*time.Millisecond)
	if len(msgs) != 1 || countDashboard(msgs) != 1 {
		t.Fatalf("after window got %q", msgs)
	}

	if msgs = drain(ch, 200*time.Millisecond); len(msgs) != 0 {
		t.Errorf("unexpected events once settled: %q", msgs)
	}
}

func TestPublishDropsForSlowClient(t *testing.T) {
	b := NewBroker(time.Second, quietLogger())
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for i := 0; i < clientBuffer+10; i++ {
		b.Publish(Event{Type: "test", Data: i})
	}
	if n := len(drain(ch, 50*time.Millisecond)); n != clientBuffer {
		t.Errorf("delivered %d, want buffer size %d", n, clientBuffer)
	}
}

func TestPublish_UnencodableDataIsSkipped(t *testing.T) {
	b := NewBroker(time.Second, quietLogger())
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "bad", Data: make(chan int)})
	b.Publish(Event{Type: "good", Data: "ok"})

	msgs := drain(ch, 50*time.Millisecond)
	if len(msgs) != 1 || !strings.Contains(msgs[0], "event: good") {
		t.Fatalf("unexpected messages %q", msgs)
	}
}

// syncRecorder lets the test read the body while ServeHTTP is writing.
type syncRecorder struct {
	*httptest.ResponseRecorder
	mu sync.Mutex
}

func (r *syncRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ResponseRecorder.Write(p)
}

func (r *syncRecorder) body() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Body.String()
}

func TestServeHTTP(t *testing.T) {
	b := NewBroker(time.Hour, quietLogger())
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	w := &syncRecorder{ResponseRecorder: httptest.NewRecorder()}

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for b.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("handler never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	b.PublishChange("updated", 7)
	deadline = time.Now().Add(time.Second)
	for !strings.Contains(w.body(), "event: blog.updated") {
		if time.Now().After(deadline) {
			t.Fatalf("event not streamed, body %q", w.body())
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	<-done

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}
	deadline = time.Now().Add(time.Second)
	for b.ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("client not removed after disconnect")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestClose(t *testing.T) {
	b := NewBroker(time.Second, quietLogger())
	ch := b.Subscribe()
	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for close")
	}
	if b.ClientCount() != 0 {
		t.Fatal("expected 0 clients after close")
	}

	b.Close()
	b.Publish(Event{Type: "late"})
	b.PublishChange("created", 1)
	if _, ok := <-b.Subscribe(); ok {
		t.Fatal("subscribe after close should return a closed channel")
	}
}
