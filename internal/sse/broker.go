// Package sse streams blog changes to connected clients as Server-Sent
// Events.
package sse

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// Event types sent to clients.
const (
	EventBlogCreated      = "blog.created"
	EventBlogUpdated      = "blog.updated"
	EventBlogDeleted      = "blog.deleted"
	EventBlogsReloaded    = "blogs.reloaded"
	EventDashboardUpdated = "dashboard.updated"
)

// DefaultDashboardThrottle is the minimum gap between dashboard.updated
// events.
const DefaultDashboardThrottle = 2 * time.Second

const clientBuffer = 64

// Event is one SSE message.
type Event struct {
	Type string
	Data any
}

type changeReq struct {
	kind string
	id   int64
}

// Broker fans events out to subscribers.
//
// One goroutine owns the client set and the dashboard throttle; the public
// methods only talk to it over channels.
type Broker struct {
	logger       *slog.Logger
	dashboardGap time.Duration

	subCh    chan chan []byte
	unsubCh  chan chan []byte
	eventCh  chan Event
	changeCh chan changeReq
	countCh  chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker starts a broker. A non-positive throttle means
// DefaultDashboardThrottle.
func NewBroker(dashboardThrottle time.Duration, logger *slog.Logger) *Broker {
	if dashboardThrottle <= 0 {
		dashboardThrottle = DefaultDashboardThrottle
	}
	if logger == nil {
		logger = slog.Default()
	}
	b := &Broker{
		logger:       logger,
		dashboardGap: dashboardThrottle,
		subCh:        make(chan chan []byte),
		unsubCh:      make(chan chan []byte),
		eventCh:      make(chan Event, 256),
		changeCh:     make(chan changeReq, 256),
		countCh:      make(chan chan int),
		stopCh:       make(chan struct{}),
		stopped:      make(chan struct{}),
	}
	go b.loop()
	return b
}

func (b *Broker) loop() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var lastDashboard time.Time
	// trailing fires one deferred dashboard.updated for changes that landed
	// inside the throttle window. nil while nothing is pending.
	var trailing *time.Timer
	var trailingC <-chan time.Time

	send := func(ev Event) {
		msg, err := encode(ev)
		if err != nil {
			b.logger.Warn("sse: encode event failed", slog.String("type", ev.Type), slog.String("error", err.Error()))
			return
		}
		for ch := range clients {
			select {
			case ch <- msg:
			default:
				// Slow client; drop rather than stall everyone else.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			if trailing != nil {
				trailing.Stop()
			}
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case ev := <-b.eventCh:
			send(ev)

		case req := <-b.changeCh:
			typ, ok := changeEventType(req.kind)
			if !ok {
				b.logger.Debug("sse: ignoring change", slog.String("kind", req.kind))
				continue
			}
			send(Event{Type: typ, Data: map[string]int64{"id": req.id}})

			now := time.Now()
			if since := now.Sub(lastDashboard); since >= b.dashboardGap {
				lastDashboard = now
				send(Event{Type: EventDashboardUpdated, Data: struct{}{}})
			} else if trailing == nil {
				trailing = time.NewTimer(b.dashboardGap - since)
				trailingC = trailing.C
			}

		case <-trailingC:
			trailing, trailingC = nil, nil
			lastDashboard = time.Now()
			send(Event{Type: EventDashboardUpdated, Data: struct{}{}})

		case resp := <-b.countCh:
			resp <- len(clients)
		}
	}
}

func changeEventType(kind string) (string, bool) {
	switch kind {
	case "created":
		return EventBlogCreated, true
	case "updated":
		return EventBlogUpdated, true
	case "deleted":
		return EventBlogDeleted, true
	case "reloaded":
		return EventBlogsReloaded, true
	}
	return "", false
}

func encode(ev Event) ([]byte, error) {
	payload, err := json.Marshal(ev.Data)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", ev.Type, payload)), nil
}

// Close stops the broker and closes every subscriber channel. It is safe to
// call more than once.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe registers a client. The returned channel is closed on
// Unsubscribe or Close.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, clientBuffer)
	if b.closed.Load() {
		close(ch)
		return ch
	}
	select {
	case b.subCh <- ch:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of subscribers.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}
	resp := make(chan int, 1)
	select {
	case b.countCh <- resp:
	case <-b.stopped:
		return 0
	}
	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends ev to every subscriber.
func (b *Broker) Publish(ev Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.eventCh <- ev:
	case <-b.stopped:
	}
}

// PublishChange sends the event for a store change, followed by a
// dashboard.updated. Inside the throttle window the dashboard event is
// deferred to the end of the window, and changes arriving meanwhile share it.
// kind is one of created, updated, deleted or reloaded.
func (b *Broker) PublishChange(kind string, id int64) {
	if b.closed.Load() {
		return
	}
	select {
	case b.changeCh <- changeReq{kind: kind, id: id}:
	case <-b.stopped:
	}
}

// ServeHTTP streams events to one client until it disconnects.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if _, err := w.Write(msg); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
