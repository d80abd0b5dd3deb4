package canteen

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

// StreamEvent is one named event ready for delivery to a subscriber.
type StreamEvent struct {
	Name string
	Data []byte
}

// StreamServer fans out state-transition events to every connected
// observer over SSE. Delivery is at-most-once and best-effort: there is no
// replay log, and a slow or disconnected observer simply misses events
// published during the outage. Clients treat the stream as a
// cache-invalidation signal and re-fetch authoritative state over HTTP.
type StreamServer struct {
	mu          sync.RWMutex
	subscribers map[string]*streamSubscriber
	logger      apt.Logger
}

type streamSubscriber struct {
	client string // stable client token, for correlation across reconnects
	ch     chan StreamEvent
}

const subscriberBuffer = 100

func NewStreamServer(logger apt.Logger) *StreamServer {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &StreamServer{
		subscribers: make(map[string]*streamSubscriber),
		logger:      logger,
	}
}

// Subscribe registers a new observer connection. The client token
// correlates duplicate connections from the same logical client; each call
// still gets its own channel and deliveries are not deduplicated.
func (s *StreamServer) Subscribe(clientToken string) (string, <-chan StreamEvent) {
	id := clientToken + "/" + uuid.New().String()
	sub := &streamSubscriber{
		client: clientToken,
		ch:     make(chan StreamEvent, subscriberBuffer),
	}

	s.mu.Lock()
	s.subscribers[id] = sub
	s.mu.Unlock()

	s.logger.Info("new stream subscriber", "subscriber_id", id, "client", clientToken)
	return id, sub.ch
}

func (s *StreamServer) Unsubscribe(id string) {
	s.mu.Lock()
	sub, ok := s.subscribers[id]
	if ok {
		delete(s.subscribers, id)
	}
	s.mu.Unlock()

	if ok {
		close(sub.ch)
		s.logger.Info("stream subscriber disconnected", "subscriber_id", id, "client", sub.client)
	}
}

// SubscriberCount returns the number of open connections.
func (s *StreamServer) SubscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers)
}

// Broadcast delivers the event to every subscriber without blocking. A
// subscriber whose buffer is full drops the event; the state change has
// already committed and the client reconciles by re-fetching.
func (s *StreamServer) Broadcast(name string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("cannot marshal stream event", "event", name, "error", err)
		return
	}
	evt := StreamEvent{Name: name, Data: data}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, sub := range s.subscribers {
		select {
		case sub.ch <- evt:
		default:
			s.logger.Debug("dropping event for slow subscriber", "subscriber_id", id, "event", name)
		}
	}
}

// ServeHTTP implements the SSE endpoint. Clients identify with a stable
// `client` token query parameter.
func (s *StreamServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clientToken := r.URL.Query().Get("client")
	if clientToken == "" {
		apt.RespondError(w, http.StatusBadRequest, "client token is required")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	id, events := s.Subscribe(clientToken)
	defer s.Unsubscribe(id)

	// Establish the connection and configure the client retry interval.
	fmt.Fprintf(w, ": connected\n\n")
	fmt.Fprintf(w, "retry: 2000\n\n")
	flush(w)

	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case <-keepalive.C:
			fmt.Fprintf(w, ": keepalive\n\n")
			flush(w)

		case evt, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\n", evt.Name)
			fmt.Fprintf(w, "data: %s\n\n", evt.Data)
			flush(w)
		}
	}
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
