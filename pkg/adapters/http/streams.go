package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/mermaidviz/internal/logging"
	"github.com/aretw0/mermaidviz/pkg/domain"
)

// StreamManager fans watched-file contents out to SSE subscribers.
// The latest payload is replayed to every new subscriber.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[chan string]struct{}
	last        string
	logger      *slog.Logger
}

// NewStreamManager creates an empty manager. A nil logger discards output.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[chan string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a buffered channel. The returned func unregisters and closes it.
func (sm *StreamManager) Subscribe() (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if sm.last != "" {
		ch <- sm.last
	}
	sm.subscribers[ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if _, ok := sm.subscribers[ch]; ok {
			delete(sm.subscribers, ch)
			close(ch)
		}
	}
}

// Close ends every subscription so streaming handlers return.
func (sm *StreamManager) Close() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for ch := range sm.subscribers {
		delete(sm.subscribers, ch)
		close(ch)
	}
}

// Len returns the number of active subscribers.
func (sm *StreamManager) Len() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers)
}

// Broadcast sends msg to every subscriber, dropping it for slow clients.
func (sm *StreamManager) Broadcast(msg string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.last = msg
	sm.logger.Debug("StreamManager: Broadcasting", "subscribers", len(sm.subscribers), "payload_size", len(msg))

	for ch := range sm.subscribers {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("SSE: Client buffer full, dropping message")
		}
	}
}

// Publish broadcasts diagram source as a ConvertResponse document.
func (sm *StreamManager) Publish(mermaid string) {
	data, err := json.Marshal(domain.ConvertResponse{Mermaid: mermaid})
	if err != nil {
		sm.logger.Error("StreamManager: encode failed", "err", err)
		return
	}
	sm.Broadcast(string(data))
}

// Pump publishes every value received from src until it closes or ctx ends.
func (sm *StreamManager) Pump(ctx context.Context, src <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case content, ok := <-src:
			if !ok {
				return
			}
			sm.Publish(content)
		}
	}
}
