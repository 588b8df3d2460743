package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// NoopNotifier drops every event. It backs the "noop" provider.
type NoopNotifier struct{}

func NewNoop() NoopNotifier { return NoopNotifier{} }

func (NoopNotifier) Publish(context.Context, any) (string, error) { return "", nil }
func (NoopNotifier) Close() error                                 { return nil }

// MemoryNotifier records published payloads for tests.
type MemoryNotifier struct {
	mu       sync.Mutex
	messages [][]byte
}

func NewMemory() *MemoryNotifier {
	return &MemoryNotifier{}
}

func (n *MemoryNotifier) Publish(_ context.Context, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, data)
	return fmt.Sprintf("mem-%d", len(n.messages)), nil
}

func (n *MemoryNotifier) Close() error { return nil }

// Messages returns the raw JSON payloads published so far.
func (n *MemoryNotifier) Messages() [][]byte {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([][]byte, len(n.messages))
	copy(out, n.messages)
	return out
}
