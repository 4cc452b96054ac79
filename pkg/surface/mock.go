package surface

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockClient is an in-memory surface for testing. Channels hold real message
// lists so callers can assert what a channel shows after a publish.
type MockClient struct {
	mu sync.Mutex

	channels map[string][]Message
	direct   map[string][]Artifact
	nextID   int
	now      func() time.Time
	calls    map[string]int

	listErr       error
	bulkDeleteErr error
	deleteErr     error
	deleteErrFor  map[string]error
	postErr       error
	editErr       error
	directErr     error
}

// MockOption configures the mock client
type MockOption func(*MockClient)

// WithMessages preloads a channel with existing messages
func WithMessages(channelID string, messages ...Message) MockOption {
	return func(m *MockClient) {
		for _, msg := range messages {
			msg.ChannelID = channelID
			m.channels[channelID] = append(m.channels[channelID], msg)
		}
	}
}

// WithListError sets an error to return from ListMessages
func WithListError(err error) MockOption {
	return func(m *MockClient) {
		m.listErr = err
	}
}

// WithBulkDeleteError sets an error to return from BulkDelete
func WithBulkDeleteError(err error) MockOption {
	return func(m *MockClient) {
		m.bulkDeleteErr = err
	}
}

// WithDeleteError sets an error to return from every DeleteMessage call
func WithDeleteError(err error) MockOption {
	return func(m *MockClient) {
		m.deleteErr = err
	}
}

// WithDeleteErrorFor makes DeleteMessage fail for one message id only
func WithDeleteErrorFor(messageID string, err error) MockOption {
	return func(m *MockClient) {
		m.deleteErrFor[messageID] = err
	}
}

// WithPostError sets an error to return from PostMessage
func WithPostError(err error) MockOption {
	return func(m *MockClient) {
		m.postErr = err
	}
}

// WithEditError sets an error to return from EditMessage
func WithEditError(err error) MockOption {
	return func(m *MockClient) {
		m.editErr = err
	}
}

// WithDirectError sets an error to return from SendDirect
func WithDirectError(err error) MockOption {
	return func(m *MockClient) {
		m.directErr = err
	}
}

// WithClock sets the time stamped on new messages
func WithClock(now func() time.Time) MockOption {
	return func(m *MockClient) {
		m.now = now
	}
}

// NewMockClient creates a new mock surface client
func NewMockClient(opts ...MockOption) *MockClient {
	m := &MockClient{
		channels:     make(map[string][]Message),
		direct:       make(map[string][]Artifact),
		calls:        make(map[string]int),
		deleteErrFor: make(map[string]error),
		nextID:       1000,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ListMessages returns the newest messages first, like the real surface
func (m *MockClient) ListMessages(ctx context.Context, channelID string, limit int) ([]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["ListMessages"]++

	if m.listErr != nil {
		return nil, m.listErr
	}
	msgs := m.channels[channelID]
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}
	out := make([]Message, 0, min(limit, len(msgs)))
	for i := len(msgs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, msgs[i])
	}
	return out, nil
}

// BulkDelete removes all listed messages or none
func (m *MockClient) BulkDelete(ctx context.Context, channelID string, messageIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["BulkDelete"]++

	if m.bulkDeleteErr != nil {
		return m.bulkDeleteErr
	}
	for _, id := range messageIDs {
		m.removeLocked(channelID, id)
	}
	return nil
}

// DeleteMessage removes one message
func (m *MockClient) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["DeleteMessage"]++

	if m.deleteErr != nil {
		return m.deleteErr
	}
	if err, ok := m.deleteErrFor[messageID]; ok {
		return err
	}
	if !m.removeLocked(channelID, messageID) {
		return &APIError{Status: 404, Code: 10008, Message: "Unknown Message"}
	}
	return nil
}

func (m *MockClient) removeLocked(channelID, messageID string) bool {
	msgs := m.channels[channelID]
	for i, msg := range msgs {
		if msg.ID == messageID {
			m.channels[channelID] = append(msgs[:i:i], msgs[i+1:]...)
			return true
		}
	}
	return false
}

// PostMessage appends a new message to a channel
func (m *MockClient) PostMessage(ctx context.Context, channelID string, a Artifact) (*Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["PostMessage"]++

	if m.postErr != nil {
		return nil, m.postErr
	}
	m.nextID++
	artifact := a
	msg := Message{
		ID:        fmt.Sprintf("m%d", m.nextID),
		ChannelID: channelID,
		Timestamp: m.now(),
		Artifact:  &artifact,
	}
	m.channels[channelID] = append(m.channels[channelID], msg)
	return &msg, nil
}

// EditMessage replaces a message's artifact in place
func (m *MockClient) EditMessage(ctx context.Context, channelID, messageID string, a Artifact) (*Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["EditMessage"]++

	if m.editErr != nil {
		return nil, m.editErr
	}
	for i, msg := range m.channels[channelID] {
		if msg.ID == messageID {
			artifact := a
			m.channels[channelID][i].Artifact = &artifact
			updated := m.channels[channelID][i]
			return &updated, nil
		}
	}
	return nil, &APIError{Status: 404, Code: 10008, Message: "Unknown Message"}
}

// SendDirect records a private message to a user
func (m *MockClient) SendDirect(ctx context.Context, userID string, a Artifact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["SendDirect"]++

	if m.directErr != nil {
		return m.directErr
	}
	m.direct[userID] = append(m.direct[userID], a)
	return nil
}

// Messages returns a copy of a channel's messages, oldest first
func (m *MockClient) Messages(channelID string) []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.channels[channelID]...)
}

// DirectMessages returns the artifacts sent privately to a user
func (m *MockClient) DirectMessages(userID string) []Artifact {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Artifact(nil), m.direct[userID]...)
}

// CallCount returns how many times the named method was called
func (m *MockClient) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

// TotalCalls returns the number of calls across all methods
func (m *MockClient) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

// ResetCalls clears the call counters
func (m *MockClient) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = make(map[string]int)
}

var _ Client = (*MockClient)(nil)
