package llm

import (
	"context"
	"fmt"
	"sync"

	"ai-patient/pkg"
)

// MockCall records one Complete invocation.
type MockCall struct {
	Messages []pkg.Message
	Params   Params
}

// MockClient is a scripted Client for tests.  Replies are returned in
// order; once they run out it echoes the last user message.  When Err is
// set every call fails with it.
type MockClient struct {
	mu      sync.Mutex
	replies []string
	calls   []MockCall

	Err error
}

var _ Client = (*MockClient)(nil)

// NewMockClient creates a mock that answers with replies in order.
func NewMockClient(replies ...string) *MockClient {
	return &MockClient{replies: replies}
}

// Complete records the call and returns the next scripted reply.
func (m *MockClient) Complete(ctx context.Context, messages []pkg.Message, params Params) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := make([]pkg.Message, len(messages))
	copy(snapshot, messages)
	m.calls = append(m.calls, MockCall{Messages: snapshot, Params: params})

	if err := ctx.Err(); err != nil {
		return "", &CompletionError{Kind: KindCanceled, Err: err}
	}
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.replies) > 0 {
		reply := m.replies[0]
		m.replies = m.replies[1:]
		return reply, nil
	}
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == pkg.RoleUser {
			return fmt.Sprintf("[MOCK] %s", messages[i].Content), nil
		}
	}
	return "[MOCK]", nil
}

// Calls returns every recorded call.
func (m *MockClient) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// LastCall returns the most recent call.  It panics when there is none.
func (m *MockClient) LastCall() MockCall {
	calls := m.Calls()
	return calls[len(calls)-1]
}
