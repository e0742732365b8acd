package landmark

import (
	"context"
	"sync"
	"time"
)

// Mock implements Source for testing. Behavior is customized via
// function fields; every invocation is recorded for verification.
type Mock struct {
	// DetectFunc is called when Detect is invoked.
	// If nil, Detect reports no face.
	DetectFunc func(ctx context.Context, jpeg []byte) (*Observation, error)

	// CloseFunc is called when Close is invoked. If nil, returns nil.
	CloseFunc func() error

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a method invocation.
type MockCall struct {
	Method string
	Bytes  int
	Time   time.Time
}

// Detect calls DetectFunc and records the call.
func (m *Mock) Detect(ctx context.Context, jpeg []byte) (*Observation, error) {
	m.recordCall("Detect", len(jpeg))
	if m.DetectFunc != nil {
		return m.DetectFunc(ctx, jpeg)
	}
	return nil, nil
}

// Close calls CloseFunc and records the call.
func (m *Mock) Close() error {
	m.recordCall("Close", 0)
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

func (m *Mock) recordCall(method string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Method: method, Bytes: n, Time: time.Now()})
}

// CallCount returns the number of times a method was called.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.calls {
		if c.Method == method {
			count++
		}
	}
	return count
}

// Verify Mock implements Source at compile time.
var _ Source = (*Mock)(nil)
