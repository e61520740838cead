package inference

import (
	"context"
	"sync"
)

// MockOutput is a canned result for the MockBackend.
type MockOutput struct {
	Output Output
	Err    error
}

// MockBackend is a deterministic Backend for testing.
// It returns canned outputs in FIFO order and records all inputs.
type MockBackend struct {
	mu      sync.Mutex
	outputs []MockOutput
	model   Model
	fail    bool
	ready   bool
	Calls   []Input
}

// NewMockBackend creates a MockBackend with the given canned outputs.
func NewMockBackend(outputs ...MockOutput) *MockBackend {
	return &MockBackend{outputs: outputs}
}

// FailInit makes the next Init call report failure.
func (m *MockBackend) FailInit() *MockBackend {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = true
	return m
}

// Init marks the backend ready unless FailInit was called.
func (m *MockBackend) Init(model Model) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.model = model
	m.ready = !m.fail
	return m.ready
}

// Ready reports the result of the last Init.
func (m *MockBackend) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready
}

// Invoke returns the next canned output, or *ErrNotReady when the queue is
// empty or the backend was never initialized.
func (m *MockBackend) Invoke(_ context.Context, in Input) (Output, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, in)

	if !m.ready || len(m.outputs) == 0 {
		return nil, &ErrNotReady{Model: m.model}
	}

	next := m.outputs[0]
	m.outputs = m.outputs[1:]

	if next.Err != nil {
		return nil, next.Err
	}
	return next.Output, nil
}

// AddOutput appends a canned output to the queue.
func (m *MockBackend) AddOutput(out MockOutput) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outputs = append(m.outputs, out)
}

// CallCount returns the number of Invoke calls made.
func (m *MockBackend) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
