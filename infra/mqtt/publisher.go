package mqtt

import (
	"fmt"
	"sync"
	"time"

	coremqtt "github.com/letstalk-code/routecare/core/mqtt"
)

// Client mirrors the core mqtt.Client interface.
type Client = coremqtt.Client

// MockPublisher is a simple publisher used in tests.
type MockPublisher struct {
	Orders     map[string]coremqtt.AssignmentOrder
	FailIDs    map[string]bool
	AckResults map[string]bool
	mu         sync.Mutex
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		Orders:     make(map[string]coremqtt.AssignmentOrder),
		FailIDs:    make(map[string]bool),
		AckResults: make(map[string]bool),
	}
}

// NotifyAssignment records the order or returns an error if configured to fail.
func (m *MockPublisher) NotifyAssignment(driverID string, order coremqtt.AssignmentOrder) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailIDs[driverID] {
		return "", fmt.Errorf("publish failed")
	}
	m.Orders[driverID] = order
	messageID := fmt.Sprintf("msg-%s", driverID)
	m.AckResults[messageID] = !m.FailIDs[driverID]
	return messageID, nil
}

// WaitForAck simulates an immediate acknowledgment based on the stored result.
func (m *MockPublisher) WaitForAck(messageID string, timeout time.Duration) (bool, error) {
	m.mu.Lock()
	ok, exists := m.AckResults[messageID]
	m.mu.Unlock()
	if !exists {
		return false, fmt.Errorf("unknown message")
	}
	return ok, nil
}
