package transport

import (
	"context"
	"encoding/binary"
	"net"

	"github.com/stretchr/testify/mock"

	"github.com/haukened/adns/internal/dns/domain"
)

// MockResponder implements RequestHandler for testing
type MockResponder struct {
	mock.Mock
}

func (m *MockResponder) HandleQuery(ctx context.Context, query domain.Query, clientAddr net.Addr) (domain.Response, error) {
	args := m.Called(ctx, query, clientAddr)
	if fn, ok := args.Get(0).(func(context.Context, domain.Query, net.Addr) domain.Response); ok {
		return fn(ctx, query, clientAddr), args.Error(1)
	}
	return args.Get(0).(domain.Response), args.Error(1)
}

// MockLogger implements log.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Info(fields map[string]any, msg string) {
	m.Called(fields, msg)
}

func (m *MockLogger) Error(fields map[string]any, msg string) {
	m.Called(fields, msg)
}

func (m *MockLogger) Debug(fields map[string]any, msg string) {
	m.Called(fields, msg)
}

func (m *MockLogger) Warn(fields map[string]any, msg string) {
	m.Called(fields, msg)
}

func (m *MockLogger) Panic(fields map[string]any, msg string) {
	m.Called(fields, msg)
}

func (m *MockLogger) Fatal(fields map[string]any, msg string) {
	m.Called(fields, msg)
}

// testLogger provides a no-op logger for tests that don't need to verify logging
type testLogger struct{}

func (t *testLogger) Info(map[string]any, string)  {}
func (t *testLogger) Error(map[string]any, string) {}
func (t *testLogger) Debug(map[string]any, string) {}
func (t *testLogger) Warn(map[string]any, string)  {}
func (t *testLogger) Panic(map[string]any, string) {}
func (t *testLogger) Fatal(map[string]any, string) {}

// rawRequest builds a message whose declared length may disagree with body.
func rawRequest(id uint32, code uint16, declared uint16, body []byte) []byte {
	buf := make([]byte, 8, 8+len(body))
	binary.BigEndian.PutUint32(buf[0:4], id)
	binary.BigEndian.PutUint16(buf[4:6], code)
	binary.BigEndian.PutUint16(buf[6:8], declared)
	return append(buf, body...)
}

// formErr is the exact FORMERR reply for request id.
func formErr(id uint32) []byte {
	return rawRequest(id, uint16(domain.FORMERR), 0, nil)
}

func quietLogger() *MockLogger {
	l := &MockLogger{}
	l.On("Info", mock.Anything, mock.Anything).Maybe()
	l.On("Debug", mock.Anything, mock.Anything).Maybe()
	l.On("Warn", mock.Anything, mock.Anything).Maybe()
	l.On("Error", mock.Anything, mock.Anything).Maybe()
	return l
}
