package resolver

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/haukened/adns/internal/dns/domain"
	"github.com/haukened/adns/internal/dns/repos/zone"
)

// MockLogger is a mock implementation of log.Logger
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(fields map[string]any, msg string) { m.Called(fields, msg) }
func (m *MockLogger) Info(fields map[string]any, msg string)  { m.Called(fields, msg) }
func (m *MockLogger) Warn(fields map[string]any, msg string)  { m.Called(fields, msg) }
func (m *MockLogger) Error(fields map[string]any, msg string) { m.Called(fields, msg) }
func (m *MockLogger) Panic(fields map[string]any, msg string) { m.Called(fields, msg) }
func (m *MockLogger) Fatal(fields map[string]any, msg string) { m.Called(fields, msg) }

func testZone() *zone.Zone {
	return zone.New([]zone.Entry{
		{Name: "a.example", Address: "10.0.0.1"},
		{Name: "b.example", Address: "10.0.0.2"},
		{Name: "c.example", Address: "10.0.0.1"},
	})
}

func TestResolver_Resolve(t *testing.T) {
	r := NewResolver(ResolverOptions{Zone: testZone()})

	tests := []struct {
		name  string
		qtype domain.QueryType
		value string
		want  domain.Result
	}{
		{"address hit", domain.QueryTypeAddress, "a.example", domain.Found("10.0.0.1")},
		{"address miss", domain.QueryTypeAddress, "missing.example", domain.Failed(domain.NXDOMAIN)},
		{"reverse hit", domain.QueryTypeReverse, "10.0.0.2", domain.Found("b.example")},
		{"reverse first match wins", domain.QueryTypeReverse, "10.0.0.1", domain.Found("a.example")},
		{"reverse miss", domain.QueryTypeReverse, "10.0.0.3", domain.Failed(domain.NXDOMAIN)},
		{"version", domain.QueryTypeText, "version", domain.Found(DefaultVersion)},
		{"text other", domain.QueryTypeText, "hostname", domain.Failed(domain.NXDOMAIN)},
		{"text case sensitive", domain.QueryTypeText, "VERSION", domain.Failed(domain.NXDOMAIN)},
		{"unknown type", domain.QueryType(2), "a.example", domain.Failed(domain.FORMERR)},
		{"type zero", domain.QueryType(0), "a.example", domain.Failed(domain.FORMERR)},
		{"type max", domain.QueryType(0xFFFF), "a.example", domain.Failed(domain.FORMERR)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Resolve(tt.qtype, tt.value))
		})
	}
}

func TestResolver_AddressReverseRoundTrip(t *testing.T) {
	z := testZone()
	r := NewResolver(ResolverOptions{Zone: z})

	for _, e := range z.Entries() {
		addr := r.Resolve(domain.QueryTypeAddress, e.Name)
		require.Equal(t, domain.NOERROR, addr.RCode)
		assert.Equal(t, e.Address, addr.Payload)

		name := r.Resolve(domain.QueryTypeReverse, addr.Payload)
		require.Equal(t, domain.NOERROR, name.RCode)
		back := r.Resolve(domain.QueryTypeAddress, name.Payload)
		assert.Equal(t, e.Address, back.Payload)
	}
}

func TestResolver_CustomVersion(t *testing.T) {
	r := NewResolver(ResolverOptions{Zone: testZone(), Version: "adns test"})
	assert.Equal(t, domain.Found("adns test"), r.Resolve(domain.QueryTypeText, "version"))
}

func TestResolver_HandleQuery(t *testing.T) {
	logger := &MockLogger{}
	logger.On("Debug", mock.MatchedBy(func(f map[string]any) bool {
		return f["id"] == "0x00000321" && f["client"] == "127.0.0.1:5000" && f["rcode"] == "NOERROR"
	}), "Resolved query").Once()

	r := NewResolver(ResolverOptions{Zone: testZone(), Logger: logger})
	client := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 5000}

	resp, err := r.HandleQuery(context.Background(), domain.Query{ID: 801, Type: domain.QueryTypeAddress, Value: "a.example"}, client)
	require.NoError(t, err)
	assert.Equal(t, domain.Response{ID: 801, RCode: domain.NOERROR, Payload: "10.0.0.1"}, resp)
	logger.AssertExpectations(t)
}

func TestResolver_HandleQuery_ErrorsCarryNoPayload(t *testing.T) {
	r := NewResolver(ResolverOptions{Zone: testZone()})

	resp, err := r.HandleQuery(context.Background(), domain.Query{ID: 7, Type: 99, Value: "a.example"}, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.NewErrorResponse(7, domain.FORMERR), resp)
	assert.NoError(t, resp.Validate())

	resp, err = r.HandleQuery(context.Background(), domain.Query{ID: 8, Type: domain.QueryTypeAddress, Value: "nope"}, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.NewErrorResponse(8, domain.NXDOMAIN), resp)
}
