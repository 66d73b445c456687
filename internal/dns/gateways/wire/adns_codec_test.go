package wire

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/adns/internal/dns/common/log"
	"github.com/haukened/adns/internal/dns/domain"
)

func TestAdnsCodec_EncodeQuery(t *testing.T) {
	codec := NewCodec(log.NewNoopLogger())

	tests := []struct {
		name    string
		query   domain.Query
		want    []byte
		wantErr error
	}{
		{
			name:  "address query",
			query: domain.Query{ID: 801, Type: domain.QueryTypeAddress, Value: "a.example"},
			want:  rawMessage(801, 1, 9, []byte("a.example")),
		},
		{
			name:  "reverse query",
			query: domain.Query{ID: 1, Type: domain.QueryTypeReverse, Value: "10.0.0.1"},
			want:  rawMessage(1, 12, 8, []byte("10.0.0.1")),
		},
		{
			name:  "unknown type is still encoded",
			query: domain.Query{ID: 1, Type: 99, Value: "x"},
			want:  rawMessage(1, 99, 1, []byte("x")),
		},
		{
			name:    "value too long",
			query:   domain.Query{ID: 1, Type: domain.QueryTypeAddress, Value: strings.Repeat("a", 254)},
			wantErr: ErrBodyTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := codec.EncodeQuery(tt.query)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAdnsCodec_DecodeQuery(t *testing.T) {
	codec := NewCodec(log.NewNoopLogger())

	q, err := codec.DecodeQuery(Header{ID: 77, Code: 16, BodyLen: 7}, []byte("version"))
	require.NoError(t, err)
	assert.Equal(t, domain.Query{ID: 77, Type: domain.QueryTypeText, Value: "version"}, q)

	q, err = codec.DecodeQuery(Header{ID: 78, Code: 5, BodyLen: 1}, []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, domain.QueryType(5), q.Type)

	_, err = codec.DecodeQuery(Header{ID: 79, Code: 1, BodyLen: 2}, []byte{0xc3, 0x28})
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestAdnsCodec_EncodeResponse(t *testing.T) {
	codec := NewCodec(log.NewNoopLogger())

	got := codec.EncodeResponse(domain.NewResponse(801, domain.Found("10.0.0.1")))
	assert.Equal(t, rawMessage(801, 0, 8, []byte("10.0.0.1")), got)

	got = codec.EncodeResponse(domain.NewErrorResponse(802, domain.NXDOMAIN))
	assert.Equal(t, rawMessage(802, 3, 0, nil), got)

	assert.Panics(t, func() {
		codec.EncodeResponse(domain.Response{ID: 1, Payload: strings.Repeat("a", 300)})
	})
}

func TestAdnsCodec_DecodeResponse(t *testing.T) {
	codec := NewCodec(log.NewNoopLogger())

	resp, err := codec.DecodeResponse(Header{ID: 5, Code: 0, BodyLen: 9}, []byte("a.example"))
	require.NoError(t, err)
	assert.Equal(t, domain.Response{ID: 5, RCode: domain.NOERROR, Payload: "a.example"}, resp)

	resp, err = codec.DecodeResponse(Header{ID: 6, Code: 42}, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.RCode(42), resp.RCode)
	assert.Empty(t, resp.Payload)

	_, err = codec.DecodeResponse(Header{ID: 7, BodyLen: 1}, []byte{0xff})
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestAdnsCodec_RoundTripOverStream(t *testing.T) {
	codec := NewCodec(log.NewNoopLogger())

	req, err := codec.EncodeQuery(domain.Query{ID: 0xCAFEBABE, Type: domain.QueryTypeReverse, Value: "10.0.0.1"})
	require.NoError(t, err)

	h, body, err := ReadFrame(bytes.NewReader(req))
	require.NoError(t, err)
	q, err := codec.DecodeQuery(h, body)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xCAFEBABE), q.ID)
	assert.Equal(t, "10.0.0.1", q.Value)

	reply := codec.EncodeResponse(domain.NewResponse(q.ID, domain.Found("a.example")))
	h, body, err = ParseReplyDatagram(reply)
	require.NoError(t, err)
	resp, err := codec.DecodeResponse(h, body)
	require.NoError(t, err)
	assert.Equal(t, domain.Response{ID: 0xCAFEBABE, RCode: domain.NOERROR, Payload: "a.example"}, resp)
}
