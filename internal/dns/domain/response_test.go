package domain

import "testing"

func TestNewResponse(t *testing.T) {
	tests := []struct {
		name string
		id   uint32
		res  Result
		want Response
	}{
		{
			name: "found",
			id:   42,
			res:  Found("10.0.0.1"),
			want: Response{ID: 42, RCode: NOERROR, Payload: "10.0.0.1"},
		},
		{
			name: "not found",
			id:   43,
			res:  Failed(NXDOMAIN),
			want: Response{ID: 43, RCode: NXDOMAIN},
		},
		{
			name: "format error",
			id:   0xDEADBEEF,
			res:  Failed(FORMERR),
			want: Response{ID: 0xDEADBEEF, RCode: FORMERR},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewResponse(tt.id, tt.res)
			if got != tt.want {
				t.Errorf("NewResponse() = %+v, want %+v", got, tt.want)
			}
			if err := got.Validate(); err != nil {
				t.Errorf("Validate() error = %v", err)
			}
		})
	}
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse(9, FORMERR)
	if resp.ID != 9 || resp.RCode != FORMERR || resp.Payload != "" {
		t.Errorf("NewErrorResponse() = %+v", resp)
	}
	if !resp.IsError() {
		t.Errorf("IsError() = false, want true")
	}
}

func TestResponse_Validate(t *testing.T) {
	cases := []struct {
		name    string
		resp    Response
		wantErr bool
	}{
		{"ok with payload", Response{RCode: NOERROR, Payload: "x"}, false},
		{"ok without payload", Response{RCode: NOERROR}, false},
		{"nxdomain with payload", Response{RCode: NXDOMAIN, Payload: "x"}, true},
		{"unknown rcode", Response{RCode: 2}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.resp.Validate(); (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestResponse_IsError(t *testing.T) {
	if (Response{RCode: NOERROR}).IsError() {
		t.Errorf("NOERROR reported as error")
	}
	if !(Response{RCode: NXDOMAIN}).IsError() {
		t.Errorf("NXDOMAIN not reported as error")
	}
}
