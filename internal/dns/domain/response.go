package domain

import "fmt"

// Result is the outcome of resolving a query. Payload is empty unless RCode is NOERROR.
type Result struct {
	RCode   RCode
	Payload string
}

// Found returns a NOERROR result carrying payload.
func Found(payload string) Result {
	return Result{RCode: NOERROR, Payload: payload}
}

// Failed returns a payload-less result with the given code.
func Failed(rcode RCode) Result {
	return Result{RCode: rcode}
}

// Response is a result addressed to the request with the same ID.
type Response struct {
	ID      uint32
	RCode   RCode
	Payload string
}

// NewResponse builds the Response for request id from a resolver Result.
func NewResponse(id uint32, res Result) Response {
	return Response{
		ID:      id,
		RCode:   res.RCode,
		Payload: res.Payload,
	}
}

// NewErrorResponse creates a Response with the specified ID and RCode and an empty payload.
func NewErrorResponse(id uint32, rcode RCode) Response {
	return Response{
		ID:    id,
		RCode: rcode,
	}
}

// Validate checks that the response is consistent: only NOERROR may carry a payload.
// Responses decoded from the network are not validated, since the client renders unknown codes.
func (resp Response) Validate() error {
	if !resp.RCode.IsValid() {
		return fmt.Errorf("invalid RCode: %d", resp.RCode)
	}
	if resp.RCode != NOERROR && resp.Payload != "" {
		return fmt.Errorf("%s response must not carry a payload", resp.RCode)
	}
	return nil
}

// IsError returns true if the response indicates an error condition.
func (resp Response) IsError() bool {
	return resp.RCode != NOERROR
}
