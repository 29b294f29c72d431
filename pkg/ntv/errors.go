package ntv

import "strconv"

// APIError is returned for everything that goes wrong between issuing a
// request to the NTV API and having a normalized record in hand: network
// failures, non-2xx responses, bodies that aren't valid JSON and responses
// that lack structurally required fields.
// Optional fields missing from a response do *not* produce an APIError.
type APIError struct {
	Message string
	// Status is the HTTP status code, if the error was caused by a non-2xx response. 0 otherwise.
	Status int
	Err    error
}

func (e *APIError) Error() string {
	msg := e.Message
	if e.Status != 0 {
		msg += " (HTTP status " + strconv.Itoa(e.Status) + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *APIError) Unwrap() error {
	return e.Err
}
