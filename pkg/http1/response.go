package http1

import "github.com/HKHOP/Project-PixelDust-sub000/header"

// Response is a fully read response with its body already decoded.
type Response struct {
	Version Version
	Status  Status
	Reason  string
	Headers header.Headers
	Body    []byte
}

// Header returns the first value of the named header, or "".
func (r *Response) Header(name string) string { return r.Headers.Value(name) }

// Result pairs a response with whether its connection may carry another
// request.
type Result struct {
	Response *Response
	Reusable bool
}
