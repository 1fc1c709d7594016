package http1

import "github.com/HKHOP/Project-PixelDust-sub000/pkg/neterr"

// Status is a response status code in the range 100..599.
type Status uint16

// NewStatus validates code.
func NewStatus(code int) (Status, error) {
	if code < 100 || code > 599 {
		return 0, neterr.Newf("net.http.status_invalid", "status code must be 100-599, got %d", code)
	}

	return Status(code), nil
}

// Code returns the numeric status.
func (s Status) Code() int { return int(s) }

// IsSuccess reports a 2xx status.
func (s Status) IsSuccess() bool { return s >= 200 && s <= 299 }

// IsRedirect reports 301, 302, 303, 307 or 308.
func (s Status) IsRedirect() bool {
	switch s {
	case 301, 302, 303, 307, 308:
		return true
	}

	return false
}

// AllowsBody is false for 1xx, 204 and 304.
func (s Status) AllowsBody() bool { return s >= 200 && s != 204 && s != 304 }
