package http1

import (
	"strconv"
	"strings"

	"github.com/enetx/g"

	"github.com/HKHOP/Project-PixelDust-sub000/header"
	"github.com/HKHOP/Project-PixelDust-sub000/pkg/neterr"
)

// contentLength returns the agreed Content-Length, if any header sets one.
func contentLength(headers header.Headers) (g.Option[int64], error) {
	length := g.None[int64]()

	for _, value := range headers.Values(header.CONTENT_LENGTH) {
		n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil || n < 0 {
			return length, neterr.Newf("net.http.content_length_invalid", "invalid Content-Length %q", value)
		}

		if length.IsSome() && length.Some() != n {
			return length, neterr.New("net.http.content_length_conflict", "conflicting Content-Length headers in response")
		}

		length = g.Some(n)
	}

	return length, nil
}
