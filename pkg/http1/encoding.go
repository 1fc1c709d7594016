package http1

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"

	"github.com/HKHOP/Project-PixelDust-sub000/header"
	"github.com/HKHOP/Project-PixelDust-sub000/internal/drainbody"
	"github.com/HKHOP/Project-PixelDust-sub000/pkg/neterr"
)

// _zstdMaxWindow caps the window a zstd frame may demand.
const _zstdMaxWindow = 8 << 20

var (
	// gzipReaderPool pools gzip.Reader instances.
	gzipReaderPool = sync.Pool{
		New: func() any {
			return new(gzip.Reader)
		},
	}

	// brotliReaderPool pools brotli.Reader instances.
	brotliReaderPool = sync.Pool{
		New: func() any {
			return brotli.NewReader(nil)
		},
	}

	// flateReaderPool pools raw DEFLATE readers.
	flateReaderPool = sync.Pool{
		New: func() any {
			return flate.NewReader(nil)
		},
	}

	// zstdReaderPool pools single-goroutine zstd stream decoders.
	zstdReaderPool = sync.Pool{
		New: func() any {
			dec, _ := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1), zstd.WithDecoderMaxWindow(_zstdMaxWindow))
			return dec
		},
	}
)

// ContentEncodings lists the Content-Encoding tokens of headers in the
// order they were applied, lowercased.
func ContentEncodings(headers header.Headers) []string {
	var encodings []string

	for _, value := range headers.Values(header.CONTENT_ENCODING) {
		for token := range strings.SplitSeq(value, ",") {
			if token = strings.ToLower(strings.TrimSpace(token)); token != "" {
				encodings = append(encodings, token)
			}
		}
	}

	return encodings
}

// Decode undoes every content coding listed in headers, last applied first.
// A positive limit bounds each decoded stage.
func Decode(headers header.Headers, body []byte, limit int64) ([]byte, error) {
	encodings := ContentEncodings(headers)

	for _, encoding := range encodings {
		if _, ok := decoders[encoding]; !ok {
			return nil, neterr.Newf("net.http.content_encoding_unsupported", "unsupported content encoding %q", encoding)
		}
	}

	if len(body) == 0 {
		return body, nil
	}

	for i := len(encodings) - 1; i >= 0; i-- {
		decode := decoders[encodings[i]]
		if decode == nil {
			continue
		}

		var err error
		if body, err = decode(body, limit); err != nil {
			return nil, decodeError(encodings[i], err)
		}
	}

	return body, nil
}

// decoders maps each supported content coding to its decoder; identity
// needs none.
var decoders = map[string]func([]byte, int64) ([]byte, error){
	"identity": nil,
	"gzip":     decodeGzip,
	"x-gzip":   decodeGzip,
	"deflate":  decodeDeflate,
	"br":       decodeBrotli,
	"zstd":     decodeZstd,
}

func decodeError(encoding string, err error) error {
	if errors.Is(err, drainbody.ErrTooLarge) {
		return neterr.Wrap("net.http.body_too_large", "decoded body exceeds the configured limit", err)
	}

	return neterr.Wrap("net.http.decode_failed", "failed to decode "+encoding+" body", err)
}

func decodeGzip(body []byte, limit int64) ([]byte, error) {
	gr := gzipReaderPool.Get().(*gzip.Reader)
	defer gzipReaderPool.Put(gr)

	if err := gr.Reset(bytes.NewReader(body)); err != nil {
		return nil, err
	}
	defer gr.Close()

	return drainbody.Drain(nil, gr, limit)
}

func decodeDeflate(body []byte, limit int64) ([]byte, error) {
	// servers disagree on whether "deflate" carries the zlib wrapper
	if zr, err := zlib.NewReader(bytes.NewReader(body)); err == nil {
		out, err := drainbody.Drain(nil, zr, limit)
		zr.Close()

		if err == nil || errors.Is(err, drainbody.ErrTooLarge) {
			return out, err
		}
	}

	fr := flateReaderPool.Get().(io.ReadCloser)
	defer flateReaderPool.Put(fr)

	if err := fr.(flate.Resetter).Reset(bytes.NewReader(body), nil); err != nil {
		return nil, err
	}

	return drainbody.Drain(nil, fr, limit)
}

func decodeBrotli(body []byte, limit int64) ([]byte, error) {
	br := brotliReaderPool.Get().(*brotli.Reader)
	defer brotliReaderPool.Put(br)

	if err := br.Reset(bytes.NewReader(body)); err != nil {
		return nil, err
	}

	return drainbody.Drain(nil, br, limit)
}

func decodeZstd(body []byte, limit int64) ([]byte, error) {
	dec := zstdReaderPool.Get().(*zstd.Decoder)
	defer zstdReaderPool.Put(dec)

	if err := dec.Reset(bytes.NewReader(body)); err != nil {
		return nil, err
	}

	out, err := drainbody.Drain(nil, dec, limit)

	// release the source so the pooled decoder does not pin body
	_ = dec.Reset(nil)

	return out, err
}
