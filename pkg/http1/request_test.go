package http1_test

import (
	"bufio"
	"bytes"
	"errors"
	"testing"

	"github.com/HKHOP/Project-PixelDust-sub000/header"
	"github.com/HKHOP/Project-PixelDust-sub000/pkg/browserurl"
	"github.com/HKHOP/Project-PixelDust-sub000/pkg/http1"
	"github.com/HKHOP/Project-PixelDust-sub000/pkg/neterr"
)

func mustURL(t *testing.T, raw string) *browserurl.URL {
	t.Helper()

	u, err := browserurl.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}

	return u
}

func TestBuilderDefaults(t *testing.T) {
	t.Parallel()

	req, err := http1.NewBuilder(http1.POST, mustURL(t, "http://example.com:8080/submit?a=1")).
		Header(header.CONTENT_TYPE, "text/plain").
		Body([]byte("hello")).
		Build()
	if err != nil {
		t.Fatal(err)
	}

	if got := req.Header(header.HOST); got != "example.com:8080" {
		t.Errorf("Host = %q", got)
	}

	if got := req.Header(header.CONTENT_LENGTH); got != "5" {
		t.Errorf("Content-Length = %q", got)
	}

	if req.Target() != "/submit?a=1" {
		t.Errorf("Target = %q", req.Target())
	}

	if req.Version != http1.HTTP11 {
		t.Errorf("Version = %v", req.Version)
	}
}

func TestBuilderErrors(t *testing.T) {
	t.Parallel()

	u := mustURL(t, "https://example.com/")

	tests := []struct {
		name  string
		build func() (*http1.Request, error)
		code  string
	}{
		{"get body", func() (*http1.Request, error) {
			return http1.NewBuilder(http1.GET, u).Body([]byte("x")).Build()
		}, "net.http.body_disallowed"},
		{"head body", func() (*http1.Request, error) {
			return http1.NewBuilder(http1.HEAD, u).Body([]byte("x")).Build()
		}, "net.http.body_disallowed"},
		{"two hosts", func() (*http1.Request, error) {
			return http1.NewBuilder(http1.GET, u).Header("Host", "a").Header("host", "b").Build()
		}, "net.http.duplicate_header"},
		{"two lengths", func() (*http1.Request, error) {
			return http1.NewBuilder(http1.POST, u).Header("Content-Length", "1").Header("Content-Length", "1").Build()
		}, "net.http.duplicate_header"},
		{"bad name", func() (*http1.Request, error) {
			return http1.NewBuilder(http1.GET, u).Header("Bad Name", "x").Build()
		}, "net.http.header_name_invalid"},
		{"bad value", func() (*http1.Request, error) {
			return http1.NewBuilder(http1.GET, u).Header("X", "a\r\nb").Build()
		}, "net.http.header_value_invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := tt.build(); !neterr.HasCode(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestRequestReplace(t *testing.T) {
	t.Parallel()

	req, err := http1.NewBuilder(http1.GET, mustURL(t, "http://example.com/")).
		Header(header.COOKIE, "a=1").
		Header(header.COOKIE, "b=2").
		Build()
	if err != nil {
		t.Fatal(err)
	}

	next, err := req.Replace(header.COOKIE, "c=3")
	if err != nil {
		t.Fatal(err)
	}

	if got := next.Headers.Values(header.COOKIE); len(got) != 1 || got[0] != "c=3" {
		t.Errorf("Cookie = %v", got)
	}

	if req.Headers.Count(header.COOKIE) != 2 {
		t.Error("Replace must not modify the original request")
	}
}

func TestWrite(t *testing.T) {
	t.Parallel()

	req, err := http1.NewBuilder(http1.POST, mustURL(t, "http://example.com/form")).
		Header(header.USER_AGENT, "pd").
		Body([]byte("k=v")).
		Build()
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)

	if err := http1.Write(w, req); err != nil {
		t.Fatal(err)
	}

	want := "POST /form HTTP/1.1\r\nUser-Agent: pd\r\nHost: example.com\r\nContent-Length: 3\r\n\r\nk=v"
	if buf.String() != want {
		t.Errorf("wire = %q\nwant   %q", buf.String(), want)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestWriteFailure(t *testing.T) {
	t.Parallel()

	req, err := http1.NewBuilder(http1.GET, mustURL(t, "http://example.com/")).Build()
	if err != nil {
		t.Fatal(err)
	}

	if err := http1.Write(failingWriter{}, req); !neterr.HasCode(err, "net.http.write_failed") {
		t.Errorf("err = %v", err)
	}
}

func TestStatus(t *testing.T) {
	t.Parallel()

	if _, err := http1.NewStatus(99); !neterr.HasCode(err, "net.http.status_invalid") {
		t.Errorf("99: err = %v", err)
	}

	if _, err := http1.NewStatus(600); !neterr.HasCode(err, "net.http.status_invalid") {
		t.Errorf("600: err = %v", err)
	}

	for _, code := range []int{301, 302, 303, 307, 308} {
		s, _ := http1.NewStatus(code)
		if !s.IsRedirect() {
			t.Errorf("%d should be a redirect", code)
		}
	}

	for _, code := range []int{100, 204, 304} {
		s, _ := http1.NewStatus(code)
		if s.AllowsBody() {
			t.Errorf("%d must not allow a body", code)
		}
	}

	s, _ := http1.NewStatus(200)
	if !s.IsSuccess() || !s.AllowsBody() || s.IsRedirect() {
		t.Error("200 classification is wrong")
	}
}
