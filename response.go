package pixeldust

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"

	"github.com/HKHOP/Project-PixelDust-sub000/header"
	"github.com/HKHOP/Project-PixelDust-sub000/pkg/http1"
)

// FetchedResponse is the terminal response of a navigation. Responses served
// from the cache are shared, so callers must treat every field as read-only.
type FetchedResponse struct {
	FinalURL    string
	Status      int
	Version     string
	Headers     header.Headers
	ContentType string
	Body        []byte
}

func newFetchedResponse(finalURL string, resp *http1.Response) *FetchedResponse {
	contentType := resp.Header(header.CONTENT_TYPE)
	if contentType == "" {
		contentType = _unknownContentType
	}

	return &FetchedResponse{
		FinalURL:    finalURL,
		Status:      resp.Status.Code(),
		Version:     resp.Version.String(),
		Headers:     resp.Headers,
		ContentType: contentType,
		Body:        resp.Body,
	}
}

// Header returns the first value of the named header, or "".
func (r *FetchedResponse) Header(name string) string { return r.Headers.Value(name) }

// IsSuccess reports a 2xx status.
func (r *FetchedResponse) IsSuccess() bool { return r.Status >= 200 && r.Status <= 299 }

// IsRedirect reports a redirect status that was returned without a Location.
func (r *FetchedResponse) IsRedirect() bool { return http1.Status(r.Status).IsRedirect() }

// IsHTML reports an HTML or XHTML content type.
func (r *FetchedResponse) IsHTML() bool {
	ct := strings.ToLower(r.ContentType)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml+xml")
}

// Text decodes the body to UTF-8 using the charset named by Content-Type, a
// byte order mark, or an HTML meta prescan. An undeclared body that is valid
// UTF-8 is returned as is; invalid sequences in UTF-8 bodies are replaced.
func (r *FetchedResponse) Text() string {
	enc, name, certain := charset.DetermineEncoding(r.Body, r.ContentType)

	switch {
	case name == "utf-8":
		return strings.ToValidUTF8(string(r.Body), "\uFFFD")
	case !certain && utf8.Valid(r.Body):
		return string(r.Body)
	}

	out, err := enc.NewDecoder().Bytes(r.Body)
	if err != nil {
		return strings.ToValidUTF8(string(r.Body), "\uFFFD")
	}

	return string(out)
}
