package header_test

import (
	"testing"

	"github.com/HKHOP/Project-PixelDust-sub000/header"
	"github.com/HKHOP/Project-PixelDust-sub000/pkg/neterr"
)

func TestNewValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		hname string
		value string
		code  string
	}{
		{"valid", "X-Trace", "abc", ""},
		{"empty name", "", "abc", "net.http.header_name_invalid"},
		{"space in name", "Bad Name", "abc", "net.http.header_name_invalid"},
		{"colon in name", "Bad:Name", "abc", "net.http.header_name_invalid"},
		{"CR in value", "X-A", "a\rb", "net.http.header_value_invalid"},
		{"LF in value", "X-A", "a\nb", "net.http.header_value_invalid"},
		{"NUL in value", "X-A", "a\x00b", "net.http.header_value_invalid"},
		{"empty value", "X-A", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h, err := header.New(tt.hname, tt.value)
			if tt.code == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if h.Name != tt.hname || h.Value != tt.value {
					t.Errorf("got %+v", h)
				}
				return
			}

			if neterr.CodeOf(err) != tt.code {
				t.Errorf("expected %s, got %v", tt.code, err)
			}
		})
	}
}

func TestHeadersLookup(t *testing.T) {
	t.Parallel()

	hs := header.Headers{
		{Name: "Content-Type", Value: "text/html"},
		{Name: "set-cookie", Value: "a=1"},
		{Name: "Set-Cookie", Value: "b=2"},
		{Name: "Connection", Value: "Keep-Alive, Upgrade"},
	}

	if got := hs.Value("content-type"); got != "text/html" {
		t.Errorf("Value = %q", got)
	}

	if hs.Get("etag").IsSome() {
		t.Error("expected no etag")
	}

	if got := hs.Values(header.SET_COOKIE); len(got) != 2 || got[0] != "a=1" || got[1] != "b=2" {
		t.Errorf("Values = %v", got)
	}

	if !hs.HasToken(header.CONNECTION, "keep-alive") {
		t.Error("expected keep-alive token")
	}

	if hs.HasToken(header.CONNECTION, "close") {
		t.Error("unexpected close token")
	}

	trimmed := hs.Del(header.SET_COOKIE)
	if trimmed.Has(header.SET_COOKIE) || len(trimmed) != 2 {
		t.Errorf("Del left %v", trimmed)
	}

	if len(hs) != 4 {
		t.Error("Del must not mutate the receiver")
	}
}
