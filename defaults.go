package pixeldust

import "time"

// Default configuration constants for the fetcher.
const (
	// _userAgent is the browser signature sent on every request.
	_userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

	// _accept is the navigation Accept header.
	_accept = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"

	// _acceptLanguage is the default Accept-Language header.
	_acceptLanguage = "en-US,en;q=0.9"

	// _acceptEncoding lists the content codings advertised to servers.
	_acceptEncoding = "gzip, deflate, br"

	// _maxRedirects bounds redirect hops for a top-level navigation.
	_maxRedirects = 10

	// _maxSubresourceRedirects bounds redirect hops for stylesheets, scripts and images.
	_maxSubresourceRedirects = 5

	// _connectTimeout bounds connect, and each read and write on the stream.
	_connectTimeout = 10 * time.Second

	// _TCPKeepAlive is the keep-alive period for pooled TCP streams.
	_TCPKeepAlive = 15 * time.Second

	// _maxBodyBytes caps a decoded response body held in memory.
	_maxBodyBytes = 256 << 20

	// _unknownContentType is reported when a response has no Content-Type.
	_unknownContentType = "unknown"
)
