package pipeline

import "net/textproto"

// Known request header indices.
const (
	HeaderCacheControl       = 0
	HeaderConnection         = 1
	HeaderDate               = 2
	HeaderKeepAlive          = 3
	HeaderPragma             = 4
	HeaderTrailer            = 5
	HeaderTransferEncoding   = 6
	HeaderUpgrade            = 7
	HeaderVia                = 8
	HeaderWarning            = 9
	HeaderAllow              = 10
	HeaderContentLength      = 11
	HeaderContentType        = 12
	HeaderContentEncoding    = 13
	HeaderContentLanguage    = 14
	HeaderContentLocation    = 15
	HeaderContentMd5         = 16
	HeaderContentRange       = 17
	HeaderExpires            = 18
	HeaderLastModified       = 19
	HeaderAccept             = 20
	HeaderAcceptCharset      = 21
	HeaderAcceptEncoding     = 22
	HeaderAcceptLanguage     = 23
	HeaderAuthorization      = 24
	HeaderCookie             = 25
	HeaderExpect             = 26
	HeaderFrom               = 27
	HeaderHost               = 28
	HeaderIfMatch            = 29
	HeaderIfModifiedSince    = 30
	HeaderIfNoneMatch        = 31
	HeaderIfRange            = 32
	HeaderIfUnmodifiedSince  = 33
	HeaderMaxForwards        = 34
	HeaderProxyAuthorization = 35
	HeaderReferer            = 36
	HeaderRange              = 37
	HeaderTe                 = 38
	HeaderUserAgent          = 39

	RequestHeaderMaximum = 40
)

// Known response header indices. Indices below 20 are shared with requests.
const (
	HeaderAcceptRanges      = 20
	HeaderAge               = 21
	HeaderEtag              = 22
	HeaderLocation          = 23
	HeaderProxyAuthenticate = 24
	HeaderRetryAfter        = 25
	HeaderServer            = 26
	HeaderSetCookie         = 27
	HeaderVary              = 28
	HeaderWwwAuthenticate   = 29

	ResponseHeaderMaximum = 30
)

var requestHeaderNames = [RequestHeaderMaximum]string{
	"Cache-Control", "Connection", "Date", "Keep-Alive", "Pragma",
	"Trailer", "Transfer-Encoding", "Upgrade", "Via", "Warning",
	"Allow", "Content-Length", "Content-Type", "Content-Encoding", "Content-Language",
	"Content-Location", "Content-MD5", "Content-Range", "Expires", "Last-Modified",
	"Accept", "Accept-Charset", "Accept-Encoding", "Accept-Language", "Authorization",
	"Cookie", "Expect", "From", "Host", "If-Match",
	"If-Modified-Since", "If-None-Match", "If-Range", "If-Unmodified-Since", "Max-Forwards",
	"Proxy-Authorization", "Referer", "Range", "TE", "User-Agent",
}

var responseHeaderNames = [ResponseHeaderMaximum]string{
	"Cache-Control", "Connection", "Date", "Keep-Alive", "Pragma",
	"Trailer", "Transfer-Encoding", "Upgrade", "Via", "Warning",
	"Allow", "Content-Length", "Content-Type", "Content-Encoding", "Content-Language",
	"Content-Location", "Content-MD5", "Content-Range", "Expires", "Last-Modified",
	"Accept-Ranges", "Age", "ETag", "Location", "Proxy-Authenticate",
	"Retry-After", "Server", "Set-Cookie", "Vary", "WWW-Authenticate",
}

var requestHeaderIndex = indexOf(requestHeaderNames[:])

func indexOf(names []string) map[string]int {
	m := make(map[string]int, len(names))
	for i, name := range names {
		m[textproto.CanonicalMIMEHeaderKey(name)] = i
	}
	return m
}

// KnownRequestHeaderName returns the name of a known request header, or ""
// when index is out of range.
func KnownRequestHeaderName(index int) string {
	if index < 0 || index >= RequestHeaderMaximum {
		return ""
	}
	return requestHeaderNames[index]
}

// KnownRequestHeaderIndex returns the index of a known request header, or -1.
// The lookup ignores case.
func KnownRequestHeaderIndex(name string) int {
	if i, ok := requestHeaderIndex[textproto.CanonicalMIMEHeaderKey(name)]; ok {
		return i
	}
	return -1
}

// KnownResponseHeaderName returns the name of a known response header, or ""
// when index is out of range.
func KnownResponseHeaderName(index int) string {
	if index < 0 || index >= ResponseHeaderMaximum {
		return ""
	}
	return responseHeaderNames[index]
}
