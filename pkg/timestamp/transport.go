package timestamp

import "context"

// RequestContentType and ResponseContentType are the two MIME types
// spec §4.8 requires for the TSA exchange.
const (
	RequestContentType  = "application/timestamp-query"
	ResponseContentType = "application/timestamp-reply"
)

// Transport is the out-of-scope HTTP collaborator spec.md §1 describes:
// "an HTTP transport that issues a POST with a content type and body
// and returns a status and body". internal/transport provides the
// concrete net/http implementation; tests provide fakes.
type Transport interface {
	Post(ctx context.Context, url, contentType string, body []byte) (status int, respBody []byte, respContentType string, err error)
}
