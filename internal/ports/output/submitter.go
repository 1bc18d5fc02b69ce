package output

import (
	"context"
	"net/url"
)

// Form is a native form submission.
type Form struct {
	Action string
	Method string
	Fields url.Values
}

// Submitter sends forms to the server and discards the response.
type Submitter interface {
	Submit(ctx context.Context, form Form)
}
