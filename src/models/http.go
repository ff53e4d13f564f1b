package models

import "net/http"

// MHTTPRequest describes one outbound backend call.
type MHTTPRequest struct {
	Method      string
	URL         string
	Query       map[string]string
	Body        []byte
	ContentType string
	BearerToken string
}

// MHTTPResponse is a completed backend call, whatever its status.
type MHTTPResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *MHTTPResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
