package mobileapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"fitbook/internal/logging"
)

// loggingTransport tags each outgoing request with an X-Request-ID and logs
// its outcome. A nil base resolves to http.DefaultTransport at call time.
type loggingTransport struct {
	base   http.RoundTripper
	logger *logging.Logger
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	requestID := req.Header.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.New().String()
		req = req.Clone(req.Context())
		req.Header.Set("X-Request-ID", requestID)
	}

	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	resp, err := base.RoundTrip(req)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	t.logger.HTTPRequest(requestID, req.Method, req.URL.Path, status, time.Since(start), err)

	return resp, err
}
