package apiclient

import (
	"fmt"
	"net/http"
)

// ErrorKind classifies platform request failures for logging
type ErrorKind string

const (
	KindRateLimited ErrorKind = "rate_limited"
	KindForbidden   ErrorKind = "forbidden"
	KindNotFound    ErrorKind = "not_found"
	KindUpstream    ErrorKind = "upstream_failure"
	KindNetwork     ErrorKind = "network"
	KindDecode      ErrorKind = "decode_error"
	KindUnexpected  ErrorKind = "unexpected"
)

// RequestError is a classified failure of one platform API call
type RequestError struct {
	Kind       ErrorKind
	StatusCode int
	URL        string
	Body       string
	Cause      error
}

func (e *RequestError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: HTTP %d for %s: %s", e.Kind, e.StatusCode, e.URL, e.Body)
	}
	return fmt.Sprintf("%s: %v for %s", e.Kind, e.Cause, e.URL)
}

func (e *RequestError) Unwrap() error { return e.Cause }

func classifyStatus(status int, url, body string) *RequestError {
	kind := KindUnexpected
	switch {
	case status == http.StatusTooManyRequests:
		kind = KindRateLimited
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		kind = KindForbidden
	case status == http.StatusNotFound:
		kind = KindNotFound
	case status >= 500 && status <= 599:
		kind = KindUpstream
	}
	return &RequestError{Kind: kind, StatusCode: status, URL: url, Body: body}
}
