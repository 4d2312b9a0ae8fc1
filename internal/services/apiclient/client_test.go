package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func TestGetJSONSendsHeadersAndParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer abc" {
			t.Errorf("Expected bearer header, got %q", got)
		}
		if got := r.URL.Query().Get("q"); got != "pushpa" {
			t.Errorf("Expected q=pushpa, got %q", got)
		}
		w.Write([]byte(`{"name":"ok"}`))
	}))
	defer server.Close()

	client := New(5*time.Second, 0, 0)
	client.SetHeader("Authorization", "Bearer abc")

	var out struct {
		Name string `json:"name"`
	}
	if err := client.GetJSON(context.Background(), server.URL, url.Values{"q": {"pushpa"}}, &out); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if out.Name != "ok" {
		t.Errorf("Expected name 'ok', got %q", out.Name)
	}
}

func TestGetClassifiesFailures(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorKind
	}{
		{http.StatusTooManyRequests, KindRateLimited},
		{http.StatusUnauthorized, KindForbidden},
		{http.StatusNotFound, KindNotFound},
		{http.StatusBadGateway, KindUpstream},
		{http.StatusTeapot, KindUnexpected},
	}

	for _, tt := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			w.Write([]byte("nope"))
		}))

		_, err := New(5*time.Second, 0, 0).Get(context.Background(), server.URL, nil)
		server.Close()

		var reqErr *RequestError
		if !errors.As(err, &reqErr) {
			t.Fatalf("Status %d: expected RequestError, got %v", tt.status, err)
		}
		if reqErr.Kind != tt.want {
			t.Errorf("Status %d: expected kind %s, got %s", tt.status, tt.want, reqErr.Kind)
		}
		if reqErr.Body != "nope" {
			t.Errorf("Status %d: expected body to be kept, got %q", tt.status, reqErr.Body)
		}
	}
}

func TestGetJSONDecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	var out map[string]interface{}
	err := New(5*time.Second, 0, 0).GetJSON(context.Background(), server.URL, nil, &out)

	var reqErr *RequestError
	if !errors.As(err, &reqErr) || reqErr.Kind != KindDecode {
		t.Errorf("Expected decode error, got %v", err)
	}
}
