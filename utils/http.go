package utils

import (
	"net/http"
	"time"
)

// Doer is the minimal HTTP client interface used by fetchers and resolvers.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewHTTPClient returns an http.Client with the given timeout in seconds.
func NewHTTPClient(timeoutSec int) *http.Client {
	return &http.Client{Timeout: time.Duration(timeoutSec) * time.Second}
}
