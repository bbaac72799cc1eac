package main

import (
	"net"
	"net/http"
	"time"
)

// newHTTPClient returns a client whose timeout leaves room for long polls.
func newHTTPClient(pollTimeout time.Duration) *http.Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:        20,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &http.Client{Transport: tr, Timeout: pollTimeout + 15*time.Second}
}
