// Command healthcheck exits 0 when the portal on this host answers
// /api/health with 200 and 1 otherwise. It is meant for container
// HEALTHCHECK directives in images without a shell or curl.
package main

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"
)

const (
	defaultAddr  = "127.0.0.1:8080"
	healthPath   = "/api/health"
	probeTimeout = 2 * time.Second
)

func main() {
	if err := check(); err != nil {
		os.Exit(1)
	}
}

func check() error {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	return probe(ctx, http.DefaultClient, healthURL(os.Getenv("PORTAL_LISTEN_ADDR")))
}

// probe GETs target and fails unless the answer is 200.
func probe(ctx context.Context, client *http.Client, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &statusError{code: resp.StatusCode}
	}
	return nil
}

type statusError struct{ code int }

func (e *statusError) Error() string { return "health endpoint answered " + http.StatusText(e.code) }

// healthURL turns the server's listen address into a URL the probe can dial.
// Wildcard and empty hosts become loopback; unparsable input falls back to
// the default listen address.
func healthURL(listenAddr string) string {
	host, port, err := net.SplitHostPort(listenAddr)
	if err != nil {
		host, port, _ = net.SplitHostPort(defaultAddr)
	}

	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}

	u := url.URL{Scheme: "http", Host: net.JoinHostPort(host, port), Path: healthPath}
	return u.String()
}
