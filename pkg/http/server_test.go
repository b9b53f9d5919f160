package http

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

type routeFunc func(e *echo.Echo)

func (f routeFunc) RegisterRoutes(e *echo.Echo) { f(e) }

func whoami(e *echo.Echo) {
	e.GET("/whoami", func(c echo.Context) error { return c.String(http.StatusOK, ClientKey(c)) })
}

func clientKeyFor(t *testing.T, s *Server, remote, xff string) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.RemoteAddr = remote
	if xff != "" {
		req.Header.Set(echo.HeaderXForwardedFor, xff)
	}
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	return rec.Body.String()
}

func TestServer_ClientKeyIgnoresForwardedFor(t *testing.T) {
	s := NewServer(routeFunc(whoami), WithMetricsPath(""))
	for _, xff := range []string{"198.51.100.1", "198.51.100.2, 10.0.0.1"} {
		if got := clientKeyFor(t, s, "203.0.113.7:41000", xff); got != "203.0.113.7" {
			t.Fatalf("xff %q: key = %q, want peer address", xff, got)
		}
	}
}

func TestServer_ClientKeyFromTrustedProxy(t *testing.T) {
	s := NewServer(routeFunc(whoami), WithMetricsPath(""), WithTrustedProxies([]string{"203.0.113.7", "bogus"}))
	if got := clientKeyFor(t, s, "203.0.113.7:41000", "198.51.100.9"); got != "198.51.100.9" {
		t.Fatalf("trusted proxy: key = %q", got)
	}
	if got := clientKeyFor(t, s, "192.0.2.50:41000", "198.51.100.9"); got != "192.0.2.50" {
		t.Fatalf("untrusted peer: key = %q", got)
	}
}

func TestServer_StartReturnsBindError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	s := NewServer(nil, WithHost("127.0.0.1"), WithPort(port), WithMetricsPath(""))
	if err := s.Start(); err == nil {
		t.Fatal("start on a taken port should fail")
	}
}

func TestServer_StartServes(t *testing.T) {
	s := NewServer(routeFunc(whoami), WithHost("127.0.0.1"), WithPort(0), WithMetricsPath(""))
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Stop(ctx)
	}()

	addr := s.Addr()
	if _, port, _ := net.SplitHostPort(addr); port == "" || port == strconv.Itoa(0) {
		t.Fatalf("addr = %q", addr)
	}
	resp, err := http.Get("http://" + addr + "/whoami")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}
