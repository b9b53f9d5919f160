package clickhouse

import (
	"net/url"
	"testing"
	"time"
)

func TestBuildDSN(t *testing.T) {
	cfg := defaultConfig()
	cfg.Host = "ch.local"
	cfg.Database = "stockpulse"
	cfg.Password = "p@ss"
	cfg.MaxExecTime = 30 * time.Second
	cfg.AsyncInsert = true

	u, err := url.Parse(buildDSN(cfg))
	if err != nil {
		t.Fatalf("parse dsn: %v", err)
	}
	if u.Scheme != "clickhouse" || u.Host != "ch.local:9000" || u.Path != "/stockpulse" {
		t.Fatalf("unexpected dsn %s", u)
	}
	if pw, _ := u.User.Password(); pw != "p@ss" {
		t.Fatalf("password not preserved: %q", pw)
	}
	q := u.Query()
	if q.Get("max_execution_time") != "30" || q.Get("async_insert") != "1" {
		t.Fatalf("unexpected query %v", q)
	}
	if q.Has("wait_for_async_insert") {
		t.Fatal("wait_for_async_insert should be absent")
	}
	if q.Get("dial_timeout") != "5s" {
		t.Fatalf("dial_timeout = %q", q.Get("dial_timeout"))
	}
}

func TestBuildDSN_HTTP(t *testing.T) {
	cfg := defaultConfig()
	cfg.Host = "localhost"
	cfg.Port = 8123
	cfg.UseHTTP = true

	u, _ := url.Parse(buildDSN(cfg))
	if u.Scheme != "http" || u.Port() != "8123" {
		t.Fatalf("unexpected http dsn %s", u)
	}
}
