package logger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type capturePublisher struct {
	mu      sync.Mutex
	topic   string
	batches []*Batch
}

func (p *capturePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic = topic
	p.batches = append(p.batches, payload.(*Batch))
	return nil
}

func (p *capturePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.batches)
}

func TestCollectorAggregatesRepeatedErrors(t *testing.T) {
	pub := &capturePublisher{}
	l := Nop()
	l.AddCollector(&CollectionConfig{
		Service:        "stockpulse",
		TimeInterval:   time.Hour,
		CountThreshold: 100,
		Topic:          "logs",
		Publisher:      pub,
	})

	for i := 0; i < 5; i++ {
		l.Error("refresh failed", String("kind", "transport"))
	}
	l.Error("other failure", Error(errors.New("boom")))
	l.Warn("not collected")

	if got := l.collector.Pending(); got != 2 {
		t.Fatalf("expected 2 unique entries, got %d", got)
	}

	// Close flushes synchronously.
	l.RemoveCollector()

	if pub.count() != 1 {
		t.Fatalf("expected one batch, got %d", pub.count())
	}
	b := pub.batches[0]
	if pub.topic != "logs" || b.Service != "stockpulse" {
		t.Fatalf("unexpected batch meta: %s %s", pub.topic, b.Service)
	}
	if len(b.Entries) != 2 || b.Entries[0].Count != 5 || b.Entries[0].Message != "refresh failed" {
		t.Fatalf("unexpected entries: %+v", b.Entries)
	}
}

func TestCollectorFlushesAtThreshold(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 2, Publisher: pub})
	defer c.Close()

	c.AddLog("error", "a", nil, "x.go:1")
	c.AddLog("error", "b", nil, "x.go:2")

	deadline := time.Now().Add(time.Second)
	for pub.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if pub.count() != 1 {
		t.Fatalf("expected threshold flush")
	}
	if c.Pending() != 0 {
		t.Fatalf("expected empty map after flush")
	}
}
