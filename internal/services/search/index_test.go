package search

import (
	"context"
	"testing"

	"StockPulse/internal/domain/models"
)

func testSnapshot() models.Snapshot {
	return models.Snapshot{Quotes: []models.Quote{
		{Code: "600519", Name: "贵州茅台"},
		{Code: "000858", Name: "五粮液"},
		{Code: "600036", Name: "招商银行"},
		{Code: "600600", Name: "青岛啤酒"},
	}}
}

func TestInitials(t *testing.T) {
	tests := map[string]string{
		"贵州茅台":   "gzmt",
		"五粮液":    "wly",
		"*ST康美":  "stkm",
		"TCL科技":  "tclkj",
	}
	for in, want := range tests {
		if got := Initials(in); got != want {
			t.Errorf("Initials(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSearch(t *testing.T) {
	ix := New(nil)
	defer ix.Close()

	if hits, err := ix.Search("gzmt", 5); err != nil || len(hits) != 0 {
		t.Fatalf("empty index should return nothing: %v %v", hits, err)
	}

	ix.OnSnapshot(context.Background(), testSnapshot())
	if ix.Len() != 4 {
		t.Fatalf("len = %d", ix.Len())
	}

	first := func(q string) string {
		t.Helper()
		hits, err := ix.Search(q, 5)
		if err != nil {
			t.Fatalf("search %q: %v", q, err)
		}
		if len(hits) == 0 {
			t.Fatalf("search %q: no hits", q)
		}
		return hits[0].Code
	}

	if got := first("gzmt"); got != "600519" {
		t.Fatalf("gzmt -> %s", got)
	}
	if got := first("GZ"); got != "600519" {
		t.Fatalf("GZ -> %s", got)
	}
	if got := first("000858"); got != "000858" {
		t.Fatalf("exact code -> %s", got)
	}
	if got := first("茅台"); got != "600519" {
		t.Fatalf("name -> %s", got)
	}
	if got := first("银行"); got != "600036" {
		t.Fatalf("name -> %s", got)
	}

	hits, _ := ix.Search("6006", 5)
	if len(hits) != 1 || hits[0].Name != "青岛啤酒" || hits[0].Initials != "qdpj" {
		t.Fatalf("code prefix hits = %+v", hits)
	}
}

func TestOnSnapshot_SkipsUnchanged(t *testing.T) {
	ix := New(nil)
	defer ix.Close()

	ix.OnSnapshot(context.Background(), testSnapshot())
	ix.mu.RLock()
	before := ix.idx
	ix.mu.RUnlock()

	ix.OnSnapshot(context.Background(), testSnapshot())
	ix.mu.RLock()
	same := ix.idx == before
	ix.mu.RUnlock()
	if !same {
		t.Fatal("identical snapshot should not rebuild")
	}

	snap := testSnapshot()
	snap.Quotes = append(snap.Quotes, models.Quote{Code: "300750", Name: "宁德时代"})
	ix.OnSnapshot(context.Background(), snap)
	if ix.Len() != 5 {
		t.Fatalf("len after change = %d", ix.Len())
	}
}
