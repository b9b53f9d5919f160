// Package search keeps an in-memory full-text index over instrument codes,
// names and the pinyin initials of names, rebuilt from each snapshot.
package search

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"StockPulse/internal/domain/models"
	drepo "StockPulse/internal/domain/repository"
	applogger "StockPulse/pkg/logger"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/lang/cjk"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/mozillazg/go-pinyin"
)

type document struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	NameKW   string `json:"name_kw"`
	Initials string `json:"initials"`
}

// Index is safe for concurrent Search while OnSnapshot swaps in a rebuilt index.
type Index struct {
	mu          sync.RWMutex
	idx         bleve.Index
	fingerprint [sha256.Size]byte
	docs        int

	log *applogger.Logger
}

var _ drepo.SnapshotListener = (*Index)(nil)

func New(l *applogger.Logger) *Index {
	if l == nil {
		l = applogger.Nop()
	}
	return &Index{log: l.With("search")}
}

func buildMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	doc := bleve.NewDocumentMapping()

	kw := bleve.NewKeywordFieldMapping()
	name := bleve.NewTextFieldMapping()
	name.Analyzer = cjk.AnalyzerName

	doc.AddFieldMappingsAt("code", kw)
	doc.AddFieldMappingsAt("initials", kw)
	doc.AddFieldMappingsAt("name_kw", kw)
	doc.AddFieldMappingsAt("name", name)

	im.DefaultMapping = doc
	return im
}

var pinyinArgs = func() pinyin.Args {
	a := pinyin.NewArgs()
	a.Style = pinyin.FirstLetter
	a.Fallback = func(r rune, _ pinyin.Args) []string {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return []string{strings.ToLower(string(r))}
		}
		return nil
	}
	return a
}()

// Initials returns the lowercase pinyin first letters of name; ASCII letters
// and digits pass through ("*ST康美" -> "stkm").
func Initials(name string) string {
	var b strings.Builder
	for _, syl := range pinyin.Pinyin(name, pinyinArgs) {
		if len(syl) > 0 {
			b.WriteString(syl[0])
		}
	}
	return b.String()
}

// OnSnapshot rebuilds the index when the code/name set changed.
func (ix *Index) OnSnapshot(_ context.Context, snap models.Snapshot) {
	fp := fingerprint(snap)
	ix.mu.RLock()
	same := ix.idx != nil && fp == ix.fingerprint
	ix.mu.RUnlock()
	if same {
		return
	}

	next, err := build(snap)
	if err != nil {
		ix.log.Error("search index build failed", applogger.Error(err))
		return
	}

	ix.mu.Lock()
	old := ix.idx
	ix.idx, ix.fingerprint, ix.docs = next, fp, snap.Len()
	if old != nil {
		_ = old.Close()
	}
	ix.mu.Unlock()

	ix.log.Debug("search index rebuilt", applogger.Int("docs", snap.Len()))
}

func build(snap models.Snapshot) (bleve.Index, error) {
	idx, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, fmt.Errorf("new index: %w", err)
	}
	batch := idx.NewBatch()
	for _, q := range snap.Quotes {
		doc := document{Code: q.Code, Name: q.Name, NameKW: q.Name, Initials: Initials(q.Name)}
		if err := batch.Index(q.Code, doc); err != nil {
			_ = idx.Close()
			return nil, fmt.Errorf("batch %s: %w", q.Code, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		_ = idx.Close()
		return nil, fmt.Errorf("batch: %w", err)
	}
	return idx, nil
}

func fingerprint(snap models.Snapshot) [sha256.Size]byte {
	h := sha256.New()
	for _, q := range snap.Quotes {
		h.Write([]byte(q.Code))
		h.Write([]byte{0})
		h.Write([]byte(q.Name))
		h.Write([]byte{0})
	}
	var out [sha256.Size]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Len reports the number of indexed instruments.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.docs
}

// Search matches q against code and initials by prefix and against the name.
// Exact code hits rank first.
func (ix *Index) Search(q string, limit int) ([]models.SearchHit, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []models.SearchHit{}, nil
	}
	if limit <= 0 {
		limit = 10
	}
	lower := strings.ToLower(q)

	exact := bleve.NewTermQuery(q)
	exact.SetField("code")
	exact.SetBoost(10)

	codePrefix := bleve.NewPrefixQuery(q)
	codePrefix.SetField("code")
	codePrefix.SetBoost(5)

	initials := bleve.NewPrefixQuery(lower)
	initials.SetField("initials")
	initials.SetBoost(4)

	name := bleve.NewMatchQuery(q)
	name.SetField("name")
	name.SetBoost(3)

	nameLike := bleve.NewWildcardQuery("*" + q + "*")
	nameLike.SetField("name_kw")
	nameLike.SetBoost(1.5)

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(exact, codePrefix, initials, name, nameLike))
	req.Fields = []string{"code", "name", "initials"}
	req.Size = limit

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.idx == nil {
		return []models.SearchHit{}, nil
	}

	res, err := ix.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", q, err)
	}

	hits := make([]models.SearchHit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hits = append(hits, models.SearchHit{
			Code:     fieldString(h.Fields, "code"),
			Name:     fieldString(h.Fields, "name"),
			Initials: fieldString(h.Fields, "initials"),
			Score:    h.Score,
		})
	}
	return hits, nil
}

// Close releases the current index.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.idx == nil {
		return nil
	}
	err := ix.idx.Close()
	ix.idx = nil
	return err
}

func fieldString(fields map[string]interface{}, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}
