package models

import "strings"

// Requests for the HTTP endpoints. Threshold fields without a default tag
// are pre-filled from configuration before binding.

type ScreenRequest struct {
	MinFloatCap    float64 `query:"min_float_cap" json:"min_float_cap" validate:"gte=0"`
	MaxFloatCap    float64 `query:"max_float_cap" json:"max_float_cap" validate:"gte=0"`
	MinTurnover    float64 `query:"min_turnover" json:"min_turnover" validate:"gte=0"`
	MinChange      float64 `query:"min_change" json:"min_change" validate:"gte=-100,lte=100"`
	MaxChange      float64 `query:"max_change" json:"max_change" validate:"gte=-100,lte=100"`
	MinVolumeRatio float64 `query:"min_volume_ratio" json:"min_volume_ratio" validate:"gte=0"`
	ExcludeST      bool    `query:"exclude_st" json:"exclude_st"`
	Codes          string  `query:"codes" json:"codes"`
	Limit          int     `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=1000"`
}

// Criteria converts the request into filter thresholds.
func (r *ScreenRequest) Criteria() FilterCriteria {
	return FilterCriteria{
		MinFloatCap:    r.MinFloatCap,
		MaxFloatCap:    r.MaxFloatCap,
		MinTurnover:    r.MinTurnover,
		MinChange:      r.MinChange,
		MaxChange:      r.MaxChange,
		MinVolumeRatio: r.MinVolumeRatio,
		ExcludeST:      r.ExcludeST,
		Codes:          SplitCodes(r.Codes),
		Limit:          r.Limit,
	}
}

type QuotesRequest struct {
	Codes string `query:"codes" json:"codes"`
}

type StockRequest struct {
	Code string `param:"code" json:"code" validate:"required,len=6,numeric"`
	Days int    `query:"days" json:"days" validate:"gte=0,lte=500"`
}

type SnapshotsRequest struct {
	Code  string `param:"code" json:"code" validate:"required,len=6,numeric"`
	Limit int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=5000"`
}

type SearchRequest struct {
	Q     string `query:"q" json:"q" validate:"required,max=32"`
	Limit int    `query:"limit" json:"limit" default:"10" validate:"gte=1,lte=100"`
}

// SplitCodes parses a free-text, comma or whitespace separated code list.
// Empty items and duplicates are dropped; order is kept.
func SplitCodes(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '，' || r == ';' || r == ' ' || r == '\t' || r == '\n'
	})
	if len(fields) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}
