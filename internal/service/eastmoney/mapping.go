package eastmoney

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"StockPulse/internal/domain/models"
	drepo "StockPulse/internal/domain/repository"
	"StockPulse/pkg/util"
)

// Provider column codes for the clist endpoint.
const (
	fPrice       = "f2"
	fChangePct   = "f3"
	fChange      = "f4"
	fVolumeLots  = "f5"
	fAmount      = "f6"
	fAmplitude   = "f7"
	fTurnover    = "f8"
	fVolumeRatio = "f10"
	fCode        = "f12"
	fName        = "f14"
	fHigh        = "f15"
	fLow         = "f16"
	fOpen        = "f17"
	fPrevClose   = "f18"
	fMarketCap   = "f20"
	fFloatCap    = "f21"
)

// snapshotFields is the fields= list sent to the clist endpoint.
var snapshotFields = []string{
	fPrice, fChangePct, fChange, fVolumeLots, fAmount, fAmplitude, fTurnover, fVolumeRatio,
	fCode, fName, fHigh, fLow, fOpen, fPrevClose, fMarketCap, fFloatCap,
}

// requiredSnapshotFields must be present in every row; the rest default to zero.
var requiredSnapshotFields = []string{
	fPrice, fChangePct, fTurnover, fVolumeRatio, fCode, fName, fHigh, fFloatCap, fMarketCap,
}

// klineFields: date, open, close, high, low, volume (lots), amount, turnover.
const klineFields = "f51,f52,f53,f54,f55,f56,f57,f61"

const klineColumns = 8

type clistResponse struct {
	RC   int `json:"rc"`
	Data *struct {
		Total int                          `json:"total"`
		Diff  []map[string]json.RawMessage `json:"diff"`
	} `json:"data"`
}

type klineResponse struct {
	RC   int `json:"rc"`
	Data *struct {
		Code   string   `json:"code"`
		Name   string   `json:"name"`
		Klines []string `json:"klines"`
	} `json:"data"`
}

// checkRow reports the required columns absent from row.
func checkRow(row map[string]json.RawMessage) []string {
	var missing []string
	for _, f := range requiredSnapshotFields {
		if _, ok := row[f]; !ok {
			missing = append(missing, f)
		}
	}
	sort.Strings(missing)
	return missing
}

// cellFloat reads a numeric cell. With fltt=2 the provider sends numbers,
// or the string "-" when there is no value.
func cellFloat(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return util.ParseFloat(s)
	}
	return 0, false
}

func cellString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return strings.Trim(string(raw), `" `)
}

// toQuote maps one provider row. ok is false for suspended instruments.
func toQuote(row map[string]json.RawMessage) (models.Quote, bool) {
	price, ok := cellFloat(row[fPrice])
	if !ok || price <= 0 {
		return models.Quote{}, false
	}
	num := func(f string) float64 {
		v, _ := cellFloat(row[f])
		return v
	}
	return models.Quote{
		Code:           cellString(row[fCode]),
		Name:           cellString(row[fName]),
		Price:          price,
		ChangePct:      num(fChangePct),
		Change:         num(fChange),
		TurnoverRate:   num(fTurnover),
		VolumeRatio:    num(fVolumeRatio),
		MarketCap:      num(fMarketCap),
		FloatMarketCap: num(fFloatCap),
		High:           num(fHigh),
		Low:            num(fLow),
		Open:           num(fOpen),
		PrevClose:      num(fPrevClose),
		Volume:         num(fVolumeLots) * 100,
		Amount:         num(fAmount),
		Amplitude:      num(fAmplitude),
	}, true
}

// parseKline parses "2024-03-01,open,close,high,low,lots,amount,turnover".
// klineNames labels the numeric kline columns after the date.
var klineNames = [...]string{"open", "close", "high", "low", "volume", "amount", "turnover"}

func parseKline(line string, loc *time.Location) (models.Bar, error) {
	parts := strings.Split(line, ",")
	if len(parts) < klineColumns {
		return models.Bar{}, &drepo.SchemaError{
			Endpoint: "kline",
			Missing:  []string{fmt.Sprintf("columns %d..%d", len(parts)+1, klineColumns)},
		}
	}
	date, err := util.ParseDate(parts[0], loc)
	if err != nil {
		return models.Bar{}, fmt.Errorf("kline date %q: %w", parts[0], err)
	}
	vals := make([]float64, klineColumns-1)
	var bad []string
	for i := range vals {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[i+1]), 64)
		if err != nil {
			bad = append(bad, fmt.Sprintf("%s=%q", klineNames[i], parts[i+1]))
			continue
		}
		vals[i] = v
	}
	if len(bad) > 0 {
		return models.Bar{}, &drepo.SchemaError{Endpoint: "kline " + parts[0], Missing: bad}
	}
	return models.Bar{
		Date:     date,
		Open:     vals[0],
		Close:    vals[1],
		High:     vals[2],
		Low:      vals[3],
		Volume:   vals[4] * 100,
		Amount:   vals[5],
		Turnover: vals[6],
	}, nil
}
