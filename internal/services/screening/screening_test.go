package screening

import (
	"testing"
	"time"

	"StockPulse/internal/domain/models"
)

func TestMatch_ThresholdExample(t *testing.T) {
	c := models.FilterCriteria{MinTurnover: 8, MinChange: 2, MaxChange: 8.5, MinVolumeRatio: 1.5}
	keep := models.Quote{Code: "600001", Name: "Alpha", TurnoverRate: 10, ChangePct: 5, VolumeRatio: 2}
	drop := models.Quote{Code: "600002", Name: "Beta", TurnoverRate: 3, ChangePct: 5, VolumeRatio: 2}

	if !Match(keep, c) {
		t.Fatal("turnover 10 / change 5 / vr 2 should pass")
	}
	if Match(drop, c) {
		t.Fatal("turnover 3 should be filtered")
	}
}

func TestMatch_Bounds(t *testing.T) {
	q := models.Quote{Code: "000001", Name: "*ST Foo", FloatMarketCap: 80e8, TurnoverRate: 9, ChangePct: 4, VolumeRatio: 2}
	tests := []struct {
		name string
		c    models.FilterCriteria
		want bool
	}{
		{"unbounded", models.FilterCriteria{}, true},
		{"cap inside", models.FilterCriteria{MinFloatCap: 50, MaxFloatCap: 200}, true},
		{"cap above max", models.FilterCriteria{MaxFloatCap: 60}, false},
		{"cap below min", models.FilterCriteria{MinFloatCap: 100}, false},
		{"exclude st", models.FilterCriteria{ExcludeST: true}, false},
		{"allow list hit", models.FilterCriteria{Codes: []string{"000001"}}, true},
		{"allow list miss", models.FilterCriteria{Codes: []string{"600000"}}, false},
		{"change above max", models.FilterCriteria{MaxChange: 3}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Match(q, tt.c); got != tt.want {
				t.Fatalf("Match = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		q    models.Quote
		want models.Morphology
	}{
		{"closes at high on strong day", models.Quote{Price: 10.5, High: 10.5, ChangePct: 5}, models.MorphologyStrongNoUpperShadow},
		{"at high but weak day", models.Quote{Price: 10.5, High: 10.5, ChangePct: 2, Amount: 1000, Volume: 100}, models.MorphologyAboveVWAP},
		{"long upper shadow", models.Quote{Price: 10, High: 10.3, ChangePct: 4}, models.MorphologyLongUpperShadow},
		{"above vwap", models.Quote{Price: 10.1, High: 10.15, Amount: 1000, Volume: 100}, models.MorphologyAboveVWAP},
		{"below vwap", models.Quote{Price: 9.9, High: 10.0, Amount: 1000, Volume: 100}, models.MorphologyBelowVWAP},
		{"no trades", models.Quote{Price: 9.9, High: 10.0}, models.MorphologyNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.q); got != tt.want {
				t.Fatalf("Classify = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestScore_Clipped(t *testing.T) {
	w := DefaultWeights()
	best := models.Quote{
		Price: 10, High: 10, ChangePct: 5, TurnoverRate: 10, VolumeRatio: 3.5,
		FloatMarketCap: 100e8, MarketCap: 100e8,
	}
	if got := Score(best, Classify(best), w); got != 99 {
		t.Fatalf("best score = %v, want 99", got)
	}

	worst := models.Quote{Price: 10, High: 10.5, ChangePct: 1}
	if got := Score(worst, Classify(worst), w); got != 0 {
		t.Fatalf("worst score = %v, want 0", got)
	}

	mid := models.Quote{Price: 10, High: 10.1, ChangePct: 1, TurnoverRate: 20, VolumeRatio: 2}
	// half turnover (10) + half vr (10) + neutral shape (5)
	if got := Score(mid, models.MorphologyNeutral, w); got != 25 {
		t.Fatalf("mid score = %v, want 25", got)
	}
}

func TestNewTradePlan(t *testing.T) {
	p := DefaultPlanParams()

	plan := NewTradePlan(10, p)
	if plan.Stop != 9.70 || plan.Target != 10.80 || plan.TakeProfit != 10.50 || plan.Entry != 10 {
		t.Fatalf("plan(10) = %+v", plan)
	}
	if plan.PositionPct != 33.33 {
		t.Fatalf("position = %v, want 33.33", plan.PositionPct)
	}

	plan = NewTradePlan(12.34, p)
	if plan.Stop != 11.97 || plan.Target != 13.33 {
		t.Fatalf("plan(12.34) = %+v", plan)
	}

	p.MaxPositions = 1
	if got := NewTradePlan(10, p).PositionPct; got != 50 {
		t.Fatalf("single position cap = %v, want 50", got)
	}
}

func TestScreen_SortsAndLimits(t *testing.T) {
	snap := models.Snapshot{
		FetchedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Quotes: []models.Quote{
			{Code: "000002", Name: "B", Price: 10, High: 10.1, ChangePct: 4, TurnoverRate: 9, VolumeRatio: 2, Amount: 1000, Volume: 100},
			{Code: "000001", Name: "A", Price: 10, High: 10, ChangePct: 5, TurnoverRate: 10, VolumeRatio: 3.5},
			{Code: "000003", Name: "C", Price: 10, High: 10.1, ChangePct: 4, TurnoverRate: 9, VolumeRatio: 2, Amount: 1000, Volume: 100},
			{Code: "000004", Name: "D", Price: 10, High: 10, ChangePct: 5, TurnoverRate: 1, VolumeRatio: 3.5},
		},
	}
	s := New(DefaultWeights(), DefaultPlanParams())

	res := s.Screen(snap, models.FilterCriteria{MinTurnover: 8, Limit: 2})
	if res.Scanned != 4 || res.Matched != 3 {
		t.Fatalf("scanned/matched = %d/%d", res.Scanned, res.Matched)
	}
	if len(res.Candidates) != 2 {
		t.Fatalf("limit not applied: %d", len(res.Candidates))
	}
	if res.Candidates[0].Code != "000001" || res.Candidates[1].Code != "000002" {
		t.Fatalf("order = %s, %s", res.Candidates[0].Code, res.Candidates[1].Code)
	}
	if !res.FetchedAt.Equal(snap.FetchedAt) {
		t.Fatal("fetched_at not carried")
	}
	if res.Candidates[1].VWAP != 10 {
		t.Fatalf("vwap = %v", res.Candidates[1].VWAP)
	}
}

func TestOr(t *testing.T) {
	hot := Or(MinTurnover(15), MinVolumeRatio(3))
	cases := []struct {
		q    models.Quote
		want bool
	}{
		{models.Quote{TurnoverRate: 16}, true},
		{models.Quote{VolumeRatio: 3.2}, true},
		{models.Quote{TurnoverRate: 9, VolumeRatio: 1.1}, false},
	}
	for i, tc := range cases {
		if got := hot(&tc.q); got != tc.want {
			t.Errorf("case %d: got %v, want %v", i, got, tc.want)
		}
	}
	if Or()(&models.Quote{}) {
		t.Error("empty Or should not pass")
	}
}
