package indicators

import (
	"math"
	"testing"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestSMA(t *testing.T) {
	got := SMA([]float64{1, 2, 3, 4, 5, 6}, 3)
	if !math.IsNaN(got[0]) || !math.IsNaN(got[1]) {
		t.Fatalf("warmup should be NaN: %v", got)
	}
	want := []float64{2, 3, 4, 5}
	for i, w := range want {
		if !approx(got[i+2], w) {
			t.Fatalf("sma[%d] = %v, want %v", i+2, got[i+2], w)
		}
	}
	if SMA([]float64{1}, 0) != nil {
		t.Fatal("p=0 should return nil")
	}
}

func TestBollinger(t *testing.T) {
	x := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	up, mid, lo := Bollinger(x, 8, 2)
	if !approx(mid[7], 5) {
		t.Fatalf("mid = %v", mid[7])
	}
	// sample std of x is sqrt(32/7)
	sd := math.Sqrt(32.0 / 7.0)
	if !approx(up[7], 5+2*sd) || !approx(lo[7], 5-2*sd) {
		t.Fatalf("bands = %v %v", up[7], lo[7])
	}
	if !math.IsNaN(up[6]) {
		t.Fatal("warmup band should be NaN")
	}
}

func TestATR(t *testing.T) {
	high := []float64{10, 11, 12, 11, 10}
	low := []float64{9, 10, 10, 9, 9}
	closes := []float64{9.5, 10.5, 11.5, 9.5, 9.8}
	// TR: 1 (no prev close), 1.5, 2, 2.5, 1
	tr := TrueRange(high, low, closes)
	for i, w := range []float64{1, 1.5, 2, 2.5, 1} {
		if !approx(tr[i], w) {
			t.Fatalf("tr[%d] = %v, want %v", i, tr[i], w)
		}
	}

	atr := ATR(high, low, closes, 3)
	for i := 0; i < 3; i++ {
		if !math.IsNaN(atr[i]) {
			t.Fatalf("warmup atr[%d] = %v", i, atr[i])
		}
	}
	if !approx(atr[3], 2) {
		t.Fatalf("seed = %v, want 2", atr[3])
	}
	if !approx(atr[4], (2*2+1)/3.0) {
		t.Fatalf("wilder step = %v", atr[4])
	}

	short := ATR(high[:3], low[:3], closes[:3], 3)
	if len(short) != 3 || !math.IsNaN(short[2]) {
		t.Fatalf("short input should be all NaN: %v", short)
	}
}

func TestShortInputs(t *testing.T) {
	if s := SMA([]float64{1, 2}, 5); len(s) != 2 || !math.IsNaN(s[1]) {
		t.Fatalf("sma = %v", s)
	}
	up, mid, lo := Bollinger([]float64{1, 2, 3}, 20, 2)
	if len(up) != 3 || !math.IsNaN(mid[2]) || !math.IsNaN(lo[0]) {
		t.Fatalf("bollinger = %v %v %v", up, mid, lo)
	}
}

func TestTrendHelpers(t *testing.T) {
	if !StrictlyIncreasing([]float64{9, 3, 4, 5}, 3) {
		t.Fatal("3,4,5 is increasing")
	}
	if StrictlyIncreasing([]float64{3, 4, 4}, 3) {
		t.Fatal("ties are not increasing")
	}
	if Rising([]float64{1, math.NaN()}) {
		t.Fatal("NaN is never rising")
	}
	if !Rising([]float64{1, 2}) {
		t.Fatal("1 -> 2 rises")
	}
}

func TestVWAPAndVolumeRatio(t *testing.T) {
	if !approx(SessionVWAP(1050, 100), 10.5) {
		t.Fatal("vwap")
	}
	if !math.IsNaN(SessionVWAP(0, 0)) {
		t.Fatal("no volume should be NaN")
	}
	if vr := VolumeRatio([]float64{10, 10, 10, 10, 10, 30}, 5); !approx(vr, 3) {
		t.Fatalf("volume ratio = %v", vr)
	}
	if VolumeRatio([]float64{1, 2}, 5) != 0 {
		t.Fatal("short input should be 0")
	}
}
