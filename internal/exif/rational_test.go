package exif

import (
	"math"
	"testing"
)

func TestToRational(t *testing.T) {
	tests := []struct {
		name    string
		value   float64
		maxDen  int64
		wantNum int64
		wantDen int64
	}{
		{name: "zero", value: 0, maxDen: 1000, wantNum: 0, wantDen: 1},
		{name: "whole number", value: 54, maxDen: 1_000_000, wantNum: 54, wantDen: 1},
		{name: "exact half", value: 0.5, maxDen: 100, wantNum: 1, wantDen: 2},
		{name: "exact quarter", value: 0.25, maxDen: 100, wantNum: 1, wantDen: 4},
		{name: "negative", value: -0.5, maxDen: 10, wantNum: -1, wantDen: 2},
		{name: "pi classic convergent", value: math.Pi, maxDen: 1000, wantNum: 355, wantDen: 113},
		{name: "denominator bound of one", value: 51.9, maxDen: 1, wantNum: 52, wantDen: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			num, den := ToRational(tt.value, tt.maxDen)
			if num != tt.wantNum || den != tt.wantDen {
				t.Errorf("ToRational(%v, %d) = %d/%d, want %d/%d",
					tt.value, tt.maxDen, num, den, tt.wantNum, tt.wantDen)
			}
		})
	}
}

func TestToRationalRoundTripStable(t *testing.T) {
	// Re-encoding the value a rational decodes to must yield the same
	// rational again.
	values := []float64{0, 0.865, 33.865, 51.9, 54.0, 0.1278, 59.999999, math.Pi}
	for _, v := range values {
		num, den := ToRational(v, SecondsDenominator)
		back := float64(num) / float64(den)
		num2, den2 := ToRational(back, SecondsDenominator)
		if num != num2 || den != den2 {
			t.Errorf("ToRational(%v) = %d/%d but re-encoding %v gives %d/%d",
				v, num, den, back, num2, den2)
		}
	}
}

func TestToRationalNonFinite(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		num, den := ToRational(v, 1000)
		if den == 0 {
			t.Errorf("ToRational(%v) produced zero denominator %d/%d", v, num, den)
		}
	}
}

func TestDegreesToDMSZero(t *testing.T) {
	deg, min, sec := DegreesToDMS(0)
	for i, r := range []Rational{deg, min, sec} {
		if r.Num != 0 {
			t.Errorf("slot %d of DegreesToDMS(0) = %d/%d, want zero numerator", i, r.Num, r.Den)
		}
		if r.Den == 0 {
			t.Errorf("slot %d of DegreesToDMS(0) has zero denominator", i)
		}
	}
}

func TestDegreesToDMSSouthernLatitude(t *testing.T) {
	// -33.865: sign is the caller's problem; the decomposition is of the
	// absolute value. 0.865 deg = 51.9 min = 51 min 54 sec.
	deg, min, sec := DegreesToDMS(-33.865)

	if deg.Num != 33 || deg.Den != 1 {
		t.Errorf("degrees = %d/%d, want 33/1", deg.Num, deg.Den)
	}
	if min.Num != 51 || min.Den != 1 {
		t.Errorf("minutes = %d/%d, want 51/1", min.Num, min.Den)
	}
	if got := sec.Float(); math.Abs(got-54.0) > 1e-4 {
		t.Errorf("seconds = %v (%d/%d), want ~54", got, sec.Num, sec.Den)
	}
}

func TestDegreesToDMSRecombines(t *testing.T) {
	for _, dd := range []float64{51.5074, 0.1278, 33.865, 179.99999} {
		deg, min, sec := DegreesToDMS(dd)
		back := deg.Float() + min.Float()/60 + sec.Float()/3600
		if math.Abs(back-dd) > 1e-6 {
			t.Errorf("DMS of %v recombines to %v", dd, back)
		}
	}
}
